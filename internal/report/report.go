package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mpataki/agentprobe/internal/agentscript"
	"github.com/mpataki/agentprobe/internal/sforce"
	"github.com/mpataki/agentprobe/internal/testspec"
)

const ruleWidth = 65

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	passStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	failStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

// Banner prints a step header framed by = rules.
func Banner(w io.Writer, title string) {
	rule := strings.Repeat("=", ruleWidth)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, titleStyle.Render(title))
	fmt.Fprintln(w, rule)
}

func subRule(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("-", ruleWidth))
}

// GenerationSummary prints the verbose breakdown of a parsed agent and
// the cases synthesized from it.
func GenerationSummary(w io.Writer, s *agentscript.Structure, cases []testspec.TestCase) {
	Banner(w, "TEST SPEC GENERATION SUMMARY")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Agent Name: %s\n", s.AgentName)
	fmt.Fprintf(w, "Agent Label: %s\n", s.AgentLabel)
	fmt.Fprintf(w, "Topics Found: %d\n", len(s.Topics))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "TOPICS")
	subRule(w)
	for i := range s.Topics {
		t := &s.Topics[i]
		marker := "       "
		if t.IsStart {
			marker = warnStyle.Render("[START]")
		}
		fmt.Fprintf(w, "  %s %s\n", marker, t.Name)
		fmt.Fprintf(w, "           Label: %s\n", t.Label)
		fmt.Fprintf(w, "           Actions: %d\n", len(t.Actions))
		for j := range t.Actions {
			a := &t.Actions[j]
			fmt.Fprintf(w, "              - %s -> %s\n", a.Name, targetShort(a.Target))
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "TEST CASES GENERATED")
	subRule(w)
	var topicTests, actionTests int
	for _, tc := range cases {
		if len(tc.Expectation.ActionSequence) == 0 {
			topicTests++
		} else {
			actionTests++
		}
	}
	fmt.Fprintf(w, "  Topic Routing Tests: %d\n", topicTests)
	fmt.Fprintf(w, "  Action Invocation Tests: %d\n", actionTests)
	fmt.Fprintf(w, "  Total: %d\n", len(cases))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "TEST CASES")
	subRule(w)
	for i, tc := range cases {
		expected := tc.Expectation.Topic
		if len(tc.Expectation.ActionSequence) > 0 {
			expected += fmt.Sprintf(" -> %v", tc.Expectation.ActionSequence)
		}
		fmt.Fprintf(w, "  %d. %q\n", i+1, clip(tc.Utterance, 50))
		fmt.Fprintf(w, "     Expected: %s\n", expected)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", ruleWidth))
}

// TransitionWarnings flags reasoning transitions that point at topics
// the file never declares. The generated spec still includes them as
// expectations, so the org run will surface the mismatch.
func TransitionWarnings(w io.Writer, s *agentscript.Structure) {
	for _, name := range s.UnresolvedTransitions() {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("Warning: transition targets undeclared topic %q", name)))
	}
}

// ResultSummary prints the pass/fail counts and per-failure detail for
// a completed org run.
func ResultSummary(w io.Writer, sum *sforce.Summary) {
	fmt.Fprintln(w)
	verdict := passStyle.Render("PASS")
	if sum.Failed > 0 {
		verdict = failStyle.Render("FAIL")
	}
	fmt.Fprintf(w, "   %s: %d/%d tests passed\n", verdict, sum.Passed, sum.Total)
	fmt.Fprintln(w)

	failures := sum.Failures()
	if len(failures) == 0 {
		return
	}
	fmt.Fprintln(w, "   FAILURES:")
	fmt.Fprintln(w, "   "+strings.Repeat("-", 60))
	for i, f := range failures {
		fmt.Fprintf(w, "   %d. %s\n", i+1, f.Name)
		if f.Utterance != "" {
			fmt.Fprintf(w, "      Utterance: %q\n", clip(f.Utterance, 60))
		}
		if f.ExpectedTopic != "" && f.ActualTopic != "" {
			fmt.Fprintf(w, "      Expected topic: %s\n", f.ExpectedTopic)
			fmt.Fprintf(w, "      Actual topic: %s\n", f.ActualTopic)
		}
		if f.Message != "" {
			fmt.Fprintf(w, "      Error: %s\n", clip(f.Message, 80))
		}
		fmt.Fprintln(w)
	}
}

// FixSuggestions turns failures into actionable edit prompts, grouped
// by whether the miss was routing or action invocation. Output is
// phrased so it can be pasted straight into an editing session.
func FixSuggestions(w io.Writer, sum *sforce.Summary, agentName string) {
	if sum.Failed == 0 {
		rule := strings.Repeat("=", ruleWidth)
		fmt.Fprintln(w)
		fmt.Fprintln(w, rule)
		fmt.Fprintln(w, passStyle.Render("ALL TESTS PASSED!"))
		fmt.Fprintln(w, rule)
		return
	}

	var topicFixes, actionFixes []sforce.CaseResult
	for _, f := range sum.Failures() {
		if len(f.ExpectedActions) > 0 && len(f.ActualActions) == 0 {
			actionFixes = append(actionFixes, f)
		} else {
			topicFixes = append(topicFixes, f)
		}
	}

	fmt.Fprintln(w)
	Banner(w, "AGENTIC FIX SUGGESTIONS")
	fmt.Fprintln(w)

	if len(topicFixes) > 0 {
		fmt.Fprintln(w, "TOPIC ROUTING FIXES:")
		subRule(w)
		fmt.Fprintln(w, "   The agent is routing utterances to wrong topics.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "   Suggested fix: Improve topic descriptions and scope.")
		fmt.Fprintln(w)
		fmt.Fprintf(w, "   Fix topic routing for %s:\n", agentName)
		for _, f := range capped(topicFixes, 3) {
			fmt.Fprintf(w, "     - Utterance '%s...' should route to %s\n", prefix(f.Utterance, 40), f.ExpectedTopic)
		}
		fmt.Fprintln(w)
	}

	if len(actionFixes) > 0 {
		fmt.Fprintln(w, "ACTION INVOCATION FIXES:")
		subRule(w)
		fmt.Fprintln(w, "   Expected actions were not invoked.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "   Suggested fix: Check action descriptions and trigger conditions.")
		fmt.Fprintln(w)
		fmt.Fprintf(w, "   Fix action triggers for %s:\n", agentName)
		for _, f := range capped(actionFixes, 3) {
			actions := "actions"
			if len(f.ExpectedActions) > 0 {
				actions = strings.Join(f.ExpectedActions, ", ")
			}
			fmt.Fprintf(w, "     - Utterance should trigger %s\n", actions)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "NEXT STEPS:")
	subRule(w)
	fmt.Fprintln(w, "   1. Apply the suggested fixes to the agent script")
	fmt.Fprintf(w, "   2. Re-validate: sf agent validate authoring-bundle --api-name %s\n", agentName)
	fmt.Fprintln(w, "   3. Re-deploy: sf project deploy start --source-dir <agent-dir>")
	fmt.Fprintf(w, "   4. Re-run tests: agentprobe run --agent-name %s --target-org <org>\n", agentName)
	fmt.Fprintln(w)
}

// GenerateNextSteps prints the manual sf commands to take a freshly
// written spec through the org.
func GenerateNextSteps(w io.Writer, outputPath, agentName string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Next steps:")
	fmt.Fprintf(w, "  1. Review: cat %s\n", outputPath)
	fmt.Fprintf(w, "  2. Create test: sf agent test create --spec %s --api-name %s_Tests --target-org [alias]\n", outputPath, agentName)
	fmt.Fprintf(w, "  3. Run tests: sf agent test run --api-name %s_Tests --wait 10 --result-format json --target-org [alias]\n", agentName)
}

// Hint prints a dimmed informational line.
func Hint(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf(format, args...)))
}

func targetShort(target string) string {
	if target == "" {
		return "N/A"
	}
	parts := strings.Split(target, "://")
	return parts[len(parts)-1]
}

// clip shortens s to at most n runes, marking the cut with an ellipsis.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// prefix is the raw first n runes with no ellipsis of its own.
func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func capped(fs []sforce.CaseResult, n int) []sforce.CaseResult {
	if len(fs) > n {
		return fs[:n]
	}
	return fs
}
