package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mpataki/agentprobe/internal/agentscript"
	"github.com/mpataki/agentprobe/internal/sforce"
	"github.com/mpataki/agentprobe/internal/testspec"
)

func sampleStructure() *agentscript.Structure {
	return &agentscript.Structure{
		AgentName:  "CustomerAgent",
		AgentLabel: "Customer Agent",
		Topics: []agentscript.Topic{
			{Name: "Router", Label: "Router", IsStart: true},
			{
				Name:  "Orders",
				Label: "Order Management",
				Actions: []agentscript.Action{
					{Name: "check_status", Target: "flow://CheckOrderStatus"},
					{Name: "escalate"},
				},
			},
		},
	}
}

func TestGenerationSummary(t *testing.T) {
	cases := []testspec.TestCase{
		{
			Utterance:   "I want to check my order status",
			Expectation: testspec.Expectation{Topic: "Orders", ActionSequence: []string{}},
		},
		{
			Utterance:   "What's the status of my order?",
			Expectation: testspec.Expectation{Topic: "Orders", ActionSequence: []string{"check_status"}},
		},
		{
			Utterance:   strings.Repeat("x", 60),
			Expectation: testspec.Expectation{Topic: "Router", ActionSequence: []string{}},
		},
	}

	var buf bytes.Buffer
	GenerationSummary(&buf, sampleStructure(), cases)
	out := buf.String()

	for _, want := range []string{
		"TEST SPEC GENERATION SUMMARY",
		"Agent Name: CustomerAgent",
		"Agent Label: Customer Agent",
		"Topics Found: 2",
		"[START]",
		"Actions: 2",
		"- check_status -> CheckOrderStatus",
		"- escalate -> N/A",
		"Topic Routing Tests: 2",
		"Action Invocation Tests: 1",
		"Total: 3",
		"Expected: Orders -> [check_status]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q\n%s", want, out)
		}
	}
	if !strings.Contains(out, strings.Repeat("x", 50)+"...") {
		t.Error("long utterance not clipped at 50")
	}
	if strings.Contains(out, strings.Repeat("x", 51)) {
		t.Error("clipped utterance still longer than 50")
	}
}

func TestResultSummary(t *testing.T) {
	sum := &sforce.Summary{
		Passed: 1,
		Failed: 2,
		Total:  3,
		Cases: []sforce.CaseResult{
			{Name: "ok", Passed: true},
			{
				Name:          "wrong_topic",
				Utterance:     strings.Repeat("u", 70),
				ExpectedTopic: "Orders",
				ActualTopic:   "Billing",
			},
			{
				Name:    "errored",
				Message: strings.Repeat("e", 90),
			},
		},
	}

	var buf bytes.Buffer
	ResultSummary(&buf, sum)
	out := buf.String()

	if !strings.Contains(out, "1/3 tests passed") {
		t.Errorf("missing pass count\n%s", out)
	}
	if !strings.Contains(out, "FAILURES:") {
		t.Error("missing failures header")
	}
	if !strings.Contains(out, "Expected topic: Orders") || !strings.Contains(out, "Actual topic: Billing") {
		t.Error("missing topic mismatch detail")
	}
	if !strings.Contains(out, strings.Repeat("u", 60)+"...") {
		t.Error("utterance not clipped at 60")
	}
	if !strings.Contains(out, strings.Repeat("e", 80)+"...") {
		t.Error("error not clipped at 80")
	}
}

func TestResultSummaryAllPassedShowsNoFailures(t *testing.T) {
	sum := &sforce.Summary{
		Passed: 2,
		Total:  2,
		Cases:  []sforce.CaseResult{{Name: "a", Passed: true}, {Name: "b", Passed: true}},
	}

	var buf bytes.Buffer
	ResultSummary(&buf, sum)
	if strings.Contains(buf.String(), "FAILURES:") {
		t.Error("failures section printed for a clean run")
	}
}

func TestFixSuggestionsAllPassed(t *testing.T) {
	var buf bytes.Buffer
	FixSuggestions(&buf, &sforce.Summary{Passed: 4, Total: 4}, "CustomerAgent")
	if !strings.Contains(buf.String(), "ALL TESTS PASSED!") {
		t.Errorf("missing success banner\n%s", buf.String())
	}
}

func TestFixSuggestionsCategorizes(t *testing.T) {
	sum := &sforce.Summary{
		Failed: 2,
		Total:  2,
		Cases: []sforce.CaseResult{
			{
				Name:            "missed_action",
				Utterance:       "What's the status of my order?",
				ExpectedActions: []string{"check_status"},
				ActualActions:   []string{},
			},
			{
				Name:          "missed_topic",
				Utterance:     "I have a question about my bill",
				ExpectedTopic: "Billing",
				ActualTopic:   "Orders",
			},
		},
	}

	var buf bytes.Buffer
	FixSuggestions(&buf, sum, "CustomerAgent")
	out := buf.String()

	for _, want := range []string{
		"TOPIC ROUTING FIXES:",
		"ACTION INVOCATION FIXES:",
		"Fix topic routing for CustomerAgent:",
		"should route to Billing",
		"Fix action triggers for CustomerAgent:",
		"should trigger check_status",
		"NEXT STEPS:",
		"sf agent validate authoring-bundle --api-name CustomerAgent",
		"agentprobe run --agent-name CustomerAgent",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("suggestions missing %q\n%s", want, out)
		}
	}
}

func TestFixSuggestionsCapsAtThree(t *testing.T) {
	sum := &sforce.Summary{Failed: 5, Total: 5}
	for i := 0; i < 5; i++ {
		sum.Cases = append(sum.Cases, sforce.CaseResult{
			Name:          "f",
			Utterance:     "something off topic",
			ExpectedTopic: "Orders",
			ActualTopic:   "Billing",
		})
	}

	var buf bytes.Buffer
	FixSuggestions(&buf, sum, "A")
	if got := strings.Count(buf.String(), "should route to"); got != 3 {
		t.Errorf("listed %d topic fixes, want 3", got)
	}
}

func TestTransitionWarnings(t *testing.T) {
	s := &agentscript.Structure{
		Topics: []agentscript.Topic{
			{Name: "Router", IsStart: true, Transitions: []string{"Ghost", "Orders"}},
			{Name: "Orders"},
		},
	}

	var buf bytes.Buffer
	TransitionWarnings(&buf, s)
	out := buf.String()

	if !strings.Contains(out, `undeclared topic "Ghost"`) {
		t.Errorf("missing ghost warning\n%s", out)
	}
	if strings.Contains(out, `"Orders"`) {
		t.Error("declared topic flagged")
	}
}

func TestGenerateNextSteps(t *testing.T) {
	var buf bytes.Buffer
	GenerateNextSteps(&buf, "specs/A-testSpec.yaml", "A")
	out := buf.String()

	if !strings.Contains(out, "sf agent test create --spec specs/A-testSpec.yaml --api-name A_Tests") {
		t.Errorf("missing create step\n%s", out)
	}
	if !strings.Contains(out, "sf agent test run --api-name A_Tests --wait 10") {
		t.Errorf("missing run step\n%s", out)
	}
}

func TestTargetShort(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"flow://CheckOrderStatus", "CheckOrderStatus"},
		{"apex://EscalateCase", "EscalateCase"},
		{"CheckOrderStatus", "CheckOrderStatus"},
		{"", "N/A"},
	}
	for _, tt := range tests {
		if got := targetShort(tt.target); got != tt.want {
			t.Errorf("targetShort(%q) = %q, want %q", tt.target, got, tt.want)
		}
	}
}

func TestClip(t *testing.T) {
	if got := clip("short", 50); got != "short" {
		t.Errorf("clip left short string as %q", got)
	}
	if got := clip(strings.Repeat("a", 51), 50); got != strings.Repeat("a", 50)+"..." {
		t.Errorf("clip = %q", got)
	}
	if got := prefix("tiny", 40); got != "tiny" {
		t.Errorf("prefix = %q", got)
	}
}
