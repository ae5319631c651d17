package agentscript

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Agent Script is an indentation-based DSL, not YAML. Parsing is a
// single pass over significant lines through a block state machine:
// each line is tried against ruleTable in order and the first rule
// that consumes it wins. Lines no rule consumes are skipped, so a
// malformed line never aborts the parse.

// blockState identifies which block the parser is currently inside.
type blockState int

const (
	stateNone blockState = iota
	stateConfig
	stateTopic
	stateTopicActions
	stateReasoning
	stateReasoningActions
)

func (s blockState) String() string {
	switch s {
	case stateNone:
		return "none"
	case stateConfig:
		return "config"
	case stateTopic:
		return "topic"
	case stateTopicActions:
		return "topic_actions"
	case stateReasoning:
		return "reasoning"
	case stateReasoningActions:
		return "reasoning_actions"
	}
	return fmt.Sprintf("blockState(%d)", int(s))
}

// line is one significant source line: its nesting depth and its
// whitespace-trimmed text.
type line struct {
	depth int
	text  string
}

// actionRef addresses an open action by topic and action index so the
// reference stays valid however the topic slice grows. A start_agent
// header does not close an open action, so the open action can belong
// to an earlier topic than the open one.
type actionRef struct {
	topic, action int
}

var noAction = actionRef{-1, -1}

type parser struct {
	doc        *Structure
	state      blockState
	entryDepth int       // depth at which the current block header appeared
	topic      int       // index into doc.Topics, -1 when none open
	action     actionRef // open action, noAction when none
}

// rule is one row of the transition table. apply reports whether the
// line was consumed; evaluation stops at the first consuming rule.
type rule struct {
	name  string
	apply func(p *parser, ln line) bool
}

// ruleTable is evaluated in order for every significant line. The
// order is load-bearing: block headers outrank field bindings, and a
// topic header anywhere closes whatever block was open.
var ruleTable = []rule{
	{"config-header", openConfig},
	{"config-field", bindConfigField},
	{"start-agent-header", openStartTopic},
	{"topic-header", openTopic},
	{"topic-field", bindTopicField},
	{"action-line", handleActionLine},
	{"reasoning-actions-header", openReasoningActions},
	{"transition", captureTransition},
}

// Parse extracts the agent structure from Agent Script source. It
// never fails: unrecognized content parses to an empty Structure.
func Parse(src []byte) *Structure {
	doc := &Structure{}
	p := &parser{doc: doc, state: stateNone, topic: -1, action: noAction}
	for _, ln := range tokenize(src) {
		p.step(ln)
	}
	return doc
}

// ParseFile reads and parses one .agent file.
func ParseFile(path string) (*Structure, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read agent file: %w", err)
	}
	return Parse(data), nil
}

func (p *parser) step(ln line) {
	for _, r := range ruleTable {
		if r.apply(p, ln) {
			return
		}
	}
}

func (p *parser) openActionPtr() *Action {
	if p.action.topic < 0 || p.action.action < 0 {
		return nil
	}
	return &p.doc.Topics[p.action.topic].Actions[p.action.action]
}

// tokenize splits source into significant lines. Blank lines and
// comment lines are dropped before the state machine ever sees them.
func tokenize(src []byte) []line {
	norm := strings.ReplaceAll(string(src), "\r\n", "\n")
	var out []line
	for _, raw := range strings.Split(norm, "\n") {
		text := strings.TrimSpace(raw)
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		out = append(out, line{depth: depthOf(raw), text: text})
	}
	return out
}

// depthOf maps leading whitespace to a nesting depth. A tab anywhere
// in the prefix switches the line to tab counting (one level per tab);
// otherwise two spaces make one level.
func depthOf(raw string) int {
	ws := raw[:len(raw)-len(strings.TrimLeft(raw, " \t"))]
	if strings.Contains(ws, "\t") {
		return strings.Count(ws, "\t")
	}
	return len(ws) / 2
}

// extractValue splits a "key: value" line at the first colon, trims
// the value and strips one pair of matching quotes.
func extractValue(text string) string {
	_, v, ok := strings.Cut(text, ":")
	if !ok {
		return ""
	}
	v = strings.TrimSpace(v)
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			v = v[1 : len(v)-1]
		}
	}
	return v
}

var (
	startAgentRe = regexp.MustCompile(`^start_agent\s+(\w+):`)
	topicRe      = regexp.MustCompile(`^topic\s+(\w+):`)
	actionNameRe = regexp.MustCompile(`^(\w+):`)
	ioFieldRe    = regexp.MustCompile(`^(inp_\w+|out_\w+):`)
	transitionRe = regexp.MustCompile(`@utils\.transition\s+to\s+@topic\.(\w+)`)
)

// reservedPrefixes are keywords that can never open an action.
var reservedPrefixes = []string{
	"description:", "inputs:", "outputs:", "target:", "inp_", "out_",
	"reasoning:", "instructions:", "actions:", "label:",
}

func startsWithReserved(text string) bool {
	for _, kw := range reservedPrefixes {
		if strings.HasPrefix(text, kw) {
			return true
		}
	}
	return false
}

func openConfig(p *parser, ln line) bool {
	if !strings.HasPrefix(ln.text, "config:") {
		return false
	}
	p.state = stateConfig
	p.entryDepth = ln.depth
	return true
}

func bindConfigField(p *parser, ln line) bool {
	if p.state != stateConfig || ln.depth <= p.entryDepth {
		return false
	}
	switch {
	case strings.HasPrefix(ln.text, "agent_name:"):
		p.doc.AgentName = extractValue(ln.text)
	case strings.HasPrefix(ln.text, "agent_label:"):
		p.doc.AgentLabel = extractValue(ln.text)
	case strings.HasPrefix(ln.text, "description:"):
		p.doc.Description = extractValue(ln.text)
	default:
		return false
	}
	return true
}

func openStartTopic(p *parser, ln line) bool {
	if !strings.HasPrefix(ln.text, "start_agent ") {
		return false
	}
	m := startAgentRe.FindStringSubmatch(ln.text)
	if m == nil {
		return false
	}
	p.doc.Topics = append(p.doc.Topics, Topic{Name: m[1], IsStart: true})
	p.topic = len(p.doc.Topics) - 1
	p.state = stateTopic
	p.entryDepth = ln.depth
	return true
}

func openTopic(p *parser, ln line) bool {
	if !strings.HasPrefix(ln.text, "topic ") || !strings.Contains(ln.text, ":") {
		return false
	}
	m := topicRe.FindStringSubmatch(ln.text)
	if m == nil {
		return false
	}
	p.doc.Topics = append(p.doc.Topics, Topic{Name: m[1]})
	p.topic = len(p.doc.Topics) - 1
	p.state = stateTopic
	p.entryDepth = ln.depth
	p.action = noAction
	return true
}

func bindTopicField(p *parser, ln line) bool {
	if p.state != stateTopic || p.topic < 0 {
		return false
	}
	switch {
	case strings.HasPrefix(ln.text, "label:"):
		p.doc.Topics[p.topic].Label = extractValue(ln.text)
	case strings.HasPrefix(ln.text, "description:"):
		// Binds to the innermost open entity.
		if a := p.openActionPtr(); a != nil {
			a.Description = extractValue(ln.text)
		} else {
			p.doc.Topics[p.topic].Description = extractValue(ln.text)
		}
	case strings.HasPrefix(ln.text, "actions:") && ln.depth == p.entryDepth+1:
		p.state = stateTopicActions
	case strings.HasPrefix(ln.text, "reasoning:"):
		p.state = stateReasoning
	default:
		return false
	}
	return true
}

func handleActionLine(p *parser, ln line) bool {
	if p.state != stateTopicActions || p.topic < 0 {
		return false
	}
	if strings.Contains(ln.text, ":") && !startsWithReserved(ln.text) {
		if m := actionNameRe.FindStringSubmatch(ln.text); m != nil {
			// @utils / @topic references are control flow, not actions.
			if strings.Contains(ln.text, "@utils") || strings.Contains(ln.text, "@topic") {
				return true
			}
			t := &p.doc.Topics[p.topic]
			t.Actions = append(t.Actions, Action{Name: m[1]})
			p.action = actionRef{topic: p.topic, action: len(t.Actions) - 1}
			return true
		}
	}
	if strings.HasPrefix(ln.text, "reasoning:") {
		p.state = stateReasoning
		p.action = noAction
		return true
	}
	a := p.openActionPtr()
	if a == nil {
		return false
	}
	switch {
	case strings.HasPrefix(ln.text, "description:"):
		a.Description = extractValue(ln.text)
	case strings.HasPrefix(ln.text, "target:"):
		a.Target = extractValue(ln.text)
	case strings.HasPrefix(ln.text, "inputs:"), strings.HasPrefix(ln.text, "outputs:"):
		// Headers only; the inp_/out_ lines below them carry the names.
	case strings.HasPrefix(ln.text, "inp_"), strings.HasPrefix(ln.text, "out_"):
		if m := ioFieldRe.FindStringSubmatch(ln.text); m != nil {
			if strings.HasPrefix(m[1], "inp_") {
				a.Inputs = append(a.Inputs, Field{Name: m[1]})
			} else {
				a.Outputs = append(a.Outputs, Field{Name: m[1]})
			}
		}
	default:
		return false
	}
	return true
}

func openReasoningActions(p *parser, ln line) bool {
	if p.state != stateReasoning || p.topic < 0 {
		return false
	}
	if !strings.HasPrefix(ln.text, "actions:") {
		return false
	}
	p.state = stateReasoningActions
	return true
}

func captureTransition(p *parser, ln line) bool {
	if p.state != stateReasoningActions || p.topic < 0 {
		return false
	}
	m := transitionRe.FindStringSubmatch(ln.text)
	if m == nil {
		return false
	}
	t := &p.doc.Topics[p.topic]
	t.Transitions = append(t.Transitions, m[1])
	return true
}
