package synth

import (
	"strings"

	"github.com/mpataki/agentprobe/internal/agentscript"
	"github.com/mpataki/agentprobe/internal/testspec"
)

// FlowTargetPrefix marks actions backed by an external flow
// implementation. Only those actions get invocation test cases.
const FlowTargetPrefix = "flow://"

// DefaultRouterName is the expected topic for edge cases when no
// start_agent topic exists.
const DefaultRouterName = "topic_selector"

var edgeUtterances = [2]string{
	"What's the weather today?",
	"Tell me a joke",
}

// Overrides supplies custom utterances ahead of the built-in tables.
// Implementations report false to fall through to the defaults.
type Overrides interface {
	TopicUtterance(t *agentscript.Topic) (string, bool)
	ActionUtterance(a *agentscript.Action, t *agentscript.Topic) (string, bool)
}

// Generator synthesizes test cases for one parsed agent. The zero
// value uses the built-in utterance tables.
type Generator struct {
	Overrides Overrides
}

// Cases builds the scenario list in fixed order: routing probes for
// every non-start topic, invocation probes for every flow-backed
// action (topics then their actions, declaration order), then two
// off-domain probes that must stay with the router.
func (g *Generator) Cases(s *agentscript.Structure) []testspec.TestCase {
	routerName := DefaultRouterName
	if start := s.StartTopic(); start != nil {
		routerName = start.Name
	}

	var cases []testspec.TestCase

	for i := range s.Topics {
		t := &s.Topics[i]
		if t.IsStart {
			continue
		}
		cases = append(cases, testspec.TestCase{
			Utterance: g.topicUtterance(t),
			Expectation: testspec.Expectation{
				Topic:          t.Name,
				ActionSequence: []string{},
			},
		})
	}

	for i := range s.Topics {
		t := &s.Topics[i]
		for j := range t.Actions {
			a := &t.Actions[j]
			if !strings.HasPrefix(a.Target, FlowTargetPrefix) {
				continue
			}
			cases = append(cases, testspec.TestCase{
				Utterance: g.actionUtterance(a, t),
				Expectation: testspec.Expectation{
					Topic:          t.Name,
					ActionSequence: []string{a.Name},
				},
			})
		}
	}

	for _, u := range edgeUtterances {
		cases = append(cases, testspec.TestCase{
			Utterance: u,
			Expectation: testspec.Expectation{
				Topic:          routerName,
				ActionSequence: []string{},
			},
		})
	}

	return cases
}

// Document wraps the synthesized cases as a complete test spec.
func (g *Generator) Document(s *agentscript.Structure, subjectName string) *testspec.Document {
	return &testspec.Document{
		SubjectType: testspec.SubjectTypeAgent,
		SubjectName: subjectName,
		TestCases:   g.Cases(s),
	}
}

func (g *Generator) topicUtterance(t *agentscript.Topic) string {
	if g.Overrides != nil {
		if u, ok := g.Overrides.TopicUtterance(t); ok {
			return u
		}
	}
	return TopicUtterance(t)
}

func (g *Generator) actionUtterance(a *agentscript.Action, t *agentscript.Topic) string {
	if g.Overrides != nil {
		if u, ok := g.Overrides.ActionUtterance(a, t); ok {
			return u
		}
	}
	return ActionUtterance(a, t)
}
