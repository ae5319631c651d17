package synth

import (
	"reflect"
	"testing"

	"github.com/mpataki/agentprobe/internal/agentscript"
	"github.com/mpataki/agentprobe/internal/testspec"
)

func TestCasesRouterOrdersScenario(t *testing.T) {
	src := `start_agent Router:

topic Orders:
  label: "Order Status"
  actions:
    check_status:
      description: "get order status"
      target: flow://CheckOrder
`
	s := agentscript.Parse([]byte(src))
	g := &Generator{}
	cases := g.Cases(s)

	want := []testspec.TestCase{
		{Utterance: "I want to check my order status", Expectation: testspec.Expectation{Topic: "Orders", ActionSequence: []string{}}},
		{Utterance: "What's the status of my order?", Expectation: testspec.Expectation{Topic: "Orders", ActionSequence: []string{"check_status"}}},
		{Utterance: "What's the weather today?", Expectation: testspec.Expectation{Topic: "Router", ActionSequence: []string{}}},
		{Utterance: "Tell me a joke", Expectation: testspec.Expectation{Topic: "Router", ActionSequence: []string{}}},
	}
	if !reflect.DeepEqual(cases, want) {
		t.Errorf("cases = %+v\nwant %+v", cases, want)
	}
}

func TestCasesActionEligibility(t *testing.T) {
	s := &agentscript.Structure{
		Topics: []agentscript.Topic{
			{
				Name:    "Router",
				IsStart: true,
				Actions: []agentscript.Action{
					{Name: "route_probe", Target: "flow://RouteProbe"},
				},
			},
			{
				Name: "Orders",
				Actions: []agentscript.Action{
					{Name: "flow_backed", Target: "flow://CheckOrder"},
					{Name: "apex_backed", Target: "apex://Escalate"},
					{Name: "no_target"},
				},
			},
		},
	}
	cases := (&Generator{}).Cases(s)

	var invoked []string
	for _, tc := range cases {
		if len(tc.Expectation.ActionSequence) > 0 {
			invoked = append(invoked, tc.Expectation.ActionSequence[0])
		}
	}
	// Start topics are skipped for routing but their flow actions are
	// still exercised.
	want := []string{"route_probe", "flow_backed"}
	if !reflect.DeepEqual(invoked, want) {
		t.Errorf("invoked actions = %v, want %v", invoked, want)
	}
}

func TestCasesOrdering(t *testing.T) {
	s := &agentscript.Structure{
		Topics: []agentscript.Topic{
			{Name: "Router", IsStart: true},
			{Name: "Alpha", Actions: []agentscript.Action{
				{Name: "a_one", Target: "flow://AOne"},
				{Name: "a_two", Target: "flow://ATwo"},
			}},
			{Name: "Beta", Actions: []agentscript.Action{
				{Name: "b_one", Target: "flow://BOne"},
			}},
		},
	}
	cases := (&Generator{}).Cases(s)
	if len(cases) != 2+3+2 {
		t.Fatalf("got %d cases, want 7", len(cases))
	}

	type slot struct {
		topic   string
		actions int
	}
	var got []slot
	for _, tc := range cases {
		got = append(got, slot{tc.Expectation.Topic, len(tc.Expectation.ActionSequence)})
	}
	want := []slot{
		{"Alpha", 0}, {"Beta", 0},
		{"Alpha", 1}, {"Alpha", 1}, {"Beta", 1},
		{"Router", 0}, {"Router", 0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("case order = %v, want %v", got, want)
	}
	if cases[2].Expectation.ActionSequence[0] != "a_one" || cases[3].Expectation.ActionSequence[0] != "a_two" {
		t.Errorf("action cases out of declaration order: %+v", cases[2:5])
	}
}

func TestCasesNoStartTopic(t *testing.T) {
	s := &agentscript.Structure{
		Topics: []agentscript.Topic{{Name: "Solo"}},
	}
	cases := (&Generator{}).Cases(s)
	if len(cases) != 3 {
		t.Fatalf("got %d cases, want 3", len(cases))
	}
	for _, tc := range cases[1:] {
		if tc.Expectation.Topic != DefaultRouterName {
			t.Errorf("edge case topic = %q, want %q", tc.Expectation.Topic, DefaultRouterName)
		}
	}
}

func TestCasesEmptyStructure(t *testing.T) {
	cases := (&Generator{}).Cases(&agentscript.Structure{})
	if len(cases) != 2 {
		t.Fatalf("got %d cases, want just the 2 edge cases", len(cases))
	}
	if cases[0].Utterance != "What's the weather today?" || cases[1].Utterance != "Tell me a joke" {
		t.Errorf("edge utterances = %q, %q", cases[0].Utterance, cases[1].Utterance)
	}
}

func TestCasesDeterministic(t *testing.T) {
	s := agentscript.Parse([]byte("start_agent R:\ntopic A:\n  label: Support Desk\n"))
	g := &Generator{}
	if !reflect.DeepEqual(g.Cases(s), g.Cases(s)) {
		t.Fatal("two syntheses over the same structure disagree")
	}
}

type fakeOverrides struct{}

func (fakeOverrides) TopicUtterance(t *agentscript.Topic) (string, bool) {
	if t.Name == "Special" {
		return "custom topic probe", true
	}
	return "", false
}

func (fakeOverrides) ActionUtterance(a *agentscript.Action, t *agentscript.Topic) (string, bool) {
	if a.Name == "special_action" {
		return "custom action probe", true
	}
	return "", false
}

func TestOverridesTakePriority(t *testing.T) {
	s := &agentscript.Structure{
		Topics: []agentscript.Topic{
			{Name: "Special"},
			{Name: "Orders", Label: "Order Status", Actions: []agentscript.Action{
				{Name: "special_action", Target: "flow://X"},
				{Name: "check_status", Description: "get order status", Target: "flow://Y"},
			}},
		},
	}
	cases := (&Generator{Overrides: fakeOverrides{}}).Cases(s)

	if cases[0].Utterance != "custom topic probe" {
		t.Errorf("override topic utterance = %q", cases[0].Utterance)
	}
	if cases[1].Utterance != "I want to check my order status" {
		t.Errorf("declined override should fall back, got %q", cases[1].Utterance)
	}
	if cases[2].Utterance != "custom action probe" {
		t.Errorf("override action utterance = %q", cases[2].Utterance)
	}
	if cases[3].Utterance != "What's the status of my order?" {
		t.Errorf("declined action override should fall back, got %q", cases[3].Utterance)
	}
}

func TestDocumentShape(t *testing.T) {
	s := agentscript.Parse([]byte("start_agent R:\n"))
	doc := (&Generator{}).Document(s, "MyAgent")
	if doc.SubjectType != testspec.SubjectTypeAgent {
		t.Errorf("subject type = %q", doc.SubjectType)
	}
	if doc.SubjectName != "MyAgent" {
		t.Errorf("subject name = %q", doc.SubjectName)
	}
	if len(doc.TestCases) != 2 {
		t.Errorf("got %d cases, want 2", len(doc.TestCases))
	}
}
