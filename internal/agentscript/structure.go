package agentscript

// Structure is the parsed form of one Agent Script file. All slices
// hold declaration order and are append-only while parsing runs; a
// returned Structure is never mutated afterwards.
type Structure struct {
	AgentName   string
	AgentLabel  string
	Description string
	Topics      []Topic
}

// Topic is a conversation topic, either the start_agent entry point
// or a regular routed topic.
type Topic struct {
	Name        string
	Label       string
	Description string
	IsStart     bool
	Actions     []Action
	Transitions []string
}

// Action is an invocable action declared inside a topic's actions block.
type Action struct {
	Name        string
	Description string
	Target      string
	Inputs      []Field
	Outputs     []Field
}

// Field names a declared input or output of an action.
type Field struct {
	Name string
}

// Topic returns the first topic with the given name, or nil.
func (s *Structure) Topic(name string) *Topic {
	for i := range s.Topics {
		if s.Topics[i].Name == name {
			return &s.Topics[i]
		}
	}
	return nil
}

// StartTopic returns the conversation entry point, or nil when no
// topic is flagged. A file with several start_agent blocks resolves
// to the first one in declaration order.
func (s *Structure) StartTopic() *Topic {
	for i := range s.Topics {
		if s.Topics[i].IsStart {
			return &s.Topics[i]
		}
	}
	return nil
}

// ActionCount sums the actions across all topics.
func (s *Structure) ActionCount() int {
	n := 0
	for i := range s.Topics {
		n += len(s.Topics[i].Actions)
	}
	return n
}

// UnresolvedTransitions lists transition targets that do not name a
// declared topic, deduplicated in first-appearance order. Parsing
// records transitions without checking them, so typos surface here.
func (s *Structure) UnresolvedTransitions() []string {
	seen := make(map[string]bool)
	var out []string
	for i := range s.Topics {
		for _, target := range s.Topics[i].Transitions {
			if s.Topic(target) == nil && !seen[target] {
				seen[target] = true
				out = append(out, target)
			}
		}
	}
	return out
}
