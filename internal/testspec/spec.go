package testspec

// SubjectTypeAgent is the only subject type the platform accepts for
// these specs.
const SubjectTypeAgent = "AGENT"

// Document is a complete test spec in the shape consumed by
// `sf agent test create`.
type Document struct {
	SubjectType string     `yaml:"subjectType"`
	SubjectName string     `yaml:"subjectName"`
	TestCases   []TestCase `yaml:"testCases"`
}

// TestCase pairs one utterance with the outcome it should produce.
type TestCase struct {
	Utterance   string      `yaml:"utterance"`
	Expectation Expectation `yaml:"expectation"`
}

// Expectation names the topic the utterance must route to and the
// actions it must invoke. ActionSequence is empty but never nil so
// the library renderer emits [] rather than null.
type Expectation struct {
	Topic          string   `yaml:"topic"`
	ActionSequence []string `yaml:"actionSequence"`
}
