package models

type CaseOutcome string

const (
	CaseOutcomePassed CaseOutcome = "passed"
	CaseOutcomeFailed CaseOutcome = "failed"
)

// CaseRecord is one stored per-case result belonging to a TestRun.
// Seq preserves the platform's report order within the run.
type CaseRecord struct {
	ID              int64
	RunID           int64
	Seq             int
	Name            string
	Utterance       string
	ExpectedTopic   string
	ActualTopic     string
	ExpectedActions []string
	ActualActions   []string
	Outcome         CaseOutcome
	Message         string
}
