package models

import "time"

type RunStatus string

const (
	RunStatusPending  RunStatus = "pending"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// TestRun is one orchestrated execution of a generated test suite
// against a target org.
type TestRun struct {
	ID          int64
	CreatedAt   time.Time
	CompletedAt *time.Time
	AgentName   string
	TargetOrg   string
	SpecPath    string
	TestAPIName string
	Status      RunStatus
	Passed      int
	Failed      int
	Error       string
}
