package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/mpataki/agentprobe/internal/agentscript"
	"github.com/mpataki/agentprobe/internal/models"
	"github.com/mpataki/agentprobe/internal/report"
	"github.com/mpataki/agentprobe/internal/sforce"
	"github.com/mpataki/agentprobe/internal/storage"
	"github.com/mpataki/agentprobe/internal/synth"
	"github.com/mpataki/agentprobe/internal/testspec"
)

// Orchestrator drives a full agent test run against an org: spec
// generation, test creation, execution, result parsing, and history
// persistence. Step output goes to out as the run progresses.
type Orchestrator struct {
	storage *storage.Storage
	sf      *sforce.Client
	out     io.Writer
}

func New(store *storage.Storage, client *sforce.Client, out io.Writer) *Orchestrator {
	return &Orchestrator{
		storage: store,
		sf:      client,
		out:     out,
	}
}

type RunOptions struct {
	AgentName  string
	AgentFile  string
	AgentDir   string
	TargetOrg  string
	OutputDir  string
	Wait       int
	SkipCreate bool
	SkipCheck  bool
}

type RunOutcome struct {
	Run     *models.TestRun
	Summary *sforce.Summary
}

// PreflightError wraps a failed Agent Testing Center availability
// check. No run is recorded when Execute returns one, so callers can
// steer the user toward manual testing instead.
type PreflightError struct {
	Err error
}

func (e *PreflightError) Error() string { return e.Err.Error() }

func (e *PreflightError) Unwrap() error { return e.Err }

// Execute runs the whole pipeline. The returned outcome carries the
// persisted run and the parsed summary; the error is non-nil when the
// pipeline could not reach the org run at all.
func (o *Orchestrator) Execute(ctx context.Context, opts RunOptions) (*RunOutcome, error) {
	fmt.Fprintln(o.out)
	report.Banner(o.out, "AGENTFORCE AUTOMATED TESTING")
	fmt.Fprintf(o.out, "Agent: %s\n", opts.AgentName)
	fmt.Fprintf(o.out, "Target Org: %s\n", opts.TargetOrg)
	fmt.Fprintf(o.out, "Started: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintln(o.out)

	if opts.SkipCheck {
		fmt.Fprintln(o.out, "Skipping Agent Testing Center check (--skip-check)")
	} else if err := o.checkCenter(ctx, opts.TargetOrg); err != nil {
		return nil, &PreflightError{Err: err}
	}

	run := &models.TestRun{
		AgentName: opts.AgentName,
		TargetOrg: opts.TargetOrg,
		Status:    models.RunStatusPending,
	}
	runID, err := o.storage.CreateRun(run)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	run.ID = runID

	specPath, err := o.generateSpec(opts)
	if err != nil {
		return nil, o.failRun(run, err)
	}
	run.SpecPath = specPath
	run.TestAPIName = opts.AgentName + "_Tests"

	if !opts.SkipCreate {
		if !o.createTest(ctx, specPath, run.TestAPIName, opts.TargetOrg) {
			fmt.Fprintln(o.out, "Warning: Test creation failed, attempting to run existing test...")
		}
	}

	run.Status = models.RunStatusRunning
	if err := o.storage.UpdateRun(run); err != nil {
		return nil, fmt.Errorf("failed to update run: %w", err)
	}

	output := o.runTests(ctx, run.TestAPIName, opts.TargetOrg, opts.Wait)
	summary := o.parseResults(output)

	if err := o.recordResults(run, summary); err != nil {
		return nil, err
	}
	return &RunOutcome{Run: run, Summary: summary}, nil
}

func (o *Orchestrator) checkCenter(ctx context.Context, org string) error {
	report.Banner(o.out, "STEP 1: Checking Agent Testing Center Availability")

	err := o.sf.CheckTestingCenter(ctx, org)
	switch {
	case err == nil:
		fmt.Fprintln(o.out, "   Agent Testing Center is ENABLED")
		return nil
	case errors.Is(err, sforce.ErrTestingCenterDisabled):
		fmt.Fprintln(o.out, "   Agent Testing Center is NOT ENABLED")
		fmt.Fprintln(o.out)
		fmt.Fprintln(o.out, "   To enable Agent Testing Center:")
		fmt.Fprintln(o.out, "   - Contact Salesforce support or your account team")
		fmt.Fprintln(o.out, "   - May require: Agentforce Service Agent license or Einstein Platform license")
		fmt.Fprintln(o.out)
		return err
	default:
		fmt.Fprintf(o.out, "   Warning: Could not determine status. %v\n", err)
		return err
	}
}

func (o *Orchestrator) generateSpec(opts RunOptions) (string, error) {
	fmt.Fprintln(o.out)
	report.Banner(o.out, "STEP 2: Generating Test Spec from Agent Definition")

	agentFile, err := agentscript.FindAgentFile(opts.AgentName, opts.AgentDir, opts.AgentFile)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(o.out, "   Agent file: %s\n", agentFile)

	structure, err := agentscript.ParseFile(agentFile)
	if err != nil {
		return "", err
	}
	if structure.AgentName == "" {
		structure.AgentName = opts.AgentName
	}

	var gen synth.Generator
	doc := gen.Document(structure, structure.AgentName)

	specPath := filepath.Join(opts.OutputDir, opts.AgentName+"-testSpec.yaml")
	if err := testspec.WriteFile(specPath, doc, testspec.SelectRenderer()); err != nil {
		return "", err
	}
	fmt.Fprintf(o.out, "   Generated: %s\n", specPath)
	return specPath, nil
}

func (o *Orchestrator) createTest(ctx context.Context, specPath, apiName, org string) bool {
	fmt.Fprintln(o.out)
	report.Banner(o.out, "STEP 3: Creating Test Definition in Org")
	fmt.Fprintf(o.out, "   Spec file: %s\n", specPath)
	fmt.Fprintf(o.out, "   Test name: %s\n", apiName)
	fmt.Fprintf(o.out, "   Target org: %s\n", org)

	existing, err := o.sf.CreateTest(ctx, specPath, apiName, org)
	switch {
	case err == nil && existing:
		fmt.Fprintln(o.out, "   Test definition already exists - will use existing")
		return true
	case err == nil:
		fmt.Fprintln(o.out, "   Test definition created successfully")
		return true
	case errors.Is(err, sforce.ErrTestingCenterDisabled):
		fmt.Fprintln(o.out, "   Error: Agent Testing Center not available")
		fmt.Fprintln(o.out, "   Run 'sf agent test list' to verify access")
		return false
	default:
		fmt.Fprintf(o.out, "   Error creating test: %v\n", err)
		return false
	}
}

func (o *Orchestrator) runTests(ctx context.Context, apiName, org string, waitMinutes int) string {
	fmt.Fprintln(o.out)
	report.Banner(o.out, "STEP 4: Running Agent Tests")
	fmt.Fprintf(o.out, "   Test name: %s\n", apiName)
	fmt.Fprintf(o.out, "   Wait timeout: %d minutes\n", waitMinutes)
	fmt.Fprintln(o.out)
	fmt.Fprintln(o.out, "   Running tests (this may take a few minutes)...")

	output, ok := o.sf.RunTest(ctx, apiName, org, waitMinutes)
	if ok {
		fmt.Fprintln(o.out, "   Tests completed")
	} else {
		fmt.Fprintln(o.out, "   Tests may have failed or timed out")
	}
	return output
}

func (o *Orchestrator) parseResults(output string) *sforce.Summary {
	fmt.Fprintln(o.out)
	report.Banner(o.out, "STEP 5: Parsing and Displaying Results")

	summary, err := sforce.ParseResults(output)
	if err != nil {
		fmt.Fprintln(o.out, "   Warning: Could not parse JSON output")
		fmt.Fprintln(o.out, "   Raw output:")
		fmt.Fprintln(o.out, head(output, 500))
		return summary
	}
	report.ResultSummary(o.out, summary)
	return summary
}

// recordResults marks the run complete and swaps in the parsed cases.
func (o *Orchestrator) recordResults(run *models.TestRun, summary *sforce.Summary) error {
	now := time.Now()
	run.CompletedAt = &now
	run.Status = models.RunStatusComplete
	run.Passed = summary.Passed
	run.Failed = summary.Failed
	if err := o.storage.UpdateRun(run); err != nil {
		return fmt.Errorf("failed to record results: %w", err)
	}

	records := make([]models.CaseRecord, 0, len(summary.Cases))
	for _, c := range summary.Cases {
		outcome := models.CaseOutcomeFailed
		if c.Passed {
			outcome = models.CaseOutcomePassed
		}
		records = append(records, models.CaseRecord{
			RunID:           run.ID,
			Name:            c.Name,
			Utterance:       c.Utterance,
			ExpectedTopic:   c.ExpectedTopic,
			ActualTopic:     c.ActualTopic,
			ExpectedActions: c.ExpectedActions,
			ActualActions:   c.ActualActions,
			Outcome:         outcome,
			Message:         c.Message,
		})
	}
	if err := o.storage.ReplaceCaseResults(run.ID, records); err != nil {
		return fmt.Errorf("failed to record case results: %w", err)
	}
	return nil
}

func (o *Orchestrator) failRun(run *models.TestRun, cause error) error {
	now := time.Now()
	run.Status = models.RunStatusFailed
	run.CompletedAt = &now
	run.Error = cause.Error()
	if err := o.storage.UpdateRun(run); err != nil {
		return fmt.Errorf("failed to record failure: %w", err)
	}
	return cause
}

func head(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// Read methods for the TUI and the history commands.

func (o *Orchestrator) ListRuns(limit int) ([]*models.TestRun, error) {
	return o.storage.ListRuns(limit)
}

func (o *Orchestrator) GetRun(id int64) (*models.TestRun, error) {
	return o.storage.GetRun(id)
}

func (o *Orchestrator) GetCaseResultsForRun(runID int64) ([]models.CaseRecord, error) {
	return o.storage.GetCaseResultsForRun(runID)
}

func (o *Orchestrator) DeleteRun(runID int64) error {
	return o.storage.DeleteRun(runID)
}
