package sforce

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds each sf CLI invocation.
const DefaultTimeout = 5 * time.Minute

// ErrTestingCenterDisabled reports that the target org has no Agent
// Testing Center provisioned.
var ErrTestingCenterDisabled = errors.New("agent testing center not enabled in org")

// Client shells out to the sf CLI. The zero value runs "sf" from
// PATH with DefaultTimeout per command.
type Client struct {
	Bin     string
	Timeout time.Duration
}

func (c *Client) bin() string {
	if c.Bin != "" {
		return c.Bin
	}
	return "sf"
}

// run executes one CLI command and returns its exit code and output.
// Start failures and timeouts surface as exit code -1 with the cause
// in stderr, so callers can treat every outcome uniformly.
func (c *Client) run(ctx context.Context, args ...string) (int, string, string) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.bin(), args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return -1, stdout.String(), fmt.Sprintf("command timed out after %s", timeout)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return -1, stdout.String(), err.Error()
		}
		return exitErr.ExitCode(), stdout.String(), stderr.String()
	}
	return 0, stdout.String(), stderr.String()
}

// CheckTestingCenter verifies the org exposes the agent testing API.
// It returns nil when enabled, ErrTestingCenterDisabled when the org
// reports the feature missing, and a descriptive error otherwise.
func (c *Client) CheckTestingCenter(ctx context.Context, org string) error {
	code, stdout, stderr := c.run(ctx, "agent", "test", "list", "--target-org", org, "--json")
	if code == 0 {
		return nil
	}
	combined := stdout + stderr
	if strings.Contains(combined, "INVALID_TYPE") || strings.Contains(combined, "Not available") {
		return ErrTestingCenterDisabled
	}
	return fmt.Errorf("could not determine testing center status: %s", firstN(stderr, 100))
}

// CreateTest registers a spec file as a test definition in the org.
// A definition that already exists counts as success; existing
// reports which case occurred.
func (c *Client) CreateTest(ctx context.Context, specPath, apiName, org string) (existing bool, err error) {
	code, stdout, stderr := c.run(ctx,
		"agent", "test", "create",
		"--spec", specPath,
		"--api-name", apiName,
		"--target-org", org,
		"--json")
	if code == 0 {
		return false, nil
	}
	combined := stdout + stderr
	if strings.Contains(combined, "INVALID_TYPE") || strings.Contains(combined, "Not available") {
		return false, ErrTestingCenterDisabled
	}
	if strings.Contains(strings.ToLower(combined), "already exists") {
		return true, nil
	}
	return false, fmt.Errorf("failed to create test definition: %s", firstN(stderr, 200))
}

// RunTest executes the named test definition and returns the raw CLI
// output. ok is false when the command failed, but the output is
// returned regardless because it may still hold parseable results.
func (c *Client) RunTest(ctx context.Context, apiName, org string, waitMinutes int) (output string, ok bool) {
	code, stdout, stderr := c.run(ctx,
		"agent", "test", "run",
		"--api-name", apiName,
		"--wait", strconv.Itoa(waitMinutes),
		"--result-format", "json",
		"--target-org", org)
	if code == 0 {
		return stdout, true
	}
	if stdout != "" {
		return stdout, false
	}
	return stderr, false
}

func firstN(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
