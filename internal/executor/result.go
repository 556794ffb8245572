package executor

import (
	"fmt"
	"strings"
	"time"

	"github.com/vk/gridflow/internal/artifact"
)

// Status is the final state of a task in a run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// TaskResult is the outcome of one task.
type TaskResult struct {
	Status    Status
	Err       error
	Duration  time.Duration
	Artifacts []artifact.Info
}

// Result is the outcome of a run.
type Result struct {
	RunID string
	Tasks map[string]TaskResult
	// Artifacts lists everything published, in publish order.
	Artifacts []artifact.Info
}

// RunError reports the tasks that failed and those that never ran because of
// them. Cause is the first failure in workflow order.
type RunError struct {
	Failed  []string
	Skipped []string
	Cause   error
}

func (e *RunError) Error() string {
	var b strings.Builder
	if len(e.Failed) > 0 {
		fmt.Fprintf(&b, "execution failed for %s", strings.Join(e.Failed, ", "))
	} else {
		b.WriteString("execution incomplete")
	}
	if len(e.Skipped) > 0 {
		fmt.Fprintf(&b, " (skipped: %s)", strings.Join(e.Skipped, ", "))
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *RunError) Unwrap() error { return e.Cause }

// SkippedError is the error recorded on a task that was not run because an
// upstream task failed.
type SkippedError struct {
	Task     string
	Upstream string
}

func (e *SkippedError) Error() string {
	return fmt.Sprintf("skipped due to upstream failure of '%s'", e.Upstream)
}
