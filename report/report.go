// Package report accumulates per-stage outcomes for one pipeline run
// and reduces them to a final verdict. Results arrive in completion
// order, which is the order the report presents them in; the verdict
// itself is a pure reduction and does not depend on that order.
package report

import (
	"sync"
	"time"

	"github.com/google/uuid"

	goerrors "github.com/kbukum/gatekit/errors"
)

// Status is a stage's lifecycle state. Only Succeeded, Failed, and
// Skipped appear in a finalized report; Pending and Running exist for
// hooks observing a run in progress.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Verdict is the overall outcome of a run.
type Verdict string

const (
	// VerdictSuccess: every stage succeeded.
	VerdictSuccess Verdict = "success"
	// VerdictPartialFailure: failures occurred, all of them tolerated.
	VerdictPartialFailure Verdict = "partial_failure"
	// VerdictFailure: at least one blocking stage failed.
	VerdictFailure Verdict = "failure"
)

// ExitCode maps the verdict to the process exit code. Only a fully
// successful run exits zero; a partial failure still failed something.
func (v Verdict) ExitCode() int {
	if v == VerdictSuccess {
		return goerrors.ExitSuccess
	}
	return goerrors.ExitFailure
}

// Result is one stage's final outcome.
type Result struct {
	Stage      string
	Status     Status
	ExitCode   int
	Stdout     string
	Stderr     string
	Truncated  bool
	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration
	// Err describes why the stage failed when there is more to say
	// than the exit code (launch failure, timeout, provisioning).
	Err string
	// Attempts counts command runs, >1 when a retry policy kicked in.
	Attempts int
	// AllowedFailure records that this stage's failure was tolerated.
	AllowedFailure bool
}

// Failed reports whether the stage ended in failure, tolerated or not.
func (r Result) Failed() bool {
	return r.Status == StatusFailed
}

// Report is the consolidated outcome of one run. Append may be called
// from concurrent stage tasks; everything else expects the run to be
// over.
type Report struct {
	RunID       uuid.UUID
	Pipeline    string
	StartedAt   time.Time
	FinishedAt  time.Time
	Verdict     Verdict
	FailedStage string

	mu      sync.Mutex
	results []Result
}

// New starts an empty report for the named pipeline.
func New(pipeline string) *Report {
	return &Report{
		RunID:     uuid.New(),
		Pipeline:  pipeline,
		StartedAt: time.Now(),
	}
}

// Append records a stage outcome. Results keep arrival order.
func (r *Report) Append(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

// Results returns the recorded outcomes in completion order.
func (r *Report) Results() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Result, len(r.results))
	copy(out, r.results)
	return out
}

// Len returns the number of recorded outcomes.
func (r *Report) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

// Result looks up a stage's outcome by name.
func (r *Report) Result(stage string) (Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.results {
		if res.Stage == stage {
			return res, true
		}
	}
	return Result{}, false
}

// Finalize stamps the end time and reduces the results to a verdict:
// any blocking failure means Failure, any tolerated failure means
// PartialFailure, otherwise Success. FailedStage is the first blocking
// failure in completion order.
func (r *Report) Finalize() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.FinishedAt = time.Now()
	r.Verdict = VerdictSuccess

	anyFailed := false
	for _, res := range r.results {
		if res.Status != StatusFailed {
			continue
		}
		anyFailed = true
		if !res.AllowedFailure {
			r.Verdict = VerdictFailure
			if r.FailedStage == "" {
				r.FailedStage = res.Stage
			}
		}
	}
	if anyFailed && r.Verdict == VerdictSuccess {
		r.Verdict = VerdictPartialFailure
	}
}

// Duration is the wall-clock span of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
