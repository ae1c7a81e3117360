// Package stage defines the unit of pipeline work: one named command
// with its dependencies and execution policy. Stages are pure data;
// the graph orders them and the runner executes them.
package stage

import (
	"time"
)

// Stage is a single named command in a pipeline.
type Stage struct {
	// Name uniquely identifies the stage within its pipeline.
	Name string
	// Argv is the command to run, executable first. No shell expansion.
	Argv []string
	// Dir is the working directory. Empty means the runner's directory.
	Dir string
	// Env is extra environment for the command. Values pass through
	// opaquely; the runner never interprets them.
	Env map[string]string
	// DependsOn names stages that must be satisfied before this one starts.
	DependsOn []string
	// AllowFailure marks the stage advisory: a failure is recorded but
	// neither blocks dependents nor fails the run on its own.
	AllowFailure bool
	// Timeout bounds the command. Zero means the runner default.
	Timeout time.Duration
	// Requires names tools that must be provisioned before the command runs.
	Requires []string
	// Retry re-runs the command on stage-level failure.
	Retry Retry
}

// Retry is a stage's re-run policy. Attempts counts total runs, so
// anything below 2 means a single run. Only stage-level failures
// (non-zero exit, timeout) are retried; a command that cannot launch
// will not launch on the next try either.
type Retry struct {
	Attempts int
	Backoff  time.Duration
}

// Ready reports whether every dependency is satisfied. The caller
// decides what satisfied means; the runner counts successes and
// allowed failures.
func (s Stage) Ready(done map[string]bool) bool {
	for _, dep := range s.DependsOn {
		if !done[dep] {
			return false
		}
	}
	return true
}
