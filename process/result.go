package process

import "time"

// Result holds the output and status of a completed subprocess.
// A non-zero exit code is a normal, reportable outcome here; only
// launch failures, timeouts, and cancellation surface as errors.
type Result struct {
	// Stdout is the captured standard output.
	Stdout []byte
	// Stderr is the captured standard error.
	Stderr []byte
	// ExitCode is the process exit code. -1 if the process was killed.
	ExitCode int
	// Duration is how long the process ran.
	Duration time.Duration
	// Truncated reports whether either stream hit the output cap.
	Truncated bool
}

// Success reports whether the process exited zero.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}
