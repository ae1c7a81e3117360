// Package process launches stage and tool commands as subprocesses.
// It owns the execution policy the rest of gatekit relies on: every
// command runs under a deadline, termination is graceful before it is
// forceful, and captured output is bounded.
package process

import (
	"io"
	"time"
)

// Command configures a subprocess to execute. The first element of Argv
// is the executable (resolved via PATH); there is no shell in between,
// so arguments are passed exactly as given.
type Command struct {
	// Argv is the full argument vector. Must not be empty.
	Argv []string
	// Dir is the working directory. If empty, uses the current directory.
	Dir string
	// Env is additional environment variables, merged over os.Environ.
	// Values are passed through opaquely.
	Env map[string]string
	// Stdin provides input to the process. May be nil.
	Stdin io.Reader
	// Timeout bounds the whole execution. Zero means the caller's
	// context is the only bound; Runner fills in its default.
	Timeout time.Duration
	// GracePeriod is how long to wait after SIGTERM before SIGKILL.
	// Defaults to 5 seconds if zero.
	GracePeriod time.Duration
	// MaxOutput caps each captured stream in bytes. Zero means no cap.
	// The head of the stream is kept and truncation is recorded.
	MaxOutput int64
	// Mirror additionally streams output to the parent's stdout/stderr
	// while capturing it.
	Mirror bool
}
