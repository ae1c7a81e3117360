package process

import (
	"context"
	"time"
)

// Runner executes commands with policy defaults applied. Every command
// gets a timeout: an unbounded stage command can hang a whole pipeline,
// so a zero Command.Timeout is filled with DefaultTimeout rather than
// passed through.
type Runner struct {
	// DefaultTimeout applies when Command.Timeout is zero.
	DefaultTimeout time.Duration
	// DefaultGracePeriod applies when Command.GracePeriod is zero.
	DefaultGracePeriod time.Duration
	// MaxOutputBytes applies when Command.MaxOutput is zero.
	MaxOutputBytes int64
}

// NewRunner creates a Runner with the standard defaults: 30 minute
// timeout, 10 second grace period, 4MB output cap per stream.
func NewRunner() *Runner {
	return &Runner{
		DefaultTimeout:     30 * time.Minute,
		DefaultGracePeriod: 10 * time.Second,
		MaxOutputBytes:     4 * 1024 * 1024,
	}
}

// Run executes a command, applying runner-level defaults.
func (r *Runner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Timeout <= 0 {
		cmd.Timeout = r.DefaultTimeout
	}
	if cmd.Timeout <= 0 {
		cmd.Timeout = 30 * time.Minute
	}
	if cmd.GracePeriod <= 0 {
		cmd.GracePeriod = r.DefaultGracePeriod
	}
	if cmd.MaxOutput <= 0 {
		cmd.MaxOutput = r.MaxOutputBytes
	}
	return Run(ctx, cmd)
}
