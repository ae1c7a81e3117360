package process

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	goerrors "github.com/kbukum/gatekit/errors"
	"github.com/kbukum/gatekit/util"
)

// Run executes a subprocess and waits for it to complete.
//
// Termination is always SIGTERM to the process group first, SIGKILL
// after GracePeriod. On timeout or cancellation the partial Result is
// returned alongside the error so callers can still report captured
// output. Launch failures (missing executable, bad working directory)
// return a nil Result.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	if len(cmd.Argv) == 0 || cmd.Argv[0] == "" {
		return nil, goerrors.Validation("command argv must not be empty")
	}

	gracePeriod := cmd.GracePeriod
	if gracePeriod == 0 {
		gracePeriod = 5 * time.Second
	}

	limit := cmd.Timeout
	runCtx := ctx
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	} else if deadline, ok := ctx.Deadline(); ok {
		limit = time.Until(deadline)
	}

	c := exec.CommandContext(runCtx, cmd.Argv[0], cmd.Argv[1:]...) //nolint:gosec // dynamic argv is the purpose of this package
	c.Dir = cmd.Dir
	c.Env = mergeEnv(cmd.Env)

	outBuf := newCapWriter(cmd.MaxOutput)
	errBuf := newCapWriter(cmd.MaxOutput)
	if cmd.Mirror {
		c.Stdout = io.MultiWriter(outBuf, os.Stdout)
		c.Stderr = io.MultiWriter(errBuf, os.Stderr)
	} else {
		c.Stdout = outBuf
		c.Stderr = errBuf
	}

	if cmd.Stdin != nil {
		c.Stdin = cmd.Stdin
	}

	// Use process group so we can kill the entire tree
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	// Don't let exec.CommandContext kill with SIGKILL immediately
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = gracePeriod

	start := time.Now()
	err := c.Run()
	duration := time.Since(start)

	result := &Result{
		Stdout:    outBuf.Bytes(),
		Stderr:    errBuf.Bytes(),
		ExitCode:  -1,
		Duration:  duration,
		Truncated: outBuf.truncated || errBuf.truncated,
	}
	if c.ProcessState != nil {
		result.ExitCode = c.ProcessState.ExitCode()
	}

	if err == nil {
		return result, nil
	}

	// Cancellation of the caller's context dominates every other outcome:
	// the process died because the run was halted, not on its own terms.
	if ctx.Err() != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return result, goerrors.Cancelled(cmd.Argv[0])
	}
	if runCtx.Err() != nil {
		return result, goerrors.Timeout(cmd.Argv[0], limit)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// Ran and exited non-zero: a reportable outcome, not an error.
		return result, nil
	}
	if errors.Is(err, exec.ErrWaitDelay) {
		// Process exited but an orphan kept its pipes open past the
		// grace period. The exit code is still meaningful.
		return result, nil
	}

	return nil, goerrors.Launch(cmd.Argv[0], err)
}

// mergeEnv merges additional env vars with the current environment,
// in sorted key order so repeated runs see an identical environment.
func mergeEnv(extra map[string]string) []string {
	if len(extra) == 0 {
		return nil // inherit parent env
	}
	env := os.Environ()
	for _, k := range util.SortedKeys(extra) {
		env = append(env, k+"="+extra[k])
	}
	return env
}
