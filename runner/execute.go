package runner

import (
	"context"
	"errors"
	"time"

	goerrors "github.com/kbukum/gatekit/errors"
	"github.com/kbukum/gatekit/process"
	"github.com/kbukum/gatekit/report"
	"github.com/kbukum/gatekit/resilience"
	"github.com/kbukum/gatekit/stage"
)

// executeStage is the innermost StageFunc: provision required tools,
// run the command under the stage's retry policy, classify the outcome.
func (r *Runner) executeStage(ctx context.Context, s stage.Stage) report.Result {
	res := report.Result{
		Stage:          s.Name,
		Status:         report.StatusRunning,
		StartedAt:      time.Now(),
		AllowedFailure: s.AllowFailure,
	}

	if r.prov != nil {
		for _, name := range s.Requires {
			err := r.prov.Ensure(ctx, name)
			if err == nil {
				continue
			}
			if cancelledErr(err) {
				res.Status = report.StatusSkipped
				res.Err = "cancelled"
			} else {
				res.Status = report.StatusFailed
				res.ExitCode = -1
				res.Err = errMessage(err)
			}
			return finish(res)
		}
	}

	cmd := process.Command{
		Argv:    s.Argv,
		Dir:     s.Dir,
		Env:     s.Env,
		Timeout: s.Timeout,
	}

	cfg := resilience.FixedRetryConfig(s.Retry.Attempts, s.Retry.Backoff)
	cfg.RetryIf = goerrors.IsRetryable

	attempts := 0
	var lastOut *process.Result
	_, err := resilience.Retry(ctx, cfg, func() (*process.Result, error) {
		attempts++
		out, err := r.exec.Run(ctx, cmd)
		if out != nil {
			// Timeouts return partial output alongside the error.
			lastOut = out
		}
		if err != nil {
			return nil, err
		}
		if !out.Success() {
			return nil, goerrors.StageFailed(s.Name, out.ExitCode)
		}
		return out, nil
	})
	res.Attempts = attempts

	switch {
	case err == nil:
		res.Status = report.StatusSucceeded
	case cancelledErr(err):
		res.Status = report.StatusSkipped
		res.Err = "cancelled"
	case goerrors.HasCode(err, goerrors.ErrCodeStageFailed):
		// The exit code tells the story; no separate message needed.
		res.Status = report.StatusFailed
	default:
		res.Status = report.StatusFailed
		res.Err = errMessage(err)
	}

	if lastOut != nil {
		res.ExitCode = lastOut.ExitCode
		res.Stdout = string(lastOut.Stdout)
		res.Stderr = string(lastOut.Stderr)
		res.Truncated = lastOut.Truncated
	} else if res.Failed() {
		// Never launched, so there is no real exit code.
		res.ExitCode = -1
	}

	return finish(res)
}

// cancelledErr matches both the classified cancellation error and the
// raw context errors the retry loop surfaces between attempts.
func cancelledErr(err error) bool {
	return goerrors.HasCode(err, goerrors.ErrCodeCancelled) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func errMessage(err error) string {
	if app, ok := goerrors.AsAppError(err); ok {
		return app.Message
	}
	return err.Error()
}

func finish(res report.Result) report.Result {
	res.FinishedAt = time.Now()
	res.Duration = res.FinishedAt.Sub(res.StartedAt)
	return res
}
