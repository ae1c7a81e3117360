package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/kbukum/gatekit/logger"
	"github.com/kbukum/gatekit/observability"
	"github.com/kbukum/gatekit/report"
	"github.com/kbukum/gatekit/stage"
)

// StageFunc executes a single stage and reports its outcome.
type StageFunc func(ctx context.Context, s stage.Stage) report.Result

// Middleware wraps stage execution with cross-cutting behavior.
type Middleware func(next StageFunc) StageFunc

// Chain applies middleware so the first one listed is outermost.
func Chain(fn StageFunc, mws ...Middleware) StageFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		fn = mws[i](fn)
	}
	return fn
}

// WithLogging logs each stage execution: name, status, duration, and
// the failure detail when there is one.
func WithLogging(log *logger.Logger) Middleware {
	return func(next StageFunc) StageFunc {
		return func(ctx context.Context, s stage.Stage) report.Result {
			log.Debug("stage started", logger.Fields(logger.FieldStage, s.Name))
			res := next(ctx, s)

			fields := logger.StageFields(s.Name, string(res.Status))
			fields = logger.MergeWithDuration(fields, res.Duration)
			if res.Attempts > 1 {
				fields[logger.FieldAttempt] = res.Attempts
			}

			switch {
			case res.Failed() && !res.AllowedFailure:
				if res.Err != "" {
					fields[logger.FieldError] = res.Err
				} else {
					fields[logger.FieldExitCode] = res.ExitCode
				}
				log.Error("stage failed", fields)
			case res.Failed():
				fields[logger.FieldExitCode] = res.ExitCode
				log.Warn("stage failed, tolerated", fields)
			case res.Status == report.StatusSkipped:
				log.Debug("stage skipped", fields)
			default:
				log.Info("stage completed", fields)
			}
			return res
		}
	}
}

// WithTracing wraps each stage execution in an OpenTelemetry span
// named "{prefix}.{stageName}".
func WithTracing(prefix string) Middleware {
	return func(next StageFunc) StageFunc {
		return func(ctx context.Context, s stage.Stage) report.Result {
			ctx, span := observability.StartSpan(ctx, prefix+"."+s.Name)
			defer span.End()

			observability.SetSpanAttribute(ctx, observability.AttrStage, s.Name)
			res := next(ctx, s)
			observability.SetSpanAttribute(ctx, observability.AttrStatus, string(res.Status))
			observability.SetSpanAttribute(ctx, observability.AttrAttempt, res.Attempts)

			if res.Failed() {
				observability.SetSpanAttribute(ctx, observability.AttrExitCode, res.ExitCode)
				msg := res.Err
				if msg == "" {
					msg = fmt.Sprintf("exit code %d", res.ExitCode)
				}
				observability.SetSpanError(ctx, errors.New(msg))
			}
			return res
		}
	}
}

// WithMetrics records stage counts, durations, and failures.
func WithMetrics(pipeline string, metrics *observability.Metrics) Middleware {
	return func(next StageFunc) StageFunc {
		return func(ctx context.Context, s stage.Stage) report.Result {
			metrics.RecordStageStart(ctx)
			res := next(ctx, s)
			metrics.RecordStageEnd(ctx, pipeline, s.Name, string(res.Status), res.Duration)
			if res.Failed() {
				metrics.RecordError(ctx, "stage_failed", s.Name)
			}
			return res
		}
	}
}
