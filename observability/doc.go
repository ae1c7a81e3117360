// Package observability provides OpenTelemetry tracing and metrics for
// pipeline runs. It is fully optional: when not initialized, the global
// no-op providers make every call free.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("gatekit"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanRun)
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, &meterCfg)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("gatekit"))
//	metrics.RecordStageEnd(ctx, "quality-gate", "build", "succeeded", duration)
package observability
