// Package resilience provides the retry and concurrency-limiting
// primitives the pipeline runner is built on.
//
// This package includes:
//   - Retry: Re-runs failed operations with configurable backoff. Stage
//     retry policies use FixedRetryConfig (constant delay between
//     re-runs of a flaky gate).
//   - Bulkhead: Bounds concurrent stage execution. Acquire blocks, so
//     ready stages queue for a slot instead of failing.
//
// Typical runner usage:
//
//	bh := resilience.NewBulkhead(resilience.BulkheadConfig{Name: "stages", MaxConcurrent: 4})
//	if err := bh.Acquire(ctx); err != nil {
//	    return err
//	}
//	defer bh.Release()
//
//	res, err := resilience.Retry(ctx, resilience.FixedRetryConfig(2, 10*time.Second), runStage)
package resilience
