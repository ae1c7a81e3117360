package resilience

import (
	"context"
)

// BulkheadConfig configures a bulkhead.
type BulkheadConfig struct {
	// Name identifies this bulkhead for metrics/logging.
	Name string
	// MaxConcurrent is the maximum number of concurrent holders.
	// Non-positive means unlimited.
	MaxConcurrent int
	// OnAcquire is called when a slot is acquired.
	OnAcquire func(name string)
	// OnRelease is called when a slot is released.
	OnRelease func(name string)
}

// Bulkhead bounds how many stages execute at once. Acquire blocks until
// a slot frees up or the context is cancelled, so ready stages queue
// rather than fail when the limit is reached.
type Bulkhead struct {
	config BulkheadConfig
	sem    chan struct{}
}

// NewBulkhead creates a new bulkhead. A non-positive MaxConcurrent
// disables limiting: Acquire returns immediately and Release is a no-op.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	b := &Bulkhead{config: config}
	if config.MaxConcurrent > 0 {
		b.sem = make(chan struct{}, config.MaxConcurrent)
	}
	return b
}

// Acquire takes a slot, blocking until one is free. Returns the context
// error if ctx is cancelled while waiting.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	if b.sem == nil {
		return nil
	}

	select {
	case b.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	if b.config.OnAcquire != nil {
		b.config.OnAcquire(b.config.Name)
	}
	return nil
}

// Release returns a slot. Must be called exactly once per successful
// Acquire.
func (b *Bulkhead) Release() {
	if b.sem == nil {
		return
	}
	<-b.sem
	if b.config.OnRelease != nil {
		b.config.OnRelease(b.config.Name)
	}
}

// Execute runs the given function while holding a slot.
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	if err := b.Acquire(ctx); err != nil {
		return err
	}
	defer b.Release()
	return fn()
}

// ExecuteWithResult runs a function that returns a value.
func ExecuteWithResult[T any](b *Bulkhead, ctx context.Context, fn func() (T, error)) (T, error) {
	var result T
	err := b.Execute(ctx, func() error {
		var fnErr error
		result, fnErr = fn()
		return fnErr
	})
	return result, err
}

// InUse returns the number of slots currently held. Always zero for an
// unlimited bulkhead.
func (b *Bulkhead) InUse() int {
	return len(b.sem)
}

// MaxConcurrent returns the configured limit, zero meaning unlimited.
func (b *Bulkhead) MaxConcurrent() int {
	if b.sem == nil {
		return 0
	}
	return cap(b.sem)
}
