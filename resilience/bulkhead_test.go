package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestBulkhead_AllowsCallsWithinLimit(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{
		Name:          "test",
		MaxConcurrent: 3,
	})

	var callCount int32

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := b.Execute(context.Background(), func() error {
				atomic.AddInt32(&callCount, 1)
				time.Sleep(10 * time.Millisecond)
				return nil
			})
			if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		}()
	}

	wg.Wait()

	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
}

func TestBulkhead_NeverExceedsLimit(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{
		Name:          "test",
		MaxConcurrent: 2,
	})

	var active int32
	var peak int32

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Execute(context.Background(), func() error {
				n := atomic.AddInt32(&active, 1)
				for {
					old := atomic.LoadInt32(&peak)
					if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&active, -1)
				return nil
			})
		}()
	}

	wg.Wait()

	if peak > 2 {
		t.Errorf("expected at most 2 concurrent holders, saw %d", peak)
	}
}

func TestBulkhead_AcquireBlocksUntilRelease(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{
		Name:          "test",
		MaxConcurrent: 1,
	})

	if err := b.Acquire(context.Background()); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		if err := b.Acquire(context.Background()); err != nil {
			t.Errorf("second acquire failed: %v", err)
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire should block while slot is held")
	case <-time.After(20 * time.Millisecond):
	}

	b.Release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire never completed after release")
	}
	b.Release()
}

func TestBulkhead_AcquireRespectsContext(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{
		Name:          "test",
		MaxConcurrent: 1,
	})

	if err := b.Acquire(context.Background()); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	defer b.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := b.Acquire(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestBulkhead_UnlimitedWhenNonPositive(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "test"})

	for i := 0; i < 100; i++ {
		if err := b.Acquire(context.Background()); err != nil {
			t.Fatalf("acquire %d failed: %v", i, err)
		}
	}
	// Releases are no-ops for an unlimited bulkhead
	b.Release()

	if b.MaxConcurrent() != 0 {
		t.Errorf("expected unlimited (0), got %d", b.MaxConcurrent())
	}
	if b.InUse() != 0 {
		t.Errorf("expected zero in use, got %d", b.InUse())
	}
}

func TestBulkhead_Callbacks(t *testing.T) {
	var acquires, releases int32

	b := NewBulkhead(BulkheadConfig{
		Name:          "test",
		MaxConcurrent: 2,
		OnAcquire:     func(string) { atomic.AddInt32(&acquires, 1) },
		OnRelease:     func(string) { atomic.AddInt32(&releases, 1) },
	})

	err := b.Execute(context.Background(), func() error { return nil })
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if acquires != 1 || releases != 1 {
		t.Errorf("expected 1 acquire and 1 release, got %d/%d", acquires, releases)
	}
}

func TestBulkhead_ExecuteWithResult(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "test", MaxConcurrent: 1})

	got, err := ExecuteWithResult(b, context.Background(), func() (int, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != 42 {
		t.Errorf("expected 42, got %d", got)
	}

	wantErr := errors.New("boom")
	_, err = ExecuteWithResult(b, context.Background(), func() (int, error) {
		return 0, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestBulkhead_InUse(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "test", MaxConcurrent: 2})

	if err := b.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if b.InUse() != 1 {
		t.Errorf("expected 1 in use, got %d", b.InUse())
	}

	b.Release()
	if b.InUse() != 0 {
		t.Errorf("expected 0 in use, got %d", b.InUse())
	}
}
