package service

import (
	"context"
	"sync"
	"time"
)

// call is one in-flight operation that several callers may wait for.
type call[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// requestCoalescer collapses concurrent operations for the same key into one. A burst of
// fallback renders therefore costs a single snapshot store round trip.
type requestCoalescer[T any] struct {
	mu       sync.Mutex
	inFlight map[string]*call[T]
	timeout  time.Duration
}

func newRequestCoalescer[T any](timeout time.Duration) *requestCoalescer[T] {
	return &requestCoalescer[T]{
		inFlight: make(map[string]*call[T]),
		timeout:  timeout,
	}
}

// GetOrDo runs fn for key unless a run is already in flight, in which case it waits for
// that run's result. shared reports whether the result came from another caller's run.
// Waiting is bounded by ctx and the coalescer timeout. fn gets a context that keeps ctx's
// values but not its cancellation, bounded by the coalescer timeout, so one caller giving
// up does not fail the others.
func (rc *requestCoalescer[T]) GetOrDo(ctx context.Context, key string, fn func(context.Context) (T, error)) (val T, shared bool, err error) {
	rc.mu.Lock()
	c, exists := rc.inFlight[key]
	if !exists {
		c = &call[T]{done: make(chan struct{})}
		rc.inFlight[key] = c
		runCtx, runCancel := context.WithTimeout(context.WithoutCancel(ctx), rc.timeout)
		go func() {
			defer runCancel()
			rc.run(runCtx, key, c, fn)
		}()
	}
	rc.mu.Unlock()

	waitCtx, cancel := context.WithTimeout(ctx, rc.timeout)
	defer cancel()
	select {
	case <-c.done:
		return c.val, exists, c.err
	case <-waitCtx.Done():
		var zero T
		return zero, exists, waitCtx.Err()
	}
}

func (rc *requestCoalescer[T]) run(ctx context.Context, key string, c *call[T], fn func(context.Context) (T, error)) {
	c.val, c.err = fn(ctx)

	rc.mu.Lock()
	delete(rc.inFlight, key)
	rc.mu.Unlock()
	close(c.done)
}
