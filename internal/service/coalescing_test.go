package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRequestCoalescer_GetOrDo_ConcurrentRequests(t *testing.T) {
	coalescer := newRequestCoalescer[[]byte](5 * time.Second)
	var calls atomic.Int32
	release := make(chan struct{})

	fn := func(context.Context) ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte(`{"city":"London"}`), nil
	}

	// Launch 10 concurrent reads for the same key; the first run blocks until all are queued.
	var wg sync.WaitGroup
	results := make([][]byte, 10)
	errs := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], _, errs[idx] = coalescer.GetOrDo(context.Background(), "snapshot", fn)
		}(i)
	}
	waitForInFlight(t, coalescer, "snapshot")
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, result := range results {
		if errs[i] != nil {
			t.Errorf("Request %d error = %v, want nil", i, errs[i])
		}
		if string(result) != `{"city":"London"}` {
			t.Errorf("Request %d result = %s", i, result)
		}
	}
	// Callers scheduled after the first run finished start their own; never one per caller.
	if n := calls.Load(); n < 1 || n >= 10 {
		t.Errorf("fn call count = %d, want coalesced", n)
	}
}

func TestRequestCoalescer_GetOrDo_ErrorPropagation(t *testing.T) {
	coalescer := newRequestCoalescer[[]byte](5 * time.Second)
	wantErr := errors.New("store down")

	_, shared, err := coalescer.GetOrDo(context.Background(), "snapshot", func(context.Context) ([]byte, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want %v", err, wantErr)
	}
	if shared {
		t.Error("shared = true for the only caller")
	}
}

// TestRequestCoalescer_GetOrDo_SharedFlag verifies that a caller joining an in-flight
// run reports shared=true.
func TestRequestCoalescer_GetOrDo_SharedFlag(t *testing.T) {
	coalescer := newRequestCoalescer[int](5 * time.Second)
	release := make(chan struct{})
	first := make(chan bool, 1)

	go func() {
		_, shared, _ := coalescer.GetOrDo(context.Background(), "k", func(context.Context) (int, error) {
			<-release
			return 7, nil
		})
		first <- shared
	}()
	waitForInFlight(t, coalescer, "k")

	second := make(chan bool, 1)
	go func() {
		v, shared, _ := coalescer.GetOrDo(context.Background(), "k", func(context.Context) (int, error) {
			return -1, nil
		})
		if v != 7 {
			t.Errorf("joined caller got %d, want 7", v)
		}
		second <- shared
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)

	if <-first {
		t.Error("first caller shared = true, want false")
	}
	if !<-second {
		t.Error("second caller shared = false, want true")
	}
}

func TestRequestCoalescer_GetOrDo_Timeout(t *testing.T) {
	coalescer := newRequestCoalescer[int](10 * time.Millisecond)
	release := make(chan struct{})
	defer close(release)

	_, _, err := coalescer.GetOrDo(context.Background(), "k", func(context.Context) (int, error) {
		<-release
		return 1, nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
}

func TestRequestCoalescer_GetOrDo_ContextCanceled(t *testing.T) {
	coalescer := newRequestCoalescer[int](5 * time.Second)
	release := make(chan struct{})
	defer close(release)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := coalescer.GetOrDo(ctx, "k", func(context.Context) (int, error) {
		<-release
		return 1, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

// TestRequestCoalescer_CleansUp verifies that a finished run is removed so the next
// caller starts a fresh one.
func TestRequestCoalescer_CleansUp(t *testing.T) {
	coalescer := newRequestCoalescer[int](5 * time.Second)
	var calls atomic.Int32
	fn := func(context.Context) (int, error) { return int(calls.Add(1)), nil }

	a, _, _ := coalescer.GetOrDo(context.Background(), "k", fn)
	b, _, _ := coalescer.GetOrDo(context.Background(), "k", fn)
	if a != 1 || b != 2 {
		t.Errorf("results = %d, %d; want 1, 2", a, b)
	}
}

// TestRequestCoalescer_GetOrDo_CallerCancelDoesNotFailJoiners verifies that the run does
// not inherit the first caller's cancellation.
func TestRequestCoalescer_GetOrDo_CallerCancelDoesNotFailJoiners(t *testing.T) {
	coalescer := newRequestCoalescer[string](5 * time.Second)
	release := make(chan struct{})
	firstCtx, cancelFirst := context.WithCancel(context.Background())

	firstErr := make(chan error, 1)
	go func() {
		_, _, err := coalescer.GetOrDo(firstCtx, "k", func(ctx context.Context) (string, error) {
			<-release
			if err := ctx.Err(); err != nil {
				return "", err
			}
			return "snapshot", nil
		})
		firstErr <- err
	}()
	waitForInFlight(t, coalescer, "k")

	type result struct {
		val    string
		shared bool
		err    error
	}
	joined := make(chan result, 1)
	go func() {
		v, shared, err := coalescer.GetOrDo(context.Background(), "k", func(context.Context) (string, error) {
			return "own run", nil
		})
		joined <- result{v, shared, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Errorf("first caller error = %v, want context.Canceled", err)
	}
	close(release)

	got := <-joined
	if got.err != nil || got.val != "snapshot" || !got.shared {
		t.Errorf("joined caller = %+v, want shared snapshot", got)
	}
}

// TestRequestCoalescer_GetOrDo_RunBoundedByTimeout verifies the run's context carries the
// coalescer timeout.
func TestRequestCoalescer_GetOrDo_RunBoundedByTimeout(t *testing.T) {
	coalescer := newRequestCoalescer[bool](time.Second)
	got, _, err := coalescer.GetOrDo(context.Background(), "k", func(ctx context.Context) (bool, error) {
		_, ok := ctx.Deadline()
		return ok, nil
	})
	if err != nil || !got {
		t.Errorf("run context has deadline = %v (err %v), want true", got, err)
	}
}

func waitForInFlight[T any](t *testing.T, rc *requestCoalescer[T], key string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		rc.mu.Lock()
		_, ok := rc.inFlight[key]
		rc.mu.Unlock()
		if ok {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("no in-flight run for %q", key)
}
