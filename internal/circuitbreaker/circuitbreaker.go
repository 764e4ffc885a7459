// Package circuitbreaker stops calling a failing dependency for a cool-down period and
// then lets probe calls through to detect recovery.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by Call without running fn while the circuit is open.
var ErrOpen = errors.New("circuit breaker open")

// State is the circuit breaker state (Closed, Open, HalfOpen).
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Config holds circuit breaker parameters. Zero values take the defaults noted.
type Config struct {
	FailureThreshold int           // consecutive failures that open the circuit (5)
	SuccessThreshold int           // half-open successes that close it again (2)
	Timeout          time.Duration // how long the circuit stays open before probing (30s)
	// OnStateChange, when set, is called after every transition, outside the lock.
	OnStateChange func(from, to State)
	// Now replaces the wall clock in tests.
	Now func() time.Time
}

// CircuitBreaker guards calls to one dependency.
type CircuitBreaker struct {
	mu        sync.Mutex
	state     State
	failures  int
	successes int
	openedAt  time.Time
	cfg       Config
}

// New creates a closed CircuitBreaker.
func New(cfg Config) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &CircuitBreaker{state: StateClosed, cfg: cfg}
}

// Call runs fn unless the circuit is open. Once the open timeout has elapsed the circuit
// moves to half-open and calls go through as probes. A context error from the caller is
// not counted as a dependency failure.
func (cb *CircuitBreaker) Call(ctx context.Context, fn func() error) error {
	if err := cb.before(); err != nil {
		return err
	}
	err := fn()
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return err
	}
	cb.after(err)
	return err
}

func (cb *CircuitBreaker) before() error {
	cb.mu.Lock()
	if cb.state != StateOpen {
		cb.mu.Unlock()
		return nil
	}
	if cb.cfg.Now().Sub(cb.openedAt) < cb.cfg.Timeout {
		cb.mu.Unlock()
		return ErrOpen
	}
	notify := cb.transitionLocked(StateHalfOpen)
	cb.mu.Unlock()
	notify()
	return nil
}

func (cb *CircuitBreaker) after(err error) {
	cb.mu.Lock()
	notify := func() {}
	if err != nil {
		cb.failures++
		if cb.state == StateHalfOpen || cb.failures >= cb.cfg.FailureThreshold {
			cb.openedAt = cb.cfg.Now()
			notify = cb.transitionLocked(StateOpen)
		}
	} else {
		cb.failures = 0
		if cb.state == StateHalfOpen {
			cb.successes++
			if cb.successes >= cb.cfg.SuccessThreshold {
				notify = cb.transitionLocked(StateClosed)
			}
		}
	}
	cb.mu.Unlock()
	notify()
}

// transitionLocked moves to state and resets the counters. The returned func fires the
// state change hook and must be called after unlocking.
func (cb *CircuitBreaker) transitionLocked(to State) func() {
	from := cb.state
	cb.state = to
	cb.failures = 0
	cb.successes = 0
	if cb.cfg.OnStateChange == nil || from == to {
		return func() {}
	}
	return func() { cb.cfg.OnStateChange(from, to) }
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
