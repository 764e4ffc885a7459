package traffic

import (
	"sync"
	"time"
)

// Outcome classifies one brief request for the health windows.
type Outcome int

const (
	// Decoded: the request parameter decoded into a document.
	Decoded Outcome = iota
	// Fallback: the parameter was missing or undecodable and a snapshot or default was served.
	Fallback
	// Denied: the request was rejected by the rate limiter (429).
	Denied
)

func (o Outcome) String() string {
	switch o {
	case Decoded:
		return "decoded"
	case Fallback:
		return "fallback"
	case Denied:
		return "denied"
	}
	return "unknown"
}

// retention bounds how long outcomes are kept; windows longer than this undercount.
const retention = 5 * time.Minute

var defaultTracker Tracker

// Record records an outcome on the process-wide tracker.
func Record(o Outcome) {
	defaultTracker.Record(o)
}

// RequestCount returns the number of outcomes of any kind within the window.
func RequestCount(window time.Duration) int {
	return defaultTracker.RequestCount(window)
}

// DenialCount returns the number of denials within the window.
func DenialCount(window time.Duration) int {
	return defaultTracker.Count(window, Denied)
}

// FallbackRate returns (fallbacks, served) within the window. served = decoded + fallbacks.
func FallbackRate(window time.Duration) (fallbacks, served int) {
	return defaultTracker.FallbackRate(window)
}

// Reset clears all recorded outcomes. For tests only.
func Reset() {
	defaultTracker.Reset()
}

type entry struct {
	at      time.Time
	outcome Outcome
}

// Tracker keeps a time-ordered log of outcomes. The zero value is ready to use.
// Single source of truth for overload (RequestCount, denials) and degraded (FallbackRate).
type Tracker struct {
	mu      sync.Mutex
	entries []entry
	// Now overrides the clock in tests.
	Now func() time.Time
}

func (t *Tracker) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

// Record appends an outcome at the current time and prunes entries past retention.
func (t *Tracker) Record(o Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	t.entries = append(t.entries, entry{at: now, outcome: o})
	t.pruneLocked(now)
}

// Count returns the number of entries within the window matching any of outcomes.
// With no outcomes, every entry counts.
func (t *Tracker) Count(window time.Duration, outcomes ...Outcome) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.countLocked(t.now().Add(-window), outcomes...)
}

// RequestCount returns the total number of outcomes within the window.
func (t *Tracker) RequestCount(window time.Duration) int {
	return t.Count(window)
}

// FallbackRate returns (fallbacks, served) within the window. Denials are excluded.
func (t *Tracker) FallbackRate(window time.Duration) (fallbacks, served int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.now().Add(-window)
	fallbacks = t.countLocked(cutoff, Fallback)
	return fallbacks, fallbacks + t.countLocked(cutoff, Decoded)
}

// Reset clears all recorded outcomes.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = nil
}

// countLocked counts entries not before cutoff. Must be called with mutex held.
func (t *Tracker) countLocked(cutoff time.Time, outcomes ...Outcome) int {
	n := 0
	for i := len(t.entries) - 1; i >= 0; i-- {
		e := t.entries[i]
		if e.at.Before(cutoff) {
			break
		}
		if matches(e.outcome, outcomes) {
			n++
		}
	}
	return n
}

func matches(o Outcome, set []Outcome) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == o {
			return true
		}
	}
	return false
}

// pruneLocked drops entries older than retention. Must be called with mutex held.
func (t *Tracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-retention)
	i := 0
	for ; i < len(t.entries) && t.entries[i].at.Before(cutoff); i++ {
	}
	if i > 0 {
		t.entries = append(t.entries[:0], t.entries[i:]...)
	}
}
