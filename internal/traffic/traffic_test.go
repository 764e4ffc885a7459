package traffic

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTracker() (*Tracker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 12, 26, 9, 0, 0, 0, time.UTC)}
	return &Tracker{Now: clock.now}, clock
}

// TestRequestCount_Empty verifies that RequestCount returns 0 when no
// outcomes have been recorded within the time window.
func TestRequestCount_Empty(t *testing.T) {
	Reset()
	if n := RequestCount(1 * time.Minute); n != 0 {
		t.Errorf("RequestCount() = %d, want 0", n)
	}
}

// TestRecord_AndRequestCount verifies that every outcome kind counts as a request.
func TestRecord_AndRequestCount(t *testing.T) {
	Reset()
	Record(Decoded)
	Record(Fallback)
	Record(Denied)
	if n := RequestCount(1 * time.Minute); n != 3 {
		t.Errorf("RequestCount() = %d, want 3", n)
	}
	if n := DenialCount(1 * time.Minute); n != 1 {
		t.Errorf("DenialCount() = %d, want 1", n)
	}
	Reset()
}

// TestFallbackRate_ExcludesDenials verifies that FallbackRate counts decoded and
// fallback outcomes only.
func TestFallbackRate_ExcludesDenials(t *testing.T) {
	tr, _ := newTracker()
	tr.Record(Decoded)
	tr.Record(Decoded)
	tr.Record(Fallback)
	tr.Record(Denied)
	fallbacks, served := tr.FallbackRate(time.Minute)
	if fallbacks != 1 || served != 3 {
		t.Errorf("FallbackRate() = (%d, %d), want (1, 3)", fallbacks, served)
	}
}

// TestCount_Window verifies that outcomes older than the window are excluded.
func TestCount_Window(t *testing.T) {
	tr, clock := newTracker()
	tr.Record(Fallback)
	clock.advance(45 * time.Second)
	tr.Record(Fallback)
	tr.Record(Decoded)

	if n := tr.Count(30*time.Second, Fallback); n != 1 {
		t.Errorf("Count(30s, Fallback) = %d, want 1", n)
	}
	if n := tr.Count(time.Minute, Fallback); n != 2 {
		t.Errorf("Count(1m, Fallback) = %d, want 2", n)
	}
	if n := tr.Count(time.Minute, Fallback, Decoded); n != 3 {
		t.Errorf("Count(1m, Fallback, Decoded) = %d, want 3", n)
	}
}

// TestPrune_DropsPastRetention verifies that entries older than the retention
// period are removed on the next Record.
func TestPrune_DropsPastRetention(t *testing.T) {
	tr, clock := newTracker()
	tr.Record(Decoded)
	clock.advance(retention + time.Second)
	tr.Record(Decoded)
	if len(tr.entries) != 1 {
		t.Errorf("entries = %d, want 1 after prune", len(tr.entries))
	}
	if n := tr.RequestCount(time.Hour); n != 1 {
		t.Errorf("RequestCount() = %d, want 1", n)
	}
}

// TestReset verifies that Reset clears all recorded outcomes.
func TestReset(t *testing.T) {
	tr, _ := newTracker()
	tr.Record(Denied)
	tr.Reset()
	if n := tr.RequestCount(time.Minute); n != 0 {
		t.Errorf("After Reset, RequestCount() = %d, want 0", n)
	}
}

func TestOutcome_String(t *testing.T) {
	tests := map[Outcome]string{Decoded: "decoded", Fallback: "fallback", Denied: "denied", Outcome(9): "unknown"}
	for o, want := range tests {
		if got := o.String(); got != want {
			t.Errorf("Outcome(%d).String() = %q, want %q", o, got, want)
		}
	}
}
