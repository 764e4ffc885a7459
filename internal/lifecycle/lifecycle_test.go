package lifecycle

import (
	"testing"
	"time"
)

func TestIsShuttingDown_DefaultFalse(t *testing.T) {
	Reset()
	if IsShuttingDown() {
		t.Error("IsShuttingDown() = true, want false by default")
	}
}

func TestSetShuttingDown_Toggle(t *testing.T) {
	Reset()
	defer Reset()
	SetShuttingDown(true)
	if !IsShuttingDown() {
		t.Error("IsShuttingDown() = false after SetShuttingDown(true), want true")
	}
	SetShuttingDown(false)
	if IsShuttingDown() {
		t.Error("IsShuttingDown() = true after SetShuttingDown(false), want false")
	}
}

func TestUptime(t *testing.T) {
	Reset()
	defer Reset()
	start := time.Date(2025, 12, 26, 9, 0, 0, 0, time.UTC)

	if got := Uptime(start); got != 0 {
		t.Errorf("Uptime() before MarkStarted = %v, want 0", got)
	}
	MarkStarted(start)
	if got := Uptime(start.Add(90 * time.Second)); got != 90*time.Second {
		t.Errorf("Uptime() = %v, want 1m30s", got)
	}
	if got := Uptime(start.Add(-time.Minute)); got != 0 {
		t.Errorf("Uptime() with clock behind start = %v, want 0", got)
	}
}
