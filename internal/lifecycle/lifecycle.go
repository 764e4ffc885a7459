// Package lifecycle holds process-wide run state read by the health endpoint.
package lifecycle

import (
	"sync/atomic"
	"time"
)

var (
	shuttingDown atomic.Bool
	startedAt    atomic.Int64 // unix nanos; 0 until MarkStarted
)

// MarkStarted records the moment the server began accepting traffic.
func MarkStarted(t time.Time) {
	startedAt.Store(t.UnixNano())
}

// Uptime returns the time since MarkStarted, or zero when the server has not started.
func Uptime(now time.Time) time.Duration {
	ns := startedAt.Load()
	if ns == 0 {
		return 0
	}
	if d := now.Sub(time.Unix(0, ns)); d > 0 {
		return d
	}
	return 0
}

// SetShuttingDown sets the drain flag. Call when SIGTERM/SIGINT is received.
// Health reports shutting-down (503) while true.
func SetShuttingDown(v bool) {
	shuttingDown.Store(v)
}

// IsShuttingDown reports whether the process is draining and should not receive new traffic.
func IsShuttingDown() bool {
	return shuttingDown.Load()
}

// Reset clears all run state. Used by tests.
func Reset() {
	shuttingDown.Store(false)
	startedAt.Store(0)
}
