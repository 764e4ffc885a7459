package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"

	"github.com/kjstillabower/status-brief-service/internal/circuitbreaker"
)

// Error category labels for snapshotErrorsTotal.
const (
	ErrorCategoryTimeout = "timeout"
	ErrorCategoryNetwork = "network"
	ErrorCategoryParsing = "parsing"
	ErrorCategoryUnknown = "unknown"

	// ErrorCategoryCircuitOpen marks calls skipped by the snapshot store circuit breaker.
	ErrorCategoryCircuitOpen = "circuit_open"
)

// CategorizeError maps a snapshot store error to a stable metric label.
func CategorizeError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return ErrorCategoryCircuitOpen
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorCategoryTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorCategoryTimeout
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return ErrorCategoryParsing
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "timeout"):
		return ErrorCategoryTimeout
	case strings.Contains(msg, "connection") || strings.Contains(msg, "network") || strings.Contains(msg, "no servers"):
		return ErrorCategoryNetwork
	case strings.Contains(msg, "unmarshal") || strings.Contains(msg, "parse"):
		return ErrorCategoryParsing
	}
	return ErrorCategoryUnknown
}
