package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/status-brief-service/internal/cache"
	"github.com/kjstillabower/status-brief-service/internal/observability"
	"github.com/kjstillabower/status-brief-service/internal/traffic"
)

func TestMiddleware_CorrelationIDPropagated(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	var gotID string
	h := CorrelationIDMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = observability.CorrelationID(r.Context())
		observability.LoggerFromContext(r.Context()).Info("inside")
	}))

	req := httptest.NewRequest(http.MethodGet, "/brief", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if gotID != "abc-123" {
		t.Errorf("context correlation id = %q, want abc-123", gotID)
	}
	if got := w.Header().Get("X-Correlation-ID"); got != "abc-123" {
		t.Errorf("response header = %q, want abc-123", got)
	}
	if logs.Len() != 1 || logs.All()[0].ContextMap()["correlation_id"] != "abc-123" {
		t.Errorf("request logger missing correlation_id: %v", logs.All())
	}
}

func TestMiddleware_CorrelationIDGenerated(t *testing.T) {
	var gotID string
	h := CorrelationIDMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = observability.CorrelationID(r.Context())
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/brief", nil))

	if len(gotID) != 36 {
		t.Errorf("generated correlation id = %q, want a UUID", gotID)
	}
	if w.Header().Get("X-Correlation-ID") != gotID {
		t.Error("generated id not echoed in response header")
	}
}

func TestMiddleware_GetRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/brief", "/brief"},
		{"/brief/display", "/brief/display"},
		{"/health", "/health"},
		{"/metrics", "/metrics"},
		{"/forecast/today", "other"},
		{"/brief/display/extra", "other"},
	}
	for _, tt := range tests {
		if got := getRoute(httptest.NewRequest(http.MethodGet, tt.path, nil)); got != tt.want {
			t.Errorf("getRoute(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestMiddleware_MetricsRecorded(t *testing.T) {
	traffic.Reset()
	h := newTestHandler(cache.NewInMemoryCache(), "data", nil, nil)
	router := NewRouter(h, zap.NewNop(), nil, time.Second)

	for _, p := range []string{"/brief", "/brief/display", "/nope"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(w.Body)
	for _, want := range []string{
		`httpRequestsTotal{method="GET",route="/brief",statusCode="2xx"}`,
		`httpRequestsTotal{method="GET",route="/brief/display",statusCode="2xx"}`,
		`httpRequestsTotal{method="GET",route="other",statusCode="4xx"}`,
		`briefSourceTotal{source="default"}`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}

func TestTimeoutMiddleware_CancelsContextAfterTimeout(t *testing.T) {
	var ctxErr error
	h := TimeoutMiddleware(10 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			ctxErr = r.Context().Err()
		case <-time.After(time.Second):
		}
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/brief", nil))

	if ctxErr != context.DeadlineExceeded {
		t.Errorf("ctx.Err() = %v, want context.DeadlineExceeded", ctxErr)
	}
}

func TestRateLimitMiddleware_Returns429WhenExceeded(t *testing.T) {
	traffic.Reset()
	h := newTestHandler(cache.NewInMemoryCache(), "data", nil, nil)
	router := NewRouter(h, zap.NewNop(), rate.NewLimiter(rate.Every(time.Hour), 2), time.Second)

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/brief", nil)
		req.Header.Set("X-Correlation-ID", "rl-test")
		router.ServeHTTP(last, req)
		codes = append(codes, last.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("status codes = %v, want [200 200 429]", codes)
	}
	var body struct {
		Error map[string]string `json:"error"`
	}
	if err := json.NewDecoder(last.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error["code"] != "RATE_LIMITED" || body.Error["requestId"] != "rl-test" {
		t.Errorf("error body = %v", body.Error)
	}
	if got := traffic.DenialCount(time.Minute); got != 1 {
		t.Errorf("DenialCount = %d, want 1", got)
	}

	// Health stays reachable when the brief routes are throttled.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("/health status = %d under rate limit, want 200", w.Code)
	}
}

func TestRateLimitMiddleware_NilLimiterPassesThrough(t *testing.T) {
	called := false
	h := RateLimitMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/brief", nil))
	if !called {
		t.Error("nil limiter should pass requests through")
	}
}
