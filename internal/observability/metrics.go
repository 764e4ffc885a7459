package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kjstillabower/status-brief-service/internal/circuitbreaker"
	"github.com/kjstillabower/status-brief-service/internal/traffic"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases, SLO breaches.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// Decode attempts by outcome (decoded, empty, invalid, failed). Watch for: failed rising = producer or link drift.
	BriefDecodeTotal *prometheus.CounterVec

	// Recognised input shape per decoded brief. Watch for: "default" share rising = unknown producer generation.
	BriefShapeTotal *prometheus.CounterVec

	// Where each rendered brief came from (param, cache, default). Watch for: default share rising.
	BriefSourceTotal *prometheus.CounterVec

	// Snapshot store latency by operation and status. Watch for: p95 > store timeout.
	SnapshotOperationDuration *prometheus.HistogramVec

	// Snapshot store failures by operation and category (timeout, connection, unknown).
	SnapshotErrorsTotal *prometheus.CounterVec

	// Snapshot seeding runs by status (seeded, skipped, error).
	SnapshotSeedTotal *prometheus.CounterVec

	// Snapshot store circuit breaker state (0 closed, 1 open, 2 half-open). Watch for: stuck open.
	SnapshotBreakerState prometheus.Gauge

	// Snapshot store circuit breaker transitions by from/to state.
	SnapshotBreakerTransitionsTotal *prometheus.CounterVec

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter

	rateLimitGaugesOnce sync.Once
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	BriefDecodeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "briefDecodeTotal",
			Help: "Total number of data parameter decode attempts by outcome",
		},
		[]string{"outcome"},
	)
	BriefShapeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "briefShapeTotal",
			Help: "Canonicalized briefs by detected input shape",
		},
		[]string{"shape"},
	)
	BriefSourceTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "briefSourceTotal",
			Help: "Rendered briefs by source (param, cache, default)",
		},
		[]string{"source"},
	)
	SnapshotOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "snapshotOperationDurationSeconds",
			Help:    "Snapshot store operation latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation", "status"},
	)
	SnapshotErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshotErrorsTotal",
			Help: "Snapshot store errors by operation and category",
		},
		[]string{"operation", "category"},
	)
	SnapshotSeedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshotSeedTotal",
			Help: "Snapshot seeding runs by status",
		},
		[]string{"status"},
	)
	SnapshotBreakerState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapshotBreakerState",
			Help: "Snapshot store circuit breaker state: 0 closed, 1 open, 2 half-open",
		},
	)
	SnapshotBreakerTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshotBreakerTransitionsTotal",
			Help: "Snapshot store circuit breaker state transitions",
		},
		[]string{"from", "to"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		BriefDecodeTotal, BriefShapeTotal, BriefSourceTotal,
		SnapshotOperationDuration, SnapshotErrorsTotal, SnapshotSeedTotal,
		SnapshotBreakerState, SnapshotBreakerTransitionsTotal,
		RateLimitDeniedTotal,
	)
}

// RegisterRateLimitGauges registers load and rejects gauges for the rate-limited path.
// Call from main after config load with cfg.OverloadWindow. Uses same window as lifecycle.
func RegisterRateLimitGauges(window time.Duration) {
	rateLimitGaugesOnce.Do(func() {
		registry.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRequestsInWindow",
					Help: "Requests hitting rate-limited path in sliding window; load/capacity planning",
				},
				func() float64 { return float64(traffic.RequestCount(window)) },
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRejectsInWindow",
					Help: "429 responses in sliding window; are we rejecting requests",
				},
				func() float64 { return float64(traffic.DenialCount(window)) },
			),
		)
	})
}

// RecordRender counts one rendered brief by source and shape.
func RecordRender(source, shape string) {
	BriefSourceTotal.WithLabelValues(source).Inc()
	BriefShapeTotal.WithLabelValues(shape).Inc()
}

// ObserveSnapshot records the latency of one snapshot store operation and, on failure,
// its error category.
func ObserveSnapshot(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
		SnapshotErrorsTotal.WithLabelValues(operation, CategorizeError(err)).Inc()
	}
	SnapshotOperationDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
}

// RecordBreakerTransition counts one snapshot store breaker transition and updates the state gauge.
func RecordBreakerTransition(from, to circuitbreaker.State) {
	SnapshotBreakerTransitionsTotal.WithLabelValues(from.String(), to.String()).Inc()
	SnapshotBreakerState.Set(float64(to))
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
