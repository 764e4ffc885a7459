package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/status-brief-service/internal/cache"
	"github.com/kjstillabower/status-brief-service/internal/display"
	"github.com/kjstillabower/status-brief-service/internal/lifecycle"
	"github.com/kjstillabower/status-brief-service/internal/observability"
	"github.com/kjstillabower/status-brief-service/internal/service"
	"github.com/kjstillabower/status-brief-service/internal/traffic"
)

const (
	healthPingTimeout = 500 * time.Millisecond

	statusHealthy      = "healthy"
	statusDegraded     = "degraded"
	statusOverloaded   = "overloaded"
	statusShuttingDown = "shutting-down"
)

// HealthConfig holds lifecycle thresholds for the health handler.
type HealthConfig struct {
	OverloadWindow       time.Duration
	OverloadThresholdPct int
	RateLimitRPS         int // 0 when rate limiter disabled
	DegradedWindow       time.Duration
	DegradedFallbackPct  int
	// Store, when set, is pinged to check snapshot store reachability.
	Store   cache.Pinger
	Version string
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	briefs           *service.BriefService
	paramName        string
	healthConfig     *HealthConfig
	logger           *zap.Logger
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler reading the encoded brief from query parameter paramName.
func NewHandler(briefs *service.BriefService, paramName string, healthConfig *HealthConfig, logger *zap.Logger) *Handler {
	if paramName == "" {
		paramName = "data"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		briefs:       briefs,
		paramName:    paramName,
		healthConfig: healthConfig,
		logger:       logger,
	}
}

// GetBrief handles GET /brief. It always answers 200: a broken or missing parameter
// renders the snapshot or the default brief.
func (h *Handler) GetBrief(w http.ResponseWriter, r *http.Request) {
	res := h.render(r)
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, res)
}

// GetBriefDisplay handles GET /brief/display, returning the brief as display strings.
func (h *Handler) GetBriefDisplay(w http.ResponseWriter, r *http.Request) {
	res := h.render(r)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Brief-Source", res.Source)
	w.Header().Set("X-Brief-Shape", res.Shape)
	writeJSON(w, http.StatusOK, display.Build(res.Brief, h.briefs.Now()))
}

func (h *Handler) render(r *http.Request) service.Result {
	res := h.briefs.Render(r.Context(), r.URL.Query().Get(h.paramName))
	if res.Source == service.SourceParam {
		traffic.Record(traffic.Decoded)
	} else {
		traffic.Record(traffic.Fallback)
	}
	return res
}

// NotFound answers unknown routes with the standard error envelope.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, "NOT_FOUND", "route not found")
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
	checks     map[string]string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus(r.Context())

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	version := "dev"
	if h.healthConfig != nil && h.healthConfig.Version != "" {
		version = h.healthConfig.Version
	}
	now := time.Now()
	writeJSON(w, result.statusCode, map[string]interface{}{
		"status":    result.status,
		"service":   observability.ServiceName,
		"version":   version,
		"checks":    result.checks,
		"uptime":    lifecycle.Uptime(now).Round(time.Second).String(),
		"timestamp": now.UTC().Format(time.RFC3339),
	})
}

// computeHealthStatus evaluates conditions in priority order:
// shutting-down > overloaded > degraded > healthy. Degraded is reported with 200 so the
// instance stays in rotation; it still serves briefs from the snapshot or the default.
func (h *Handler) computeHealthStatus(ctx context.Context) healthResult {
	checks := map[string]string{"producer": "healthy"}

	if lifecycle.IsShuttingDown() {
		return healthResult{statusShuttingDown, http.StatusServiceUnavailable, "signal", checks}
	}
	if h.healthConfig == nil {
		return healthResult{statusHealthy, http.StatusOK, "", checks}
	}
	cfg := h.healthConfig

	storeOK := true
	if cfg.Store != nil {
		pingCtx, cancel := context.WithTimeout(ctx, healthPingTimeout)
		err := cfg.Store.Ping(pingCtx)
		cancel()
		if err != nil {
			storeOK = false
			checks["snapshotStore"] = "unhealthy"
			loggerFor(ctx, h.logger).Debug("snapshot store ping failed", zap.Error(err))
		} else {
			checks["snapshotStore"] = "healthy"
		}
	}

	if cfg.RateLimitRPS > 0 && cfg.OverloadWindow > 0 && cfg.OverloadThresholdPct > 0 {
		threshold := float64(cfg.RateLimitRPS) * cfg.OverloadWindow.Seconds() * float64(cfg.OverloadThresholdPct) / 100
		if float64(traffic.RequestCount(cfg.OverloadWindow)) > threshold {
			return healthResult{statusOverloaded, http.StatusServiceUnavailable, "overload_threshold", checks}
		}
	}

	// A high fallback rate means links stopped decoding, usually a producer schema change.
	if cfg.DegradedWindow > 0 && cfg.DegradedFallbackPct > 0 {
		fallbacks, served := traffic.FallbackRate(cfg.DegradedWindow)
		if served > 0 && float64(fallbacks)*100/float64(served) >= float64(cfg.DegradedFallbackPct) {
			checks["producer"] = "drifting"
			return healthResult{statusDegraded, http.StatusOK, "fallback_rate_breach", checks}
		}
	}
	if !storeOK {
		return healthResult{statusDegraded, http.StatusOK, "snapshot_store_unreachable", checks}
	}
	return healthResult{statusHealthy, http.StatusOK, "", checks}
}

// loggerFor returns the request logger from ctx, or fallback outside a request.
func loggerFor(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if l := observability.LoggerFromContext(ctx); l != nil {
		return l
	}
	return fallback
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code, message,
// and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": observability.CorrelationID(r.Context()),
		},
	})
}
