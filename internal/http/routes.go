package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/status-brief-service/internal/observability"
)

// NewRouter wires the service routes. Rate limiting and the request timeout apply only to
// the /brief routes; /health and /metrics stay reachable under load. limiter may be nil.
func NewRouter(h *Handler, logger *zap.Logger, limiter *rate.Limiter, requestTimeout time.Duration) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)
	router.NotFoundHandler = CorrelationIDMiddleware(logger)(MetricsMiddleware(http.HandlerFunc(h.NotFound)))

	briefRouter := router.PathPrefix("/brief").Subrouter()
	briefRouter.Use(RateLimitMiddleware(limiter))
	if requestTimeout > 0 {
		briefRouter.Use(TimeoutMiddleware(requestTimeout))
	}
	briefRouter.HandleFunc("", h.GetBrief).Methods(http.MethodGet)
	briefRouter.HandleFunc("/display", h.GetBriefDisplay).Methods(http.MethodGet)

	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)
	return router
}
