package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/status-brief-service/internal/cache"
	"github.com/kjstillabower/status-brief-service/internal/circuitbreaker"
	"github.com/kjstillabower/status-brief-service/internal/config"
	httphandler "github.com/kjstillabower/status-brief-service/internal/http"
	"github.com/kjstillabower/status-brief-service/internal/lifecycle"
	"github.com/kjstillabower/status-brief-service/internal/observability"
	"github.com/kjstillabower/status-brief-service/internal/service"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// snapshotStore is a cache backend whose connections are released on shutdown.
type snapshotStore interface {
	cache.Cache
	Close() error
}

// inMemoryStore adapts InMemoryCache to snapshotStore.
type inMemoryStore struct{ *cache.InMemoryCache }

func (inMemoryStore) Close() error { return nil }

// remoteStore is a network-backed snapshot store.
type remoteStore interface {
	snapshotStore
	cache.Pinger
}

// openSnapshotStore builds the configured backend. Remote backends are wrapped in a
// circuit breaker when enabled. The in-memory store has no Ping, so health reports no
// snapshotStore check for it.
func openSnapshotStore(cfg *config.Config, logger *zap.Logger) (snapshotStore, cache.Pinger, error) {
	var remote remoteStore
	switch cfg.CacheBackend {
	case config.BackendMemcached:
		mc, err := cache.NewMemcachedCache(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err != nil {
			return nil, nil, fmt.Errorf("memcached: %w", err)
		}
		remote = mc
	case config.BackendValkey:
		vc, err := cache.NewValkeyCache(cfg.ValkeyAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("valkey: %w", err)
		}
		remote = vc
	default:
		return inMemoryStore{cache.NewInMemoryCache()}, nil, nil
	}

	if !cfg.BreakerEnabled {
		return remote, remote, nil
	}
	cb := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: cfg.BreakerFailureThreshold,
		SuccessThreshold: cfg.BreakerSuccessThreshold,
		Timeout:          cfg.BreakerTimeout,
		OnStateChange: func(from, to circuitbreaker.State) {
			logger.Warn("snapshot store breaker transition",
				zap.String("backend", cfg.CacheBackend),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			observability.RecordBreakerTransition(from, to)
		},
	})
	guarded := cache.NewBreakerCache(remote, cb)
	return guarded, guarded, nil
}

func main() {
	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "dotenv: %v\n", err)
	}

	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	store, pinger, err := openSnapshotStore(cfg, logger)
	if err != nil {
		logger.Fatal("snapshot store", zap.Error(err))
	}
	logger.Info("snapshot store ready",
		zap.String("backend", cfg.CacheBackend),
		zap.Bool("circuit_breaker", cfg.BreakerEnabled && cfg.CacheBackend != config.BackendInMemory),
		zap.String("key", cfg.SnapshotKey),
		zap.Duration("ttl", cfg.SnapshotTTL))

	if cfg.SeedFile != "" {
		seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if _, err := cache.NewSeeder(store, logger).SeedFile(seedCtx, cfg.SeedFile, cfg.SnapshotKey, cfg.SnapshotTTL); err != nil {
			logger.Warn("snapshot seeding failed", zap.String("file", cfg.SeedFile), zap.Error(err))
		}
		seedCancel()
	}

	var opts []service.Option
	if cfg.ReadCoalesce > 0 {
		opts = append(opts, service.WithReadCoalescing(cfg.ReadCoalesce))
	}
	briefService := service.NewBriefService(store, cfg.SnapshotKey, cfg.SnapshotTTL, cfg.MaxParamLength, cfg.Location, opts...)

	healthConfig := &httphandler.HealthConfig{
		OverloadWindow:       cfg.OverloadWindow,
		OverloadThresholdPct: cfg.OverloadThresholdPct,
		RateLimitRPS:         cfg.RateLimitRPS,
		DegradedWindow:       cfg.DegradedWindow,
		DegradedFallbackPct:  cfg.DegradedFallbackPct,
		Store:                pinger,
		Version:              version,
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	handler := httphandler.NewHandler(briefService, cfg.ParamName, healthConfig, logger)
	observability.RegisterRateLimitGauges(cfg.OverloadWindow)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      httphandler.NewRouter(handler, logger, limiter, cfg.RequestTimeout),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("addr", ":"+cfg.ServerPort),
			zap.String("timezone", cfg.Location.String()),
			zap.String("version", version))
		lifecycle.MarkStarted(time.Now())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	logger.Info("waiting for in-flight requests", zap.Int64("count", httphandler.InFlightCount()))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.InFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, cfg.InFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}
	if err := store.Close(); err != nil {
		logger.Error("snapshot store close", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
