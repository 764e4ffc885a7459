package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/status-brief-service/internal/canon"
	"github.com/kjstillabower/status-brief-service/internal/decode"
	"github.com/kjstillabower/status-brief-service/internal/observability"
)

// ErrSeedUnrecognized is returned when a seed document matches no known brief shape.
var ErrSeedUnrecognized = errors.New("seed document has no recognised brief shape")

// Seeder primes an empty snapshot store so the first fallback render after a cold start
// shows a real brief instead of the default one.
type Seeder struct {
	store  Cache
	logger *zap.Logger
}

// NewSeeder creates a Seeder writing to store. logger may be nil.
func NewSeeder(store Cache, logger *zap.Logger) *Seeder {
	return &Seeder{store: store, logger: logger}
}

// SeedFile reads path and seeds it under key. The file may hold raw JSON or an encoded
// data parameter, anything decode.Decode accepts.
func (s *Seeder) SeedFile(ctx context.Context, path, key string, ttl time.Duration) (bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		observability.SnapshotSeedTotal.WithLabelValues("error").Inc()
		return false, fmt.Errorf("read seed file: %w", err)
	}
	return s.Seed(ctx, key, string(raw), ttl)
}

// Seed stores the document encoded in raw under key unless a snapshot already exists.
// Reports whether it wrote. An existing snapshot always wins over the seed.
func (s *Seeder) Seed(ctx context.Context, key, raw string, ttl time.Duration) (bool, error) {
	seeded, err := s.seed(ctx, key, raw, ttl)
	switch {
	case err != nil:
		observability.SnapshotSeedTotal.WithLabelValues("error").Inc()
	case seeded:
		observability.SnapshotSeedTotal.WithLabelValues("seeded").Inc()
	default:
		observability.SnapshotSeedTotal.WithLabelValues("skipped").Inc()
	}
	if s.logger != nil {
		if err != nil {
			s.logger.Warn("snapshot seed failed", zap.String("key", key), zap.Error(err))
		} else {
			s.logger.Info("snapshot seed complete", zap.String("key", key), zap.Bool("seeded", seeded))
		}
	}
	return seeded, err
}

func (s *Seeder) seed(ctx context.Context, key, raw string, ttl time.Duration) (bool, error) {
	doc, err := decode.Decode(raw)
	if err != nil {
		return false, fmt.Errorf("decode seed: %w", err)
	}
	if _, err := canon.Detect(doc); err != nil {
		return false, ErrSeedUnrecognized
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("encode seed: %w", err)
	}

	start := time.Now()
	_, exists, err := s.store.Get(ctx, key)
	observability.ObserveSnapshot("get", start, err)
	if err != nil {
		return false, fmt.Errorf("check existing snapshot: %w", err)
	}
	if exists {
		return false, nil
	}

	start = time.Now()
	err = s.store.Set(ctx, key, payload, ttl)
	observability.ObserveSnapshot("set", start, err)
	if err != nil {
		return false, fmt.Errorf("store seed: %w", err)
	}
	return true, nil
}
