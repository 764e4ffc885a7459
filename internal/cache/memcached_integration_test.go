//go:build integration
// +build integration

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/kjstillabower/status-brief-service/internal/circuitbreaker"
)

type remoteBackend interface {
	Cache
	Pinger
	Close() error
}

// liveBackends opens every remote snapshot store reachable from this host. Addresses come
// from MEMCACHED_ADDRS and VALKEY_ADDR, defaulting to localhost.
func liveBackends(t *testing.T) map[string]remoteBackend {
	t.Helper()
	backends := map[string]remoteBackend{}

	mc, err := NewMemcachedCache(os.Getenv("MEMCACHED_ADDRS"), 500*time.Millisecond, 2)
	if err == nil && mc.Ping(context.Background()) == nil {
		backends["memcached"] = mc
	}
	if vc, err := NewValkeyCache(os.Getenv("VALKEY_ADDR")); err == nil {
		backends["valkey"] = vc
	}
	if len(backends) == 0 {
		t.Skip("no memcached or valkey server reachable")
	}
	t.Cleanup(func() {
		for _, b := range backends {
			_ = b.Close()
		}
	})
	return backends
}

// TestRemoteStores_SnapshotRoundTrip_Integration stores a non-ASCII snapshot and reads it
// back byte for byte, both directly and through the breaker guard.
func TestRemoteStores_SnapshotRoundTrip_Integration(t *testing.T) {
	for name, store := range liveBackends(t) {
		t.Run(name, func(t *testing.T) {
			guarded := NewBreakerCache(store, circuitbreaker.New(circuitbreaker.Config{}))
			ctx := context.Background()
			key := "it:snapshot:" + name
			val := []byte(`{"city":"Zürich","health":{"steps":8123}}`)

			if err := guarded.Set(ctx, key, val, time.Minute); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			for label, c := range map[string]Cache{"direct": store, "guarded": guarded} {
				got, ok, err := c.Get(ctx, key)
				if err != nil || !ok {
					t.Fatalf("%s Get() = %v, %v", label, ok, err)
				}
				if string(got) != string(val) {
					t.Errorf("%s Get() = %s, want %s", label, got, val)
				}
			}
			if err := guarded.Ping(ctx); err != nil {
				t.Errorf("Ping() error = %v", err)
			}
		})
	}
}

// TestRemoteStores_MissIsNotAFailure_Integration checks that repeated misses never trip
// the breaker.
func TestRemoteStores_MissIsNotAFailure_Integration(t *testing.T) {
	for name, store := range liveBackends(t) {
		t.Run(name, func(t *testing.T) {
			guarded := NewBreakerCache(store, circuitbreaker.New(circuitbreaker.Config{FailureThreshold: 1}))
			for i := 0; i < 3; i++ {
				_, ok, err := guarded.Get(context.Background(), "it:nonexistent:"+name)
				if err != nil || ok {
					t.Fatalf("Get(miss) = %v, %v; want false, nil", ok, err)
				}
			}
			if got := guarded.State(); got != circuitbreaker.StateClosed {
				t.Errorf("State() = %v after misses, want closed", got)
			}
		})
	}
}
