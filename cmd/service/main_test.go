package main

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/status-brief-service/internal/cache"
	"github.com/kjstillabower/status-brief-service/internal/config"
)

func TestOpenSnapshotStore_InMemory(t *testing.T) {
	store, pinger, err := openSnapshotStore(&config.Config{CacheBackend: config.BackendInMemory}, zap.NewNop())
	if err != nil {
		t.Fatalf("openSnapshotStore() error = %v", err)
	}
	if pinger != nil {
		t.Error("in-memory store should not report a pinger")
	}
	ctx := context.Background()
	if err := store.Set(ctx, "k", []byte(`{"city":"Hull"}`), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got, ok, err := store.Get(ctx, "k"); err != nil || !ok || string(got) != `{"city":"Hull"}` {
		t.Errorf("Get() = %s, %v, %v", got, ok, err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestOpenSnapshotStore_MemcachedGuarded(t *testing.T) {
	// The memcached client dials lazily, so construction succeeds without a server.
	store, pinger, err := openSnapshotStore(&config.Config{
		CacheBackend:   config.BackendMemcached,
		MemcachedAddrs: "127.0.0.1:1",
		BreakerEnabled: true,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("openSnapshotStore() error = %v", err)
	}
	defer store.Close()
	if _, ok := store.(*cache.BreakerCache); !ok {
		t.Errorf("store = %T, want *cache.BreakerCache", store)
	}
	if pinger == nil {
		t.Error("memcached store should report a pinger")
	}
}

func TestOpenSnapshotStore_Valkey(t *testing.T) {
	store, pinger, err := openSnapshotStore(&config.Config{CacheBackend: config.BackendValkey, ValkeyAddr: "localhost:6379"}, zap.NewNop())
	if err != nil {
		t.Skipf("valkey not reachable: %v", err)
	}
	defer store.Close()
	if pinger == nil {
		t.Error("valkey store should report a pinger")
	}
}

// TestCoverageGaps_IntentionallyUntested documents why main itself has no unit test.
// Run with -v to see skip reason.
func TestCoverageGaps_IntentionallyUntested(t *testing.T) {
	t.Skip("main() is signal-driven wiring; store selection is covered above and everything else lives in internal packages with tests")
}
