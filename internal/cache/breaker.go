package cache

import (
	"context"
	"time"

	"github.com/kjstillabower/status-brief-service/internal/circuitbreaker"
)

// BreakerCache guards a remote store with a circuit breaker so an unreachable backend
// costs one fast ErrOpen per request instead of a dial timeout. A miss is not a failure.
type BreakerCache struct {
	inner Cache
	cb    *circuitbreaker.CircuitBreaker
}

// NewBreakerCache wraps inner with cb.
func NewBreakerCache(inner Cache, cb *circuitbreaker.CircuitBreaker) *BreakerCache {
	return &BreakerCache{inner: inner, cb: cb}
}

// Get implements Cache.Get through the breaker.
func (c *BreakerCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		value []byte
		ok    bool
	)
	err := c.cb.Call(ctx, func() error {
		var err error
		value, ok, err = c.inner.Get(ctx, key)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return value, ok, nil
}

// Set implements Cache.Set through the breaker.
func (c *BreakerCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.cb.Call(ctx, func() error {
		return c.inner.Set(ctx, key, value, ttl)
	})
}

// Ping checks the wrapped store directly so health reflects the backend, not the breaker.
// Stores without Ping are always reachable.
func (c *BreakerCache) Ping(ctx context.Context) error {
	if p, ok := c.inner.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close closes the wrapped store when it holds connections.
func (c *BreakerCache) Close() error {
	if cl, ok := c.inner.(interface{ Close() error }); ok {
		return cl.Close()
	}
	return nil
}

// State reports the breaker state.
func (c *BreakerCache) State() circuitbreaker.State {
	return c.cb.State()
}
