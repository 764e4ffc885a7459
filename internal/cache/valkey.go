package cache

import (
	"context"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ValkeyCache implements Cache on a Valkey (or Redis-compatible) server.
type ValkeyCache struct {
	client valkey.Client
}

// NewValkeyCache connects to addr, either "host:port" or a redis:// / valkey:// URL.
// Connection failures surface here since the client dials on construction.
func NewValkeyCache(addr string) (*ValkeyCache, error) {
	opt, err := valkeyOptions(addr)
	if err != nil {
		return nil, err
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, err
	}
	return &ValkeyCache{client: client}, nil
}

func valkeyOptions(addr string) (valkey.ClientOption, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = "localhost:6379"
	}
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

// Get implements Cache.Get. A missing key is a miss, not an error.
func (c *ValkeyCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	payload, err := c.client.Do(ctx, c.client.B().Get().Key(key).Build()).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return payload, true, nil
}

// Set implements Cache.Set. TTLs below one second are rounded up to the server's resolution.
func (c *ValkeyCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < time.Second {
		ttl = time.Second
	}
	cmd := c.client.B().Set().Key(key).Value(valkey.BinaryString(value)).Ex(ttl).Build()
	return c.client.Do(ctx, cmd).Error()
}

// Ping checks if the server is reachable. Used for health checks.
func (c *ValkeyCache) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

// Close releases the client's connections. Call during shutdown.
func (c *ValkeyCache) Close() error {
	c.client.Close()
	return nil
}
