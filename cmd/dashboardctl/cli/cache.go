package cli

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/soule-smart/dashboard/internal/dashboard"
)

// CacheCLI manages the versioned dashboard cache.
type CacheCLI struct {
	client *redis.Client
	cache  *dashboard.Cache
}

// NewCacheCLI wraps an existing Redis client.
func NewCacheCLI(client *redis.Client) (*CacheCLI, error) {
	if client == nil {
		return nil, errors.New("cache cli: redis client required")
	}
	return &CacheCLI{client: client, cache: dashboard.NewCache(client, time.Minute)}, nil
}

// Bump invalidates every cached dataset and returns the new version.
func (c *CacheCLI) Bump(ctx context.Context) (int64, error) {
	if err := c.cache.Bump(ctx); err != nil {
		return 0, err
	}
	return c.cache.Version(ctx)
}

// Version reports the current cache version.
func (c *CacheCLI) Version(ctx context.Context) (int64, error) {
	return c.cache.Version(ctx)
}

// Close releases the Redis client.
func (c *CacheCLI) Close() error {
	return c.client.Close()
}
