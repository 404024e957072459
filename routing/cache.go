package routing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/chetak-health/chetak-api/geo"
	"github.com/chetak-health/chetak-api/observability"
)

const (
	cacheName      = "route"
	cacheKeyPrefix = "route:v1:"
	// DefaultCacheTTL is how long a route stays cached
	DefaultCacheTTL = time.Hour
)

// CachedProvider wraps a Provider with a redis read-through cache. Failed lookups are
// never cached and redis errors only cost a cache miss.
type CachedProvider struct {
	next Provider
	rdb  redis.UniversalClient
	ttl  time.Duration
}

// NewCachedProvider creates a caching wrapper around next
func NewCachedProvider(next Provider, rdb redis.UniversalClient, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedProvider{next: next, rdb: rdb, ttl: ttl}
}

// Route implements the Provider interface
func (c *CachedProvider) Route(ctx context.Context, from, to geo.Coordinate) (*Route, error) {
	key := CacheKey(from, to)

	if r, ok := c.get(ctx, key); ok {
		return r, nil
	}

	r, err := c.next.Route(ctx, from, to)
	if err != nil {
		return nil, err
	}

	b, err := json.Marshal(r)
	if err == nil {
		err = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	if err != nil {
		zap.S().Warnw("failed to cache route", "key", key, "error", err)
	} else {
		observability.ObserveCache(cacheName, "set")
	}
	return r, nil
}

func (c *CachedProvider) get(ctx context.Context, key string) (*Route, bool) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.ObserveCache(cacheName, "miss")
		return nil, false
	}
	if err != nil {
		observability.ObserveCache(cacheName, "error")
		zap.S().Warnw("route cache read failed", "key", key, "error", err)
		return nil, false
	}
	var r Route
	if err := json.Unmarshal(b, &r); err != nil {
		observability.ObserveCache(cacheName, "error")
		return nil, false
	}
	observability.ObserveCache(cacheName, "hit")
	return &r, true
}

// CacheKey derives the cache key for a route. Coordinates are rounded to 5 decimal
// places (about a metre) so near-identical lookups share an entry.
func CacheKey(from, to geo.Coordinate) string {
	raw := fmt.Sprintf("%.5f,%.5f;%.5f,%.5f", from.Latitude, from.Longitude, to.Latitude, to.Longitude)
	sum := sha256.Sum256([]byte(raw))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
