// AngelaMos | 2026
// cache.go

package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/metrics"
)

const (
	adminScope = "admin"
	cacheName  = "order_list"
)

// ListCache holds rendered order lists. Each scope (one user, or the admin
// view) has a version counter that is bumped on every write, so stale
// entries are never read and simply expire.
type ListCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewListCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *ListCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListCache{client: client, ttl: ttl, logger: logger}
}

func userScope(userID string) string {
	return "user:" + userID
}

func versionKey(scope string) string {
	return core.RedisKey("orders", "ver", scope)
}

func (c *ListCache) entryKey(ctx context.Context, scope, page string) (string, error) {
	ver, err := c.client.Get(ctx, versionKey(scope)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return core.RedisKey("orders", "list", scope, "v"+strconv.FormatInt(ver, 10), page), nil
}

// Load fills dst from the cache. A miss or a cache failure reports false.
// The returned key pins the version seen here; pass it to Store so a list
// read before an invalidation is never filed under the newer version. An
// empty key means nothing should be stored.
func (c *ListCache) Load(ctx context.Context, scope, page string, dst any) (string, bool) {
	if c == nil || c.ttl <= 0 {
		return "", false
	}

	key, err := c.entryKey(ctx, scope, page)
	if err != nil {
		c.logger.Warn("order cache version read failed", "scope", scope, "error", err)
		return "", false
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("order cache read failed", "scope", scope, "error", err)
		}
		metrics.CacheMiss(cacheName)
		return key, false
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		metrics.CacheMiss(cacheName)
		return key, false
	}

	metrics.CacheHit(cacheName)
	return key, true
}

func (c *ListCache) Store(ctx context.Context, key string, v any) {
	if c == nil || c.ttl <= 0 || key == "" {
		return
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("order cache write failed", "key", key, "error", err)
	}
}

// Invalidate marks the lists of the given user and of the admin view stale.
func (c *ListCache) Invalidate(ctx context.Context, userID string) error {
	if c == nil {
		return nil
	}

	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(userScope(userID)))
		pipe.Incr(ctx, versionKey(adminScope))
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate order lists: %w", err)
	}
	return nil
}
