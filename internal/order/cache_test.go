// AngelaMos | 2026
// cache_test.go

package order

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *ListCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewListCache(client, time.Minute, nil)
}

func TestListCacheStoresUnderLoadedKey(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	scope := userScope("u1")

	var got []Order
	key, hit := cache.Load(ctx, scope, "all", &got)
	require.False(t, hit)
	require.NotEmpty(t, key)

	cache.Store(ctx, key, []Order{{ID: "o1"}})

	_, hit = cache.Load(ctx, scope, "all", &got)
	require.True(t, hit)
	require.Len(t, got, 1)
	assert.Equal(t, "o1", got[0].ID)
}

func TestListCacheDropsListReadBeforeInvalidation(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	scope := userScope("u1")

	var stale []Order
	key, hit := cache.Load(ctx, scope, "all", &stale)
	require.False(t, hit)

	require.NoError(t, cache.Invalidate(ctx, "u1"))
	cache.Store(ctx, key, []Order{})

	var got []Order
	_, hit = cache.Load(ctx, scope, "all", &got)
	assert.False(t, hit, "a list read before the write must not be served after it")
}

func TestListCacheInvalidateCoversAdminView(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	var lp ListPage
	key, _ := cache.Load(ctx, adminScope, "1", &lp)
	cache.Store(ctx, key, ListPage{Orders: []Order{{ID: "o1"}}, Total: 1})

	_, hit := cache.Load(ctx, adminScope, "1", &lp)
	require.True(t, hit)

	require.NoError(t, cache.Invalidate(ctx, "someone"))

	_, hit = cache.Load(ctx, adminScope, "1", &lp)
	assert.False(t, hit)
}

func TestListCacheDisabled(t *testing.T) {
	var cache *ListCache
	ctx := context.Background()

	key, hit := cache.Load(ctx, adminScope, "1", &ListPage{})
	assert.False(t, hit)
	assert.Empty(t, key)

	cache.Store(ctx, key, ListPage{})
	assert.NoError(t, cache.Invalidate(ctx, "u1"))
}
