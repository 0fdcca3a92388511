package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryListingCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryListingCache(time.Minute)
	c.now = func() time.Time { return now }

	_, gen, ok, err := c.Get(ctx, KindTickets, "page=1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, KindTickets, "page=1", gen, []byte(`[1]`)))
	require.NoError(t, c.Set(ctx, KindStats, "", gen, []byte(`{}`)))
	body, _, ok, err := c.Get(ctx, KindTickets, "page=1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[1]`, string(body))

	require.NoError(t, c.Invalidate(ctx))
	_, _, ok, _ = c.Get(ctx, KindTickets, "page=1")
	assert.False(t, ok)
	_, gen, ok, _ = c.Get(ctx, KindStats, "")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, KindStats, "", gen, []byte(`{}`)))
	now = now.Add(2 * time.Minute)
	_, _, ok, _ = c.Get(ctx, KindStats, "")
	assert.False(t, ok, "entries expire after the ttl")
}

func TestMemoryListingCacheDropsWritesFromOldGeneration(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryListingCache(time.Minute)

	_, gen, ok, err := c.Get(ctx, KindTickets, "status=open")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Invalidate(ctx))
	require.NoError(t, c.Set(ctx, KindTickets, "status=open", gen, []byte(`["before submit"]`)))

	_, newGen, ok, err := c.Get(ctx, KindTickets, "status=open")
	require.NoError(t, err)
	assert.False(t, ok, "a load that started before invalidation is not served")
	assert.NotEqual(t, gen, newGen)
}

func TestMemoryRevocationStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryRevocationStore()
	s.now = func() time.Time { return now }

	revoked, err := s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, s.Revoke(ctx, "jti-1", time.Hour))
	revoked, _ = s.IsRevoked(ctx, "jti-1")
	assert.True(t, revoked)

	now = now.Add(2 * time.Hour)
	revoked, _ = s.IsRevoked(ctx, "jti-1")
	assert.False(t, revoked)

	require.NoError(t, s.Revoke(ctx, "jti-2", 0))
	revoked, _ = s.IsRevoked(ctx, "jti-2")
	assert.False(t, revoked)
}

func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return client
}

func TestRedisListingCache(t *testing.T) {
	client := redisClient(t)
	ctx := context.Background()
	c := NewRedisListingCache(client, time.Minute)

	key := "status=open&run=" + time.Now().Format("150405.000000")
	_, gen, _, err := c.Get(ctx, KindTickets, key)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, KindTickets, key, gen, []byte(`["a"]`)))
	body, _, ok, err := c.Get(ctx, KindTickets, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `["a"]`, string(body))

	require.NoError(t, c.Invalidate(ctx))
	_, _, ok, err = c.Get(ctx, KindTickets, key)
	require.NoError(t, err)
	assert.False(t, ok)

	// A load that began before the invalidation writes into the old generation.
	require.NoError(t, c.Set(ctx, KindTickets, key, gen, []byte(`["stale"]`)))
	_, _, ok, err = c.Get(ctx, KindTickets, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisRevocationStore(t *testing.T) {
	client := redisClient(t)
	ctx := context.Background()
	s := NewRedisRevocationStore(client)

	id := "test-" + time.Now().Format("150405.000000")
	require.NoError(t, s.Revoke(ctx, id, time.Minute))
	revoked, err := s.IsRevoked(ctx, id)
	require.NoError(t, err)
	assert.True(t, revoked)
	revoked, err = s.IsRevoked(ctx, id+"-other")
	require.NoError(t, err)
	assert.False(t, revoked)
}
