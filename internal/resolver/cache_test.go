package resolver

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/chxlky/trello-agent/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var sampleBoards = []models.Board{{ID: "b1", Name: "Agentika", URL: "https://trello.com/b/b1"}}

func TestMemoryCacheTTL(t *testing.T) {
	now := time.Date(2024, 11, 20, 10, 0, 0, 0, time.UTC)
	c := NewMemoryCache(time.Minute)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_, ok := c.Load(ctx)
	assert.False(t, ok)

	c.Store(ctx, sampleBoards)
	got, ok := c.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, sampleBoards, got)

	now = now.Add(time.Minute)
	_, ok = c.Load(ctx)
	assert.False(t, ok)
}

func TestMemoryCacheZeroTTLNeverExpires(t *testing.T) {
	now := time.Date(2024, 11, 20, 10, 0, 0, 0, time.UTC)
	c := NewMemoryCache(0)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	c.Store(ctx, sampleBoards)
	now = now.Add(24 * 365 * time.Hour)
	_, ok := c.Load(ctx)
	assert.True(t, ok)

	c.Invalidate(ctx)
	_, ok = c.Load(ctx)
	assert.False(t, ok)
}

func TestMemoryCacheReturnsCopy(t *testing.T) {
	c := NewMemoryCache(0)
	ctx := context.Background()
	c.Store(ctx, sampleBoards)

	got, _ := c.Load(ctx)
	got[0].Name = "mutated"

	again, _ := c.Load(ctx)
	assert.Equal(t, "Agentika", again[0].Name)
}

func newRedisCache(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisCache(client, "", ttl, zaptest.NewLogger(t)), mr
}

func TestRedisCacheRoundTripWithTTL(t *testing.T) {
	c, mr := newRedisCache(t, time.Minute)
	ctx := context.Background()

	_, ok := c.Load(ctx)
	assert.False(t, ok)

	c.Store(ctx, sampleBoards)
	got, ok := c.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, sampleBoards, got)

	ttl := mr.TTL("trello-agent:boards")
	assert.True(t, ttl > 0 && ttl <= time.Minute, "unexpected TTL %v", ttl)

	mr.FastForward(time.Minute)
	_, ok = c.Load(ctx)
	assert.False(t, ok)
}

func TestRedisCacheInvalidate(t *testing.T) {
	c, mr := newRedisCache(t, 0)
	ctx := context.Background()

	c.Store(ctx, sampleBoards)
	assert.True(t, mr.Exists("trello-agent:boards"))

	c.Invalidate(ctx)
	assert.False(t, mr.Exists("trello-agent:boards"))
}

func TestRedisCacheDropsCorruptPayload(t *testing.T) {
	c, mr := newRedisCache(t, 0)
	require.NoError(t, mr.Set("trello-agent:boards", "{not json"))

	_, ok := c.Load(context.Background())
	assert.False(t, ok)
	assert.False(t, mr.Exists("trello-agent:boards"))
}

func TestResolverWithRedisCache(t *testing.T) {
	c, _ := newRedisCache(t, time.Minute)
	dir := newFakeDirectory()
	r := newTestResolver(t, dir, Options{Cache: c})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		id, err := r.ResolveBoard(ctx, "AGENTIKA")
		require.NoError(t, err)
		assert.Equal(t, "b1", id)
	}
	assert.Equal(t, 1, dir.calls["boards"])
}
