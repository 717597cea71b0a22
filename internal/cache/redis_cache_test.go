package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reportStub struct {
	Entries int    `json:"entries"`
	Value   string `json:"value"`
}

func newTestRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisCacheWithClient(client), mr
}

func TestRedisCache_SetGet(t *testing.T) {
	c, _ := newTestRedisCache(t)
	ctx := context.Background()

	in := reportStub{Entries: 3, Value: "1250.00"}
	require.NoError(t, c.Set(ctx, "report:today", in, time.Minute))

	var out reportStub
	require.NoError(t, c.Get(ctx, "report:today", &out))
	assert.Equal(t, in, out)
}

func TestRedisCache_MissAndExpiry(t *testing.T) {
	c, mr := newTestRedisCache(t)
	ctx := context.Background()

	var out reportStub
	assert.ErrorIs(t, c.Get(ctx, "absent", &out), ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "report:today", reportStub{Entries: 1}, time.Second))
	mr.FastForward(2 * time.Second)
	assert.ErrorIs(t, c.Get(ctx, "report:today", &out), ErrCacheMiss)
}

func TestRedisCache_Del(t *testing.T) {
	c, _ := newTestRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k1", reportStub{}, time.Minute))
	require.NoError(t, c.Del(ctx, "k1"))

	var out reportStub
	assert.ErrorIs(t, c.Get(ctx, "k1", &out), ErrCacheMiss)
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	var out reportStub
	assert.ErrorIs(t, c.Get(ctx, "absent", &out), ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", reportStub{Entries: 7}, time.Minute))
	require.NoError(t, c.Get(ctx, "k", &out))
	assert.Equal(t, 7, out.Entries)

	require.NoError(t, c.Del(ctx, "k"))
	assert.ErrorIs(t, c.Get(ctx, "k", &out), ErrCacheMiss)
}
