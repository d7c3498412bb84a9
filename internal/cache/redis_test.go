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

func setupRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client), mr
}

func TestRedisCacheGetMiss(t *testing.T) {
	c, _ := setupRedisCache(t)

	_, ok, err := c.Get(context.Background(), "session:missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCacheSetExAndGet(t *testing.T) {
	c, mr := setupRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetEx(ctx, "session:1", `{"id":"1"}`, time.Hour))

	val, ok, err := c.Get(ctx, "session:1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":"1"}`, val)
	assert.Equal(t, time.Hour, mr.TTL("session:1"))

	mr.FastForward(time.Hour + time.Second)
	_, ok, err = c.Get(ctx, "session:1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCacheDelIsIdempotent(t *testing.T) {
	c, mr := setupRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetEx(ctx, "session:1", "x", time.Minute))
	require.NoError(t, c.Del(ctx, "session:1"))
	require.NoError(t, c.Del(ctx, "session:1"))
	assert.False(t, mr.Exists("session:1"))
}

func TestRedisCacheServerDown(t *testing.T) {
	c, mr := setupRedisCache(t)
	mr.Close()

	_, _, err := c.Get(context.Background(), "session:1")
	assert.Error(t, err)
}

func TestDialRejectsBadURI(t *testing.T) {
	_, err := Dial(context.Background(), "not-a-uri")
	assert.Error(t, err)
}

func TestDial(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := Dial(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.SetEx(context.Background(), "k", "v", time.Minute))
	assert.True(t, mr.Exists("k"))
}
