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

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	c := NewRedisFromClient(client, time.Hour)
	t.Cleanup(func() { _ = c.Close() })
	return c, srv
}

func TestRedisGetSet(t *testing.T) {
	c, srv := newTestRedis(t)
	ctx := context.Background()

	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)

	c.Set(ctx, "census-30301", []byte(`{"population":50000}`))
	data, ok := c.Get(ctx, "census-30301")
	require.True(t, ok)
	assert.Equal(t, `{"population":50000}`, string(data))

	// Entries are namespaced on the shared server.
	assert.True(t, srv.Exists("market-scout:census-30301"))
}

func TestRedisTTLExpiry(t *testing.T) {
	c, srv := newTestRedis(t)
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"))

	srv.FastForward(59 * time.Minute)
	_, ok := c.Get(ctx, "k")
	assert.True(t, ok)

	srv.FastForward(2 * time.Minute)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedisTransportErrorIsMiss(t *testing.T) {
	c, srv := newTestRedis(t)
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"))
	srv.Close()

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedisPing(t *testing.T) {
	c, srv := newTestRedis(t)
	require.NoError(t, c.Ping(context.Background()))

	srv.Close()
	assert.Error(t, c.Ping(context.Background()))
}
