package cache

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	c := NewRedisCacheFromClient(client, ttl, slog.Default())

	t.Cleanup(func() { _ = c.Close() })

	return c, server
}

func TestRedisCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c, server := newTestCache(t, time.Minute)

	var missing []string

	found, err := c.Get(ctx, "datasets", &missing)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "datasets", []string{"lubm", "watdiv100k"}))
	assert.True(t, server.Exists("pqdag:catalog:datasets"))

	var got []string

	found, err = c.Get(ctx, "datasets", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"lubm", "watdiv100k"}, got)
}

func TestRedisCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c, server := newTestCache(t, 10*time.Second)

	require.NoError(t, c.Set(ctx, "query-sets", []string{"watdiv"}))
	assert.Equal(t, 10*time.Second, server.TTL("pqdag:catalog:query-sets"))

	server.FastForward(11 * time.Second)

	var got []string

	found, err := c.Get(ctx, "query-sets", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCache_DefaultTTL(t *testing.T) {
	c, _ := newTestCache(t, 0)
	assert.Equal(t, DefaultTTL, c.ttl)
}

func TestNewRedisCache(t *testing.T) {
	server := miniredis.RunT(t)

	c, err := NewRedisCache(context.Background(), "redis://"+server.Addr()+"/0", time.Minute, slog.Default())
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, err = NewRedisCache(context.Background(), "not a url", time.Minute, slog.Default())
	require.Error(t, err)
}

func TestRedisCache_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, server := newTestCache(t, time.Minute)

	require.NoError(t, server.Set("pqdag:catalog:datasets", "{not json"))

	var got []string

	_, err := c.Get(ctx, "datasets", &got)
	require.Error(t, err)
}
