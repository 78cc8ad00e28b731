package cache

import (
	"context"
	"freight-route-service/internal/domain"
	"freight-route-service/internal/ports"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisDistanceCacheRoundTrip(t *testing.T) {
	mr, rdb := newTestRedis(t)
	c := NewRedisDistanceCache(rdb, time.Hour)
	ctx := context.Background()

	from := domain.NewCoordinates(-34.6, -58.4)
	to := domain.NewCoordinates(-31.4, -64.2)

	_, ok, err := c.Get(ctx, from, to)
	require.NoError(t, err)
	assert.False(t, ok)

	want := ports.DistanceResult{DistanceKm: 680.5, DurationHours: 8, DurationSeconds: 28000}
	require.NoError(t, c.Put(ctx, from, to, want))

	got, ok, err := c.Get(ctx, from, to)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	_, ok, err = c.Get(ctx, to, from)
	require.NoError(t, err)
	assert.False(t, ok, "pairs are directional")

	mr.FastForward(2 * time.Hour)
	_, ok, err = c.Get(ctx, from, to)
	require.NoError(t, err)
	assert.False(t, ok, "entry should expire")
}

func TestRedisDistanceCacheCorruptValue(t *testing.T) {
	mr, rdb := newTestRedis(t)
	c := NewRedisDistanceCache(rdb, 0)

	from := domain.NewCoordinates(1, 2)
	to := domain.NewCoordinates(3, 4)
	require.NoError(t, mr.Set(redisKey(from, to), "not json"))

	_, _, err := c.Get(context.Background(), from, to)
	assert.Error(t, err)
}

func TestRedisDistanceCacheUnavailable(t *testing.T) {
	mr, rdb := newTestRedis(t)
	c := NewRedisDistanceCache(rdb, 0)
	mr.Close()

	_, _, err := c.Get(context.Background(), domain.Coordinates{}, domain.Coordinates{})
	assert.Error(t, err)
}
