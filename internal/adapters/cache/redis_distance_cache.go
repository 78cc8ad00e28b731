package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"freight-route-service/internal/domain"
	"freight-route-service/internal/platform/obs"
	"freight-route-service/internal/ports"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "distance:"

// RedisDistanceCache stores routing engine results as JSON values that expire
// after ttl. A zero ttl keeps entries forever.
type RedisDistanceCache struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewRedisDistanceCache(rdb redis.UniversalClient, ttl time.Duration) *RedisDistanceCache {
	return &RedisDistanceCache{rdb: rdb, ttl: ttl}
}

type cachedDistance struct {
	DistanceKm      float64 `json:"distance_km"`
	DurationHours   int     `json:"duration_hours"`
	DurationSeconds int     `json:"duration_seconds"`
}

func (c *RedisDistanceCache) Get(
	ctx context.Context,
	from, to domain.Coordinates,
) (_ ports.DistanceResult, _ bool, err error) {
	defer obs.Time(ctx, "distance.redis.Get")(&err)

	raw, err := c.rdb.Get(ctx, redisKey(from, to)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ports.DistanceResult{}, false, nil
	}
	if err != nil {
		return ports.DistanceResult{}, false, fmt.Errorf("redis distance cache get: %w", err)
	}

	var v cachedDistance
	if err := json.Unmarshal(raw, &v); err != nil {
		return ports.DistanceResult{}, false, fmt.Errorf("redis distance cache decode: %w", err)
	}

	return ports.DistanceResult{
		DistanceKm:      v.DistanceKm,
		DurationHours:   v.DurationHours,
		DurationSeconds: v.DurationSeconds,
	}, true, nil
}

func (c *RedisDistanceCache) Put(
	ctx context.Context,
	from, to domain.Coordinates,
	r ports.DistanceResult,
) error {
	raw, err := json.Marshal(cachedDistance{
		DistanceKm:      r.DistanceKm,
		DurationHours:   r.DurationHours,
		DurationSeconds: r.DurationSeconds,
	})
	if err != nil {
		return fmt.Errorf("redis distance cache encode: %w", err)
	}

	if err := c.rdb.Set(ctx, redisKey(from, to), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis distance cache set: %w", err)
	}
	return nil
}

func redisKey(from, to domain.Coordinates) string {
	return redisKeyPrefix + from.Key() + "|" + to.Key()
}
