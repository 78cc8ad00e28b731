package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const retryInterval = 50 * time.Millisecond

// RedisLocker hands out Redis-backed locks so that several service instances
// share one single-writer guarantee per key. A holder that dies loses the
// lock after ttl.
type RedisLocker struct {
	locker *redislock.Client
	ttl    time.Duration
	wait   time.Duration
	log    *zap.Logger
}

// wait bounds how long Acquire retries a contended key.
func NewRedisLocker(rdb redis.UniversalClient, ttl, wait time.Duration, log *zap.Logger) *RedisLocker {
	return &RedisLocker{
		locker: redislock.New(rdb),
		ttl:    ttl,
		wait:   wait,
		log:    log,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	lk, err := l.locker.Obtain(waitCtx, key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(retryInterval),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		l.log.Info("lock contended", zap.String("key", key))
		return nil, fmt.Errorf("lock %s: %w", key, ErrNotObtained)
	}
	if err != nil {
		return nil, fmt.Errorf("lock %s: obtain: %w", key, err)
	}

	return func() {
		if err := lk.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.log.Warn("lock release failed", zap.String("key", key), zap.Error(err))
		}
	}, nil
}
