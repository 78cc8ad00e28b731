package distance

import (
	"context"
	"freight-route-service/internal/domain"
	"freight-route-service/internal/ports"
	"math"
	"time"

	"go.uber.org/zap"
)

// Average road speed assumed when the routing engine cannot answer.
const fallbackSpeedKmh = 60.0

// FallbackEstimator implements DistanceEstimator. It consults the cache, then
// the routing engine under a per-call timeout, and falls back to the
// great-circle distance on any failure.
type FallbackEstimator struct {
	engine  ports.RoutingEngine
	cache   ports.DistanceCache
	timeout time.Duration
	log     *zap.Logger
}

// engine and cache may be nil.
func NewFallbackEstimator(
	engine ports.RoutingEngine,
	cache ports.DistanceCache,
	timeout time.Duration,
	log *zap.Logger,
) *FallbackEstimator {
	return &FallbackEstimator{engine: engine, cache: cache, timeout: timeout, log: log}
}

func (f *FallbackEstimator) Estimate(ctx context.Context, from, to domain.Coordinates) ports.DistanceResult {
	if f.cache != nil {
		r, ok, err := f.cache.Get(ctx, from, to)
		if err != nil {
			f.log.Warn("distance cache read failed", zap.Error(err))
		} else if ok {
			return r
		}
	}

	if f.engine != nil {
		callCtx, cancel := ctx, context.CancelFunc(func() {})
		if f.timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, f.timeout)
		}
		r, err := f.engine.Route(callCtx, from, to)
		cancel()

		if err == nil {
			if f.cache != nil {
				if err := f.cache.Put(ctx, from, to, r); err != nil {
					f.log.Warn("distance cache write failed", zap.Error(err))
				}
			}
			return r
		}

		f.log.Warn("routing engine unavailable, using great-circle fallback",
			zap.String("from", from.Key()),
			zap.String("to", to.Key()),
			zap.Error(err),
		)
	}

	return Haversine(from, to)
}

// Haversine estimates a leg from the great-circle distance at the fallback
// speed, with the duration rounded up to whole hours.
func Haversine(from, to domain.Coordinates) ports.DistanceResult {
	km := domain.HaversineKm(from, to)
	hours := int(math.Ceil(km / fallbackSpeedKmh))
	return ports.DistanceResult{
		DistanceKm:      km,
		DurationHours:   hours,
		DurationSeconds: hours * 3600,
	}
}
