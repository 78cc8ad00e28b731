package ports

import (
	"context"
	"freight-route-service/internal/domain"
)

// Distance and travel duration between two locations.
type DistanceResult struct {
	DistanceKm      float64
	DurationHours   int
	DurationSeconds int
}

// Contract for the external routing engine. Any error is a signal to fall back.
type RoutingEngine interface {
	Route(ctx context.Context, from, to domain.Coordinates) (DistanceResult, error)
}

// DistanceEstimator never fails: implementations return a best-effort estimate.
type DistanceEstimator interface {
	Estimate(ctx context.Context, from, to domain.Coordinates) DistanceResult
}

// Optional persistent cache of routing engine results.
type DistanceCache interface {
	Get(ctx context.Context, from, to domain.Coordinates) (DistanceResult, bool, error)
	Put(ctx context.Context, from, to domain.Coordinates, r DistanceResult) error
}
