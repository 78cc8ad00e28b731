package services

import (
	"context"
	"fmt"
	"freight-route-service/internal/domain"
	"freight-route-service/internal/ports"
	"math"
)

// Interpolation points used to place intermediate depots along the
// origin->destination line.
const (
	firstDepotFraction  = 0.33
	secondDepotFraction = 0.66
)

type DepotSelector struct {
	depots ports.DepotRepository
}

func NewDepotSelector(depots ports.DepotRepository) *DepotSelector {
	return &DepotSelector{depots: depots}
}

// Choose returns up to count intermediate depots drawn from the active pool.
// A shorter list means the topology is unavailable, not an error.
func (s *DepotSelector) Choose(
	ctx context.Context,
	origin, destination domain.Coordinates,
	count int,
) ([]domain.Depot, error) {
	if count <= 0 {
		return []domain.Depot{}, nil
	}

	all, err := s.depots.ListActiveDepots(ctx)
	if err != nil {
		return nil, fmt.Errorf("choose depots: list active depots: %w", err)
	}

	return ChooseDepots(all, origin, destination, count), nil
}

// ChooseDepots selects depots by proximity to points on the straight
// coordinate line between origin and destination.
//
// count=1 picks the depot nearest the coordinate midpoint. count=2 picks the
// depot nearest the 33% point, then, excluding it, the one nearest the 66%
// point. Inactive depots are ignored.
func ChooseDepots(pool []domain.Depot, origin, destination domain.Coordinates, count int) []domain.Depot {
	active := make([]domain.Depot, 0, len(pool))
	for _, d := range pool {
		if d.Active {
			active = append(active, d)
		}
	}

	switch count {
	case 1:
		d, ok := nearestDepot(active, domain.Midpoint(origin, destination), nil)
		if !ok {
			return []domain.Depot{}
		}
		return []domain.Depot{d}

	case 2:
		out := make([]domain.Depot, 0, 2)
		first, ok := nearestDepot(active, domain.Interpolate(origin, destination, firstDepotFraction), nil)
		if !ok {
			return out
		}
		out = append(out, first)

		exclude := map[int64]struct{}{first.ID: {}}
		second, ok := nearestDepot(active, domain.Interpolate(origin, destination, secondDepotFraction), exclude)
		if !ok {
			return out
		}
		return append(out, second)
	}

	return []domain.Depot{}
}

// Ties keep the earlier depot of the pool so the choice is deterministic.
func nearestDepot(pool []domain.Depot, target domain.Coordinates, exclude map[int64]struct{}) (domain.Depot, bool) {
	var best domain.Depot
	found := false
	bestDist := math.MaxFloat64

	for _, d := range pool {
		if _, skip := exclude[d.ID]; skip {
			continue
		}
		dist := domain.HaversineKm(d.Coordinates, target)
		if dist < bestDist {
			best, bestDist, found = d, dist, true
		}
	}

	return best, found
}
