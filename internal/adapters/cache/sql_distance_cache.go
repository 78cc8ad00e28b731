package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"freight-route-service/internal/domain"
	"freight-route-service/internal/platform/obs"
	"freight-route-service/internal/ports"
	"time"
)

// SQLDistanceCache is a Postgres-backed cache of routing engine results keyed
// by the ordered coordinate pair. Entries older than ttl are ignored.
type SQLDistanceCache struct {
	DB  *sql.DB
	ttl time.Duration
}

func NewSQLDistanceCache(db *sql.DB, ttl time.Duration) *SQLDistanceCache {
	return &SQLDistanceCache{DB: db, ttl: ttl}
}

func (s *SQLDistanceCache) Get(
	ctx context.Context,
	from, to domain.Coordinates,
) (_ ports.DistanceResult, _ bool, err error) {
	defer obs.Time(ctx, "distance.cache.Get")(&err)

	if s.DB == nil {
		return ports.DistanceResult{}, false, errors.New("distance cache: db is nil")
	}

	q := `
	SELECT distance_km, duration_hours, duration_seconds, updated_at
	FROM distance_cache
	WHERE origin = $1
		AND destination = $2;
	`

	var (
		r         ports.DistanceResult
		updatedAt time.Time
	)
	err = s.DB.QueryRowContext(ctx, q, from.Key(), to.Key()).
		Scan(&r.DistanceKm, &r.DurationHours, &r.DurationSeconds, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.DistanceResult{}, false, nil
	}
	if err != nil {
		return ports.DistanceResult{}, false, fmt.Errorf("get distance cache: query distance_cache table: %w", err)
	}

	if s.ttl > 0 && time.Since(updatedAt) > s.ttl {
		return ports.DistanceResult{}, false, nil
	}
	return r, true, nil
}

func (s *SQLDistanceCache) Put(
	ctx context.Context,
	from, to domain.Coordinates,
	r ports.DistanceResult,
) error {
	if s.DB == nil {
		return errors.New("distance cache: db is nil")
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT INTO distance_cache (origin, destination, distance_km, duration_hours, duration_seconds, updated_at)
	VALUES ($1, $2, $3, $4, $5, now())
	ON CONFLICT (origin, destination) DO UPDATE
	SET distance_km = EXCLUDED.distance_km,
		duration_hours = EXCLUDED.duration_hours,
		duration_seconds = EXCLUDED.duration_seconds,
		updated_at = EXCLUDED.updated_at;
	`, from.Key(), to.Key(), r.DistanceKm, r.DurationHours, r.DurationSeconds)
	if err != nil {
		return fmt.Errorf("insert distance cache %s -> %s: %w", from.Key(), to.Key(), err)
	}

	return nil
}
