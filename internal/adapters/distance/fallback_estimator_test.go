package distance

import (
	"context"
	"errors"
	"freight-route-service/internal/domain"
	"freight-route-service/internal/ports"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type memCache struct {
	mu     sync.Mutex
	m      map[string]ports.DistanceResult
	getErr error
}

func (c *memCache) Get(ctx context.Context, from, to domain.Coordinates) (ports.DistanceResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return ports.DistanceResult{}, false, c.getErr
	}
	r, ok := c.m[stubKey(from, to)]
	return r, ok, nil
}

func (c *memCache) Put(ctx context.Context, from, to domain.Coordinates, r ports.DistanceResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.m == nil {
		c.m = map[string]ports.DistanceResult{}
	}
	c.m[stubKey(from, to)] = r
	return nil
}

type slowEngine struct{}

func (slowEngine) Route(ctx context.Context, from, to domain.Coordinates) (ports.DistanceResult, error) {
	<-ctx.Done()
	return ports.DistanceResult{}, ctx.Err()
}

var (
	ba  = domain.NewCoordinates(-34.60, -58.40)
	cba = domain.NewCoordinates(-31.40, -64.20)
)

func TestHaversineFallback(t *testing.T) {
	r := Haversine(ba, cba)
	assert.InDelta(t, 647.24, r.DistanceKm, 0.01)
	assert.Equal(t, 11, r.DurationHours)
	assert.Equal(t, 11*3600, r.DurationSeconds)

	same := Haversine(ba, ba)
	assert.Zero(t, same.DistanceKm)
	assert.Zero(t, same.DurationHours)
}

func TestFallbackEstimatorUsesEngine(t *testing.T) {
	engine := NewStubEngine([]StubPair{{From: ba, To: cba, DistanceKm: 680, Seconds: 28000}})
	cache := &memCache{}
	est := NewFallbackEstimator(engine, cache, time.Second, zap.NewNop())

	r := est.Estimate(context.Background(), ba, cba)
	assert.Equal(t, 680.0, r.DistanceKm)
	assert.Equal(t, 8, r.DurationHours)

	r = est.Estimate(context.Background(), ba, cba)
	assert.Equal(t, 680.0, r.DistanceKm)
	assert.Equal(t, 1, engine.Calls(), "second estimate should be served from cache")
}

func TestFallbackEstimatorNeverFails(t *testing.T) {
	want := Haversine(ba, cba)

	tests := []struct {
		name string
		est  *FallbackEstimator
	}{
		{"unknown pair", NewFallbackEstimator(NewStubEngine(nil), nil, time.Second, zap.NewNop())},
		{"timeout", NewFallbackEstimator(slowEngine{}, nil, 20*time.Millisecond, zap.NewNop())},
		{"no engine", NewFallbackEstimator(nil, nil, 0, zap.NewNop())},
		{"broken cache", NewFallbackEstimator(nil, &memCache{getErr: errors.New("redis down")}, 0, zap.NewNop())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, want, tt.est.Estimate(context.Background(), ba, cba))
		})
	}
}
