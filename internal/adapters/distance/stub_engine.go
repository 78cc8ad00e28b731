package distance

import (
	"context"
	"fmt"
	"freight-route-service/internal/domain"
	"freight-route-service/internal/ports"
	"math"
	"sync"
)

type StubPair struct {
	From, To   domain.Coordinates
	DistanceKm float64
	Seconds    int
}

// StubEngine is a RoutingEngine answering from a fixed table. Unknown pairs
// fail, which exercises the fallback path.
type StubEngine struct {
	mu    sync.Mutex
	m     map[string]ports.DistanceResult
	calls int
}

func NewStubEngine(pairs []StubPair) *StubEngine {
	m := make(map[string]ports.DistanceResult, len(pairs))
	for _, p := range pairs {
		m[stubKey(p.From, p.To)] = ports.DistanceResult{
			DistanceKm:      p.DistanceKm,
			DurationHours:   int(math.Ceil(float64(p.Seconds) / 3600.0)),
			DurationSeconds: p.Seconds,
		}
	}
	return &StubEngine{m: m}
}

func (s *StubEngine) Route(ctx context.Context, from, to domain.Coordinates) (ports.DistanceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	r, ok := s.m[stubKey(from, to)]
	if !ok {
		return ports.DistanceResult{}, fmt.Errorf("missing pair %s -> %s", from.Key(), to.Key())
	}
	return r, nil
}

func (s *StubEngine) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func stubKey(from, to domain.Coordinates) string {
	return from.Key() + "|" + to.Key()
}
