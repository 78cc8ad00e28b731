package shipments

import (
	"context"
	"fmt"
	"freight-route-service/internal/domain"
	"sync"
)

// Transition is one status change recorded by MemoryGateway.
type Transition struct {
	ShipmentID  int64
	Status      domain.ShipmentStatus
	Observation string
}

// MemoryGateway keeps shipments in memory and records every transition.
// It backs local runs without a shipment service, and tests.
type MemoryGateway struct {
	mu          sync.Mutex
	shipments   map[int64]domain.Shipment
	status      map[int64]domain.ShipmentStatus
	transitions []Transition
	failWith    error
}

func NewMemoryGateway(shipments ...domain.Shipment) *MemoryGateway {
	g := &MemoryGateway{
		shipments: make(map[int64]domain.Shipment, len(shipments)),
		status:    make(map[int64]domain.ShipmentStatus),
	}
	for _, s := range shipments {
		g.shipments[s.ID] = s
	}
	return g
}

func (g *MemoryGateway) Put(s domain.Shipment) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.shipments[s.ID] = s
}

// FailTransitionsWith makes subsequent TransitionStatus calls return err.
func (g *MemoryGateway) FailTransitionsWith(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failWith = err
}

func (g *MemoryGateway) GetShipment(ctx context.Context, id int64) (*domain.Shipment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.shipments[id]
	if !ok {
		return nil, fmt.Errorf("shipment %d: %w", id, domain.ErrNotFound)
	}
	return &s, nil
}

func (g *MemoryGateway) TransitionStatus(ctx context.Context, id int64, status domain.ShipmentStatus, observation string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failWith != nil {
		return g.failWith
	}
	g.status[id] = status
	g.transitions = append(g.transitions, Transition{ShipmentID: id, Status: status, Observation: observation})
	return nil
}

func (g *MemoryGateway) Status(id int64) (domain.ShipmentStatus, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.status[id]
	return s, ok
}

func (g *MemoryGateway) Transitions() []Transition {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Transition(nil), g.transitions...)
}
