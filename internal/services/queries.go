package services

import (
	"context"
	"fmt"
	"freight-route-service/internal/domain"
	"freight-route-service/internal/ports"

	"github.com/shopspring/decimal"
)

// Queries serves the read side: persisted routes, legs, cost history and
// the vehicle pool.
type Queries struct {
	vehicles   ports.VehicleRepository
	routes     ports.RouteRepository
	breakdowns ports.CostRepository
}

func NewQueries(vehicles ports.VehicleRepository, routes ports.RouteRepository, breakdowns ports.CostRepository) *Queries {
	return &Queries{vehicles: vehicles, routes: routes, breakdowns: breakdowns}
}

func (q *Queries) Route(ctx context.Context, id int64) (*domain.Route, error) {
	r, err := q.routes.GetRoute(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get route: %w", err)
	}
	return r, nil
}

func (q *Queries) ShipmentRoutes(ctx context.Context, shipmentID int64) ([]domain.Route, error) {
	rs, err := q.routes.ListRoutesByShipment(ctx, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("list routes of shipment %d: %w", shipmentID, err)
	}
	return rs, nil
}

func (q *Queries) Leg(ctx context.Context, id int64) (*domain.Leg, error) {
	l, err := q.routes.GetLeg(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get leg: %w", err)
	}
	return l, nil
}

func (q *Queries) DriverLegs(ctx context.Context, driverID string) ([]domain.Leg, error) {
	if driverID == "" {
		return nil, fmt.Errorf("list driver legs: %w: empty driver id", domain.ErrInvalidInput)
	}
	ls, err := q.routes.ListLegsByDriver(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("list legs of driver %q: %w", driverID, err)
	}
	return ls, nil
}

// ShipmentCosts lists every breakdown computed for the shipment, oldest first.
func (q *Queries) ShipmentCosts(ctx context.Context, shipmentID int64) ([]domain.CostBreakdown, error) {
	bs, err := q.breakdowns.ListBreakdowns(ctx, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("list costs of shipment %d: %w", shipmentID, err)
	}
	return bs, nil
}

func (q *Queries) AvailableVehicles(ctx context.Context, weightKg, volumeM3 decimal.Decimal) ([]domain.Vehicle, error) {
	if weightKg.IsNegative() || volumeM3.IsNegative() {
		return nil, fmt.Errorf("available vehicles: %w: negative cargo", domain.ErrInvalidInput)
	}
	vs, err := q.vehicles.ListAvailableVehicles(ctx, weightKg, volumeM3)
	if err != nil {
		return nil, fmt.Errorf("available vehicles: %w", err)
	}
	return vs, nil
}
