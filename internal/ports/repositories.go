package ports

import (
	"context"
	"freight-route-service/internal/domain"

	"github.com/shopspring/decimal"
)

// Port: read access to the depot pool.
type DepotRepository interface {
	ListActiveDepots(ctx context.Context) ([]domain.Depot, error)
}

// Port: the vehicle pool.
type VehicleRepository interface {
	GetVehicle(ctx context.Context, id int64) (*domain.Vehicle, error)
	// Return the first active AVAILABLE vehicle, or domain.ErrNotFound.
	FirstAvailableVehicle(ctx context.Context) (*domain.Vehicle, error)
	ListAvailableVehicles(ctx context.Context, weightKg, volumeM3 decimal.Decimal) ([]domain.Vehicle, error)
	// Compare-and-set the vehicle status; fails with domain.ErrVehicleUnavailable
	// when the stored status is not from.
	SetVehicleStatus(ctx context.Context, id int64, from, to domain.VehicleStatus) error
}

// Port: persisted routes and their legs.
type RouteRepository interface {
	// Persist a selected route with its legs and the estimate it was priced
	// with, deselecting every other route of the same shipment, in one
	// transaction. IDs are written back into route and estimate; estimate legs
	// are bound to route legs by position.
	SaveSelectedRoute(ctx context.Context, route *domain.Route, estimate *domain.CostBreakdown) error
	GetRoute(ctx context.Context, id int64) (*domain.Route, error)
	ListRoutesByShipment(ctx context.Context, shipmentID int64) ([]domain.Route, error)
	GetLeg(ctx context.Context, id int64) (*domain.Leg, error)
	// Persist a leg's status, vehicle, timestamps and costs.
	UpdateLeg(ctx context.Context, leg *domain.Leg) error
	// Persist a STARTED leg as finished. A non-nil final settles the route in
	// the same transaction: it is appended and its totals become the real
	// costs of the route and of each leg. Fails with domain.ErrInvalidState
	// when the stored leg is no longer STARTED.
	FinalizeLeg(ctx context.Context, leg *domain.Leg, final *domain.CostBreakdown) error
	ListLegsByVehicle(ctx context.Context, vehicleID int64) ([]domain.Leg, error)
	ListLegsByDriver(ctx context.Context, driverID string) ([]domain.Leg, error)
	// Atomically occupy an AVAILABLE vehicle and bind it to an ESTIMATED leg.
	AssignLegVehicle(ctx context.Context, legID, vehicleID int64) error
}

// Port: read access to cost breakdowns. They are written together with the
// route state they price, see RouteRepository.
type CostRepository interface {
	ListBreakdowns(ctx context.Context, shipmentID int64) ([]domain.CostBreakdown, error)
}
