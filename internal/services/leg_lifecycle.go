package services

import (
	"context"
	"errors"
	"fmt"
	"freight-route-service/internal/domain"
	"freight-route-service/internal/platform/obs"
	"freight-route-service/internal/ports"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type LegLifecycleDeps struct {
	Vehicles  ports.VehicleRepository
	Routes    ports.RouteRepository
	Costs     CostCalculator
	Shipments ports.ShipmentGateway
	Locks     ports.VehicleLocker
}

// LegLifecycle moves legs through ESTIMATED -> ASSIGNED -> STARTED ->
// FINALIZED, keeps vehicle occupancy consistent and settles the route once
// its last leg is finalized.
//
// Lock order is route before vehicle.
type LegLifecycle struct {
	LegLifecycleDeps
	log *zap.Logger
	now func() time.Time
}

func NewLegLifecycle(deps LegLifecycleDeps, log *zap.Logger) *LegLifecycle {
	return &LegLifecycle{LegLifecycleDeps: deps, log: log, now: time.Now}
}

func (s *LegLifecycle) lockVehicle(ctx context.Context, vehicleID int64) (func(), error) {
	release, err := s.Locks.Acquire(ctx, ports.VehicleLockKey(vehicleID))
	if err != nil {
		s.log.Warn("vehicle lock contended", zap.Int64("vehicle_id", vehicleID), zap.Error(err))
		return nil, fmt.Errorf("%w: vehicle %d is busy: %v", domain.ErrVehicleUnavailable, vehicleID, err)
	}
	return release, nil
}

func (s *LegLifecycle) lockRoute(ctx context.Context, routeID int64) (func(), error) {
	release, err := s.Locks.Acquire(ctx, ports.RouteLockKey(routeID))
	if err != nil {
		s.log.Warn("route lock contended", zap.Int64("route_id", routeID), zap.Error(err))
		return nil, fmt.Errorf("route %d: %w", routeID, err)
	}
	return release, nil
}

// Assign binds an AVAILABLE vehicle able to carry the route's cargo to an
// ESTIMATED leg and marks the vehicle OCCUPIED.
func (s *LegLifecycle) Assign(ctx context.Context, legID, vehicleID int64) (_ *domain.Leg, err error) {
	defer obs.Time(ctx, "legs.Assign")(&err)

	leg, err := s.Routes.GetLeg(ctx, legID)
	if err != nil {
		return nil, fmt.Errorf("assign leg: %w", err)
	}
	if leg.Status != domain.LegEstimated {
		return nil, fmt.Errorf("assign leg: %w: leg %d is %s", domain.ErrInvalidState, legID, leg.Status)
	}
	route, err := s.Routes.GetRoute(ctx, leg.RouteID)
	if err != nil {
		return nil, fmt.Errorf("assign leg: %w", err)
	}

	release, err := s.lockVehicle(ctx, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("assign leg: %w", err)
	}
	defer release()

	v, err := s.Vehicles.GetVehicle(ctx, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("assign leg: %w", err)
	}
	if !v.IsAvailable() {
		return nil, fmt.Errorf("assign leg: %w: vehicle %d is %s", domain.ErrVehicleUnavailable, vehicleID, v.Status)
	}
	if !v.Fits(route.WeightKg, route.VolumeM3) {
		return nil, fmt.Errorf("assign leg: %w: vehicle %d cannot carry %s kg / %s m3",
			domain.ErrVehicleUnavailable, vehicleID, route.WeightKg, route.VolumeM3)
	}

	if err := s.Routes.AssignLegVehicle(ctx, legID, vehicleID); err != nil {
		return nil, fmt.Errorf("assign leg: %w", err)
	}

	s.log.Info("vehicle assigned",
		zap.Int64("leg_id", legID),
		zap.Int64("route_id", leg.RouteID),
		zap.Int64("vehicle_id", vehicleID),
	)

	return s.Routes.GetLeg(ctx, legID)
}

// driverOf checks that driverID drives the vehicle bound to the leg.
func (s *LegLifecycle) driverOf(ctx context.Context, leg *domain.Leg, driverID string) (*domain.Vehicle, error) {
	if leg.VehicleID == nil {
		return nil, fmt.Errorf("%w: leg %d has no vehicle", domain.ErrInvalidState, leg.ID)
	}
	v, err := s.Vehicles.GetVehicle(ctx, *leg.VehicleID)
	if err != nil {
		return nil, err
	}
	if driverID == "" || v.DriverID != driverID {
		return nil, fmt.Errorf("%w: driver %q does not drive vehicle %d", domain.ErrUnauthorized, driverID, v.ID)
	}
	return v, nil
}

// Start records the actual departure of an ASSIGNED leg. Starting the first
// leg moves the shipment to IN_TRANSIT.
func (s *LegLifecycle) Start(ctx context.Context, legID int64, driverID string) (_ *domain.Leg, err error) {
	defer obs.Time(ctx, "legs.Start")(&err)

	leg, err := s.Routes.GetLeg(ctx, legID)
	if err != nil {
		return nil, fmt.Errorf("start leg: %w", err)
	}

	release, err := s.lockRoute(ctx, leg.RouteID)
	if err != nil {
		return nil, fmt.Errorf("start leg: %w", err)
	}
	defer release()

	route, err := s.Routes.GetRoute(ctx, leg.RouteID)
	if err != nil {
		return nil, fmt.Errorf("start leg: %w", err)
	}
	leg, ok := route.Leg(legID)
	if !ok {
		return nil, fmt.Errorf("start leg: leg %d: %w", legID, domain.ErrNotFound)
	}
	if leg.Status != domain.LegAssigned {
		return nil, fmt.Errorf("start leg: %w: leg %d is %s", domain.ErrInvalidState, legID, leg.Status)
	}
	if _, err := s.driverOf(ctx, leg, driverID); err != nil {
		return nil, fmt.Errorf("start leg: %w", err)
	}

	if err := leg.Start(s.now().UTC()); err != nil {
		return nil, fmt.Errorf("start leg: %w", err)
	}
	if err := s.Routes.UpdateLeg(ctx, leg); err != nil {
		return nil, fmt.Errorf("start leg: %w", err)
	}

	s.log.Info("leg started", zap.Int64("leg_id", legID), zap.Int64("route_id", route.ID), zap.String("driver_id", driverID))

	if leg.Order == 1 {
		s.transition(ctx, route.ShipmentID, domain.ShipmentInTransit, fmt.Sprintf("leg %d started", legID))
	}
	return leg, nil
}

// Finish records the arrival of a STARTED leg. Finishing the last open leg
// settles the route: the final cost is computed and persisted together with
// the finished leg, and the shipment is DELIVERED. A failed settlement leaves
// the leg STARTED so the call can be repeated. The vehicle is freed
// afterwards when it holds no other active leg.
func (s *LegLifecycle) Finish(ctx context.Context, legID int64, driverID string) (_ *domain.Leg, err error) {
	defer obs.Time(ctx, "legs.Finish")(&err)

	leg, err := s.Routes.GetLeg(ctx, legID)
	if err != nil {
		return nil, fmt.Errorf("finish leg: %w", err)
	}

	release, err := s.lockRoute(ctx, leg.RouteID)
	if err != nil {
		return nil, fmt.Errorf("finish leg: %w", err)
	}
	defer release()

	route, err := s.Routes.GetRoute(ctx, leg.RouteID)
	if err != nil {
		return nil, fmt.Errorf("finish leg: %w", err)
	}
	leg, ok := route.Leg(legID)
	if !ok {
		return nil, fmt.Errorf("finish leg: leg %d: %w", legID, domain.ErrNotFound)
	}
	if leg.Status != domain.LegStarted {
		return nil, fmt.Errorf("finish leg: %w: leg %d is %s", domain.ErrInvalidState, legID, leg.Status)
	}
	v, err := s.driverOf(ctx, leg, driverID)
	if err != nil {
		return nil, fmt.Errorf("finish leg: %w", err)
	}

	if err := leg.Finish(s.now().UTC()); err != nil {
		return nil, fmt.Errorf("finish leg: %w", err)
	}

	var final *domain.CostBreakdown
	if route.AllFinalized() {
		final, err = s.settle(ctx, route)
		if err != nil {
			return nil, fmt.Errorf("finish leg: settle route %d: %w", route.ID, err)
		}
	}

	if err := s.Routes.FinalizeLeg(ctx, leg, final); err != nil {
		return nil, fmt.Errorf("finish leg: %w", err)
	}
	s.log.Info("leg finished", zap.Int64("leg_id", legID), zap.Int64("route_id", route.ID), zap.String("driver_id", driverID))

	if err := s.releaseVehicle(ctx, v.ID); err != nil {
		s.log.Error("vehicle left occupied after finished leg",
			zap.Int64("vehicle_id", v.ID),
			zap.Int64("leg_id", legID),
			zap.Error(err),
		)
	}

	if final != nil {
		s.log.Info("route settled",
			zap.Int64("route_id", route.ID),
			zap.Int64("shipment_id", route.ShipmentID),
			zap.String("real_total", final.Total.StringFixed(2)),
		)
		s.transition(ctx, route.ShipmentID, domain.ShipmentDelivered,
			fmt.Sprintf("route %d delivered, final cost %s", route.ID, final.Total.StringFixed(2)))
	}

	return leg, nil
}

// settle prices every leg with the rates of the vehicle that drove it and
// applies the result to route.
func (s *LegLifecycle) settle(ctx context.Context, route *domain.Route) (*domain.CostBreakdown, error) {
	inputs := make([]domain.CostLegInput, 0, len(route.Legs))
	vehicles := map[int64]*domain.Vehicle{}
	for _, l := range route.Legs {
		if l.VehicleID == nil {
			return nil, fmt.Errorf("%w: leg %d has no vehicle", domain.ErrInvalidState, l.ID)
		}
		v, ok := vehicles[*l.VehicleID]
		if !ok {
			var err error
			if v, err = s.Vehicles.GetVehicle(ctx, *l.VehicleID); err != nil {
				return nil, err
			}
			vehicles[v.ID] = v
		}
		inputs = append(inputs, domain.CostLegInput{
			LegID:                l.ID,
			DistanceKm:           l.DistanceKm,
			BaseCostPerKm:        v.BaseCostPerKm,
			ConsumptionKmPerUnit: v.ConsumptionKmPerUnit,
		})
	}

	final, err := s.Costs.ComputeFinal(ctx, inputs, route.WeightKg, route.VolumeM3, route.StayHours(), decimal.Zero)
	if err != nil {
		return nil, err
	}

	final.ShipmentID = route.ShipmentID
	final.RouteID = route.ID
	for i := range route.Legs {
		route.Legs[i].RealCost = decimal.NewNullDecimal(final.Legs[i].Total)
	}
	route.RealCostTotal = decimal.NewNullDecimal(final.Total)
	return final, nil
}

// releaseVehicle frees the vehicle unless another leg still holds it.
func (s *LegLifecycle) releaseVehicle(ctx context.Context, vehicleID int64) error {
	release, err := s.lockVehicle(ctx, vehicleID)
	if err != nil {
		return err
	}
	defer release()

	legs, err := s.Routes.ListLegsByVehicle(ctx, vehicleID)
	if err != nil {
		return fmt.Errorf("release vehicle %d: %w", vehicleID, err)
	}
	for _, l := range legs {
		if l.IsActive() {
			s.log.Debug("vehicle kept occupied", zap.Int64("vehicle_id", vehicleID), zap.Int64("leg_id", l.ID))
			return nil
		}
	}

	err = s.Vehicles.SetVehicleStatus(ctx, vehicleID, domain.VehicleOccupied, domain.VehicleAvailable)
	if errors.Is(err, domain.ErrVehicleUnavailable) {
		s.log.Warn("vehicle was not occupied on release", zap.Int64("vehicle_id", vehicleID), zap.Error(err))
		return nil
	}
	if err != nil {
		return fmt.Errorf("release vehicle %d: %w", vehicleID, err)
	}
	s.log.Info("vehicle released", zap.Int64("vehicle_id", vehicleID))
	return nil
}

func (s *LegLifecycle) transition(ctx context.Context, shipmentID int64, status domain.ShipmentStatus, observation string) {
	if err := s.Shipments.TransitionStatus(ctx, shipmentID, status, observation); err != nil {
		s.log.Error("shipment transition failed",
			zap.Int64("shipment_id", shipmentID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return
	}
	s.log.Info("shipment transitioned", zap.Int64("shipment_id", shipmentID), zap.String("status", string(status)))
}
