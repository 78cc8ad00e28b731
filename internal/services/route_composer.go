package services

import (
	"context"
	"errors"
	"fmt"
	"freight-route-service/internal/domain"
	"freight-route-service/internal/platform/obs"
	"freight-route-service/internal/ports"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Variants are indexed by their number of intermediate depots:
// 0 direct, 1 one depot, 2 two depots.
const variantCount = 3

// AlternativesRequest describes the cargo to route.
type AlternativesRequest struct {
	ShipmentID     int64           `validate:"gte=0"`
	OriginLat      float64         `validate:"latitude"`
	OriginLon      float64         `validate:"longitude"`
	DestinationLat float64         `validate:"latitude"`
	DestinationLon float64         `validate:"longitude"`
	WeightKg       decimal.Decimal `validate:"gt=0"`
	VolumeM3       decimal.Decimal `validate:"gt=0"`
}

func (r AlternativesRequest) origin() domain.Coordinates {
	return domain.NewCoordinates(r.OriginLat, r.OriginLon)
}

func (r AlternativesRequest) destination() domain.Coordinates {
	return domain.NewCoordinates(r.DestinationLat, r.DestinationLon)
}

func requestFor(s *domain.Shipment) AlternativesRequest {
	return AlternativesRequest{
		ShipmentID:     s.ID,
		OriginLat:      s.Origin.Lat,
		OriginLon:      s.Origin.Lon,
		DestinationLat: s.Destination.Lat,
		DestinationLon: s.Destination.Lon,
		WeightKg:       s.WeightKg,
		VolumeM3:       s.VolumeM3,
	}
}

// Variant is a transient route proposal. Cost is nil when the estimate
// could not be computed.
type Variant struct {
	Index       int
	Description string
	Route       *domain.Route
	Cost        *domain.CostBreakdown
}

type RouteComposerDeps struct {
	Depots    *DepotSelector
	Distances ports.DistanceEstimator
	Costs     CostCalculator
	Vehicles  ports.VehicleRepository
	Routes    ports.RouteRepository
	Shipments ports.ShipmentGateway
}

type RouteComposer struct {
	RouteComposerDeps
	costTimeout time.Duration
	log         *zap.Logger
	validate    *validator.Validate
	now         func() time.Time
}

func NewRouteComposer(deps RouteComposerDeps, costTimeout time.Duration, log *zap.Logger) *RouteComposer {
	return &RouteComposer{
		RouteComposerDeps: deps,
		costTimeout:       costTimeout,
		log:               log,
		validate:          newValidator(),
		now:               time.Now,
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

func (c *RouteComposer) check(req AlternativesRequest) error {
	if err := c.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// GenerateAlternatives proposes up to three route variants for the cargo, in
// canonical order, skipping the topologies the depot pool cannot provide.
// Nothing is persisted.
func (c *RouteComposer) GenerateAlternatives(ctx context.Context, req AlternativesRequest) (_ []Variant, err error) {
	defer obs.Time(ctx, "routes.GenerateAlternatives")(&err)

	if err := c.check(req); err != nil {
		return nil, fmt.Errorf("generate alternatives: %w", err)
	}

	rep, err := c.representative(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate alternatives: %w", err)
	}

	slots := make([]*Variant, variantCount)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < variantCount; i++ {
		g.Go(func() error {
			v, err := c.buildVariant(gctx, req, i)
			if errors.Is(err, domain.ErrVariantUnavailable) {
				c.log.Debug("variant unavailable", zap.Int64("shipment_id", req.ShipmentID), zap.Int("variant", i))
				return nil
			}
			if err != nil {
				return err
			}

			cost, err := c.estimate(gctx, v.Route, rep)
			if err != nil {
				c.log.Warn("variant returned without cost estimate",
					zap.Int64("shipment_id", req.ShipmentID),
					zap.Int("variant", i),
					zap.Error(err),
				)
			} else {
				v.Cost = cost
			}
			slots[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("generate alternatives: %w", err)
	}

	out := make([]Variant, 0, variantCount)
	for _, v := range slots {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out, nil
}

// GenerateAlternativesForShipment reads the cargo from the shipment service.
func (c *RouteComposer) GenerateAlternativesForShipment(ctx context.Context, shipmentID int64) ([]Variant, error) {
	s, err := c.Shipments.GetShipment(ctx, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("generate alternatives: get shipment %d: %w", shipmentID, err)
	}
	return c.GenerateAlternatives(ctx, requestFor(s))
}

// AssignRoute rebuilds the chosen variant from live data and persists it as
// the shipment's selected route with its estimate. The shipment is then
// moved to SCHEDULED.
func (c *RouteComposer) AssignRoute(ctx context.Context, shipmentID int64, variantIndex int) (_ *domain.Route, err error) {
	defer obs.Time(ctx, "routes.AssignRoute")(&err)

	if variantIndex < 0 || variantIndex >= variantCount {
		return nil, fmt.Errorf("assign route: %w: index %d", domain.ErrInvalidVariant, variantIndex)
	}

	s, err := c.Shipments.GetShipment(ctx, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("assign route: get shipment %d: %w", shipmentID, err)
	}
	req := requestFor(s)
	if err := c.check(req); err != nil {
		return nil, fmt.Errorf("assign route: shipment %d: %w", shipmentID, err)
	}

	v, err := c.buildVariant(ctx, req, variantIndex)
	if errors.Is(err, domain.ErrVariantUnavailable) {
		return nil, fmt.Errorf("assign route: %w: variant %d can no longer be built", domain.ErrInvalidVariant, variantIndex)
	}
	if err != nil {
		return nil, fmt.Errorf("assign route: %w", err)
	}
	route := v.Route

	rep, err := c.representative(ctx)
	if err != nil {
		return nil, fmt.Errorf("assign route: %w", err)
	}
	cost, err := c.estimate(ctx, route, rep)
	if err != nil {
		return nil, fmt.Errorf("assign route: estimate: %w", err)
	}

	route.Kind = domain.RouteAssigned
	route.ScheduleFrom(c.now().UTC())
	for i := range route.Legs {
		route.Legs[i].EstimatedCost = decimal.NewNullDecimal(cost.Legs[i].Total)
	}
	route.EstimatedCostTotal = decimal.NewNullDecimal(cost.Total)

	if err := c.Routes.SaveSelectedRoute(ctx, route, cost); err != nil {
		return nil, fmt.Errorf("assign route: save: %w", err)
	}

	c.log.Info("route assigned",
		zap.Int64("shipment_id", shipmentID),
		zap.Int64("route_id", route.ID),
		zap.Int("variant", variantIndex),
		zap.String("estimated_total", cost.Total.StringFixed(2)),
	)

	obsText := fmt.Sprintf("route %d assigned (%s)", route.ID, route.Description)
	if err := c.Shipments.TransitionStatus(ctx, shipmentID, domain.ShipmentScheduled, obsText); err != nil {
		c.log.Error("shipment transition failed",
			zap.Int64("shipment_id", shipmentID),
			zap.String("status", string(domain.ShipmentScheduled)),
			zap.Error(err),
		)
	}

	return route, nil
}

// buildVariant lays out the legs of one topology and measures them.
// It returns domain.ErrVariantUnavailable when the depot pool cannot supply
// exactly the depots the topology needs.
func (c *RouteComposer) buildVariant(ctx context.Context, req AlternativesRequest, index int) (*Variant, error) {
	depots, err := c.Depots.Choose(ctx, req.origin(), req.destination(), index)
	if err != nil {
		return nil, err
	}
	if len(depots) != index {
		return nil, fmt.Errorf("variant %d: %w: found %d depots", index, domain.ErrVariantUnavailable, len(depots))
	}

	stops := make([]domain.Location, 0, index+2)
	stops = append(stops, domain.OriginAt(req.origin()))
	for _, d := range depots {
		stops = append(stops, d.Location())
	}
	stops = append(stops, domain.DestinationAt(req.destination()))

	legs := make([]domain.Leg, 0, len(stops)-1)
	for i := 1; i < len(stops); i++ {
		from, to := stops[i-1], stops[i]
		r := c.Distances.Estimate(ctx, from.Coordinates, to.Coordinates)
		leg, err := domain.NewLeg(from, to, r.DistanceKm, r.DurationHours)
		if err != nil {
			return nil, fmt.Errorf("variant %d: leg %d: %w", index, i, err)
		}
		legs = append(legs, leg)
	}

	route, err := domain.NewRoute(req.ShipmentID, index, legs)
	if err != nil {
		return nil, fmt.Errorf("variant %d: %w", index, err)
	}
	route.Description = describe(depots)
	route.WeightKg = req.WeightKg
	route.VolumeM3 = req.VolumeM3

	return &Variant{Index: index, Description: route.Description, Route: route}, nil
}

func describe(depots []domain.Depot) string {
	if len(depots) == 0 {
		return "Direct"
	}
	names := make([]string, 0, len(depots))
	for _, d := range depots {
		names = append(names, d.Name)
	}
	if len(depots) == 1 {
		return "Via depot " + names[0]
	}
	return "Via depots " + strings.Join(names, ", ")
}

// representative returns the vehicle whose rates price the estimates, or nil
// when the fleet has no available vehicle.
func (c *RouteComposer) representative(ctx context.Context) (*domain.Vehicle, error) {
	v, err := c.Vehicles.FirstAvailableVehicle(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("representative vehicle: %w", err)
	}
	return v, nil
}

func (c *RouteComposer) estimate(ctx context.Context, route *domain.Route, rep *domain.Vehicle) (*domain.CostBreakdown, error) {
	if rep == nil {
		return nil, fmt.Errorf("%w: no available vehicle to price the route", domain.ErrVehicleUnavailable)
	}

	if c.costTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.costTimeout)
		defer cancel()
	}
	return c.Costs.ComputeEstimate(ctx, domain.LegInputs(route, rep), route.WeightKg, route.VolumeM3, route.DepotCount)
}
