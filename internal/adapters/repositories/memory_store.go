package repositories

import (
	"context"
	"fmt"
	"freight-route-service/internal/domain"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MemoryStore implements every persistence port in process memory. It backs
// runs without DATABASE_URL and the service tests.
//
// Values are copied in and out so callers never share state with the store.
type MemoryStore struct {
	mu sync.Mutex

	depots   []domain.Depot
	vehicles map[int64]*domain.Vehicle
	routes   map[int64]*domain.Route
	legRoute map[int64]int64

	bases   []domain.BaseTariff
	fuels   []domain.FuelTariff
	stays   []domain.StayTariff
	weights []domain.WeightVolumeTariff

	breakdowns []domain.CostBreakdown

	nextID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		vehicles: make(map[int64]*domain.Vehicle),
		routes:   make(map[int64]*domain.Route),
		legRoute: make(map[int64]int64),
	}
}

func (m *MemoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *MemoryStore) AddDepot(d domain.Depot) domain.Depot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == 0 {
		d.ID = m.id()
	}
	m.depots = append(m.depots, d)
	return d
}

func (m *MemoryStore) AddVehicle(v domain.Vehicle) domain.Vehicle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.ID == 0 {
		v.ID = m.id()
	}
	m.vehicles[v.ID] = &v
	return v
}

func (m *MemoryStore) AddBaseTariff(t domain.BaseTariff) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == 0 {
		t.ID = m.id()
	}
	m.bases = append(m.bases, t)
}

func (m *MemoryStore) AddFuelTariff(t domain.FuelTariff) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == 0 {
		t.ID = m.id()
	}
	m.fuels = append(m.fuels, t)
}

func (m *MemoryStore) AddStayTariff(t domain.StayTariff) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == 0 {
		t.ID = m.id()
	}
	m.stays = append(m.stays, t)
}

func (m *MemoryStore) AddWeightVolumeTariff(t domain.WeightVolumeTariff) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == 0 {
		t.ID = m.id()
	}
	m.weights = append(m.weights, t)
}

// Depots

func (m *MemoryStore) ListActiveDepots(ctx context.Context) ([]domain.Depot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Depot, 0, len(m.depots))
	for _, d := range m.depots {
		if d.Active {
			out = append(out, d)
		}
	}
	return out, nil
}

// Vehicles

func (m *MemoryStore) GetVehicle(ctx context.Context, id int64) (*domain.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.vehicles[id]
	if !ok {
		return nil, fmt.Errorf("vehicle %d: %w", id, domain.ErrNotFound)
	}
	cp := *v
	return &cp, nil
}

func (m *MemoryStore) sortedVehicles() []*domain.Vehicle {
	out := make([]*domain.Vehicle, 0, len(m.vehicles))
	for _, v := range m.vehicles {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MemoryStore) FirstAvailableVehicle(ctx context.Context) (*domain.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, v := range m.sortedVehicles() {
		if v.IsAvailable() {
			cp := *v
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("available vehicle: %w", domain.ErrNotFound)
}

func (m *MemoryStore) ListAvailableVehicles(ctx context.Context, weightKg, volumeM3 decimal.Decimal) ([]domain.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []domain.Vehicle{}
	for _, v := range m.sortedVehicles() {
		if v.IsAvailable() && v.Fits(weightKg, volumeM3) {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (m *MemoryStore) SetVehicleStatus(ctx context.Context, id int64, from, to domain.VehicleStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setVehicleStatus(id, from, to)
}

func (m *MemoryStore) setVehicleStatus(id int64, from, to domain.VehicleStatus) error {
	v, ok := m.vehicles[id]
	if !ok {
		return fmt.Errorf("vehicle %d: %w", id, domain.ErrNotFound)
	}
	if v.Status != from {
		return fmt.Errorf("%w: vehicle %d is %s, want %s", domain.ErrVehicleUnavailable, id, v.Status, from)
	}
	v.Status = to
	return nil
}

// Routes and legs

func copyRoute(r *domain.Route) *domain.Route {
	cp := *r
	cp.Legs = append([]domain.Leg(nil), r.Legs...)
	return &cp
}

func (m *MemoryStore) SaveSelectedRoute(ctx context.Context, route *domain.Route, estimate *domain.CostBreakdown) error {
	if err := checkEstimate(route, estimate); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.routes {
		if r.ShipmentID == route.ShipmentID {
			r.Selected = false
		}
	}

	route.ID = m.id()
	route.Selected = true
	if route.CreatedAt.IsZero() {
		route.CreatedAt = time.Now().UTC()
	}
	for i := range route.Legs {
		route.Legs[i].ID = m.id()
		route.Legs[i].RouteID = route.ID
		m.legRoute[route.Legs[i].ID] = route.ID
	}
	m.routes[route.ID] = copyRoute(route)

	if estimate != nil {
		bindEstimate(route, estimate)
		m.appendBreakdown(estimate)
	}
	return nil
}

func (m *MemoryStore) GetRoute(ctx context.Context, id int64) (*domain.Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.routes[id]
	if !ok {
		return nil, fmt.Errorf("route %d: %w", id, domain.ErrNotFound)
	}
	return copyRoute(r), nil
}

func (m *MemoryStore) ListRoutesByShipment(ctx context.Context, shipmentID int64) ([]domain.Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []domain.Route{}
	for _, r := range m.routes {
		if r.ShipmentID == shipmentID {
			out = append(out, *copyRoute(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) leg(id int64) (*domain.Leg, error) {
	routeID, ok := m.legRoute[id]
	if !ok {
		return nil, fmt.Errorf("leg %d: %w", id, domain.ErrNotFound)
	}
	l, _ := m.routes[routeID].Leg(id)
	return l, nil
}

func (m *MemoryStore) GetLeg(ctx context.Context, id int64) (*domain.Leg, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, err := m.leg(id)
	if err != nil {
		return nil, err
	}
	cp := *l
	return &cp, nil
}

func (m *MemoryStore) UpdateLeg(ctx context.Context, leg *domain.Leg) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, err := m.leg(leg.ID)
	if err != nil {
		return err
	}
	copyLegState(l, leg)
	return nil
}

func copyLegState(dst, src *domain.Leg) {
	dst.Status = src.Status
	dst.VehicleID = src.VehicleID
	dst.EstimatedStart, dst.EstimatedEnd = src.EstimatedStart, src.EstimatedEnd
	dst.ActualStart, dst.ActualEnd = src.ActualStart, src.ActualEnd
	dst.EstimatedCost, dst.RealCost = src.EstimatedCost, src.RealCost
}

// FinalizeLeg checks everything before writing so a rejected call leaves the
// store untouched.
func (m *MemoryStore) FinalizeLeg(ctx context.Context, leg *domain.Leg, final *domain.CostBreakdown) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, err := m.leg(leg.ID)
	if err != nil {
		return err
	}
	if l.Status != domain.LegStarted {
		return fmt.Errorf("%w: leg %d is %s", domain.ErrInvalidState, leg.ID, l.Status)
	}
	r := m.routes[l.RouteID]
	if final != nil {
		if final.RouteID != r.ID {
			return fmt.Errorf("%w: final cost targets route %d, leg belongs to route %d", domain.ErrInvalidInput, final.RouteID, r.ID)
		}
		for _, lc := range final.Legs {
			if _, ok := r.Leg(lc.LegID); !ok {
				return fmt.Errorf("%w: leg %d is not part of route %d", domain.ErrInvalidInput, lc.LegID, r.ID)
			}
		}
	}

	copyLegState(l, leg)
	if final == nil {
		return nil
	}
	for _, lc := range final.Legs {
		settled, _ := r.Leg(lc.LegID)
		settled.RealCost = decimal.NewNullDecimal(lc.Total)
	}
	r.RealCostTotal = decimal.NewNullDecimal(final.Total)
	m.appendBreakdown(final)
	return nil
}

func (m *MemoryStore) legsWhere(match func(*domain.Leg) bool) []domain.Leg {
	out := []domain.Leg{}
	for _, r := range m.routes {
		for i := range r.Legs {
			if match(&r.Legs[i]) {
				out = append(out, r.Legs[i])
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MemoryStore) ListLegsByVehicle(ctx context.Context, vehicleID int64) ([]domain.Leg, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.legsWhere(func(l *domain.Leg) bool {
		return l.VehicleID != nil && *l.VehicleID == vehicleID
	}), nil
}

func (m *MemoryStore) ListLegsByDriver(ctx context.Context, driverID string) ([]domain.Leg, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.legsWhere(func(l *domain.Leg) bool {
		if l.VehicleID == nil {
			return false
		}
		v, ok := m.vehicles[*l.VehicleID]
		return ok && v.DriverID == driverID
	}), nil
}

func (m *MemoryStore) AssignLegVehicle(ctx context.Context, legID, vehicleID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, err := m.leg(legID)
	if err != nil {
		return err
	}
	if l.Status != domain.LegEstimated {
		return fmt.Errorf("%w: leg %d is %s", domain.ErrInvalidState, legID, l.Status)
	}
	v, ok := m.vehicles[vehicleID]
	if !ok {
		return fmt.Errorf("vehicle %d: %w", vehicleID, domain.ErrNotFound)
	}
	if !v.Active {
		return fmt.Errorf("%w: vehicle %d is inactive", domain.ErrVehicleUnavailable, vehicleID)
	}
	if err := m.setVehicleStatus(vehicleID, domain.VehicleAvailable, domain.VehicleOccupied); err != nil {
		return err
	}
	return l.AssignVehicle(vehicleID)
}

// Cost breakdowns

func (m *MemoryStore) appendBreakdown(b *domain.CostBreakdown) {
	b.ID = m.id()
	cp := *b
	cp.Legs = append([]domain.LegCost(nil), b.Legs...)
	m.breakdowns = append(m.breakdowns, cp)
}

func (m *MemoryStore) ListBreakdowns(ctx context.Context, shipmentID int64) ([]domain.CostBreakdown, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []domain.CostBreakdown{}
	for _, b := range m.breakdowns {
		if b.ShipmentID == shipmentID {
			cp := b
			cp.Legs = append([]domain.LegCost(nil), b.Legs...)
			out = append(out, cp)
		}
	}
	return out, nil
}

// Tariffs. The current record of a kind is the active one with the latest
// EffectiveFrom; on equal dates the first inserted wins.

func latest[T any](records []T, window func(T) domain.TariffWindow, match func(T) bool) (T, bool) {
	var (
		best  T
		found bool
		from  time.Time
	)
	for _, r := range records {
		w := window(r)
		if !w.Active || !match(r) {
			continue
		}
		if !found || w.EffectiveFrom.After(from) {
			best, from, found = r, w.EffectiveFrom, true
		}
	}
	return best, found
}

func always[T any](T) bool { return true }

func (m *MemoryStore) CurrentBase(ctx context.Context) (domain.BaseTariff, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := latest(m.bases, func(t domain.BaseTariff) domain.TariffWindow { return t.TariffWindow }, always[domain.BaseTariff])
	return t, ok, nil
}

func (m *MemoryStore) CurrentFuel(ctx context.Context) (domain.FuelTariff, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := latest(m.fuels, func(t domain.FuelTariff) domain.TariffWindow { return t.TariffWindow }, always[domain.FuelTariff])
	return t, ok, nil
}

func (m *MemoryStore) CurrentStay(ctx context.Context) (domain.StayTariff, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := latest(m.stays, func(t domain.StayTariff) domain.TariffWindow { return t.TariffWindow }, always[domain.StayTariff])
	return t, ok, nil
}

func (m *MemoryStore) LookupWeightVolumeMultiplier(ctx context.Context, weightKg, volumeM3 decimal.Decimal) (domain.WeightVolumeTariff, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := latest(m.weights,
		func(t domain.WeightVolumeTariff) domain.TariffWindow { return t.TariffWindow },
		func(t domain.WeightVolumeTariff) bool { return t.Matches(weightKg, volumeM3) },
	)
	return t, ok, nil
}
