package repositories

import (
	"context"
	"freight-route-service/internal/domain"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func window(from string) domain.TariffWindow {
	t, _ := time.Parse(time.RFC3339, from)
	return domain.TariffWindow{EffectiveFrom: t, Active: true}
}

func testRoute(t *testing.T, shipmentID int64) *domain.Route {
	t.Helper()
	leg, err := domain.NewLeg(
		domain.OriginAt(domain.NewCoordinates(-34.6, -58.4)),
		domain.DestinationAt(domain.NewCoordinates(-31.4, -64.2)),
		680, 8,
	)
	require.NoError(t, err)
	r, err := domain.NewRoute(shipmentID, 0, []domain.Leg{leg})
	require.NoError(t, err)
	r.Kind = domain.RouteAssigned
	return r
}

func TestMemoryStoreCurrentTariffPicksLatestEffective(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	_, ok, err := m.CurrentBase(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	m.AddBaseTariff(domain.BaseTariff{Name: "old", ManagementFee: dec("900"), TariffWindow: window("2025-01-01T00:00:00Z")})
	m.AddBaseTariff(domain.BaseTariff{Name: "new", ManagementFee: dec("1000"), TariffWindow: window("2026-01-01T00:00:00Z")})
	inactive := window("2027-01-01T00:00:00Z")
	inactive.Active = false
	m.AddBaseTariff(domain.BaseTariff{Name: "draft", ManagementFee: dec("5000"), TariffWindow: inactive})

	b, ok, err := m.CurrentBase(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", b.Name)
}

// Duplicate effective dates are a data problem the registry does not
// reject; the in-memory registry resolves them to the first inserted record.
func TestMemoryStoreCurrentTariffTieKeepsFirstInserted(t *testing.T) {
	m := NewMemoryStore()
	m.AddFuelTariff(domain.FuelTariff{PricePerUnit: dec("950"), TariffWindow: window("2026-01-01T00:00:00Z")})
	m.AddFuelTariff(domain.FuelTariff{PricePerUnit: dec("990"), TariffWindow: window("2026-01-01T00:00:00Z")})

	f, ok, err := m.CurrentFuel(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "950", f.PricePerUnit.String())
}

func TestMemoryStoreWeightVolumeLookup(t *testing.T) {
	m := NewMemoryStore()
	m.AddWeightVolumeTariff(domain.WeightVolumeTariff{
		MinWeightKg: dec("0"), MaxWeightKg: dec("1000"),
		MinVolumeM3: dec("0"), MaxVolumeM3: dec("5"),
		Multiplier: dec("1.15"), TariffWindow: window("2026-01-01T00:00:00Z"),
	})

	wv, ok, err := m.LookupWeightVolumeMultiplier(context.Background(), dec("1000"), dec("5"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1.15", wv.Multiplier.String())

	_, ok, err = m.LookupWeightVolumeMultiplier(context.Background(), dec("1000"), dec("5.01"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreVehicleCompareAndSet(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	v := m.AddVehicle(domain.Vehicle{Plate: "AB123CD", Status: domain.VehicleAvailable, Active: true})

	require.NoError(t, m.SetVehicleStatus(ctx, v.ID, domain.VehicleAvailable, domain.VehicleOccupied))
	err := m.SetVehicleStatus(ctx, v.ID, domain.VehicleAvailable, domain.VehicleOccupied)
	assert.ErrorIs(t, err, domain.ErrVehicleUnavailable)

	_, err = m.FirstAvailableVehicle(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = m.SetVehicleStatus(ctx, 999, domain.VehicleAvailable, domain.VehicleOccupied)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryStoreSaveSelectedRouteDeselectsPrevious(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	first := testRoute(t, 7)
	require.NoError(t, m.SaveSelectedRoute(ctx, first, nil))
	second := testRoute(t, 7)
	require.NoError(t, m.SaveSelectedRoute(ctx, second, nil))
	other := testRoute(t, 8)
	require.NoError(t, m.SaveSelectedRoute(ctx, other, nil))

	routes, err := m.ListRoutesByShipment(ctx, 7)
	require.NoError(t, err)
	require.Len(t, routes, 2)
	assert.False(t, routes[0].Selected)
	assert.True(t, routes[1].Selected)

	got, err := m.GetRoute(ctx, other.ID)
	require.NoError(t, err)
	assert.True(t, got.Selected)

	leg, err := m.GetLeg(ctx, second.Legs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, leg.RouteID)
}

func TestMemoryStoreAssignLegVehicle(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	v := m.AddVehicle(domain.Vehicle{Plate: "AB123CD", DriverID: "drv", Status: domain.VehicleAvailable, Active: true})

	a, b := testRoute(t, 1), testRoute(t, 2)
	require.NoError(t, m.SaveSelectedRoute(ctx, a, nil))
	require.NoError(t, m.SaveSelectedRoute(ctx, b, nil))

	require.NoError(t, m.AssignLegVehicle(ctx, a.Legs[0].ID, v.ID))
	err := m.AssignLegVehicle(ctx, b.Legs[0].ID, v.ID)
	assert.ErrorIs(t, err, domain.ErrVehicleUnavailable)

	legs, err := m.ListLegsByDriver(ctx, "drv")
	require.NoError(t, err)
	require.Len(t, legs, 1)
	assert.Equal(t, domain.LegAssigned, legs[0].Status)

	got, err := m.GetVehicle(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleOccupied, got.Status)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	r := testRoute(t, 1)
	require.NoError(t, m.SaveSelectedRoute(ctx, r, nil))

	got, err := m.GetRoute(ctx, r.ID)
	require.NoError(t, err)
	got.Legs[0].Status = domain.LegFinalized

	again, err := m.GetRoute(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LegEstimated, again.Legs[0].Status)
}

func estimateFor(r *domain.Route, total string) *domain.CostBreakdown {
	b := &domain.CostBreakdown{Kind: domain.CostEstimate, Total: dec(total)}
	for range r.Legs {
		b.Legs = append(b.Legs, domain.LegCost{Total: dec(total)})
	}
	return b
}

func TestMemoryStoreSaveSelectedRouteStoresEstimate(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	r := testRoute(t, 7)
	est := estimateFor(r, "1200.00")
	require.NoError(t, m.SaveSelectedRoute(ctx, r, est))

	assert.NotZero(t, est.ID)
	assert.Equal(t, r.ID, est.RouteID)
	assert.EqualValues(t, 7, est.ShipmentID)
	assert.Equal(t, r.Legs[0].ID, est.Legs[0].LegID)

	costs, err := m.ListBreakdowns(ctx, 7)
	require.NoError(t, err)
	require.Len(t, costs, 1)
	assert.Equal(t, r.ID, costs[0].RouteID)
}

func TestMemoryStoreSaveSelectedRouteRejectsMismatchedEstimate(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	first := testRoute(t, 7)
	require.NoError(t, m.SaveSelectedRoute(ctx, first, estimateFor(first, "1000.00")))

	second := testRoute(t, 7)
	est := estimateFor(second, "1100.00")
	est.Legs = append(est.Legs, domain.LegCost{})
	err := m.SaveSelectedRoute(ctx, second, est)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	routes, err := m.ListRoutesByShipment(ctx, 7)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.True(t, routes[0].Selected)

	costs, err := m.ListBreakdowns(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, costs, 1)
}

// startedLeg persists a one-leg route and drives its leg to STARTED.
func startedLeg(t *testing.T, m *MemoryStore) (*domain.Route, *domain.Leg) {
	t.Helper()
	ctx := context.Background()
	v := m.AddVehicle(domain.Vehicle{Plate: "AB123CD", DriverID: "drv", Status: domain.VehicleAvailable, Active: true})

	r := testRoute(t, 7)
	require.NoError(t, m.SaveSelectedRoute(ctx, r, nil))
	require.NoError(t, m.AssignLegVehicle(ctx, r.Legs[0].ID, v.ID))

	leg, err := m.GetLeg(ctx, r.Legs[0].ID)
	require.NoError(t, err)
	require.NoError(t, leg.Start(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)))
	require.NoError(t, m.UpdateLeg(ctx, leg))
	require.NoError(t, leg.Finish(time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC)))
	return r, leg
}

func TestMemoryStoreFinalizeLegSettlesRoute(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	r, leg := startedLeg(t, m)

	final := &domain.CostBreakdown{
		Kind:       domain.CostFinal,
		ShipmentID: 7,
		RouteID:    r.ID,
		Total:      dec("1250.50"),
		Legs:       []domain.LegCost{{LegID: leg.ID, Total: dec("1250.50")}},
	}
	require.NoError(t, m.FinalizeLeg(ctx, leg, final))
	assert.NotZero(t, final.ID)

	got, err := m.GetRoute(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LegFinalized, got.Legs[0].Status)
	assert.Equal(t, "1250.50", got.RealCostTotal.Decimal.StringFixed(2))
	assert.Equal(t, "1250.50", got.Legs[0].RealCost.Decimal.StringFixed(2))

	costs, err := m.ListBreakdowns(ctx, 7)
	require.NoError(t, err)
	require.Len(t, costs, 1)
	assert.Equal(t, domain.CostFinal, costs[0].Kind)

	err = m.FinalizeLeg(ctx, leg, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestMemoryStoreFinalizeLegRejectedLeavesStoreUntouched(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	r, leg := startedLeg(t, m)

	final := &domain.CostBreakdown{
		Kind:    domain.CostFinal,
		RouteID: r.ID,
		Total:   dec("1250.50"),
		Legs:    []domain.LegCost{{LegID: leg.ID + 100, Total: dec("1250.50")}},
	}
	err := m.FinalizeLeg(ctx, leg, final)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	got, err := m.GetRoute(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LegStarted, got.Legs[0].Status)
	assert.False(t, got.RealCostTotal.Valid)

	costs, err := m.ListBreakdowns(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, costs)
}
