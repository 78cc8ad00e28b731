package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"freight-route-service/internal/domain"
	"freight-route-service/internal/services"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type routeServiceMock struct{ mock.Mock }

func (m *routeServiceMock) GenerateAlternatives(ctx context.Context, req services.AlternativesRequest) ([]services.Variant, error) {
	args := m.Called(ctx, req)
	v, _ := args.Get(0).([]services.Variant)
	return v, args.Error(1)
}

func (m *routeServiceMock) GenerateAlternativesForShipment(ctx context.Context, shipmentID int64) ([]services.Variant, error) {
	args := m.Called(ctx, shipmentID)
	v, _ := args.Get(0).([]services.Variant)
	return v, args.Error(1)
}

func (m *routeServiceMock) AssignRoute(ctx context.Context, shipmentID int64, variantIndex int) (*domain.Route, error) {
	args := m.Called(ctx, shipmentID, variantIndex)
	r, _ := args.Get(0).(*domain.Route)
	return r, args.Error(1)
}

type queriesMock struct{ mock.Mock }

func (m *queriesMock) Route(ctx context.Context, id int64) (*domain.Route, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*domain.Route)
	return r, args.Error(1)
}

func (m *queriesMock) ShipmentRoutes(ctx context.Context, shipmentID int64) ([]domain.Route, error) {
	args := m.Called(ctx, shipmentID)
	r, _ := args.Get(0).([]domain.Route)
	return r, args.Error(1)
}

func (m *queriesMock) ShipmentCosts(ctx context.Context, shipmentID int64) ([]domain.CostBreakdown, error) {
	args := m.Called(ctx, shipmentID)
	r, _ := args.Get(0).([]domain.CostBreakdown)
	return r, args.Error(1)
}

func (m *queriesMock) Leg(ctx context.Context, id int64) (*domain.Leg, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*domain.Leg)
	return r, args.Error(1)
}

func (m *queriesMock) DriverLegs(ctx context.Context, driverID string) ([]domain.Leg, error) {
	args := m.Called(ctx, driverID)
	r, _ := args.Get(0).([]domain.Leg)
	return r, args.Error(1)
}

func (m *queriesMock) AvailableVehicles(ctx context.Context, weightKg, volumeM3 decimal.Decimal) ([]domain.Vehicle, error) {
	args := m.Called(ctx, weightKg.String(), volumeM3.String())
	r, _ := args.Get(0).([]domain.Vehicle)
	return r, args.Error(1)
}

type legServiceMock struct{ mock.Mock }

func (m *legServiceMock) Assign(ctx context.Context, legID, vehicleID int64) (*domain.Leg, error) {
	args := m.Called(ctx, legID, vehicleID)
	r, _ := args.Get(0).(*domain.Leg)
	return r, args.Error(1)
}

func (m *legServiceMock) Start(ctx context.Context, legID int64, driverID string) (*domain.Leg, error) {
	args := m.Called(ctx, legID, driverID)
	r, _ := args.Get(0).(*domain.Leg)
	return r, args.Error(1)
}

func (m *legServiceMock) Finish(ctx context.Context, legID int64, driverID string) (*domain.Leg, error) {
	args := m.Called(ctx, legID, driverID)
	r, _ := args.Get(0).(*domain.Leg)
	return r, args.Error(1)
}

type fixture struct {
	routes  *routeServiceMock
	legs    *legServiceMock
	queries *queriesMock
	engine  *gin.Engine
}

func newFixture() *fixture {
	gin.SetMode(gin.TestMode)
	f := &fixture{routes: &routeServiceMock{}, legs: &legServiceMock{}, queries: &queriesMock{}, engine: gin.New()}
	(&RouteHandler{Routes: f.routes, Queries: f.queries, Log: zap.NewNop()}).RegisterRoutes(f.engine)
	(&LegHandler{Legs: f.legs, Queries: f.queries, Log: zap.NewNop()}).RegisterRoutes(f.engine)
	f.engine.GET("/health", Health)
	return f
}

func (f *fixture) do(method, path, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		req.Header[k] = vs
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func sampleRoute() *domain.Route {
	from := domain.OriginAt(domain.NewCoordinates(-34.6, -58.4))
	to := domain.DestinationAt(domain.NewCoordinates(-31.4, -64.2))
	leg, _ := domain.NewLeg(from, to, 700, 9)
	r, _ := domain.NewRoute(42, 0, []domain.Leg{leg})
	r.ID = 7
	r.Description = "Direct"
	return r
}

func TestHealth(t *testing.T) {
	w := newFixture().do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestAlternativesHandler(t *testing.T) {
	f := newFixture()
	cost := &domain.CostBreakdown{Kind: domain.CostEstimate, Total: decimal.RequireFromString("1338000"), Multiplier: decimal.NewFromInt(1)}
	f.routes.On("GenerateAlternatives", mock.Anything, mock.MatchedBy(func(r services.AlternativesRequest) bool {
		return r.ShipmentID == 42 && r.OriginLat == -34.6 && r.DestinationLon == -64.2 && r.WeightKg.String() == "500"
	})).Return([]services.Variant{{Index: 0, Description: "Direct", Route: sampleRoute(), Cost: cost}}, nil)

	body := `{"shipment_id": 42, "origin": {"lat": -34.6, "lon": -58.4}, "destination": {"lat": -31.4, "lon": -64.2}, "weight_kg": 500, "volume_m3": 2}`
	w := f.do(http.MethodPost, "/routes/alternatives", body, nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	variants := decode(t, w)["variants"].([]any)
	require.Len(t, variants, 1)
	v := variants[0].(map[string]any)
	assert.Equal(t, "1338000.00", v["cost"].(map[string]any)["total"])
	assert.Equal(t, "700.00", v["route"].(map[string]any)["total_distance_km"])
	f.routes.AssertExpectations(t)
}

func TestAlternativesHandlerRejectsBadBody(t *testing.T) {
	f := newFixture()

	for _, body := range []string{`{`, `{"origin": {"lat": 1}, "destination": {"lat": 1, "lon": 1}}`} {
		w := f.do(http.MethodPost, "/routes/alternatives", body, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
	f.routes.AssertNotCalled(t, "GenerateAlternatives", mock.Anything, mock.Anything)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("get shipment: %w", domain.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("x: %w", domain.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("assign route: %w", domain.ErrInvalidVariant), http.StatusBadRequest},
		{fmt.Errorf("x: %w", domain.ErrInvalidState), http.StatusConflict},
		{fmt.Errorf("x: %w", domain.ErrVehicleUnavailable), http.StatusConflict},
		{fmt.Errorf("x: %w", domain.ErrUnauthorized), http.StatusForbidden},
		{&domain.MissingTariffError{Kind: domain.TariffFuel}, http.StatusInternalServerError},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			f := newFixture()
			f.routes.On("AssignRoute", mock.Anything, int64(42), 1).Return(nil, tt.err)

			w := f.do(http.MethodPost, "/shipments/42/routes/assign", `{"variant_index": 1}`, nil)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	f := newFixture()
	f.queries.On("Route", mock.Anything, int64(3)).Return(nil, fmt.Errorf("select routes: pq: password authentication failed"))

	w := f.do(http.MethodGet, "/routes/3", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal error", decode(t, w)["error"])
}

func TestAssignRouteHandler(t *testing.T) {
	f := newFixture()
	f.routes.On("AssignRoute", mock.Anything, int64(42), 0).Return(sampleRoute(), nil)

	w := f.do(http.MethodPost, "/shipments/42/routes/assign", `{"variant_index": 0}`, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.EqualValues(t, 7, decode(t, w)["id"])

	w = f.do(http.MethodPost, "/shipments/42/routes/assign", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/shipments/abc/routes/assign", `{"variant_index": 0}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLegTransitionsRequireDriver(t *testing.T) {
	f := newFixture()
	leg := sampleRoute().Legs[0]
	leg.Status = domain.LegStarted
	f.legs.On("Start", mock.Anything, int64(5), "driver-1").Return(&leg, nil)
	f.legs.On("Finish", mock.Anything, int64(5), "driver-1").Return(nil, fmt.Errorf("finish leg: %w", domain.ErrInvalidState))

	w := f.do(http.MethodPost, "/legs/5/start", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	hdr := http.Header{DriverHeader: []string{"driver-1"}}
	w = f.do(http.MethodPost, "/legs/5/start", "", hdr)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "STARTED", decode(t, w)["status"])

	w = f.do(http.MethodPost, "/legs/5/finish", "", hdr)
	assert.Equal(t, http.StatusConflict, w.Code)
	f.legs.AssertExpectations(t)
}

func TestAssignVehicleHandler(t *testing.T) {
	f := newFixture()
	leg := sampleRoute().Legs[0]
	f.legs.On("Assign", mock.Anything, int64(5), int64(9)).Return(nil, fmt.Errorf("assign leg: %w", domain.ErrVehicleUnavailable))

	w := f.do(http.MethodPost, "/legs/5/assign", `{"vehicle_id": 9}`, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(http.MethodPost, "/legs/5/assign", `{"vehicle_id": 0}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.queries.On("Leg", mock.Anything, int64(5)).Return(&leg, nil)
	w = f.do(http.MethodGet, "/legs/5", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAvailableVehiclesHandler(t *testing.T) {
	f := newFixture()
	f.queries.On("AvailableVehicles", mock.Anything, "500", "2.5").Return([]domain.Vehicle{{
		ID: 1, Plate: "AB123CD", BaseCostPerKm: decimal.NewFromInt(850), Status: domain.VehicleAvailable,
	}}, nil)

	w := f.do(http.MethodGet, "/vehicles/available?weight_kg=500&volume_m3=2.5", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	vehicles := decode(t, w)["vehicles"].([]any)
	require.Len(t, vehicles, 1)
	assert.Equal(t, "850.00", vehicles[0].(map[string]any)["base_cost_per_km"])

	w = f.do(http.MethodGet, "/vehicles/available?weight_kg=heavy", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShipmentQueriesHandlers(t *testing.T) {
	f := newFixture()
	f.queries.On("ShipmentRoutes", mock.Anything, int64(42)).Return([]domain.Route{*sampleRoute()}, nil)
	f.queries.On("ShipmentCosts", mock.Anything, int64(42)).Return([]domain.CostBreakdown{{Kind: domain.CostFinal}}, nil)
	f.queries.On("DriverLegs", mock.Anything, "driver-1").Return([]domain.Leg{}, nil)

	w := f.do(http.MethodGet, "/shipments/42/routes", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["routes"], 1)

	w = f.do(http.MethodGet, "/shipments/42/costs", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	costs := decode(t, w)["costs"].([]any)
	assert.Equal(t, "FINAL", costs[0].(map[string]any)["kind"])

	w = f.do(http.MethodGet, "/drivers/driver-1/legs", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["legs"])
}
