package shipments

import (
	"context"
	"encoding/json"
	"freight-route-service/internal/domain"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPGatewayGetShipment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/shipments/7":
			_, _ = w.Write([]byte(`{"id":7,"origin":{"lat":-34.6,"lon":-58.4},"destination":{"lat":-31.4,"lon":-64.2},"weight_kg":500,"volume_m3":"2.5"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	g, err := NewHTTPGateway(srv.URL, srv.Client())
	require.NoError(t, err)

	s, err := g.GetShipment(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, domain.NewCoordinates(-34.6, -58.4), s.Origin)
	assert.Equal(t, domain.NewCoordinates(-31.4, -64.2), s.Destination)
	assert.Equal(t, "500", s.WeightKg.String())
	assert.Equal(t, "2.5", s.VolumeM3.String())

	_, err = g.GetShipment(context.Background(), 8)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHTTPGatewayTransitionStatus(t *testing.T) {
	var (
		gotMethod string
		gotPath   string
		got       statusRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	g, err := NewHTTPGateway(srv.URL, srv.Client())
	require.NoError(t, err)

	require.NoError(t, g.TransitionStatus(context.Background(), 3, domain.ShipmentInTransit, "leg 1 started"))
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/shipments/3/status", gotPath)
	assert.Equal(t, domain.ShipmentInTransit, got.Status)
	assert.Equal(t, "leg 1 started", got.Observation)
}

func TestHTTPGatewayTransitionRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "illegal transition", http.StatusConflict)
	}))
	defer srv.Close()

	g, err := NewHTTPGateway(srv.URL, srv.Client())
	require.NoError(t, err)

	err = g.TransitionStatus(context.Background(), 3, domain.ShipmentDelivered, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
}
