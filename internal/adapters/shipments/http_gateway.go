package shipments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"freight-route-service/internal/domain"
	"freight-route-service/internal/platform/obs"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// HTTPGateway talks to the shipment service over its REST API.
type HTTPGateway struct {
	session *http.Client
	baseURL string
}

func NewHTTPGateway(baseURL string, session *http.Client) (*HTTPGateway, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("shipments base url is empty")
	}
	if session == nil {
		session = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPGateway{session: session, baseURL: baseURL}, nil
}

type point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type shipmentResponse struct {
	ID          int64           `json:"id"`
	Origin      point           `json:"origin"`
	Destination point           `json:"destination"`
	WeightKg    decimal.Decimal `json:"weight_kg"`
	VolumeM3    decimal.Decimal `json:"volume_m3"`
}

type statusRequest struct {
	Status      domain.ShipmentStatus `json:"status"`
	Observation string                `json:"observation"`
}

func (g *HTTPGateway) GetShipment(ctx context.Context, id int64) (_ *domain.Shipment, err error) {
	defer obs.Time(ctx, "shipments.GetShipment")(&err)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/shipments/%d", g.baseURL, id), nil)
	if err != nil {
		return nil, fmt.Errorf("get shipment %d: create request: %w", id, err)
	}
	req.Header.Set("Accept", "application/json")
	g.forwardRequestID(ctx, req)

	resp, err := g.session.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get shipment %d: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("get shipment %d: %w", id, domain.ErrNotFound)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("get shipment %d: %w", id, statusError(resp))
	}

	var sr shipmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("get shipment %d: decode response: %w", id, err)
	}

	return &domain.Shipment{
		ID:          id,
		Origin:      domain.NewCoordinates(sr.Origin.Lat, sr.Origin.Lon),
		Destination: domain.NewCoordinates(sr.Destination.Lat, sr.Destination.Lon),
		WeightKg:    sr.WeightKg,
		VolumeM3:    sr.VolumeM3,
	}, nil
}

func (g *HTTPGateway) TransitionStatus(
	ctx context.Context,
	id int64,
	status domain.ShipmentStatus,
	observation string,
) (err error) {
	defer obs.Time(ctx, "shipments.TransitionStatus")(&err)

	payload, err := json.Marshal(statusRequest{Status: status, Observation: observation})
	if err != nil {
		return fmt.Errorf("transition shipment %d: marshal: %w", id, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch,
		fmt.Sprintf("%s/shipments/%d/status", g.baseURL, id), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("transition shipment %d: create request: %w", id, err)
	}
	req.Header.Set("Content-Type", "application/json")
	g.forwardRequestID(ctx, req)

	resp, err := g.session.Do(req)
	if err != nil {
		return fmt.Errorf("transition shipment %d to %s: %w", id, status, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("transition shipment %d: %w", id, domain.ErrNotFound)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("transition shipment %d to %s: %w", id, status, statusError(resp))
	}
	return nil
}

func (g *HTTPGateway) forwardRequestID(ctx context.Context, req *http.Request) {
	if id := obs.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
}

func statusError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
}
