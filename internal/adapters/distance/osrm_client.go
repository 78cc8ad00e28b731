package distance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"freight-route-service/internal/domain"
	"freight-route-service/internal/platform/obs"
	"freight-route-service/internal/ports"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// OSRMClient implements RoutingEngine against an OSRM HTTP server.
//
// It performs exactly one request per call; timeouts come from the caller's
// context. The client is safe for concurrent use.
type OSRMClient struct {
	session *http.Client
	baseURL string
	profile string
}

func NewOSRMClient(baseURL string, session *http.Client) (*OSRMClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("OSRM base url is empty")
	}
	if session == nil {
		session = &http.Client{Timeout: 30 * time.Second}
	}

	return &OSRMClient{
		session: session,
		baseURL: baseURL,
		profile: "driving",
	}, nil
}

type routeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

// Route asks OSRM for the driving route between two points.
// Coordinates go on the wire as lon,lat.
func (o *OSRMClient) Route(
	ctx context.Context,
	from, to domain.Coordinates,
) (_ ports.DistanceResult, err error) {
	defer obs.Time(ctx, "osrm.Route")(&err)

	endpoint := fmt.Sprintf("%s/route/v1/%s/%s;%s?overview=false",
		o.baseURL, o.profile, lonLat(from), lonLat(to))

	req, err := o.newRequest(ctx, http.MethodGet, endpoint)
	if err != nil {
		return ports.DistanceResult{}, fmt.Errorf("osrm route: %w", err)
	}

	resp, err := o.do(req)
	if err != nil {
		return ports.DistanceResult{}, fmt.Errorf("osrm route: %w", err)
	}
	defer resp.Body.Close()

	var rr routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return ports.DistanceResult{}, fmt.Errorf("osrm route: decode response: %w", err)
	}

	if rr.Code != "Ok" {
		return ports.DistanceResult{}, fmt.Errorf("osrm route: code %q: %s", rr.Code, rr.Message)
	}
	if len(rr.Routes) == 0 {
		return ports.DistanceResult{}, errors.New("osrm route: empty route list")
	}

	best := rr.Routes[0]
	return ports.DistanceResult{
		DistanceKm:      best.Distance / 1000.0,
		DurationHours:   int(math.Ceil(best.Duration / 3600.0)),
		DurationSeconds: int(best.Duration),
	}, nil
}

func lonLat(c domain.Coordinates) string {
	return strconv.FormatFloat(c.Lon, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lat, 'f', -1, 64)
}
