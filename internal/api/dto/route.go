package dto

import (
	"freight-route-service/internal/domain"
	"freight-route-service/internal/services"
	"time"

	"github.com/shopspring/decimal"
)

type Point struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lon *float64 `json:"lon" binding:"required"`
}

type AlternativesRequest struct {
	ShipmentID  int64           `json:"shipment_id"`
	Origin      Point           `json:"origin" binding:"required"`
	Destination Point           `json:"destination" binding:"required"`
	WeightKg    decimal.Decimal `json:"weight_kg"`
	VolumeM3    decimal.Decimal `json:"volume_m3"`
}

func (r AlternativesRequest) ToService() services.AlternativesRequest {
	return services.AlternativesRequest{
		ShipmentID:     r.ShipmentID,
		OriginLat:      *r.Origin.Lat,
		OriginLon:      *r.Origin.Lon,
		DestinationLat: *r.Destination.Lat,
		DestinationLon: *r.Destination.Lon,
		WeightKg:       r.WeightKg,
		VolumeM3:       r.VolumeM3,
	}
}

type AssignRouteRequest struct {
	VariantIndex *int `json:"variant_index" binding:"required"`
}

type LocationResponse struct {
	Kind    string  `json:"kind"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	DepotID *int64  `json:"depot_id,omitempty"`
}

type LegResponse struct {
	ID             int64            `json:"id,omitempty"`
	RouteID        int64            `json:"route_id,omitempty"`
	Order          int              `json:"order"`
	Kind           string           `json:"kind"`
	Origin         LocationResponse `json:"origin"`
	Destination    LocationResponse `json:"destination"`
	DistanceKm     string           `json:"distance_km"`
	DurationHours  int              `json:"duration_hours"`
	Status         string           `json:"status"`
	VehicleID      *int64           `json:"vehicle_id,omitempty"`
	EstimatedStart *time.Time       `json:"estimated_start,omitempty"`
	EstimatedEnd   *time.Time       `json:"estimated_end,omitempty"`
	ActualStart    *time.Time       `json:"actual_start,omitempty"`
	ActualEnd      *time.Time       `json:"actual_end,omitempty"`
	EstimatedCost  *string          `json:"estimated_cost,omitempty"`
	RealCost       *string          `json:"real_cost,omitempty"`
}

type RouteResponse struct {
	ID                 int64         `json:"id,omitempty"`
	ShipmentID         int64         `json:"shipment_id"`
	Kind               string        `json:"kind"`
	Description        string        `json:"description"`
	Selected           bool          `json:"selected"`
	LegCount           int           `json:"leg_count"`
	DepotCount         int           `json:"depot_count"`
	TotalDistanceKm    string        `json:"total_distance_km"`
	TotalDurationHours int           `json:"total_duration_hours"`
	EstimatedCostTotal *string       `json:"estimated_cost_total,omitempty"`
	RealCostTotal      *string       `json:"real_cost_total,omitempty"`
	Legs               []LegResponse `json:"legs"`
}

type VariantResponse struct {
	Index       int                    `json:"index"`
	Description string                 `json:"description"`
	Route       RouteResponse          `json:"route"`
	Cost        *CostBreakdownResponse `json:"cost"`
}

type AlternativesResponse struct {
	Variants []VariantResponse `json:"variants"`
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func optionalMoney(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := money(d.Decimal)
	return &s
}

func location(l domain.Location) LocationResponse {
	return LocationResponse{Kind: string(l.Kind), Lat: l.Coordinates.Lat, Lon: l.Coordinates.Lon, DepotID: l.DepotID}
}

func NewLegResponse(l domain.Leg) LegResponse {
	return LegResponse{
		ID:             l.ID,
		RouteID:        l.RouteID,
		Order:          l.Order,
		Kind:           string(l.Kind),
		Origin:         location(l.Origin),
		Destination:    location(l.Destination),
		DistanceKm:     money(l.DistanceKm),
		DurationHours:  l.DurationHours,
		Status:         string(l.Status),
		VehicleID:      l.VehicleID,
		EstimatedStart: l.EstimatedStart,
		EstimatedEnd:   l.EstimatedEnd,
		ActualStart:    l.ActualStart,
		ActualEnd:      l.ActualEnd,
		EstimatedCost:  optionalMoney(l.EstimatedCost),
		RealCost:       optionalMoney(l.RealCost),
	}
}

func NewLegResponses(ls []domain.Leg) []LegResponse {
	out := make([]LegResponse, 0, len(ls))
	for _, l := range ls {
		out = append(out, NewLegResponse(l))
	}
	return out
}

func NewRouteResponse(r *domain.Route) RouteResponse {
	return RouteResponse{
		ID:                 r.ID,
		ShipmentID:         r.ShipmentID,
		Kind:               string(r.Kind),
		Description:        r.Description,
		Selected:           r.Selected,
		LegCount:           r.LegCount(),
		DepotCount:         r.DepotCount,
		TotalDistanceKm:    money(r.TotalDistanceKm),
		TotalDurationHours: r.TotalDurationHours,
		EstimatedCostTotal: optionalMoney(r.EstimatedCostTotal),
		RealCostTotal:      optionalMoney(r.RealCostTotal),
		Legs:               NewLegResponses(r.Legs),
	}
}

func NewRouteResponses(rs []domain.Route) []RouteResponse {
	out := make([]RouteResponse, 0, len(rs))
	for i := range rs {
		out = append(out, NewRouteResponse(&rs[i]))
	}
	return out
}

func NewAlternativesResponse(vs []services.Variant) AlternativesResponse {
	out := AlternativesResponse{Variants: make([]VariantResponse, 0, len(vs))}
	for _, v := range vs {
		vr := VariantResponse{Index: v.Index, Description: v.Description, Route: NewRouteResponse(v.Route)}
		if v.Cost != nil {
			c := NewCostBreakdownResponse(*v.Cost)
			vr.Cost = &c
		}
		out.Variants = append(out.Variants, vr)
	}
	return out
}
