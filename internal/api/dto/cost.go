package dto

import (
	"freight-route-service/internal/domain"
	"time"
)

type LegCostResponse struct {
	LegID      int64  `json:"leg_id,omitempty"`
	DistanceKm string `json:"distance_km"`
	RatePerKm  string `json:"rate_per_km"`
	FuelUnits  string `json:"fuel_units"`
	FuelCost   string `json:"fuel_cost"`
	Extra      string `json:"extra"`
	Total      string `json:"total"`
}

type CostBreakdownResponse struct {
	ID                   int64             `json:"id,omitempty"`
	RouteID              int64             `json:"route_id,omitempty"`
	Kind                 string            `json:"kind"`
	Management           string            `json:"management"`
	Transport            string            `json:"transport"`
	Fuel                 string            `json:"fuel"`
	Stay                 string            `json:"stay"`
	Extras               string            `json:"extras"`
	Total                string            `json:"total"`
	Multiplier           string            `json:"multiplier"`
	BaseTariffID         int64             `json:"base_tariff_id"`
	FuelTariffID         int64             `json:"fuel_tariff_id"`
	StayTariffID         int64             `json:"stay_tariff_id"`
	WeightVolumeTariffID *int64            `json:"weight_volume_tariff_id,omitempty"`
	ComputedAt           time.Time         `json:"computed_at"`
	Legs                 []LegCostResponse `json:"legs"`
}

func NewCostBreakdownResponse(b domain.CostBreakdown) CostBreakdownResponse {
	legs := make([]LegCostResponse, 0, len(b.Legs))
	for _, l := range b.Legs {
		legs = append(legs, LegCostResponse{
			LegID:      l.LegID,
			DistanceKm: money(l.DistanceKm),
			RatePerKm:  l.RatePerKm.String(),
			FuelUnits:  money(l.FuelUnits),
			FuelCost:   l.FuelCost.String(),
			Extra:      money(l.Extra),
			Total:      money(l.Total),
		})
	}
	return CostBreakdownResponse{
		ID:                   b.ID,
		RouteID:              b.RouteID,
		Kind:                 string(b.Kind),
		Management:           money(b.Management),
		Transport:            money(b.Transport),
		Fuel:                 money(b.Fuel),
		Stay:                 money(b.Stay),
		Extras:               money(b.Extras),
		Total:                money(b.Total),
		Multiplier:           b.Multiplier.String(),
		BaseTariffID:         b.BaseTariffID,
		FuelTariffID:         b.FuelTariffID,
		StayTariffID:         b.StayTariffID,
		WeightVolumeTariffID: b.WeightVolumeTariffID,
		ComputedAt:           b.ComputedAt,
		Legs:                 legs,
	}
}

func NewCostBreakdownResponses(bs []domain.CostBreakdown) []CostBreakdownResponse {
	out := make([]CostBreakdownResponse, 0, len(bs))
	for _, b := range bs {
		out = append(out, NewCostBreakdownResponse(b))
	}
	return out
}
