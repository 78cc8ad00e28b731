package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CostKind string

const (
	CostEstimate CostKind = "ESTIMATE"
	CostFinal    CostKind = "FINAL"
)

// CostLegInput is what the cost engine needs to price one leg: its distance
// and the rates of the vehicle that drives (or would drive) it.
type CostLegInput struct {
	LegID                int64
	DistanceKm           decimal.Decimal
	BaseCostPerKm        decimal.Decimal
	ConsumptionKmPerUnit decimal.Decimal
}

// LegInputs prices every leg of a route with the same vehicle's rates.
func LegInputs(route *Route, v *Vehicle) []CostLegInput {
	out := make([]CostLegInput, 0, len(route.Legs))
	for _, l := range route.Legs {
		out = append(out, CostLegInput{
			LegID:                l.ID,
			DistanceKm:           l.DistanceKm,
			BaseCostPerKm:        v.BaseCostPerKm,
			ConsumptionKmPerUnit: v.ConsumptionKmPerUnit,
		})
	}
	return out
}

type LegCost struct {
	LegID      int64
	DistanceKm decimal.Decimal
	RatePerKm  decimal.Decimal
	FuelUnits  decimal.Decimal
	FuelCost   decimal.Decimal
	Extra      decimal.Decimal
	Total      decimal.Decimal
}

// CostBreakdown is an append-only record of one cost computation.
type CostBreakdown struct {
	ID                   int64
	ShipmentID           int64
	RouteID              int64
	Kind                 CostKind
	Management           decimal.Decimal
	Transport            decimal.Decimal
	Fuel                 decimal.Decimal
	Stay                 decimal.Decimal
	Extras               decimal.Decimal
	Total                decimal.Decimal
	Multiplier           decimal.Decimal
	Legs                 []LegCost
	BaseTariffID         int64
	FuelTariffID         int64
	StayTariffID         int64
	WeightVolumeTariffID *int64
	ComputedAt           time.Time
}

// Round2 rounds half away from zero to two decimals, which is half-up for
// the non-negative amounts priced here.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
