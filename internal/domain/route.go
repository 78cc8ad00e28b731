package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type RouteKind string

const (
	RouteProposed RouteKind = "PROPOSED"
	RouteAssigned RouteKind = "ASSIGNED"
)

// Route owns its legs by value, in travel order. Legs are referenced from
// outside by ID only once the route has been persisted.
//
// TotalDistanceKm is always the exact sum of the legs' DistanceKm.
type Route struct {
	ID                 int64
	ShipmentID         int64
	Kind               RouteKind
	VariantIndex       int
	Description        string
	Legs               []Leg
	DepotCount         int
	TotalDistanceKm    decimal.Decimal
	TotalDurationHours int
	EstimatedCostTotal decimal.NullDecimal
	RealCostTotal      decimal.NullDecimal
	Selected           bool
	WeightKg           decimal.Decimal
	VolumeM3           decimal.Decimal
	CreatedAt          time.Time
}

// NewRoute assembles a PROPOSED route from legs in travel order. It numbers
// the legs 1..n, checks that consecutive legs connect, and aggregates totals.
func NewRoute(shipmentID int64, variantIndex int, legs []Leg) (*Route, error) {
	if len(legs) == 0 {
		return nil, fmt.Errorf("%w: route needs at least one leg", ErrInvalidInput)
	}
	if legs[0].Origin.Kind != LocationOrigin {
		return nil, fmt.Errorf("%w: first leg must start at the origin", ErrInvalidInput)
	}
	if legs[len(legs)-1].Destination.Kind != LocationDestination {
		return nil, fmt.Errorf("%w: last leg must end at the destination", ErrInvalidInput)
	}

	route := &Route{
		ShipmentID:      shipmentID,
		Kind:            RouteProposed,
		VariantIndex:    variantIndex,
		Legs:            make([]Leg, 0, len(legs)),
		TotalDistanceKm: decimal.Zero,
	}

	for i, leg := range legs {
		if i > 0 && legs[i-1].Destination.Coordinates != leg.Origin.Coordinates {
			return nil, fmt.Errorf("%w: leg %d does not start where leg %d ends", ErrInvalidInput, i+1, i)
		}
		if leg.Destination.Kind == LocationDepot {
			route.DepotCount++
		}

		leg.Order = i + 1
		leg.Status = LegEstimated
		route.Legs = append(route.Legs, leg)
		route.TotalDistanceKm = route.TotalDistanceKm.Add(leg.DistanceKm)
		route.TotalDurationHours += leg.DurationHours
	}

	return route, nil
}

func (r *Route) LegCount() int { return len(r.Legs) }

// Leg returns a pointer into the route's own leg slice.
func (r *Route) Leg(legID int64) (*Leg, bool) {
	for i := range r.Legs {
		if r.Legs[i].ID == legID {
			return &r.Legs[i], true
		}
	}
	return nil, false
}

func (r *Route) AllFinalized() bool {
	for _, l := range r.Legs {
		if l.Status != LegFinalized {
			return false
		}
	}
	return true
}

// ScheduleFrom sets sequential estimated start/end times on every leg.
func (r *Route) ScheduleFrom(start time.Time) {
	at := start
	for i := range r.Legs {
		s := at
		e := at.Add(time.Duration(r.Legs[i].DurationHours) * time.Hour)
		r.Legs[i].EstimatedStart = &s
		r.Legs[i].EstimatedEnd = &e
		at = e
	}
}

// StayHours is the time spent between a leg's actual end and the next
// leg's actual start, summed over the route and rounded to two decimals.
func (r *Route) StayHours() decimal.Decimal {
	total := decimal.Zero
	for i := 1; i < len(r.Legs); i++ {
		prev, next := r.Legs[i-1], r.Legs[i]
		if prev.ActualEnd == nil || next.ActualStart == nil {
			continue
		}
		gap := next.ActualStart.Sub(*prev.ActualEnd)
		if gap <= 0 {
			continue
		}
		total = total.Add(decimal.NewFromFloat(gap.Hours()))
	}
	return total.Round(2)
}
