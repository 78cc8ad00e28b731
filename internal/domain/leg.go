package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type LegKind string

const (
	LegOriginDepot       LegKind = "ORIGIN_DEPOT"
	LegDepotDepot        LegKind = "DEPOT_DEPOT"
	LegDepotDestination  LegKind = "DEPOT_DESTINATION"
	LegOriginDestination LegKind = "ORIGIN_DESTINATION"
)

// LegStatus only moves forward: ESTIMATED -> ASSIGNED -> STARTED -> FINALIZED.
type LegStatus string

const (
	LegEstimated LegStatus = "ESTIMATED"
	LegAssigned  LegStatus = "ASSIGNED"
	LegStarted   LegStatus = "STARTED"
	LegFinalized LegStatus = "FINALIZED"
)

// Leg is one point-to-point segment of a route.
type Leg struct {
	ID             int64
	RouteID        int64
	Order          int
	Kind           LegKind
	Origin         Location
	Destination    Location
	DistanceKm     decimal.Decimal
	DurationHours  int
	Status         LegStatus
	VehicleID      *int64
	EstimatedStart *time.Time
	EstimatedEnd   *time.Time
	ActualStart    *time.Time
	ActualEnd      *time.Time
	EstimatedCost  decimal.NullDecimal
	RealCost       decimal.NullDecimal
}

// NewLeg builds an ESTIMATED leg between two locations. The kind is derived
// from the endpoint kinds; distances are kept at two decimals so that route
// totals add up exactly.
func NewLeg(from, to Location, distanceKm float64, durationHours int) (Leg, error) {
	kind, err := legKindFor(from.Kind, to.Kind)
	if err != nil {
		return Leg{}, err
	}
	if distanceKm < 0 || durationHours < 0 {
		return Leg{}, fmt.Errorf("%w: negative leg distance or duration", ErrInvalidInput)
	}

	return Leg{
		Kind:          kind,
		Origin:        from,
		Destination:   to,
		DistanceKm:    decimal.NewFromFloat(distanceKm).Round(2),
		DurationHours: durationHours,
		Status:        LegEstimated,
	}, nil
}

func legKindFor(from, to LocationKind) (LegKind, error) {
	switch {
	case from == LocationOrigin && to == LocationDestination:
		return LegOriginDestination, nil
	case from == LocationOrigin && to == LocationDepot:
		return LegOriginDepot, nil
	case from == LocationDepot && to == LocationDepot:
		return LegDepotDepot, nil
	case from == LocationDepot && to == LocationDestination:
		return LegDepotDestination, nil
	}
	return "", fmt.Errorf("%w: no leg kind for %s -> %s", ErrInvalidInput, from, to)
}

// IsActive reports whether the leg currently holds its vehicle.
func (l *Leg) IsActive() bool {
	return l.Status == LegAssigned || l.Status == LegStarted
}

func (l *Leg) AssignVehicle(vehicleID int64) error {
	if err := l.expect(LegEstimated); err != nil {
		return err
	}
	id := vehicleID
	l.VehicleID = &id
	l.Status = LegAssigned
	return nil
}

func (l *Leg) Start(at time.Time) error {
	if err := l.expect(LegAssigned); err != nil {
		return err
	}
	l.Status = LegStarted
	l.ActualStart = &at
	return nil
}

func (l *Leg) Finish(at time.Time) error {
	if err := l.expect(LegStarted); err != nil {
		return err
	}
	l.Status = LegFinalized
	l.ActualEnd = &at
	return nil
}

func (l *Leg) expect(status LegStatus) error {
	if l.Status != status {
		return fmt.Errorf("%w: leg %d is %s, want %s", ErrInvalidState, l.ID, l.Status, status)
	}
	return nil
}
