package services

import (
	"context"
	"fmt"
	"freight-route-service/internal/domain"
	"freight-route-service/internal/platform/obs"
	"freight-route-service/internal/ports"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CostCalculator prices a leg set. Both modes share one algorithm and differ
// only in how the stay component is derived.
type CostCalculator interface {
	ComputeEstimate(ctx context.Context, legs []domain.CostLegInput, weightKg, volumeM3 decimal.Decimal, stayDays int) (*domain.CostBreakdown, error)
	ComputeFinal(ctx context.Context, legs []domain.CostLegInput, weightKg, volumeM3, stayHours, extras decimal.Decimal) (*domain.CostBreakdown, error)
}

type CostEngine struct {
	tariffs ports.TariffRegistry
	log     *zap.Logger
	now     func() time.Time
}

func NewCostEngine(tariffs ports.TariffRegistry, log *zap.Logger) *CostEngine {
	return &CostEngine{tariffs: tariffs, log: log, now: time.Now}
}

type stayInput struct {
	days  int
	hours decimal.Decimal
}

func (e *CostEngine) ComputeEstimate(
	ctx context.Context,
	legs []domain.CostLegInput,
	weightKg, volumeM3 decimal.Decimal,
	stayDays int,
) (_ *domain.CostBreakdown, err error) {
	defer obs.Time(ctx, "cost.ComputeEstimate")(&err)

	b, err := e.compute(ctx, domain.CostEstimate, legs, weightKg, volumeM3, stayInput{days: stayDays}, decimal.Zero)
	if err != nil {
		return nil, fmt.Errorf("compute estimate: %w", err)
	}
	return b, nil
}

func (e *CostEngine) ComputeFinal(
	ctx context.Context,
	legs []domain.CostLegInput,
	weightKg, volumeM3, stayHours, extras decimal.Decimal,
) (_ *domain.CostBreakdown, err error) {
	defer obs.Time(ctx, "cost.ComputeFinal")(&err)

	b, err := e.compute(ctx, domain.CostFinal, legs, weightKg, volumeM3, stayInput{hours: stayHours}, extras)
	if err != nil {
		return nil, fmt.Errorf("compute final: %w", err)
	}
	return b, nil
}

func (e *CostEngine) compute(
	ctx context.Context,
	kind domain.CostKind,
	legs []domain.CostLegInput,
	weightKg, volumeM3 decimal.Decimal,
	stay stayInput,
	extras decimal.Decimal,
) (*domain.CostBreakdown, error) {
	base, ok, err := e.tariffs.CurrentBase(ctx)
	if err != nil {
		return nil, fmt.Errorf("current base tariff: %w", err)
	}
	if !ok {
		return nil, &domain.MissingTariffError{Kind: domain.TariffBase}
	}

	fuel, ok, err := e.tariffs.CurrentFuel(ctx)
	if err != nil {
		return nil, fmt.Errorf("current fuel tariff: %w", err)
	}
	if !ok {
		return nil, &domain.MissingTariffError{Kind: domain.TariffFuel}
	}

	stayTariff, ok, err := e.tariffs.CurrentStay(ctx)
	if err != nil {
		return nil, fmt.Errorf("current stay tariff: %w", err)
	}
	if !ok {
		return nil, &domain.MissingTariffError{Kind: domain.TariffStay}
	}

	b := &domain.CostBreakdown{
		Kind:         kind,
		Multiplier:   decimal.NewFromInt(1),
		BaseTariffID: base.ID,
		FuelTariffID: fuel.ID,
		StayTariffID: stayTariff.ID,
		Legs:         make([]domain.LegCost, 0, len(legs)),
		ComputedAt:   e.now().UTC(),
	}

	wv, ok, err := e.tariffs.LookupWeightVolumeMultiplier(ctx, weightKg, volumeM3)
	if err != nil {
		return nil, fmt.Errorf("weight/volume multiplier: %w", err)
	}
	if ok {
		id := wv.ID
		b.Multiplier = wv.Multiplier
		b.WeightVolumeTariffID = &id
	}

	legExtra := decimal.Zero
	if base.ExtraPerLeg.Valid {
		legExtra = base.ExtraPerLeg.Decimal
	}

	transport := decimal.Zero
	fuelTotal := decimal.Zero
	for _, in := range legs {
		if !in.ConsumptionKmPerUnit.IsPositive() {
			return nil, fmt.Errorf("%w: leg %d: vehicle consumption must be positive", domain.ErrInvalidInput, in.LegID)
		}

		rate := in.BaseCostPerKm.Mul(b.Multiplier)
		distanceCost := rate.Mul(in.DistanceKm)
		units := in.DistanceKm.DivRound(in.ConsumptionKmPerUnit, 2)
		fuelCost := units.Mul(fuel.PricePerUnit)

		b.Legs = append(b.Legs, domain.LegCost{
			LegID:      in.LegID,
			DistanceKm: in.DistanceKm,
			RatePerKm:  rate,
			FuelUnits:  units,
			FuelCost:   fuelCost,
			Extra:      legExtra,
			Total:      domain.Round2(distanceCost.Add(fuelCost).Add(legExtra)),
		})

		transport = transport.Add(distanceCost)
		fuelTotal = fuelTotal.Add(fuelCost)
	}

	b.Management = domain.Round2(base.ManagementFee)
	b.Transport = domain.Round2(transport)
	b.Fuel = domain.Round2(fuelTotal)
	b.Stay = domain.Round2(stayCost(kind, stay, stayTariff))
	b.Extras = domain.Round2(extras)
	b.Total = domain.Round2(b.Management.Add(b.Transport).Add(b.Fuel).Add(b.Stay).Add(b.Extras))

	e.log.Debug("cost computed",
		zap.String("kind", string(kind)),
		zap.Int("legs", len(legs)),
		zap.String("multiplier", b.Multiplier.String()),
		zap.String("total", b.Total.StringFixed(2)),
	)

	return b, nil
}

func stayCost(kind domain.CostKind, stay stayInput, t domain.StayTariff) decimal.Decimal {
	if kind == domain.CostEstimate {
		if stay.days <= 0 {
			return decimal.Zero
		}
		return t.CostPerDay.Mul(decimal.NewFromInt(int64(stay.days)))
	}
	if !stay.hours.IsPositive() {
		return decimal.Zero
	}
	return t.CostPerHour.Mul(stay.hours)
}
