package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TariffKind string

const (
	TariffBase         TariffKind = "BASE"
	TariffFuel         TariffKind = "FUEL"
	TariffStay         TariffKind = "STAY"
	TariffWeightVolume TariffKind = "WEIGHT_VOLUME"
)

// TariffWindow is the versioning part shared by every tariff record.
type TariffWindow struct {
	EffectiveFrom  time.Time
	EffectiveUntil *time.Time
	Active         bool
}

// BaseTariff carries the flat management fee and the optional per-leg extra.
type BaseTariff struct {
	ID            int64
	Name          string
	ManagementFee decimal.Decimal
	ExtraPerLeg   decimal.NullDecimal
	TariffWindow
}

type FuelTariff struct {
	ID           int64
	PricePerUnit decimal.Decimal
	TariffWindow
}

type StayTariff struct {
	ID          int64
	CostPerDay  decimal.Decimal
	CostPerHour decimal.Decimal
	TariffWindow
}

// WeightVolumeTariff scales the per-km rate for cargo within both brackets.
// Bounds are inclusive.
type WeightVolumeTariff struct {
	ID          int64
	MinWeightKg decimal.Decimal
	MaxWeightKg decimal.Decimal
	MinVolumeM3 decimal.Decimal
	MaxVolumeM3 decimal.Decimal
	Multiplier  decimal.Decimal
	TariffWindow
}

func (t WeightVolumeTariff) Matches(weightKg, volumeM3 decimal.Decimal) bool {
	return weightKg.GreaterThanOrEqual(t.MinWeightKg) && weightKg.LessThanOrEqual(t.MaxWeightKg) &&
		volumeM3.GreaterThanOrEqual(t.MinVolumeM3) && volumeM3.LessThanOrEqual(t.MaxVolumeM3)
}
