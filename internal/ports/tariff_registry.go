package ports

import (
	"context"
	"freight-route-service/internal/domain"

	"github.com/shopspring/decimal"
)

// TariffRegistry resolves the current tariff of each kind: the active record
// with the latest effective-from date. The bool result is false when none exists.
type TariffRegistry interface {
	CurrentBase(ctx context.Context) (domain.BaseTariff, bool, error)
	CurrentFuel(ctx context.Context) (domain.FuelTariff, bool, error)
	CurrentStay(ctx context.Context) (domain.StayTariff, bool, error)
	LookupWeightVolumeMultiplier(ctx context.Context, weightKg, volumeM3 decimal.Decimal) (domain.WeightVolumeTariff, bool, error)
}
