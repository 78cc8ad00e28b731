package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"freight-route-service/internal/domain"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/shopspring/decimal"
)

type windowRow struct {
	EffectiveFrom  time.Time    `db:"effective_from"`
	EffectiveUntil sql.NullTime `db:"effective_until"`
	Active         bool         `db:"active"`
}

func (w windowRow) toDomain() domain.TariffWindow {
	return domain.TariffWindow{
		EffectiveFrom:  w.EffectiveFrom,
		EffectiveUntil: timePtr(w.EffectiveUntil),
		Active:         w.Active,
	}
}

type baseTariffRow struct {
	ID            int64               `db:"id"`
	Name          string              `db:"name"`
	ManagementFee decimal.Decimal     `db:"management_fee"`
	ExtraPerLeg   decimal.NullDecimal `db:"extra_per_leg"`
	windowRow
}

type fuelTariffRow struct {
	ID           int64           `db:"id"`
	PricePerUnit decimal.Decimal `db:"price_per_unit"`
	windowRow
}

type stayTariffRow struct {
	ID          int64           `db:"id"`
	CostPerDay  decimal.Decimal `db:"cost_per_day"`
	CostPerHour decimal.Decimal `db:"cost_per_hour"`
	windowRow
}

type weightVolumeTariffRow struct {
	ID          int64           `db:"id"`
	MinWeightKg decimal.Decimal `db:"min_weight_kg"`
	MaxWeightKg decimal.Decimal `db:"max_weight_kg"`
	MinVolumeM3 decimal.Decimal `db:"min_volume_m3"`
	MaxVolumeM3 decimal.Decimal `db:"max_volume_m3"`
	Multiplier  decimal.Decimal `db:"multiplier"`
	windowRow
}

// current selects the active record with the latest effective_from. Equal
// dates resolve to the lowest id, i.e. the first inserted.
func (s *PostgresStore) current(table string) *goqu.SelectDataset {
	return s.gdb.From(table).
		Where(goqu.Ex{"active": true}).
		Order(goqu.I("effective_from").Desc(), goqu.I("id").Asc()).
		Limit(1)
}

func (s *PostgresStore) CurrentBase(ctx context.Context) (domain.BaseTariff, bool, error) {
	var row baseTariffRow
	found, err := s.current("base_tariffs").ScanStructContext(ctx, &row)
	if err != nil || !found {
		return domain.BaseTariff{}, false, wrapTariffErr("base", err)
	}
	return domain.BaseTariff{
		ID:            row.ID,
		Name:          row.Name,
		ManagementFee: row.ManagementFee,
		ExtraPerLeg:   row.ExtraPerLeg,
		TariffWindow:  row.windowRow.toDomain(),
	}, true, nil
}

func (s *PostgresStore) CurrentFuel(ctx context.Context) (domain.FuelTariff, bool, error) {
	var row fuelTariffRow
	found, err := s.current("fuel_tariffs").ScanStructContext(ctx, &row)
	if err != nil || !found {
		return domain.FuelTariff{}, false, wrapTariffErr("fuel", err)
	}
	return domain.FuelTariff{
		ID:           row.ID,
		PricePerUnit: row.PricePerUnit,
		TariffWindow: row.windowRow.toDomain(),
	}, true, nil
}

func (s *PostgresStore) CurrentStay(ctx context.Context) (domain.StayTariff, bool, error) {
	var row stayTariffRow
	found, err := s.current("stay_tariffs").ScanStructContext(ctx, &row)
	if err != nil || !found {
		return domain.StayTariff{}, false, wrapTariffErr("stay", err)
	}
	return domain.StayTariff{
		ID:           row.ID,
		CostPerDay:   row.CostPerDay,
		CostPerHour:  row.CostPerHour,
		TariffWindow: row.windowRow.toDomain(),
	}, true, nil
}

func (s *PostgresStore) LookupWeightVolumeMultiplier(ctx context.Context, weightKg, volumeM3 decimal.Decimal) (domain.WeightVolumeTariff, bool, error) {
	var row weightVolumeTariffRow
	found, err := s.current("weight_volume_tariffs").
		Where(
			goqu.C("min_weight_kg").Lte(weightKg),
			goqu.C("max_weight_kg").Gte(weightKg),
			goqu.C("min_volume_m3").Lte(volumeM3),
			goqu.C("max_volume_m3").Gte(volumeM3),
		).
		ScanStructContext(ctx, &row)
	if err != nil || !found {
		return domain.WeightVolumeTariff{}, false, wrapTariffErr("weight/volume", err)
	}
	return domain.WeightVolumeTariff{
		ID:           row.ID,
		MinWeightKg:  row.MinWeightKg,
		MaxWeightKg:  row.MaxWeightKg,
		MinVolumeM3:  row.MinVolumeM3,
		MaxVolumeM3:  row.MaxVolumeM3,
		Multiplier:   row.Multiplier,
		TariffWindow: row.windowRow.toDomain(),
	}, true, nil
}

func wrapTariffErr(kind string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("current %s tariff: %w", kind, err)
}
