package repositories

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
)

func windowRecord(w TariffWindowSeed, rec goqu.Record) goqu.Record {
	rec["effective_from"] = w.EffectiveFrom
	rec["effective_until"] = nullTime(w.EffectiveUntil)
	rec["active"] = w.Active
	return rec
}

// Seed upserts depots and vehicles by their natural keys and inserts the
// tariff records, all in one transaction.
func (s *PostgresStore) Seed(ctx context.Context, seed *FleetSeed) error {
	return WithTransaction(ctx, s.gdb, func(tx *goqu.TxDatabase) error {
		for _, d := range seed.Depots {
			dep := d.depot()
			_, err := tx.Insert("depots").Rows(goqu.Record{
				"code":    dep.Code,
				"name":    dep.Name,
				"address": dep.Address,
				"lat":     dep.Coordinates.Lat,
				"lon":     dep.Coordinates.Lon,
				"active":  dep.Active,
			}).OnConflict(goqu.DoUpdate("code", goqu.Record{
				"name":    goqu.I("excluded.name"),
				"address": goqu.I("excluded.address"),
				"lat":     goqu.I("excluded.lat"),
				"lon":     goqu.I("excluded.lon"),
				"active":  goqu.I("excluded.active"),
			})).Executor().ExecContext(ctx)
			if err != nil {
				return fmt.Errorf("seed depot %q: %w", dep.Code, err)
			}
		}

		for _, v := range seed.Vehicles {
			veh := v.vehicle()
			_, err := tx.Insert("vehicles").Rows(goqu.Record{
				"plate":                   veh.Plate,
				"capacity_weight_kg":      veh.CapacityWeightKg,
				"capacity_volume_m3":      veh.CapacityVolumeM3,
				"consumption_km_per_unit": veh.ConsumptionKmPerUnit,
				"base_cost_per_km":        veh.BaseCostPerKm,
				"driver_id":               veh.DriverID,
				"status":                  string(veh.Status),
				"active":                  veh.Active,
			}).OnConflict(goqu.DoUpdate("plate", goqu.Record{
				"capacity_weight_kg":      goqu.I("excluded.capacity_weight_kg"),
				"capacity_volume_m3":      goqu.I("excluded.capacity_volume_m3"),
				"consumption_km_per_unit": goqu.I("excluded.consumption_km_per_unit"),
				"base_cost_per_km":        goqu.I("excluded.base_cost_per_km"),
				"driver_id":               goqu.I("excluded.driver_id"),
			})).Executor().ExecContext(ctx)
			if err != nil {
				return fmt.Errorf("seed vehicle %q: %w", veh.Plate, err)
			}
		}

		tariffs := []struct {
			table string
			rows  []goqu.Record
		}{
			{table: "base_tariffs"},
			{table: "fuel_tariffs"},
			{table: "stay_tariffs"},
			{table: "weight_volume_tariffs"},
		}
		for _, t := range seed.BaseTariffs {
			tariffs[0].rows = append(tariffs[0].rows, windowRecord(t.TariffWindowSeed, goqu.Record{
				"name":           t.Name,
				"management_fee": t.ManagementFee,
				"extra_per_leg":  t.ExtraPerLeg,
			}))
		}
		for _, t := range seed.FuelTariffs {
			tariffs[1].rows = append(tariffs[1].rows, windowRecord(t.TariffWindowSeed, goqu.Record{
				"price_per_unit": t.PricePerUnit,
			}))
		}
		for _, t := range seed.StayTariffs {
			tariffs[2].rows = append(tariffs[2].rows, windowRecord(t.TariffWindowSeed, goqu.Record{
				"cost_per_day":  t.CostPerDay,
				"cost_per_hour": t.CostPerHour,
			}))
		}
		for _, t := range seed.WeightVolumeTariffs {
			tariffs[3].rows = append(tariffs[3].rows, windowRecord(t.TariffWindowSeed, goqu.Record{
				"min_weight_kg": t.MinWeightKg,
				"max_weight_kg": t.MaxWeightKg,
				"min_volume_m3": t.MinVolumeM3,
				"max_volume_m3": t.MaxVolumeM3,
				"multiplier":    t.Multiplier,
			}))
		}

		// Tariffs have no natural key, so a table that already holds
		// records is left alone and reseeding stays idempotent.
		for _, t := range tariffs {
			if len(t.rows) == 0 {
				continue
			}
			n, err := tx.From(t.table).CountContext(ctx)
			if err != nil {
				return fmt.Errorf("seed %s: count: %w", t.table, err)
			}
			if n > 0 {
				continue
			}

			rows := make([]interface{}, 0, len(t.rows))
			for _, r := range t.rows {
				rows = append(rows, r)
			}
			if _, err := tx.Insert(t.table).Rows(rows...).Executor().ExecContext(ctx); err != nil {
				return fmt.Errorf("seed %s: %w", t.table, err)
			}
		}
		return nil
	})
}
