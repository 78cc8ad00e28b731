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

type breakdownRow struct {
	ID                   int64           `db:"id"`
	ShipmentID           int64           `db:"shipment_id"`
	RouteID              int64           `db:"route_id"`
	Kind                 string          `db:"kind"`
	Management           decimal.Decimal `db:"management"`
	Transport            decimal.Decimal `db:"transport"`
	Fuel                 decimal.Decimal `db:"fuel"`
	Stay                 decimal.Decimal `db:"stay"`
	Extras               decimal.Decimal `db:"extras"`
	Total                decimal.Decimal `db:"total"`
	Multiplier           decimal.Decimal `db:"multiplier"`
	BaseTariffID         int64           `db:"base_tariff_id"`
	FuelTariffID         int64           `db:"fuel_tariff_id"`
	StayTariffID         int64           `db:"stay_tariff_id"`
	WeightVolumeTariffID sql.NullInt64   `db:"weight_volume_tariff_id"`
	ComputedAt           time.Time       `db:"computed_at"`
}

type breakdownLegRow struct {
	BreakdownID int64           `db:"breakdown_id"`
	Position    int             `db:"position"`
	LegID       int64           `db:"leg_id"`
	DistanceKm  decimal.Decimal `db:"distance_km"`
	RatePerKm   decimal.Decimal `db:"rate_per_km"`
	FuelUnits   decimal.Decimal `db:"fuel_units"`
	FuelCost    decimal.Decimal `db:"fuel_cost"`
	Extra       decimal.Decimal `db:"extra"`
	Total       decimal.Decimal `db:"total"`
}

// insertBreakdown writes b and its leg lines inside tx and returns its id.
func insertBreakdown(ctx context.Context, tx *goqu.TxDatabase, b *domain.CostBreakdown) (int64, error) {
	var id int64
	_, err := tx.Insert("cost_breakdowns").Rows(goqu.Record{
		"shipment_id":             b.ShipmentID,
		"route_id":                b.RouteID,
		"kind":                    string(b.Kind),
		"management":              b.Management,
		"transport":               b.Transport,
		"fuel":                    b.Fuel,
		"stay":                    b.Stay,
		"extras":                  b.Extras,
		"total":                   b.Total,
		"multiplier":              b.Multiplier,
		"base_tariff_id":          b.BaseTariffID,
		"fuel_tariff_id":          b.FuelTariffID,
		"stay_tariff_id":          b.StayTariffID,
		"weight_volume_tariff_id": nullInt(b.WeightVolumeTariffID),
		"computed_at":             b.ComputedAt,
	}).Returning("id").Executor().ScanValContext(ctx, &id)
	if err != nil {
		return 0, fmt.Errorf("insert %s cost breakdown: %w", b.Kind, err)
	}

	if len(b.Legs) > 0 {
		rows := make([]interface{}, 0, len(b.Legs))
		for i, l := range b.Legs {
			rows = append(rows, goqu.Record{
				"breakdown_id": id,
				"position":     i + 1,
				"leg_id":       l.LegID,
				"distance_km":  l.DistanceKm,
				"rate_per_km":  l.RatePerKm,
				"fuel_units":   l.FuelUnits,
				"fuel_cost":    l.FuelCost,
				"extra":        l.Extra,
				"total":        l.Total,
			})
		}
		if _, err := tx.Insert("cost_breakdown_legs").Rows(rows...).Executor().ExecContext(ctx); err != nil {
			return 0, fmt.Errorf("insert cost breakdown legs: %w", err)
		}
	}
	return id, nil
}

func (s *PostgresStore) ListBreakdowns(ctx context.Context, shipmentID int64) ([]domain.CostBreakdown, error) {
	var rows []breakdownRow
	err := s.gdb.From("cost_breakdowns").
		Where(goqu.Ex{"shipment_id": shipmentID}).
		Order(goqu.I("computed_at").Asc(), goqu.I("id").Asc()).
		ScanStructsContext(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("list cost breakdowns of shipment %d: %w", shipmentID, err)
	}
	if len(rows) == 0 {
		return []domain.CostBreakdown{}, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}

	var legRows []breakdownLegRow
	err = s.gdb.From("cost_breakdown_legs").
		Where(goqu.Ex{"breakdown_id": ids}).
		Order(goqu.I("breakdown_id").Asc(), goqu.I("position").Asc()).
		ScanStructsContext(ctx, &legRows)
	if err != nil {
		return nil, fmt.Errorf("list cost breakdown legs: %w", err)
	}

	legs := make(map[int64][]domain.LegCost, len(rows))
	for _, l := range legRows {
		legs[l.BreakdownID] = append(legs[l.BreakdownID], domain.LegCost{
			LegID:      l.LegID,
			DistanceKm: l.DistanceKm,
			RatePerKm:  l.RatePerKm,
			FuelUnits:  l.FuelUnits,
			FuelCost:   l.FuelCost,
			Extra:      l.Extra,
			Total:      l.Total,
		})
	}

	out := make([]domain.CostBreakdown, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.CostBreakdown{
			ID:                   r.ID,
			ShipmentID:           r.ShipmentID,
			RouteID:              r.RouteID,
			Kind:                 domain.CostKind(r.Kind),
			Management:           r.Management,
			Transport:            r.Transport,
			Fuel:                 r.Fuel,
			Stay:                 r.Stay,
			Extras:               r.Extras,
			Total:                r.Total,
			Multiplier:           r.Multiplier,
			Legs:                 legs[r.ID],
			BaseTariffID:         r.BaseTariffID,
			FuelTariffID:         r.FuelTariffID,
			StayTariffID:         r.StayTariffID,
			WeightVolumeTariffID: intPtr(r.WeightVolumeTariffID),
			ComputedAt:           r.ComputedAt,
		})
	}
	return out, nil
}
