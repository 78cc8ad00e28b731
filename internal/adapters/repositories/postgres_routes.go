package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"freight-route-service/internal/domain"
	"freight-route-service/internal/platform/obs"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/shopspring/decimal"
)

type routeRow struct {
	ID                 int64               `db:"id"`
	ShipmentID         int64               `db:"shipment_id"`
	Kind               string              `db:"kind"`
	VariantIndex       int                 `db:"variant_index"`
	Description        string              `db:"description"`
	LegCount           int                 `db:"leg_count"`
	DepotCount         int                 `db:"depot_count"`
	TotalDistanceKm    decimal.Decimal     `db:"total_distance_km"`
	TotalDurationHours int                 `db:"total_duration_hours"`
	EstimatedCostTotal decimal.NullDecimal `db:"estimated_cost_total"`
	RealCostTotal      decimal.NullDecimal `db:"real_cost_total"`
	Selected           bool                `db:"selected"`
	WeightKg           decimal.Decimal     `db:"weight_kg"`
	VolumeM3           decimal.Decimal     `db:"volume_m3"`
	CreatedAt          time.Time           `db:"created_at"`
}

type legRow struct {
	ID             int64               `db:"id"`
	RouteID        int64               `db:"route_id"`
	Order          int                 `db:"leg_order"`
	Kind           string              `db:"kind"`
	OriginKind     string              `db:"origin_kind"`
	OriginLat      float64             `db:"origin_lat"`
	OriginLon      float64             `db:"origin_lon"`
	OriginDepotID  sql.NullInt64       `db:"origin_depot_id"`
	DestKind       string              `db:"dest_kind"`
	DestLat        float64             `db:"dest_lat"`
	DestLon        float64             `db:"dest_lon"`
	DestDepotID    sql.NullInt64       `db:"dest_depot_id"`
	DistanceKm     decimal.Decimal     `db:"distance_km"`
	DurationHours  int                 `db:"duration_hours"`
	Status         string              `db:"status"`
	VehicleID      sql.NullInt64       `db:"vehicle_id"`
	EstimatedStart sql.NullTime        `db:"estimated_start"`
	EstimatedEnd   sql.NullTime        `db:"estimated_end"`
	ActualStart    sql.NullTime        `db:"actual_start"`
	ActualEnd      sql.NullTime        `db:"actual_end"`
	EstimatedCost  decimal.NullDecimal `db:"estimated_cost"`
	RealCost       decimal.NullDecimal `db:"real_cost"`
}

func nullInt(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func intPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func nullTime(p *time.Time) sql.NullTime {
	if p == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *p, Valid: true}
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	v := n.Time
	return &v
}

func (r legRow) toDomain() domain.Leg {
	return domain.Leg{
		ID:      r.ID,
		RouteID: r.RouteID,
		Order:   r.Order,
		Kind:    domain.LegKind(r.Kind),
		Origin: domain.Location{
			Kind:        domain.LocationKind(r.OriginKind),
			Coordinates: domain.NewCoordinates(r.OriginLat, r.OriginLon),
			DepotID:     intPtr(r.OriginDepotID),
		},
		Destination: domain.Location{
			Kind:        domain.LocationKind(r.DestKind),
			Coordinates: domain.NewCoordinates(r.DestLat, r.DestLon),
			DepotID:     intPtr(r.DestDepotID),
		},
		DistanceKm:     r.DistanceKm,
		DurationHours:  r.DurationHours,
		Status:         domain.LegStatus(r.Status),
		VehicleID:      intPtr(r.VehicleID),
		EstimatedStart: timePtr(r.EstimatedStart),
		EstimatedEnd:   timePtr(r.EstimatedEnd),
		ActualStart:    timePtr(r.ActualStart),
		ActualEnd:      timePtr(r.ActualEnd),
		EstimatedCost:  r.EstimatedCost,
		RealCost:       r.RealCost,
	}
}

func legRecord(routeID int64, l domain.Leg) goqu.Record {
	return goqu.Record{
		"route_id":        routeID,
		"leg_order":       l.Order,
		"kind":            string(l.Kind),
		"origin_kind":     string(l.Origin.Kind),
		"origin_lat":      l.Origin.Coordinates.Lat,
		"origin_lon":      l.Origin.Coordinates.Lon,
		"origin_depot_id": nullInt(l.Origin.DepotID),
		"dest_kind":       string(l.Destination.Kind),
		"dest_lat":        l.Destination.Coordinates.Lat,
		"dest_lon":        l.Destination.Coordinates.Lon,
		"dest_depot_id":   nullInt(l.Destination.DepotID),
		"distance_km":     l.DistanceKm,
		"duration_hours":  l.DurationHours,
		"status":          string(l.Status),
		"vehicle_id":      nullInt(l.VehicleID),
		"estimated_start": nullTime(l.EstimatedStart),
		"estimated_end":   nullTime(l.EstimatedEnd),
		"actual_start":    nullTime(l.ActualStart),
		"actual_end":      nullTime(l.ActualEnd),
		"estimated_cost":  l.EstimatedCost,
		"real_cost":       l.RealCost,
	}
}

func (s *PostgresStore) SaveSelectedRoute(ctx context.Context, route *domain.Route, estimate *domain.CostBreakdown) (err error) {
	defer obs.Time(ctx, "repo.SaveSelectedRoute")(&err)

	if err := checkEstimate(route, estimate); err != nil {
		return err
	}
	if route.CreatedAt.IsZero() {
		route.CreatedAt = time.Now().UTC()
	}

	var (
		routeID int64
		legIDs  = make([]int64, len(route.Legs))
	)
	err = WithTransaction(ctx, s.gdb, func(tx *goqu.TxDatabase) error {
		_, err := tx.Update("routes").
			Set(goqu.Record{"selected": false}).
			Where(goqu.Ex{"shipment_id": route.ShipmentID, "selected": true}).
			Executor().ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("deselect routes of shipment %d: %w", route.ShipmentID, err)
		}

		_, err = tx.Insert("routes").Rows(goqu.Record{
			"shipment_id":          route.ShipmentID,
			"kind":                 string(route.Kind),
			"variant_index":        route.VariantIndex,
			"description":          route.Description,
			"leg_count":            route.LegCount(),
			"depot_count":          route.DepotCount,
			"total_distance_km":    route.TotalDistanceKm,
			"total_duration_hours": route.TotalDurationHours,
			"estimated_cost_total": route.EstimatedCostTotal,
			"real_cost_total":      route.RealCostTotal,
			"selected":             true,
			"weight_kg":            route.WeightKg,
			"volume_m3":            route.VolumeM3,
			"created_at":           route.CreatedAt,
		}).Returning("id").Executor().ScanValContext(ctx, &routeID)
		if err != nil {
			return fmt.Errorf("insert route: %w", err)
		}

		for i := range route.Legs {
			_, err := tx.Insert("legs").
				Rows(legRecord(routeID, route.Legs[i])).
				Returning("id").Executor().ScanValContext(ctx, &legIDs[i])
			if err != nil {
				return fmt.Errorf("insert leg %d of route %d: %w", route.Legs[i].Order, routeID, err)
			}
		}

		if estimate == nil {
			return nil
		}
		bound := *estimate
		bound.Legs = append([]domain.LegCost(nil), estimate.Legs...)
		bound.ShipmentID, bound.RouteID = route.ShipmentID, routeID
		for i := range bound.Legs {
			bound.Legs[i].LegID = legIDs[i]
		}
		id, err := insertBreakdown(ctx, tx, &bound)
		if err != nil {
			return err
		}
		estimate.ID = id
		return nil
	})
	if err != nil {
		return err
	}

	// IDs are written back only once the transaction has committed.
	route.ID = routeID
	route.Selected = true
	for i := range route.Legs {
		route.Legs[i].ID = legIDs[i]
		route.Legs[i].RouteID = routeID
	}
	if estimate != nil {
		bindEstimate(route, estimate)
	}
	return nil
}

func (s *PostgresStore) routes(ctx context.Context, where exp.Expression) ([]domain.Route, error) {
	var rows []routeRow
	if err := s.gdb.From("routes").Where(where).Order(goqu.I("id").Asc()).ScanStructsContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("query routes: %w", err)
	}
	if len(rows) == 0 {
		return []domain.Route{}, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}

	var legs []legRow
	err := s.gdb.From("legs").
		Where(goqu.Ex{"route_id": ids}).
		Order(goqu.I("route_id").Asc(), goqu.I("leg_order").Asc()).
		ScanStructsContext(ctx, &legs)
	if err != nil {
		return nil, fmt.Errorf("query legs: %w", err)
	}

	byRoute := make(map[int64][]domain.Leg, len(rows))
	for _, l := range legs {
		byRoute[l.RouteID] = append(byRoute[l.RouteID], l.toDomain())
	}

	out := make([]domain.Route, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Route{
			ID:                 r.ID,
			ShipmentID:         r.ShipmentID,
			Kind:               domain.RouteKind(r.Kind),
			VariantIndex:       r.VariantIndex,
			Description:        r.Description,
			Legs:               byRoute[r.ID],
			DepotCount:         r.DepotCount,
			TotalDistanceKm:    r.TotalDistanceKm,
			TotalDurationHours: r.TotalDurationHours,
			EstimatedCostTotal: r.EstimatedCostTotal,
			RealCostTotal:      r.RealCostTotal,
			Selected:           r.Selected,
			WeightKg:           r.WeightKg,
			VolumeM3:           r.VolumeM3,
			CreatedAt:          r.CreatedAt,
		})
	}
	return out, nil
}

func (s *PostgresStore) GetRoute(ctx context.Context, id int64) (*domain.Route, error) {
	routes, err := s.routes(ctx, goqu.Ex{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get route %d: %w", id, err)
	}
	if len(routes) == 0 {
		return nil, fmt.Errorf("route %d: %w", id, domain.ErrNotFound)
	}
	return &routes[0], nil
}

func (s *PostgresStore) ListRoutesByShipment(ctx context.Context, shipmentID int64) ([]domain.Route, error) {
	routes, err := s.routes(ctx, goqu.Ex{"shipment_id": shipmentID})
	if err != nil {
		return nil, fmt.Errorf("list routes of shipment %d: %w", shipmentID, err)
	}
	return routes, nil
}

func (s *PostgresStore) GetLeg(ctx context.Context, id int64) (*domain.Leg, error) {
	var row legRow
	found, err := s.gdb.From("legs").Where(goqu.Ex{"id": id}).ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("get leg %d: %w", id, err)
	}
	if !found {
		return nil, fmt.Errorf("leg %d: %w", id, domain.ErrNotFound)
	}
	l := row.toDomain()
	return &l, nil
}

func (s *PostgresStore) UpdateLeg(ctx context.Context, leg *domain.Leg) error {
	return updateLeg(ctx, s.gdb, leg, goqu.Ex{"id": leg.ID}, domain.ErrNotFound)
}

func updateLeg(ctx context.Context, q dbOrTx, leg *domain.Leg, where goqu.Ex, missing error) error {
	res, err := q.Update("legs").
		Set(goqu.Record{
			"status":          string(leg.Status),
			"vehicle_id":      nullInt(leg.VehicleID),
			"estimated_start": nullTime(leg.EstimatedStart),
			"estimated_end":   nullTime(leg.EstimatedEnd),
			"actual_start":    nullTime(leg.ActualStart),
			"actual_end":      nullTime(leg.ActualEnd),
			"estimated_cost":  leg.EstimatedCost,
			"real_cost":       leg.RealCost,
		}).
		Where(where).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("update leg %d: %w", leg.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("leg %d: %w", leg.ID, missing)
	}
	return nil
}

// FinalizeLeg writes the finished leg, guarded on its stored STARTED status,
// and when final is set settles the route in the same transaction.
func (s *PostgresStore) FinalizeLeg(ctx context.Context, leg *domain.Leg, final *domain.CostBreakdown) (err error) {
	defer obs.Time(ctx, "repo.FinalizeLeg")(&err)

	var finalID int64
	err = WithTransaction(ctx, s.gdb, func(tx *goqu.TxDatabase) error {
		guard := goqu.Ex{"id": leg.ID, "status": string(domain.LegStarted)}
		if err := updateLeg(ctx, tx, leg, guard, domain.ErrInvalidState); err != nil {
			return err
		}
		if final == nil {
			return nil
		}

		id, err := insertBreakdown(ctx, tx, final)
		if err != nil {
			return err
		}
		finalID = id

		_, err = tx.Update("routes").
			Set(goqu.Record{"real_cost_total": final.Total}).
			Where(goqu.Ex{"id": final.RouteID}).
			Executor().ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("settle route %d: %w", final.RouteID, err)
		}
		for _, lc := range final.Legs {
			res, err := tx.Update("legs").
				Set(goqu.Record{"real_cost": lc.Total}).
				Where(goqu.Ex{"id": lc.LegID, "route_id": final.RouteID}).
				Executor().ExecContext(ctx)
			if err != nil {
				return fmt.Errorf("settle leg %d: %w", lc.LegID, err)
			}
			if n, err := res.RowsAffected(); err == nil && n == 0 {
				return fmt.Errorf("%w: leg %d is not part of route %d", domain.ErrInvalidInput, lc.LegID, final.RouteID)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if final != nil {
		final.ID = finalID
	}
	return nil
}

func (s *PostgresStore) legs(ctx context.Context, ds *goqu.SelectDataset) ([]domain.Leg, error) {
	var rows []legRow
	if err := ds.ScanStructsContext(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.Leg, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *PostgresStore) ListLegsByVehicle(ctx context.Context, vehicleID int64) ([]domain.Leg, error) {
	out, err := s.legs(ctx, s.gdb.From("legs").
		Where(goqu.Ex{"vehicle_id": vehicleID}).
		Order(goqu.I("id").Asc()))
	if err != nil {
		return nil, fmt.Errorf("list legs of vehicle %d: %w", vehicleID, err)
	}
	return out, nil
}

func (s *PostgresStore) ListLegsByDriver(ctx context.Context, driverID string) ([]domain.Leg, error) {
	ds := s.gdb.From(goqu.T("legs").As("l")).
		Select(goqu.T("l").All()).
		Join(goqu.T("vehicles").As("v"), goqu.On(goqu.Ex{"l.vehicle_id": goqu.I("v.id")})).
		Where(goqu.Ex{"v.driver_id": driverID}).
		Order(goqu.I("l.id").Asc())

	out, err := s.legs(ctx, ds)
	if err != nil {
		return nil, fmt.Errorf("list legs of driver %q: %w", driverID, err)
	}
	return out, nil
}

// AssignLegVehicle locks the leg row, occupies the vehicle with a
// compare-and-set and binds it, all in one transaction.
func (s *PostgresStore) AssignLegVehicle(ctx context.Context, legID, vehicleID int64) (err error) {
	defer obs.Time(ctx, "repo.AssignLegVehicle")(&err)

	return WithTransaction(ctx, s.gdb, func(tx *goqu.TxDatabase) error {
		var status string
		found, err := tx.From("legs").Select("status").
			Where(goqu.Ex{"id": legID}).
			ForUpdate(exp.Wait).
			ScanValContext(ctx, &status)
		if err != nil {
			return fmt.Errorf("lock leg %d: %w", legID, err)
		}
		if !found {
			return fmt.Errorf("leg %d: %w", legID, domain.ErrNotFound)
		}
		if domain.LegStatus(status) != domain.LegEstimated {
			return fmt.Errorf("%w: leg %d is %s", domain.ErrInvalidState, legID, status)
		}

		var active bool
		found, err = tx.From("vehicles").Select("active").Where(goqu.Ex{"id": vehicleID}).ScanValContext(ctx, &active)
		if err != nil {
			return fmt.Errorf("get vehicle %d: %w", vehicleID, err)
		}
		if !found {
			return fmt.Errorf("vehicle %d: %w", vehicleID, domain.ErrNotFound)
		}
		if !active {
			return fmt.Errorf("%w: vehicle %d is inactive", domain.ErrVehicleUnavailable, vehicleID)
		}

		if err := setVehicleStatus(ctx, tx, vehicleID, domain.VehicleAvailable, domain.VehicleOccupied); err != nil {
			return err
		}

		_, err = tx.Update("legs").
			Set(goqu.Record{"vehicle_id": vehicleID, "status": string(domain.LegAssigned)}).
			Where(goqu.Ex{"id": legID}).
			Executor().ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("bind vehicle %d to leg %d: %w", vehicleID, legID, err)
		}
		return nil
	})
}
