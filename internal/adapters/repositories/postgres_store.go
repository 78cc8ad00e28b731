package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"freight-route-service/internal/domain"
	"freight-route-service/internal/platform/obs"

	"github.com/doug-martin/goqu/v9"
	"github.com/shopspring/decimal"

	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
)

// PostgresStore implements the persistence ports on Postgres through goqu.
type PostgresStore struct {
	DB  *sql.DB
	gdb *goqu.Database
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		DB:  db,
		gdb: goqu.New("postgres", db),
	}
}

// WithTransaction runs fn inside a transaction, committing when fn returns nil
// and rolling back on error or panic.
func WithTransaction(ctx context.Context, db *goqu.Database, fn func(tx *goqu.TxDatabase) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	err = fn(tx)
	return
}

type depotRow struct {
	ID      int64   `db:"id"`
	Code    string  `db:"code"`
	Name    string  `db:"name"`
	Address string  `db:"address"`
	Lat     float64 `db:"lat"`
	Lon     float64 `db:"lon"`
	Active  bool    `db:"active"`
}

func (r depotRow) toDomain() domain.Depot {
	return domain.Depot{
		ID:          r.ID,
		Code:        r.Code,
		Name:        r.Name,
		Address:     r.Address,
		Coordinates: domain.NewCoordinates(r.Lat, r.Lon),
		Active:      r.Active,
	}
}

func (s *PostgresStore) ListActiveDepots(ctx context.Context) (_ []domain.Depot, err error) {
	defer obs.Time(ctx, "repo.ListActiveDepots")(&err)

	var rows []depotRow
	err = s.gdb.From("depots").
		Where(goqu.Ex{"active": true}).
		Order(goqu.I("id").Asc()).
		ScanStructsContext(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("list active depots: %w", err)
	}

	out := make([]domain.Depot, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

type vehicleRow struct {
	ID                   int64           `db:"id"`
	Plate                string          `db:"plate"`
	CapacityWeightKg     decimal.Decimal `db:"capacity_weight_kg"`
	CapacityVolumeM3     decimal.Decimal `db:"capacity_volume_m3"`
	ConsumptionKmPerUnit decimal.Decimal `db:"consumption_km_per_unit"`
	BaseCostPerKm        decimal.Decimal `db:"base_cost_per_km"`
	DriverID             string          `db:"driver_id"`
	Status               string          `db:"status"`
	Active               bool            `db:"active"`
}

func (r vehicleRow) toDomain() (domain.Vehicle, error) {
	status, err := domain.NewVehicleStatus(r.Status)
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("vehicle %d: %w", r.ID, err)
	}
	return domain.Vehicle{
		ID:                   r.ID,
		Plate:                r.Plate,
		CapacityWeightKg:     r.CapacityWeightKg,
		CapacityVolumeM3:     r.CapacityVolumeM3,
		ConsumptionKmPerUnit: r.ConsumptionKmPerUnit,
		BaseCostPerKm:        r.BaseCostPerKm,
		DriverID:             r.DriverID,
		Status:               status,
		Active:               r.Active,
	}, nil
}

func (s *PostgresStore) GetVehicle(ctx context.Context, id int64) (*domain.Vehicle, error) {
	var row vehicleRow
	found, err := s.gdb.From("vehicles").Where(goqu.Ex{"id": id}).ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("get vehicle %d: %w", id, err)
	}
	if !found {
		return nil, fmt.Errorf("vehicle %d: %w", id, domain.ErrNotFound)
	}

	v, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *PostgresStore) availableVehicles() *goqu.SelectDataset {
	return s.gdb.From("vehicles").
		Where(goqu.Ex{"active": true, "status": string(domain.VehicleAvailable)}).
		Order(goqu.I("id").Asc())
}

func (s *PostgresStore) FirstAvailableVehicle(ctx context.Context) (*domain.Vehicle, error) {
	var row vehicleRow
	found, err := s.availableVehicles().Limit(1).ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("first available vehicle: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("available vehicle: %w", domain.ErrNotFound)
	}

	v, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *PostgresStore) ListAvailableVehicles(ctx context.Context, weightKg, volumeM3 decimal.Decimal) ([]domain.Vehicle, error) {
	var rows []vehicleRow
	err := s.availableVehicles().
		Where(
			goqu.C("capacity_weight_kg").Gte(weightKg),
			goqu.C("capacity_volume_m3").Gte(volumeM3),
		).
		ScanStructsContext(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("list available vehicles: %w", err)
	}

	out := make([]domain.Vehicle, 0, len(rows))
	for _, r := range rows {
		v, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *PostgresStore) SetVehicleStatus(ctx context.Context, id int64, from, to domain.VehicleStatus) error {
	return setVehicleStatus(ctx, s.gdb, id, from, to)
}

// dbOrTx is the query surface shared by *goqu.Database and *goqu.TxDatabase.
type dbOrTx interface {
	From(from ...interface{}) *goqu.SelectDataset
	Update(table interface{}) *goqu.UpdateDataset
	Insert(table interface{}) *goqu.InsertDataset
}

func setVehicleStatus(ctx context.Context, q dbOrTx, id int64, from, to domain.VehicleStatus) error {
	res, err := q.Update("vehicles").
		Set(goqu.Record{"status": string(to)}).
		Where(goqu.Ex{"id": id, "status": string(from)}).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("set vehicle %d status: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set vehicle %d status: rows affected: %w", id, err)
	}
	if n == 1 {
		return nil
	}

	var current string
	found, err := q.From("vehicles").Select("status").Where(goqu.Ex{"id": id}).ScanValContext(ctx, &current)
	if err != nil {
		return fmt.Errorf("set vehicle %d status: %w", id, err)
	}
	if !found {
		return fmt.Errorf("vehicle %d: %w", id, domain.ErrNotFound)
	}
	return fmt.Errorf("%w: vehicle %d is %s, want %s", domain.ErrVehicleUnavailable, id, current, from)
}
