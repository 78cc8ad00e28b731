package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"freight-route-service/internal/domain"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DepotSeed struct {
	Code    string  `json:"code"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Active  bool    `json:"active"`
}

type VehicleSeed struct {
	Plate                string          `json:"plate"`
	CapacityWeightKg     decimal.Decimal `json:"capacity_weight_kg"`
	CapacityVolumeM3     decimal.Decimal `json:"capacity_volume_m3"`
	ConsumptionKmPerUnit decimal.Decimal `json:"consumption_km_per_unit"`
	BaseCostPerKm        decimal.Decimal `json:"base_cost_per_km"`
	DriverID             string          `json:"driver_id"`
}

type TariffWindowSeed struct {
	EffectiveFrom  time.Time  `json:"effective_from"`
	EffectiveUntil *time.Time `json:"effective_until,omitempty"`
	Active         bool       `json:"active"`
}

func (w TariffWindowSeed) window() domain.TariffWindow {
	return domain.TariffWindow{EffectiveFrom: w.EffectiveFrom, EffectiveUntil: w.EffectiveUntil, Active: w.Active}
}

type BaseTariffSeed struct {
	Name          string              `json:"name"`
	ManagementFee decimal.Decimal     `json:"management_fee"`
	ExtraPerLeg   decimal.NullDecimal `json:"extra_per_leg"`
	TariffWindowSeed
}

type FuelTariffSeed struct {
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	TariffWindowSeed
}

type StayTariffSeed struct {
	CostPerDay  decimal.Decimal `json:"cost_per_day"`
	CostPerHour decimal.Decimal `json:"cost_per_hour"`
	TariffWindowSeed
}

type WeightVolumeTariffSeed struct {
	MinWeightKg decimal.Decimal `json:"min_weight_kg"`
	MaxWeightKg decimal.Decimal `json:"max_weight_kg"`
	MinVolumeM3 decimal.Decimal `json:"min_volume_m3"`
	MaxVolumeM3 decimal.Decimal `json:"max_volume_m3"`
	Multiplier  decimal.Decimal `json:"multiplier"`
	TariffWindowSeed
}

// FleetSeed is the reference data a fresh installation starts from.
type FleetSeed struct {
	Depots              []DepotSeed              `json:"depots"`
	Vehicles            []VehicleSeed            `json:"vehicles"`
	BaseTariffs         []BaseTariffSeed         `json:"base_tariffs"`
	FuelTariffs         []FuelTariffSeed         `json:"fuel_tariffs"`
	StayTariffs         []StayTariffSeed         `json:"stay_tariffs"`
	WeightVolumeTariffs []WeightVolumeTariffSeed `json:"weight_volume_tariffs"`
}

// Seeder is implemented by stores that can load reference data.
type Seeder interface {
	Seed(ctx context.Context, seed *FleetSeed) error
}

// Read and validate a fleet seed file.
func LoadSeed(jsonPath string) (*FleetSeed, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("load seed: read %q: %w", jsonPath, err)
	}

	var seed FleetSeed
	if err := json.Unmarshal(bytes, &seed); err != nil {
		return nil, fmt.Errorf("load seed: parse json: %w", err)
	}

	if err := seed.Validate(); err != nil {
		return nil, fmt.Errorf("load seed: %w", err)
	}
	return &seed, nil
}

func (s *FleetSeed) Validate() error {
	for i, d := range s.Depots {
		if strings.TrimSpace(d.Code) == "" {
			return fmt.Errorf("%w: depot at index %d: code cannot be empty", domain.ErrInvalidInput, i+1)
		}
		if d.Lat < -90 || d.Lat > 90 || d.Lon < -180 || d.Lon > 180 {
			return fmt.Errorf("%w: depot %q: coordinates out of range", domain.ErrInvalidInput, d.Code)
		}
	}
	for i, v := range s.Vehicles {
		if strings.TrimSpace(v.Plate) == "" {
			return fmt.Errorf("%w: vehicle at index %d: plate cannot be empty", domain.ErrInvalidInput, i+1)
		}
		if !v.ConsumptionKmPerUnit.IsPositive() {
			return fmt.Errorf("%w: vehicle %q: consumption must be positive", domain.ErrInvalidInput, v.Plate)
		}
		if v.BaseCostPerKm.IsNegative() {
			return fmt.Errorf("%w: vehicle %q: base cost per km cannot be negative", domain.ErrInvalidInput, v.Plate)
		}
	}
	for i, t := range s.WeightVolumeTariffs {
		if t.MaxWeightKg.LessThan(t.MinWeightKg) || t.MaxVolumeM3.LessThan(t.MinVolumeM3) {
			return fmt.Errorf("%w: weight/volume tariff at index %d: max below min", domain.ErrInvalidInput, i+1)
		}
		if !t.Multiplier.IsPositive() {
			return fmt.Errorf("%w: weight/volume tariff at index %d: multiplier must be positive", domain.ErrInvalidInput, i+1)
		}
	}
	return nil
}

func (d DepotSeed) depot() domain.Depot {
	return domain.Depot{
		Code:        strings.TrimSpace(d.Code),
		Name:        d.Name,
		Address:     d.Address,
		Coordinates: domain.NewCoordinates(d.Lat, d.Lon),
		Active:      d.Active,
	}
}

func (v VehicleSeed) vehicle() domain.Vehicle {
	return domain.Vehicle{
		Plate:                strings.TrimSpace(v.Plate),
		CapacityWeightKg:     v.CapacityWeightKg,
		CapacityVolumeM3:     v.CapacityVolumeM3,
		ConsumptionKmPerUnit: v.ConsumptionKmPerUnit,
		BaseCostPerKm:        v.BaseCostPerKm,
		DriverID:             v.DriverID,
		Status:               domain.VehicleAvailable,
		Active:               true,
	}
}

// Seed loads the reference data into the in-memory store.
func (m *MemoryStore) Seed(ctx context.Context, seed *FleetSeed) error {
	for _, d := range seed.Depots {
		m.AddDepot(d.depot())
	}
	for _, v := range seed.Vehicles {
		m.AddVehicle(v.vehicle())
	}
	for _, t := range seed.BaseTariffs {
		m.AddBaseTariff(domain.BaseTariff{Name: t.Name, ManagementFee: t.ManagementFee, ExtraPerLeg: t.ExtraPerLeg, TariffWindow: t.window()})
	}
	for _, t := range seed.FuelTariffs {
		m.AddFuelTariff(domain.FuelTariff{PricePerUnit: t.PricePerUnit, TariffWindow: t.window()})
	}
	for _, t := range seed.StayTariffs {
		m.AddStayTariff(domain.StayTariff{CostPerDay: t.CostPerDay, CostPerHour: t.CostPerHour, TariffWindow: t.window()})
	}
	for _, t := range seed.WeightVolumeTariffs {
		m.AddWeightVolumeTariff(domain.WeightVolumeTariff{
			MinWeightKg:  t.MinWeightKg,
			MaxWeightKg:  t.MaxWeightKg,
			MinVolumeM3:  t.MinVolumeM3,
			MaxVolumeM3:  t.MaxVolumeM3,
			Multiplier:   t.Multiplier,
			TariffWindow: t.window(),
		})
	}
	return nil
}

// Populate a store with reference data from a JSON file.
func SeedFromJSON(ctx context.Context, store Seeder, jsonPath string) error {
	seed, err := LoadSeed(jsonPath)
	if err != nil {
		return err
	}
	if err := store.Seed(ctx, seed); err != nil {
		return fmt.Errorf("seed store: %w", err)
	}
	return nil
}
