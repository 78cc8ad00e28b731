package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "AVAILABLE"
	VehicleOccupied    VehicleStatus = "OCCUPIED"
	VehicleMaintenance VehicleStatus = "MAINTENANCE"
	VehicleInactive    VehicleStatus = "INACTIVE"
)

func NewVehicleStatus(value string) (VehicleStatus, error) {
	status := VehicleStatus(value)
	switch status {
	case VehicleAvailable, VehicleOccupied, VehicleMaintenance, VehicleInactive:
		return status, nil
	default:
		return "", fmt.Errorf("%w: vehicle status %q", ErrInvalidInput, value)
	}
}

// Vehicle is a truck of the fleet together with its pricing rates.
// DriverID identifies the driver bound to the vehicle in the identity provider.
type Vehicle struct {
	ID                   int64
	Plate                string
	CapacityWeightKg     decimal.Decimal
	CapacityVolumeM3     decimal.Decimal
	ConsumptionKmPerUnit decimal.Decimal
	BaseCostPerKm        decimal.Decimal
	DriverID             string
	Status               VehicleStatus
	Active               bool
}

func (v *Vehicle) IsAvailable() bool {
	return v.Active && v.Status == VehicleAvailable
}

// Fits reports whether the cargo is within the vehicle's capacity.
func (v *Vehicle) Fits(weightKg, volumeM3 decimal.Decimal) bool {
	return v.CapacityWeightKg.GreaterThanOrEqual(weightKg) && v.CapacityVolumeM3.GreaterThanOrEqual(volumeM3)
}

// Occupy moves the vehicle from AVAILABLE to OCCUPIED.
func (v *Vehicle) Occupy() error {
	if !v.IsAvailable() {
		return fmt.Errorf("%w: vehicle %d is %s", ErrVehicleUnavailable, v.ID, v.Status)
	}
	v.Status = VehicleOccupied
	return nil
}

func (v *Vehicle) Release() {
	if v.Status == VehicleOccupied {
		v.Status = VehicleAvailable
	}
}

func (v *Vehicle) DrivenBy(driverID string) bool {
	return driverID != "" && v.DriverID == driverID
}
