package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVehicleStatus(t *testing.T) {
	s, err := NewVehicleStatus("MAINTENANCE")
	require.NoError(t, err)
	assert.Equal(t, VehicleMaintenance, s)

	_, err = NewVehicleStatus("parked")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestVehicleOccupyRelease(t *testing.T) {
	v := Vehicle{ID: 3, Status: VehicleAvailable, Active: true}

	require.NoError(t, v.Occupy())
	assert.Equal(t, VehicleOccupied, v.Status)
	assert.ErrorIs(t, v.Occupy(), ErrVehicleUnavailable)

	v.Release()
	assert.True(t, v.IsAvailable())

	v.Status = VehicleMaintenance
	v.Release()
	assert.Equal(t, VehicleMaintenance, v.Status)
}

func TestVehicleFitsAndDriver(t *testing.T) {
	v := Vehicle{
		CapacityWeightKg: decimal.NewFromInt(1000),
		CapacityVolumeM3: decimal.NewFromInt(10),
		DriverID:         "drv-1",
	}
	assert.True(t, v.Fits(decimal.NewFromInt(1000), decimal.NewFromInt(10)))
	assert.False(t, v.Fits(decimal.NewFromInt(1001), decimal.NewFromInt(1)))
	assert.True(t, v.DrivenBy("drv-1"))
	assert.False(t, v.DrivenBy(""))
	assert.False(t, v.DrivenBy("drv-2"))
}
