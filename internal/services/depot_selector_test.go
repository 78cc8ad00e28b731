package services

import (
	"context"
	"errors"
	"freight-route-service/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type depotList struct {
	depots []domain.Depot
	err    error
}

func (d depotList) ListActiveDepots(ctx context.Context) ([]domain.Depot, error) {
	return d.depots, d.err
}

var (
	buenosAires = domain.NewCoordinates(-34.60, -58.40)
	cordoba     = domain.NewCoordinates(-31.40, -64.20)
)

func TestChooseDepotsNoActiveDepots(t *testing.T) {
	inactive := []domain.Depot{{ID: 1, Coordinates: domain.NewCoordinates(-33, -61.3), Active: false}}

	for _, pool := range [][]domain.Depot{nil, inactive} {
		assert.Empty(t, ChooseDepots(pool, buenosAires, cordoba, 1))
		assert.Empty(t, ChooseDepots(pool, buenosAires, cordoba, 2))
	}
}

func TestChooseDepotsOneNearestMidpoint(t *testing.T) {
	pool := []domain.Depot{
		{ID: 1, Code: "ROS", Coordinates: domain.NewCoordinates(-32.95, -60.65), Active: true},
		{ID: 2, Code: "MID", Coordinates: domain.NewCoordinates(-33.00, -61.30), Active: true},
		{ID: 3, Code: "MZA", Coordinates: domain.NewCoordinates(-32.89, -68.84), Active: true},
	}

	got := ChooseDepots(pool, buenosAires, cordoba, 1)
	require.Len(t, got, 1)
	assert.EqualValues(t, 2, got[0].ID)
}

func TestChooseDepotsTwoDistinct(t *testing.T) {
	pool := []domain.Depot{
		{ID: 10, Coordinates: domain.Interpolate(buenosAires, cordoba, 0.66), Active: true},
		{ID: 11, Coordinates: domain.Interpolate(buenosAires, cordoba, 0.30), Active: true},
		{ID: 12, Coordinates: domain.NewCoordinates(-10, -10), Active: true},
	}

	got := ChooseDepots(pool, buenosAires, cordoba, 2)
	require.Len(t, got, 2)
	assert.EqualValues(t, 11, got[0].ID)
	assert.EqualValues(t, 10, got[1].ID)
}

func TestChooseDepotsTwoNeverRepeats(t *testing.T) {
	only := []domain.Depot{{ID: 1, Coordinates: domain.Midpoint(buenosAires, cordoba), Active: true}}

	got := ChooseDepots(only, buenosAires, cordoba, 2)
	require.Len(t, got, 1)
	assert.EqualValues(t, 1, got[0].ID)
}

func TestDepotSelectorChoose(t *testing.T) {
	sel := NewDepotSelector(depotList{depots: []domain.Depot{
		{ID: 5, Coordinates: domain.Midpoint(buenosAires, cordoba), Active: true},
	}})

	got, err := sel.Choose(context.Background(), buenosAires, cordoba, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = sel.Choose(context.Background(), buenosAires, cordoba, 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = NewDepotSelector(depotList{err: errors.New("db down")}).Choose(context.Background(), buenosAires, cordoba, 2)
	assert.Error(t, err)
}
