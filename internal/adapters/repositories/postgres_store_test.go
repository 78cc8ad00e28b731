package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentTariffQuery(t *testing.T) {
	s := NewPostgresStore(nil)

	sql, _, err := s.current("fuel_tariffs").ToSQL()
	require.NoError(t, err)

	assert.Contains(t, sql, `FROM "fuel_tariffs"`)
	assert.Contains(t, sql, `"active" IS TRUE`)
	assert.Contains(t, sql, `ORDER BY "effective_from" DESC, "id" ASC`)
	assert.Contains(t, sql, `LIMIT 1`)
}

func TestAvailableVehiclesQuery(t *testing.T) {
	s := NewPostgresStore(nil)

	sql, _, err := s.availableVehicles().ToSQL()
	require.NoError(t, err)

	assert.Contains(t, sql, `"active" IS TRUE`)
	assert.Contains(t, sql, `"status" = 'AVAILABLE'`)
	assert.Contains(t, sql, `ORDER BY "id" ASC`)
}
