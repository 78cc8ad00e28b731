package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	defaults(v)

	cfg := fromViper(v)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.OSRMTimeout)
	assert.Equal(t, 10*time.Second, cfg.CostTimeout)
	assert.Equal(t, 24*time.Hour, cfg.DistanceCacheTTL)
	assert.Equal(t, 30*time.Second, cfg.LockTTL)
	assert.Equal(t, 5*time.Second, cfg.LockWait)
	assert.False(t, cfg.UsesPostgres())
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("OSRM_URL", "http://osrm:5000/")
	t.Setenv("LOCK_TTL", "2m")
	t.Setenv("LOCK_WAIT", "750ms")
	t.Setenv("DATABASE_URL", "postgres://freight@localhost/freight")

	v := viper.New()
	defaults(v)
	v.AutomaticEnv()

	cfg := fromViper(v)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://osrm:5000", cfg.OSRMURL)
	assert.Equal(t, 2*time.Minute, cfg.LockTTL)
	assert.Equal(t, 750*time.Millisecond, cfg.LockWait)
	assert.True(t, cfg.UsesPostgres())
}

func TestValidate(t *testing.T) {
	v := viper.New()
	defaults(v)
	cfg := fromViper(v)

	cfg.OSRMTimeout = 0
	cfg.Port = ""
	cfg.LockWait = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OSRM_TIMEOUT")
	assert.Contains(t, err.Error(), "LOCK_WAIT")
	assert.Contains(t, err.Error(), "PORT")
}
