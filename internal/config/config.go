package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port             string
	Env              string
	DatabaseURL      string
	MigrationsDir    string
	SeedPath         string
	OSRMURL          string
	OSRMTimeout      time.Duration
	CostTimeout      time.Duration
	RedisAddress     string
	LockTTL          time.Duration
	LockWait         time.Duration
	ShipmentsURL     string
	DistanceCacheTTL time.Duration
}

func defaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("SEED_PATH", "data/seeds/fleet.json")
	v.SetDefault("OSRM_URL", "http://localhost:5000")
	v.SetDefault("OSRM_TIMEOUT", "5s")
	v.SetDefault("COST_TIMEOUT", "10s")
	v.SetDefault("REDIS_ADDRESS", "")
	v.SetDefault("LOCK_TTL", "30s")
	v.SetDefault("LOCK_WAIT", "5s")
	v.SetDefault("SHIPMENTS_URL", "")
	v.SetDefault("DISTANCE_CACHE_TTL", "24h")
}

// Load reads .env (when present) and the process environment.
// It reports whether a .env file was found so callers can log it.
func Load() (Config, bool, error) {
	foundEnvFile := godotenv.Load() == nil

	v := viper.New()
	defaults(v)
	v.AutomaticEnv()

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return Config{}, foundEnvFile, err
	}
	return cfg, foundEnvFile, nil
}

func fromViper(v *viper.Viper) Config {
	return Config{
		Port:             strings.TrimSpace(v.GetString("PORT")),
		Env:              strings.TrimSpace(v.GetString("APP_ENV")),
		DatabaseURL:      strings.TrimSpace(v.GetString("DATABASE_URL")),
		MigrationsDir:    v.GetString("MIGRATIONS_DIR"),
		SeedPath:         v.GetString("SEED_PATH"),
		OSRMURL:          strings.TrimRight(strings.TrimSpace(v.GetString("OSRM_URL")), "/"),
		OSRMTimeout:      v.GetDuration("OSRM_TIMEOUT"),
		CostTimeout:      v.GetDuration("COST_TIMEOUT"),
		RedisAddress:     strings.TrimSpace(v.GetString("REDIS_ADDRESS")),
		LockTTL:          v.GetDuration("LOCK_TTL"),
		LockWait:         v.GetDuration("LOCK_WAIT"),
		ShipmentsURL:     strings.TrimRight(strings.TrimSpace(v.GetString("SHIPMENTS_URL")), "/"),
		DistanceCacheTTL: v.GetDuration("DISTANCE_CACHE_TTL"),
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT must be non-empty"))
	}
	if c.OSRMURL == "" {
		errs = append(errs, errors.New("OSRM_URL must be non-empty"))
	}
	if c.OSRMTimeout <= 0 {
		errs = append(errs, errors.New("OSRM_TIMEOUT must be positive"))
	}
	if c.CostTimeout <= 0 {
		errs = append(errs, errors.New("COST_TIMEOUT must be positive"))
	}
	if c.LockTTL <= 0 {
		errs = append(errs, errors.New("LOCK_TTL must be positive"))
	}
	if c.LockWait <= 0 {
		errs = append(errs, errors.New("LOCK_WAIT must be positive"))
	}
	if c.DistanceCacheTTL < 0 {
		errs = append(errs, errors.New("DISTANCE_CACHE_TTL must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func (c Config) UsesPostgres() bool { return c.DatabaseURL != "" }
