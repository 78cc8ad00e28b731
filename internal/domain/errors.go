package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrMissingTariff      = errors.New("missing tariff")
	ErrInvalidVariant     = errors.New("invalid route variant")
	ErrVariantUnavailable = errors.New("route variant unavailable")
	ErrInvalidState       = errors.New("invalid leg state")
	ErrVehicleUnavailable = errors.New("vehicle unavailable")
	ErrUnauthorized       = errors.New("unauthorized")
)

// MissingTariffError names the tariff kind that had no active record.
type MissingTariffError struct {
	Kind TariffKind
}

func (e *MissingTariffError) Error() string {
	return fmt.Sprintf("no active %s tariff", e.Kind)
}

func (e *MissingTariffError) Unwrap() error { return ErrMissingTariff }
