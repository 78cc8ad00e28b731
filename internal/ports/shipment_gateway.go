package ports

import (
	"context"
	"freight-route-service/internal/domain"
)

// Boundary to the external shipment service, the system of record for shipment state.
type ShipmentGateway interface {
	GetShipment(ctx context.Context, id int64) (*domain.Shipment, error)
	TransitionStatus(ctx context.Context, id int64, status domain.ShipmentStatus, observation string) error
}
