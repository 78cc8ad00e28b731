package domain

import "github.com/shopspring/decimal"

type ShipmentStatus string

const (
	ShipmentScheduled ShipmentStatus = "SCHEDULED"
	ShipmentInTransit ShipmentStatus = "IN_TRANSIT"
	ShipmentDelivered ShipmentStatus = "DELIVERED"
)

// Shipment is the part of a customer's transport request this service reads.
// The external shipment service remains the system of record for its status.
type Shipment struct {
	ID          int64
	Origin      Coordinates
	Destination Coordinates
	WeightKg    decimal.Decimal
	VolumeM3    decimal.Decimal
}
