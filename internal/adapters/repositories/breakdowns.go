package repositories

import (
	"fmt"
	"freight-route-service/internal/domain"
)

func checkEstimate(route *domain.Route, estimate *domain.CostBreakdown) error {
	if estimate != nil && len(estimate.Legs) != len(route.Legs) {
		return fmt.Errorf("%w: estimate prices %d legs, route has %d",
			domain.ErrInvalidInput, len(estimate.Legs), len(route.Legs))
	}
	return nil
}

// bindEstimate points the estimate at a freshly persisted route.
func bindEstimate(route *domain.Route, estimate *domain.CostBreakdown) {
	estimate.ShipmentID = route.ShipmentID
	estimate.RouteID = route.ID
	for i := range estimate.Legs {
		estimate.Legs[i].LegID = route.Legs[i].ID
	}
}
