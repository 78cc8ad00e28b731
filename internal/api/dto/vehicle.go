package dto

import "freight-route-service/internal/domain"

type AssignVehicleRequest struct {
	VehicleID int64 `json:"vehicle_id" binding:"required,gt=0"`
}

type VehicleResponse struct {
	ID                   int64  `json:"id"`
	Plate                string `json:"plate"`
	CapacityWeightKg     string `json:"capacity_weight_kg"`
	CapacityVolumeM3     string `json:"capacity_volume_m3"`
	ConsumptionKmPerUnit string `json:"consumption_km_per_unit"`
	BaseCostPerKm        string `json:"base_cost_per_km"`
	DriverID             string `json:"driver_id"`
	Status               string `json:"status"`
}

func NewVehicleResponses(vs []domain.Vehicle) []VehicleResponse {
	out := make([]VehicleResponse, 0, len(vs))
	for _, v := range vs {
		out = append(out, VehicleResponse{
			ID:                   v.ID,
			Plate:                v.Plate,
			CapacityWeightKg:     v.CapacityWeightKg.String(),
			CapacityVolumeM3:     v.CapacityVolumeM3.String(),
			ConsumptionKmPerUnit: v.ConsumptionKmPerUnit.String(),
			BaseCostPerKm:        money(v.BaseCostPerKm),
			DriverID:             v.DriverID,
			Status:               string(v.Status),
		})
	}
	return out
}
