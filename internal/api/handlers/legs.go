package handlers

import (
	"context"
	"freight-route-service/internal/api/dto"
	"freight-route-service/internal/domain"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DriverHeader carries the id of the driver calling a leg transition.
const DriverHeader = "X-Driver-ID"

type LegService interface {
	Assign(ctx context.Context, legID, vehicleID int64) (*domain.Leg, error)
	Start(ctx context.Context, legID int64, driverID string) (*domain.Leg, error)
	Finish(ctx context.Context, legID int64, driverID string) (*domain.Leg, error)
}

type LegQueries interface {
	Leg(ctx context.Context, id int64) (*domain.Leg, error)
	DriverLegs(ctx context.Context, driverID string) ([]domain.Leg, error)
	AvailableVehicles(ctx context.Context, weightKg, volumeM3 decimal.Decimal) ([]domain.Vehicle, error)
}

type LegHandler struct {
	Legs    LegService
	Queries LegQueries
	Log     *zap.Logger
}

func (h *LegHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/legs/:id", h.GetLeg)
	router.POST("/legs/:id/assign", h.Assign)
	router.POST("/legs/:id/start", h.Start)
	router.POST("/legs/:id/finish", h.Finish)
	router.GET("/drivers/:id/legs", h.DriverLegs)
	router.GET("/vehicles/available", h.AvailableVehicles)
}

func (h *LegHandler) GetLeg(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	leg, err := h.Queries.Leg(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewLegResponse(*leg))
}

func (h *LegHandler) Assign(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	var req dto.AssignVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	leg, err := h.Legs.Assign(c.Request.Context(), id, req.VehicleID)
	if err != nil {
		writeError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewLegResponse(*leg))
}

type transition func(ctx context.Context, legID int64, driverID string) (*domain.Leg, error)

func (h *LegHandler) driverTransition(c *gin.Context, move transition) {
	id, err := paramID(c, "id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	driver := strings.TrimSpace(c.GetHeader(DriverHeader))
	if driver == "" {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": DriverHeader + " header is required"})
		return
	}

	leg, err := move(c.Request.Context(), id, driver)
	if err != nil {
		writeError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewLegResponse(*leg))
}

func (h *LegHandler) Start(c *gin.Context)  { h.driverTransition(c, h.Legs.Start) }
func (h *LegHandler) Finish(c *gin.Context) { h.driverTransition(c, h.Legs.Finish) }

func (h *LegHandler) DriverLegs(c *gin.Context) {
	legs, err := h.Queries.DriverLegs(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		writeError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"legs": dto.NewLegResponses(legs)})
}

func (h *LegHandler) AvailableVehicles(c *gin.Context) {
	weight, err := decimal.NewFromString(c.DefaultQuery("weight_kg", "0"))
	if err != nil {
		badRequest(c, "weight_kg must be a number")
		return
	}
	volume, err := decimal.NewFromString(c.DefaultQuery("volume_m3", "0"))
	if err != nil {
		badRequest(c, "volume_m3 must be a number")
		return
	}

	vehicles, err := h.Queries.AvailableVehicles(c.Request.Context(), weight, volume)
	if err != nil {
		writeError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vehicles": dto.NewVehicleResponses(vehicles)})
}
