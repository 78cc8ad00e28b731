package handlers

import (
	"context"
	"freight-route-service/internal/api/dto"
	"freight-route-service/internal/domain"
	"freight-route-service/internal/services"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RouteService interface {
	GenerateAlternatives(ctx context.Context, req services.AlternativesRequest) ([]services.Variant, error)
	GenerateAlternativesForShipment(ctx context.Context, shipmentID int64) ([]services.Variant, error)
	AssignRoute(ctx context.Context, shipmentID int64, variantIndex int) (*domain.Route, error)
}

type RouteQueries interface {
	Route(ctx context.Context, id int64) (*domain.Route, error)
	ShipmentRoutes(ctx context.Context, shipmentID int64) ([]domain.Route, error)
	ShipmentCosts(ctx context.Context, shipmentID int64) ([]domain.CostBreakdown, error)
}

type RouteHandler struct {
	Routes  RouteService
	Queries RouteQueries
	Log     *zap.Logger
}

func (h *RouteHandler) RegisterRoutes(router gin.IRouter) {
	router.POST("/routes/alternatives", h.Alternatives)
	router.GET("/routes/:id", h.GetRoute)
	router.GET("/shipments/:id/routes/alternatives", h.ShipmentAlternatives)
	router.POST("/shipments/:id/routes/assign", h.Assign)
	router.GET("/shipments/:id/routes", h.ShipmentRoutes)
	router.GET("/shipments/:id/costs", h.ShipmentCosts)
}

func (h *RouteHandler) Alternatives(c *gin.Context) {
	var req dto.AlternativesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	variants, err := h.Routes.GenerateAlternatives(c.Request.Context(), req.ToService())
	if err != nil {
		writeError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAlternativesResponse(variants))
}

func (h *RouteHandler) ShipmentAlternatives(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	variants, err := h.Routes.GenerateAlternativesForShipment(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAlternativesResponse(variants))
}

func (h *RouteHandler) Assign(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	var req dto.AssignRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	route, err := h.Routes.AssignRoute(c.Request.Context(), id, *req.VariantIndex)
	if err != nil {
		writeError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewRouteResponse(route))
}

func (h *RouteHandler) GetRoute(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	route, err := h.Queries.Route(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewRouteResponse(route))
}

func (h *RouteHandler) ShipmentRoutes(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	routes, err := h.Queries.ShipmentRoutes(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"routes": dto.NewRouteResponses(routes)})
}

func (h *RouteHandler) ShipmentCosts(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	costs, err := h.Queries.ShipmentCosts(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"costs": dto.NewCostBreakdownResponses(costs)})
}
