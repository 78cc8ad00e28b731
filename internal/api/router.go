package api

import (
	"freight-route-service/internal/api/handlers"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter wires the HTTP handlers with their dependencies.
// Handlers stay unaware of concrete adapters.
func NewRouter(routes *handlers.RouteHandler, legs *handlers.LegHandler, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(requestID(), logging(log), gin.Recovery())

	router.GET("/health", handlers.Health)
	routes.RegisterRoutes(router)
	legs.RegisterRoutes(router)

	return router
}
