package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"marketplace-discovery/internal/common/logger"
	"marketplace-discovery/internal/common/observability"
)

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(handler *Handler, log logger.Logger, obs *observability.Observability) *gin.Engine {
	router := gin.New()
	router.Use(
		RequestIDMiddleware(),
		RecoveryMiddleware(log),
		LoggerMiddleware(log),
		MetricsMiddleware(obs),
	)
	SetupRoutes(router, handler)
	return router
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, handler *Handler) {
	router.GET("/health", handler.HealthCheck)
	router.GET("/ready", handler.ReadinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		categories := v1.Group("/categories/:category")
		categories.GET("/suppliers", handler.CategorySuppliers)
		categories.GET("/locations/:location/suppliers", handler.CategoryLocationSuppliers)

		v1.GET("/locations/:location/suppliers", handler.LocationSuppliers)
		v1.GET("/landing/:slug/suppliers", handler.LandingSuppliers)
		v1.GET("/suppliers/search", handler.SearchSuppliers)
	}
}
