package api

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// NewRouter wires middleware and routes onto a fresh gin engine.
func NewRouter(handler *Handler, logger zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(RecoveryMiddleware(logger, handler.now), LoggerMiddleware(logger))
	SetupRoutes(router, handler)
	return router
}

// SetupRoutes configures all API routes.
func SetupRoutes(router *gin.Engine, handler *Handler) {
	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handler.HealthCheck)
		v1.GET("/sources", handler.ListSources)
		v1.POST("/search", handler.Search)
	}
}
