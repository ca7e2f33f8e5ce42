package routers

import (
	"github.com/gin-gonic/gin"

	"oip/autopurchase/internal/server/handlers"
	"oip/autopurchase/internal/server/middlewares"
	"oip/autopurchase/pkg/logger"
)

// SetupRoutes wires the manual-trigger endpoints
func SetupRoutes(h *handlers.Handler, log logger.Logger) *gin.Engine {
	r := gin.New()

	r.Use(middlewares.RequestID())
	r.Use(middlewares.Recovery(log))
	r.Use(middlewares.Logger(log))
	r.Use(middlewares.ErrorHandler())

	r.GET("/health", h.Health)
	r.GET("/stats", h.Stats)
	r.POST("/select-provider", h.SelectProvider)
	r.POST("/purchase", h.Purchase)
	r.POST("/process-pending", h.ProcessPending)

	return r
}
