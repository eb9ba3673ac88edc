package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"prism-alert-service/internal/config"
	"prism-alert-service/internal/logging"
)

// NewRouter assembles the HTTP surface. Handlers carry no business logic;
// every operation delegates to the lifecycle controller.
func NewRouter(logger *logging.Logger, cfg config.Config, h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLoggingMiddleware(logger))

	api := r.Group(cfg.API.BasePath)
	{
		api.POST("/alerts", h.CreateAlert)
		api.GET("/alerts", h.GetAlerts)
		api.GET("/alerts/stats", h.GetAlertStats)
		api.GET("/alerts/active", h.GetActiveAlerts)
		api.POST("/alerts/:id/acknowledge", h.AcknowledgeAlert)
		api.POST("/alerts/:id/resolve", h.ResolveAlert)
		api.POST("/alerts/:id/suppress", h.SuppressAlert)
		api.POST("/alerts/:id/notifications/retry", h.RetryNotifications)

		api.PUT("/dedup-rules/:category", h.UpdateDedupRule)

		api.GET("/ws/:console", h.ConsoleWebSocket)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}
