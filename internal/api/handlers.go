package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"prism-alert-service/internal/alerts"
	"prism-alert-service/internal/dedup"
	"prism-alert-service/internal/logging"
	"prism-alert-service/internal/models"
	"prism-alert-service/internal/providers"
	"prism-alert-service/internal/store"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler exposes the lifecycle controller's operations over HTTP.
type Handler struct {
	ctrl   *alerts.Controller
	dedup  *dedup.Deduplicator
	push   *providers.PushProvider
	logger *logging.Logger
}

// NewHandler builds the HTTP handler set.
func NewHandler(ctrl *alerts.Controller, dd *dedup.Deduplicator, push *providers.PushProvider, logger *logging.Logger) *Handler {
	return &Handler{ctrl: ctrl, dedup: dd, push: push, logger: logger}
}

func (h *Handler) CreateAlert(c *gin.Context) {
	var input models.AlertInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alert, err := h.ctrl.CreateAlert(c.Request.Context(), input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, alert)
}

func (h *Handler) GetAlerts(c *gin.Context) {
	var filter store.Filter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	list, total, err := h.ctrl.GetAlerts(c.Request.Context(), filter, page, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"alerts": list,
		"total":  total,
		"page":   page,
		"limit":  limit,
	})
}

func (h *Handler) GetAlertStats(c *gin.Context) {
	var filter store.Filter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	stats, err := h.ctrl.GetAlertStats(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetActiveAlerts(c *gin.Context) {
	list, err := h.ctrl.GetActiveAlerts(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) AcknowledgeAlert(c *gin.Context) {
	var body struct {
		By string `json:"acknowledged_by" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	alert, err := h.ctrl.Acknowledge(c.Request.Context(), c.Param("id"), body.By)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

func (h *Handler) ResolveAlert(c *gin.Context) {
	var body struct {
		By   string `json:"resolved_by" binding:"required"`
		Note string `json:"note"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	alert, err := h.ctrl.Resolve(c.Request.Context(), c.Param("id"), body.By, body.Note)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

func (h *Handler) SuppressAlert(c *gin.Context) {
	var body struct {
		By      string `json:"suppressed_by" binding:"required"`
		Reason  string `json:"reason"`
		Minutes int    `json:"minutes" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	alert, err := h.ctrl.Suppress(c.Request.Context(), c.Param("id"), body.By, body.Reason, body.Minutes)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

func (h *Handler) RetryNotifications(c *gin.Context) {
	alert, err := h.ctrl.RetryNotifications(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

// UpdateDedupRule is the administrative path for changing a category's
// deduplication configuration.
func (h *Handler) UpdateDedupRule(c *gin.Context) {
	category := models.Category(c.Param("category"))
	if !category.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
		return
	}
	var rule models.DedupRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.dedup.SetRule(category, rule)
	h.logger.Infof("Dedup rule updated for category %s", category)
	c.JSON(http.StatusOK, rule)
}

// ConsoleWebSocket subscribes an operator console to the push channel.
func (h *Handler) ConsoleWebSocket(c *gin.Context) {
	console := c.Param("console")
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("WebSocket upgrade failed for console %s: %v", console, err)
		return
	}
	h.push.AddConnection(console, conn)

	go func() {
		defer func() {
			h.push.RemoveConnection(console, conn)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, alerts.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
	default:
		h.logger.Errorf("Request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
