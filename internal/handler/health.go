package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"finconsole/internal/events"
	"finconsole/internal/upstream"
)

type HealthHandler struct {
	DB       *gorm.DB
	Upstream *upstream.Client
	Hub      *events.Hub
}

func (h *HealthHandler) Register(r *gin.Engine) {
	r.GET("/healthz", h.health)
	r.GET("/readyz", h.ready)
}

// @Summary Health check
// @Tags health
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func (h *HealthHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Readiness check
// @Tags health
// @Success 200 {object} map[string]any
// @Router /readyz [get]
func (h *HealthHandler) ready(c *gin.Context) {
	status := gin.H{"status": "ready"}

	// The audit trail database is optional; an unconfigured one is reported
	// without failing readiness.
	if h.DB != nil {
		sqlDB, err := h.DB.DB()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_error"})
			return
		}
		if err := sqlDB.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_unreachable"})
			return
		}
		status["audit_trail"] = "ok"
	} else {
		status["audit_trail"] = "disabled"
	}

	if h.Upstream != nil {
		if _, err := h.Upstream.Get(c.Request.Context(), "/healthz", nil); err != nil {
			status["upstream"] = "unreachable"
		} else {
			status["upstream"] = "ok"
		}
	}

	if h.Hub != nil {
		status["event_subscribers"] = h.Hub.SubscriberCount()
		status["events_dropped"] = h.Hub.Dropped()
	}

	c.JSON(http.StatusOK, status)
}
