package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"finconsole/internal/advisor"
	"finconsole/internal/upstream"
)

const advisorSettingsPath = "/api/v1/advisor/settings"

// AdvisorHandler manages the advisor's scoring configuration. A weight set
// that does not sum to one is rejected here, before any upstream call.
type AdvisorHandler struct {
	Upstream *upstream.Client
	Audit    *AuditRecorder
	Guard    gin.HandlerFunc
}

func (h *AdvisorHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/advisor")
	g.GET("/settings", h.get)
	g.PUT("/settings", guard(h.Guard, h.put)...)
	g.POST("/settings/validate", h.validate)
}

// @Summary Current advisor settings
// @Tags advisor
// @Success 200 {object} map[string]any
// @Router /api/v1/advisor/settings [get]
func (h *AdvisorHandler) get(c *gin.Context) {
	body, err := h.Upstream.Get(c.Request.Context(), advisorSettingsPath, nil)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	var settings advisor.Settings
	if err := json.Unmarshal(body, &settings); err != nil {
		Error(c, http.StatusBadGateway, "malformed settings payload", nil)
		return
	}
	Ok(c, settings, nil)
}

// @Summary Replace advisor settings
// @Tags advisor
// @Success 200 {object} map[string]any
// @Router /api/v1/advisor/settings [put]
func (h *AdvisorHandler) put(c *gin.Context) {
	var settings advisor.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if err := settings.Validate(); err != nil {
		Error(c, http.StatusUnprocessableEntity, err.Error(), nil)
		return
	}
	err := h.Upstream.Mutate(c.Request.Context(), http.MethodPut, advisorSettingsPath, settings, nil)
	h.Audit.Record(c.Request.Context(), c, "advisor.settings.update", "advisor_settings", "", err == nil, err, settings)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, settings, nil)
}

// @Summary Validate advisor settings without saving
// @Tags advisor
// @Success 200 {object} map[string]any
// @Router /api/v1/advisor/settings/validate [post]
func (h *AdvisorHandler) validate(c *gin.Context) {
	var settings advisor.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if err := settings.Validate(); err != nil {
		Ok(c, gin.H{"valid": false, "reason": err.Error()}, nil)
		return
	}
	Ok(c, gin.H{"valid": true}, nil)
}
