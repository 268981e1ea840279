package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"finconsole/internal/auth"
	"finconsole/internal/models"
	"finconsole/internal/repository"
)

// AuditRecorder writes one trail entry per operator mutation. A nil Repo
// turns recording into a no-op so the console runs without a database.
type AuditRecorder struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

func (a *AuditRecorder) Record(ctx context.Context, c *gin.Context, action, resource, resourceID string, success bool, opErr error, details any) {
	if a == nil || a.Repo == nil {
		return
	}
	claims, _ := auth.ClaimsFromGin(c)
	entry := &models.ConsoleAuditEntry{
		RequestID:  uuid.NewString(),
		Username:   claims.Username,
		Role:       claims.Role,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Success:    success,
	}
	if opErr != nil {
		entry.Error = opErr.Error()
	}
	if details != nil {
		if raw, err := json.Marshal(details); err == nil {
			entry.Details = datatypes.JSON(raw)
		}
	}
	if err := a.Repo.InsertAuditEntry(ctx, entry); err != nil && a.Logger != nil {
		a.Logger.Warn("audit trail insert failed",
			zap.String("action", action),
			zap.String("resource", resource),
			zap.Error(err))
	}
}

// AuditTrailHandler lists what operators did through this console.
type AuditTrailHandler struct {
	Repo repository.Repository
}

func (h *AuditTrailHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/audit-trail", h.list)
}

// @Summary List operator actions recorded by the console
// @Tags audit-trail
// @Success 200 {object} map[string]any
// @Router /api/v1/audit-trail [get]
func (h *AuditTrailHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusServiceUnavailable, "audit trail disabled", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListAuditTrailParams{
		Limit:    limit,
		Offset:   offset,
		Username: strQueryPtr(c, "username"),
		Action:   strQueryPtr(c, "action"),
		Resource: strQueryPtr(c, "resource"),
	}
	if v := strings.TrimSpace(c.Query("since")); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			t := ts.UTC()
			params.Since = &t
		}
	}
	if v := strings.TrimSpace(c.Query("until")); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			t := ts.UTC()
			params.Until = &t
		}
	}
	items, err := h.Repo.ListAuditEntries(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountAuditEntries(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}
