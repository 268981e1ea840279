package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"finconsole/internal/logview"
	"finconsole/internal/query"
)

// logFilterFields are the discrete filters a log page exposes. Everything
// else on the query string is ignored so cache keys stay canonical.
var logFilterFields = []string{
	"event_type", "severity", "threat_level", "username",
	"success", "start_date", "end_date",
}

// LogsHandler serves the log-style console pages (audit logs, security
// events, access logs). Pages read through the remote data cache; the
// search box and discrete filters narrow the cached page without another
// upstream round trip.
type LogsHandler struct {
	Cache *query.Cache
}

func (h *LogsHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/logs")
	g.GET("/:resource", h.list)
	g.GET("/:resource/stats", h.stats)
	g.POST("/:resource/refresh", h.refresh)
}

// @Summary List log records for a console page
// @Tags logs
// @Param resource path string true "resource name"
// @Param search query string false "substring search"
// @Success 200 {object} map[string]any
// @Router /api/v1/logs/{resource} [get]
func (h *LogsHandler) list(c *gin.Context) {
	records, result, ok := h.load(c)
	if !ok {
		return
	}
	filtered := logview.Filter(records, c.Query("search"), filterState(c, logFilterFields...))
	meta := map[string]any{
		"state":      string(result.State),
		"fetched_at": result.FetchedAt,
		"total":      len(records),
		"matched":    len(filtered),
	}
	if result.Err != nil {
		// Stale data with a failed refresh behind it is still served; the
		// page shows the notice without losing the table.
		meta["refresh_error"] = result.Err.Error()
	}
	Ok(c, filtered, meta)
}

// @Summary Aggregate counts for a log page
// @Tags logs
// @Param resource path string true "resource name"
// @Success 200 {object} map[string]any
// @Router /api/v1/logs/{resource}/stats [get]
func (h *LogsHandler) stats(c *gin.Context) {
	records, result, ok := h.load(c)
	if !ok {
		return
	}
	filtered := logview.Filter(records, c.Query("search"), filterState(c, logFilterFields...))
	meta := map[string]any{
		"state":      string(result.State),
		"fetched_at": result.FetchedAt,
	}
	Ok(c, logview.ComputeStats(filtered), meta)
}

// @Summary Force a refetch of one log page
// @Tags logs
// @Param resource path string true "resource name"
// @Success 200 {object} map[string]any
// @Router /api/v1/logs/{resource}/refresh [post]
func (h *LogsHandler) refresh(c *gin.Context) {
	resource := c.Param("resource")
	if _, ok := h.Cache.Resource(resource); !ok {
		Error(c, http.StatusNotFound, "unknown resource", nil)
		return
	}
	h.Cache.Invalidate(c.Request.Context(), resource, filterState(c, logFilterFields...))
	records, result, ok := h.load(c)
	if !ok {
		return
	}
	Ok(c, records, map[string]any{"state": string(result.State), "fetched_at": result.FetchedAt})
}

func (h *LogsHandler) load(c *gin.Context) ([]logview.LogRecord, query.Result, bool) {
	resource := c.Param("resource")
	filters := filterState(c, logFilterFields...)
	enabled := boolQueryDefault(c, "enabled", true)
	result, err := h.Cache.Get(c.Request.Context(), resource, filters, enabled)
	if err == query.ErrUnknownResource {
		Error(c, http.StatusNotFound, "unknown resource", nil)
		return nil, query.Result{}, false
	}
	if len(result.Data) == 0 {
		if result.Err != nil {
			Error(c, http.StatusBadGateway, result.Err.Error(), nil)
			return nil, query.Result{}, false
		}
		return nil, result, true
	}
	records, perr := logview.ParseRecords(result.Data)
	if perr != nil {
		Error(c, http.StatusBadGateway, "malformed upstream payload", nil)
		return nil, query.Result{}, false
	}
	return records, result, true
}
