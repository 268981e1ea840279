package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"finconsole/internal/query"
)

// pageFilterFields covers the non-log pages (holdings, prompts). The
// upstream ignores fields it does not know, so one list is enough.
var pageFilterFields = []string{
	"account", "symbol", "category", "status", "start_date", "end_date",
}

// PagesHandler is the generic read path for console pages that render an
// upstream collection as-is. Every page reads through the remote data cache
// with its own staleness window.
type PagesHandler struct {
	Cache *query.Cache
}

func (h *PagesHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/pages")
	g.GET("/:resource", h.get)
	g.GET("/:resource/state", h.state)
}

// @Summary Cached page data for a resource
// @Tags pages
// @Param resource path string true "resource name"
// @Success 200 {object} map[string]any
// @Router /api/v1/pages/{resource} [get]
func (h *PagesHandler) get(c *gin.Context) {
	resource := c.Param("resource")
	filters := filterState(c, pageFilterFields...)
	enabled := boolQueryDefault(c, "enabled", true)
	result, err := h.Cache.Get(c.Request.Context(), resource, filters, enabled)
	if err == query.ErrUnknownResource {
		Error(c, http.StatusNotFound, "unknown resource", nil)
		return
	}
	if len(result.Data) == 0 && result.Err != nil {
		Error(c, http.StatusBadGateway, result.Err.Error(), nil)
		return
	}
	meta := map[string]any{
		"state":      string(result.State),
		"fetched_at": result.FetchedAt,
	}
	if result.Err != nil {
		meta["refresh_error"] = result.Err.Error()
	}
	Ok(c, json.RawMessage(result.Data), meta)
}

// @Summary Cache state for a resource without fetching
// @Tags pages
// @Param resource path string true "resource name"
// @Success 200 {object} map[string]any
// @Router /api/v1/pages/{resource}/state [get]
func (h *PagesHandler) state(c *gin.Context) {
	resource := c.Param("resource")
	if _, ok := h.Cache.Resource(resource); !ok {
		Error(c, http.StatusNotFound, "unknown resource", nil)
		return
	}
	result := h.Cache.Peek(resource, filterState(c, pageFilterFields...))
	meta := map[string]any{"fetched_at": result.FetchedAt}
	if result.Err != nil {
		meta["refresh_error"] = result.Err.Error()
	}
	Ok(c, gin.H{"state": string(result.State)}, meta)
}
