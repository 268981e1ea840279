package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"finconsole/internal/suggest"
)

// SuggestHandler exposes the typeahead machinery. Each keystroke posts the
// current input; the page polls latest until the debounce settles. Results
// always carry the query they answered so a page never paints suggestions
// for text the operator already replaced.
type SuggestHandler struct {
	Manager *suggest.Manager
}

func (h *SuggestHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/suggestions")
	g.POST("/input", h.input)
	g.GET("/latest", h.latest)
	g.DELETE("/session", h.drop)
}

type suggestInputRequest struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
}

// @Summary Feed one keystroke into the suggestion debouncer
// @Tags suggestions
// @Success 202 {object} map[string]any
// @Router /api/v1/suggestions/input [post]
func (h *SuggestHandler) input(c *gin.Context) {
	var req suggestInputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		Error(c, http.StatusBadRequest, "session_id required", nil)
		return
	}
	h.Manager.Input(sessionID, req.Query)
	c.JSON(http.StatusAccepted, gin.H{"state": string(stateFor(h.Manager, sessionID))})
}

// @Summary Latest settled suggestions for a session
// @Tags suggestions
// @Param session_id query string true "session id"
// @Success 200 {object} map[string]any
// @Router /api/v1/suggestions/latest [get]
func (h *SuggestHandler) latest(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Query("session_id"))
	if sessionID == "" {
		Error(c, http.StatusBadRequest, "session_id required", nil)
		return
	}
	result, state := h.Manager.Latest(sessionID)
	items := result.Items
	if items == nil {
		items = []suggest.Item{}
	}
	Ok(c, items, map[string]any{
		"query": result.Query,
		"state": string(state),
	})
}

// @Summary Tear down a suggestion session
// @Tags suggestions
// @Param session_id query string true "session id"
// @Success 200 {object} map[string]any
// @Router /api/v1/suggestions/session [delete]
func (h *SuggestHandler) drop(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Query("session_id"))
	if sessionID == "" {
		Error(c, http.StatusBadRequest, "session_id required", nil)
		return
	}
	h.Manager.Drop(sessionID)
	Ok(c, nil, nil)
}

func stateFor(m *suggest.Manager, sessionID string) suggest.State {
	_, state := m.Latest(sessionID)
	return state
}
