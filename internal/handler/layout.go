package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"finconsole/internal/config"
	"finconsole/internal/layout"
	"finconsole/internal/upstream"
)

const layoutPath = "/api/v1/console/layout"

// LayoutHandler backs the report layout editor. Planning and validation are
// local; only an explicit save talks to the upstream, and a document that
// fails validation never does.
type LayoutHandler struct {
	Upstream *upstream.Client
	Audit    *AuditRecorder
	Cfg      config.LayoutConfig
	Guard    gin.HandlerFunc
}

func (h *LayoutHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/layout")
	g.GET("", h.get)
	g.POST("/plan", h.plan)
	g.POST("/place", h.place)
	g.PUT("", guard(h.Guard, h.save)...)
}

// @Summary Fetch the current report layout
// @Tags layout
// @Success 200 {object} map[string]any
// @Router /api/v1/layout [get]
func (h *LayoutHandler) get(c *gin.Context) {
	body, err := h.Upstream.Get(c.Request.Context(), layoutPath, nil)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	var doc layout.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		Error(c, http.StatusBadGateway, "malformed layout payload", nil)
		return
	}
	h.applyBounds(&doc)
	Ok(c, doc, map[string]any{
		"chars_used":      doc.CharsUsed(),
		"chars_remaining": doc.CharsRemaining(),
	})
}

type planRequest struct {
	Document layout.Document `json:"document"`
	Count    int             `json:"count"`
}

// @Summary Plan grid positions for new tiles
// @Tags layout
// @Success 200 {object} map[string]any
// @Router /api/v1/layout/plan [post]
func (h *LayoutHandler) plan(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if req.Count <= 0 {
		Error(c, http.StatusBadRequest, "count must be positive", nil)
		return
	}
	h.applyBounds(&req.Document)
	positions := layout.NextPositions(req.Document.Occupied(), req.Count, req.Document.MaxColumns, req.Document.MaxRows)
	Ok(c, positions, map[string]any{
		"requested": req.Count,
		"granted":   len(positions),
	})
}

type placeRequest struct {
	Document layout.Document   `json:"document"`
	Parts    []layout.DataPart `json:"parts"`
}

// @Summary Place tiles into the next free cells
// @Tags layout
// @Success 200 {object} map[string]any
// @Router /api/v1/layout/place [post]
func (h *LayoutHandler) place(c *gin.Context) {
	var req placeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	h.applyBounds(&req.Document)
	placed := req.Document.Place(req.Parts)
	if err := req.Document.Validate(); err != nil {
		Error(c, http.StatusUnprocessableEntity, err.Error(), nil)
		return
	}
	Ok(c, req.Document, map[string]any{
		"placed":          len(placed),
		"requested":       len(req.Parts),
		"chars_remaining": req.Document.CharsRemaining(),
	})
}

// @Summary Save the layout upstream
// @Tags layout
// @Success 200 {object} map[string]any
// @Router /api/v1/layout [put]
func (h *LayoutHandler) save(c *gin.Context) {
	var doc layout.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	h.applyBounds(&doc)
	if err := doc.Validate(); err != nil {
		Error(c, http.StatusUnprocessableEntity, err.Error(), nil)
		return
	}
	err := h.Upstream.Mutate(c.Request.Context(), http.MethodPut, layoutPath, doc, nil)
	h.Audit.Record(c.Request.Context(), c, "layout.save", "layout", doc.ID, err == nil, err, map[string]any{
		"parts":      len(doc.Parts),
		"chars_used": doc.CharsUsed(),
	})
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, doc, nil)
}

func (h *LayoutHandler) applyBounds(doc *layout.Document) {
	if doc.MaxRows <= 0 {
		doc.MaxRows = h.Cfg.MaxRows
	}
	if doc.MaxColumns <= 0 {
		doc.MaxColumns = h.Cfg.MaxColumns
	}
	if doc.CharBudget <= 0 {
		doc.CharBudget = h.Cfg.CharBudget
	}
}
