package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"finconsole/internal/config"
	"finconsole/internal/export"
	"finconsole/internal/logview"
	"finconsole/internal/query"
)

// ExportHandler turns a filtered log page into a download. The format knob
// accepts json, csv, csv.gz and pdf; pdf is answered with the CSV fallback
// and a notice header so the page can tell the operator.
type ExportHandler struct {
	Cache *query.Cache
	Audit *AuditRecorder
	Cfg   config.ExportConfig
}

func (h *ExportHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/logs/:resource/export", h.export)
}

// @Summary Export a filtered log page
// @Tags export
// @Param resource path string true "resource name"
// @Param format query string false "json, csv, csv.gz or pdf" default(csv)
// @Success 200 {file} file
// @Router /api/v1/logs/{resource}/export [get]
func (h *ExportHandler) export(c *gin.Context) {
	resource := c.Param("resource")
	filters := filterState(c, logFilterFields...)
	result, err := h.Cache.Get(c.Request.Context(), resource, filters, true)
	if err == query.ErrUnknownResource {
		Error(c, http.StatusNotFound, "unknown resource", nil)
		return
	}
	if result.Err != nil && len(result.Data) == 0 {
		Error(c, http.StatusBadGateway, result.Err.Error(), nil)
		return
	}
	records, perr := logview.ParseRecords(result.Data)
	if perr != nil {
		Error(c, http.StatusBadGateway, "malformed upstream payload", nil)
		return
	}
	records = logview.Filter(records, c.Query("search"), filters)

	format := export.Format(c.DefaultQuery("format", string(export.FormatCSV)))
	payload, err := export.LogRecords(format, records, export.Options{
		WithBOM: boolQueryDefault(c, "bom", h.Cfg.CSVWithBOM),
	})
	h.Audit.Record(c.Request.Context(), c, "export", resource, "", err == nil, err, map[string]any{
		"format":  string(format),
		"records": len(records),
	})
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if payload.Notice != "" {
		c.Header("X-Export-Notice", payload.Notice)
	}
	filename := fmt.Sprintf("%s.%s", resource, payload.Extension)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, payload.ContentType, payload.Data)
}
