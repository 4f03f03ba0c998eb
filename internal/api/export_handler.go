package api

import (
	"net/http"

	"github.com/activity-reports-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ExportHandler handles export endpoints
type ExportHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(services *service.Services, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		services: services,
		log:      log.With().Str("handler", "export").Logger(),
	}
}

// StreamExport handles GET /v1/exports?resource=...&format=...
// Streams the export directly to the response
func (h *ExportHandler) StreamExport(c *gin.Context) {
	ctx := c.Request.Context()

	resource := c.Query("resource")
	if resource == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "resource parameter is required (users, reports)"})
		return
	}
	if resource != "users" && resource != "reports" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "resource must be one of: users, reports"})
		return
	}

	format := c.DefaultQuery("format", "ndjson")
	if format != "ndjson" && format != "json" && format != "csv" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be one of: ndjson, json, csv"})
		return
	}
	if format == "csv" && resource != "users" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "CSV format only supported for users export"})
		return
	}

	h.log.Info().
		Str("resource", resource).
		Str("format", format).
		Msg("Starting streaming export")

	var err error
	switch resource {
	case "users":
		err = h.services.Export.StreamUsers(ctx, c.Writer, format)
	case "reports":
		err = h.services.Export.StreamReports(ctx, c.Writer, format)
	}

	// headers are already sent once streaming starts
	if err != nil {
		h.log.Error().Err(err).Str("resource", resource).Msg("Export failed")
	}
}
