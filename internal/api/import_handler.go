package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/activity-reports-api/internal/config"
	"github.com/activity-reports-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// failurePreviewLimit caps the failures embedded in a run status response
const failurePreviewLimit = 100

// ImportHandler handles bulk import endpoints
type ImportHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *ImportHandler {
	return &ImportHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "import").Logger(),
	}
}

// ImportUsers handles POST /v1/users/bulk.
// The multipart "file" field is parsed and executed within the request;
// the response is the import outcome.
func (h *ImportHandler) ImportUsers(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file upload is required"})
		return
	}
	defer file.Close()

	if header.Size > h.cfg.Import.MaxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("file too large, max size is %d MB", h.cfg.Import.MaxUploadSize/(1024*1024)),
		})
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !slices.Contains(h.cfg.Import.AllowedExtensions, ext) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unsupported file type, expected one of: " + strings.Join(h.cfg.Import.AllowedExtensions, ", "),
		})
		return
	}

	h.log.Info().
		Str("file", header.Filename).
		Int64("size_bytes", header.Size).
		Msg("Bulk import received")

	outcome, err := h.services.Import.ImportUsers(c.Request.Context(), &service.ImportRequest{
		FileName:       header.Filename,
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
		Content:        file,
	})
	if err != nil && outcome == nil {
		writeError(c, h.log, err)
		return
	}
	if errors.Is(err, context.Canceled) {
		h.log.Warn().
			Int("accepted", outcome.Accepted).
			Int("rejected", outcome.Rejected).
			Msg("Bulk import cancelled by client")
	}

	c.JSON(http.StatusOK, outcome)
}

// GetImport handles GET /v1/imports/:id
func (h *ImportHandler) GetImport(c *gin.Context) {
	run, err := h.services.Import.GetRun(c.Request.Context(), c.Param("id"), failurePreviewLimit)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

// GetImportErrors handles GET /v1/imports/:id/errors[?format=csv]
func (h *ImportHandler) GetImportErrors(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	failures, err := h.services.Import.GetRunFailures(ctx, id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	if c.Query("format") == "csv" {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", "attachment; filename=import_errors_"+id+".csv")
		if err := h.services.Export.StreamFailures(ctx, c.Writer, failures); err != nil {
			h.log.Error().Err(err).Str("run_id", id).Msg("Failed to write error report")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runId":      id,
		"errorCount": len(failures),
		"errors":     failures,
	})
}
