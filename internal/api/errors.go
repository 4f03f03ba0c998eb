package api

import (
	"errors"
	"net/http"

	"github.com/activity-reports-api/internal/importer"
	"github.com/activity-reports-api/internal/repository"
	"github.com/activity-reports-api/internal/service"
	"github.com/activity-reports-api/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// writeError maps service errors to HTTP responses
func writeError(c *gin.Context, log zerolog.Logger, err error) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "details": verrs})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, repository.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
	case errors.Is(err, repository.ErrReferenced):
		c.JSON(http.StatusConflict, gin.H{"error": "user is referenced by existing reports"})
	case errors.Is(err, repository.ErrInvalidRole):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid role"})
	case errors.Is(err, service.ErrImportInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, importer.ErrEmptyInput), errors.Is(err, importer.ErrMissingColumns),
		errors.Is(err, importer.ErrInvalidEncoding):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
