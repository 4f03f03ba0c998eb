package api

import (
	"net/http"

	"github.com/activity-reports-api/internal/models"
	"github.com/activity-reports-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// UserHandler handles user management endpoints
type UserHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(services *service.Services, log zerolog.Logger) *UserHandler {
	return &UserHandler{
		services: services,
		log:      log.With().Str("handler", "user").Logger(),
	}
}

// List handles GET /v1/users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.services.User.List(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Get handles GET /v1/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.services.User.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Create handles POST /v1/users
func (h *UserHandler) Create(c *gin.Context) {
	var in models.CreateUserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	user, err := h.services.User.Create(c.Request.Context(), &in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Update handles PUT /v1/users/:id. Only fields present in the body change.
func (h *UserHandler) Update(c *gin.Context) {
	var in models.UpdateUserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	user, err := h.services.User.Update(c.Request.Context(), c.Param("id"), &in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Delete handles DELETE /v1/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.services.User.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ToggleStatus handles PATCH /v1/users/:id/toggle-status
func (h *UserHandler) ToggleStatus(c *gin.Context) {
	user, err := h.services.User.ToggleStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// RoleHandler handles role endpoints
type RoleHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewRoleHandler creates a new RoleHandler
func NewRoleHandler(services *service.Services, log zerolog.Logger) *RoleHandler {
	return &RoleHandler{
		services: services,
		log:      log.With().Str("handler", "role").Logger(),
	}
}

// List handles GET /v1/roles[?manageable=true]
func (h *RoleHandler) List(c *gin.Context) {
	roles, err := h.services.Role.List(c.Request.Context(), c.Query("manageable") == "true")
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, roles)
}
