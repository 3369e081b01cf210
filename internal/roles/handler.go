package roles

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/condoops/backend/internal/models"
	"github.com/condoops/backend/pkg/database"
	"github.com/condoops/backend/pkg/response"
)

// Handler serves admin role management endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// RoleRequest is the body for create and update.
type RoleRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

func validatePermissions(perms []string) string {
	for _, p := range perms {
		if !models.ValidPermission(p) {
			return p
		}
	}
	return ""
}

// List handles GET /admin/roles.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list roles", zap.Error(err))
		response.Internal(c, "failed to list roles")
		return
	}
	response.OK(c, list)
}

// Get handles GET /admin/roles/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid role id")
		return
	}
	role, err := h.repo.Get(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "role not found")
		return
	}
	if err != nil {
		response.Internal(c, "failed to load role")
		return
	}
	response.OK(c, role)
}

// Create handles POST /admin/roles.
func (h *Handler) Create(c *gin.Context) {
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if bad := validatePermissions(req.Permissions); bad != "" {
		response.BadRequest(c, "unknown permission: "+bad)
		return
	}
	role, err := h.repo.Create(c.Request.Context(), req.Name, req.Description, req.Permissions)
	if database.IsUniqueViolation(err) {
		response.Conflict(c, "role name already exists")
		return
	}
	if err != nil {
		h.logger.Error("create role", zap.Error(err))
		response.Internal(c, "failed to create role")
		return
	}
	response.Created(c, role)
}

// Update handles PUT /admin/roles/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid role id")
		return
	}
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if bad := validatePermissions(req.Permissions); bad != "" {
		response.BadRequest(c, "unknown permission: "+bad)
		return
	}
	role, err := h.repo.Update(c.Request.Context(), id, req.Name, req.Description, req.Permissions)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "role not found")
		return
	}
	if database.IsUniqueViolation(err) {
		response.Conflict(c, "role name already exists")
		return
	}
	if err != nil {
		h.logger.Error("update role", zap.Error(err))
		response.Internal(c, "failed to update role")
		return
	}
	response.OK(c, role)
}

// Delete handles DELETE /admin/roles/:id. Roles still assigned to users
// cannot be removed.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid role id")
		return
	}
	inUse, err := h.repo.InUse(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to check role usage")
		return
	}
	if inUse {
		response.Conflict(c, "role is assigned to users")
		return
	}
	err = h.repo.Delete(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "role not found")
		return
	}
	if err != nil {
		h.logger.Error("delete role", zap.Error(err))
		response.Internal(c, "failed to delete role")
		return
	}
	response.NoContent(c)
}
