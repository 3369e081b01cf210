package users

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/condoops/backend/internal/activity"
	"github.com/condoops/backend/internal/emaillog"
	"github.com/condoops/backend/internal/middleware"
	"github.com/condoops/backend/pkg/database"
	"github.com/condoops/backend/pkg/mailer"
	"github.com/condoops/backend/pkg/response"
)

// Handler serves admin user management endpoints.
type Handler struct {
	repo       *Repository
	notifier   *emaillog.Notifier
	activities *activity.Repository
	logger     *zap.Logger
}

func NewHandler(repo *Repository, notifier *emaillog.Notifier, activities *activity.Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, notifier: notifier, activities: activities, logger: logger}
}

// List handles GET /admin/users. ?pending=true narrows to accounts
// awaiting approval.
func (h *Handler) List(c *gin.Context) {
	pendingOnly := c.Query("pending") == "true"
	list, err := h.repo.List(c.Request.Context(), pendingOnly)
	if err != nil {
		h.logger.Error("list users", zap.Error(err))
		response.Internal(c, "failed to list users")
		return
	}
	response.OK(c, list)
}

// Members handles GET /condominiums/:id/users: the active, approved
// users of a condominium, for assignee pickers.
func (h *Handler) Members(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid condominium id")
		return
	}
	scope, _ := middleware.GetScope(c)
	if !scope.CanAccessCondominium(id) {
		response.Forbidden(c, "condominium outside your scope")
		return
	}
	list, err := h.repo.ListByCondominium(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("list condominium users", zap.Error(err))
		response.Internal(c, "failed to list users")
		return
	}
	response.OK(c, list)
}

// Get handles GET /admin/users/:id with roles and condominium scope.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	user, err := h.repo.Get(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "user not found")
		return
	}
	if err != nil {
		response.Internal(c, "failed to load user")
		return
	}
	roles, err := h.repo.Roles(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load roles")
		return
	}
	condominiums, err := h.repo.Condominiums(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load condominiums")
		return
	}
	response.OK(c, gin.H{"user": user, "roles": roles, "condominiums": condominiums})
}

// UpdateRequest is the body for PUT /admin/users/:id.
type UpdateRequest struct {
	Name     string `json:"name" binding:"required"`
	IsAdmin  bool   `json:"is_admin"`
	IsActive bool   `json:"is_active"`
}

// Update handles PUT /admin/users/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	user, err := h.repo.Update(c.Request.Context(), id, req.Name, req.IsAdmin, req.IsActive)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "user not found")
		return
	}
	if err != nil {
		h.logger.Error("update user", zap.Error(err))
		response.Internal(c, "failed to update user")
		return
	}
	response.OK(c, user)
}

// ApproveRequest is the body for POST /admin/users/:id/approve.
type ApproveRequest struct {
	RoleIDs        []uuid.UUID `json:"role_ids"`
	CondominiumIDs []uuid.UUID `json:"condominium_ids"`
}

// Approve handles POST /admin/users/:id/approve. Approval assigns the
// user's roles and condominium scope and sends a confirmation email.
func (h *Handler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	var req ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.Approve(c.Request.Context(), id, req.RoleIDs, req.CondominiumIDs)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "user not found")
		return
	}
	if err != nil {
		h.logger.Error("approve user", zap.Error(err))
		response.Internal(c, "failed to approve user")
		return
	}

	scope, _ := middleware.GetScope(c)
	if err := h.activities.Record(c.Request.Context(), scope.UserID, activity.TypeUserApproved, "approved "+user.Email, c.ClientIP(), c.Request.UserAgent()); err != nil {
		h.logger.Warn("record approval activity", zap.Error(err))
	}
	h.notifier.Enqueue(c.Request.Context(), nil, emaillog.EmailJob{
		Type:          mailer.TypeAccountApproved,
		To:            user.Email,
		RecipientName: user.Name,
	})

	response.OK(c, user)
}

// AssignRequest is the body for PUT /admin/users/:id/assignments.
type AssignRequest struct {
	RoleIDs        []uuid.UUID `json:"role_ids"`
	CondominiumIDs []uuid.UUID `json:"condominium_ids"`
}

// Assign handles PUT /admin/users/:id/assignments.
func (h *Handler) Assign(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.repo.SetAssignments(c.Request.Context(), id, req.RoleIDs, req.CondominiumIDs); err != nil {
		h.logger.Error("set assignments", zap.Error(err))
		response.Internal(c, "failed to update assignments")
		return
	}
	response.OK(c, gin.H{"message": "assignments updated"})
}

// Delete handles DELETE /admin/users/:id. Admins cannot delete their own
// account, and users referenced by orders cannot be removed.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	scope, _ := middleware.GetScope(c)
	if scope.UserID == id {
		response.Conflict(c, "cannot delete your own account")
		return
	}
	err = h.repo.Delete(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "user not found")
		return
	}
	if database.IsForeignKeyViolation(err) {
		response.Conflict(c, "user is referenced by existing orders")
		return
	}
	if err != nil {
		h.logger.Error("delete user", zap.Error(err))
		response.Internal(c, "failed to delete user")
		return
	}
	response.NoContent(c)
}
