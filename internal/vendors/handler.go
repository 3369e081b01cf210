package vendors

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/condoops/backend/pkg/database"
	"github.com/condoops/backend/pkg/response"
)

// Handler serves vendor endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// Request is the body for create and update.
type Request struct {
	Name        string `json:"name" binding:"required"`
	CNPJCPF     string `json:"cnpj_cpf"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	ServiceType string `json:"service_type"`
	Notes       string `json:"notes"`
	Active      *bool  `json:"active"`
}

func (req Request) params() Params {
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return Params{
		Name:        req.Name,
		CNPJCPF:     req.CNPJCPF,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		ServiceType: req.ServiceType,
		Notes:       req.Notes,
		Active:      active,
	}
}

// List handles GET /vendors.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list vendors", zap.Error(err))
		response.Internal(c, "failed to list vendors")
		return
	}
	response.OK(c, list)
}

// Get handles GET /vendors/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid vendor id")
		return
	}
	vendor, err := h.repo.Get(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "vendor not found")
		return
	}
	if err != nil {
		response.Internal(c, "failed to load vendor")
		return
	}
	response.OK(c, vendor)
}

// Create handles POST /admin/vendors.
func (h *Handler) Create(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	vendor, err := h.repo.Create(c.Request.Context(), req.params())
	if database.IsUniqueViolation(err) {
		response.Conflict(c, "cnpj/cpf already registered")
		return
	}
	if err != nil {
		h.logger.Error("create vendor", zap.Error(err))
		response.Internal(c, "failed to create vendor")
		return
	}
	response.Created(c, vendor)
}

// Update handles PUT /admin/vendors/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid vendor id")
		return
	}
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	vendor, err := h.repo.Update(c.Request.Context(), id, req.params())
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "vendor not found")
		return
	}
	if database.IsUniqueViolation(err) {
		response.Conflict(c, "cnpj/cpf already registered")
		return
	}
	if err != nil {
		h.logger.Error("update vendor", zap.Error(err))
		response.Internal(c, "failed to update vendor")
		return
	}
	response.OK(c, vendor)
}

// Delete handles DELETE /admin/vendors/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid vendor id")
		return
	}
	switch err := h.repo.Delete(c.Request.Context(), id); {
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "vendor not found")
	case errors.Is(err, ErrInUse):
		response.Conflict(c, "vendor is referenced by orders")
	case err != nil:
		h.logger.Error("delete vendor", zap.Error(err))
		response.Internal(c, "failed to delete vendor")
	default:
		response.NoContent(c)
	}
}
