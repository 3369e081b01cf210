package tenants

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/condoops/backend/internal/middleware"
	"github.com/condoops/backend/internal/models"
	"github.com/condoops/backend/pkg/database"
	"github.com/condoops/backend/pkg/response"
)

// Store is the persistence surface behind the tenant endpoints.
type Store interface {
	ListCompanies(ctx context.Context) ([]models.ManagementCompany, error)
	CreateCompany(ctx context.Context, p CompanyParams) (*models.ManagementCompany, error)
	UpdateCompany(ctx context.Context, id uuid.UUID, p CompanyParams) (*models.ManagementCompany, error)
	DeleteCompany(ctx context.Context, id uuid.UUID) error
	ListCondominiums(ctx context.Context, onlyIDs []uuid.UUID) ([]models.Condominium, error)
	GetCondominium(ctx context.Context, id uuid.UUID) (*models.Condominium, error)
	CreateCondominium(ctx context.Context, p CondominiumParams) (*models.Condominium, error)
	UpdateCondominium(ctx context.Context, id uuid.UUID, p CondominiumParams) (*models.Condominium, error)
	DeleteCondominium(ctx context.Context, id uuid.UUID) error
	ListAreas(ctx context.Context, condominiumID uuid.UUID) ([]models.Area, error)
	CreateArea(ctx context.Context, p AreaParams) (*models.Area, error)
	UpdateArea(ctx context.Context, id uuid.UUID, name, description string) (*models.Area, error)
	DeleteArea(ctx context.Context, id uuid.UUID) error
}

// Handler serves management company, condominium and area endpoints.
type Handler struct {
	repo   Store
	logger *zap.Logger
}

func NewHandler(repo Store, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// CompanyRequest is the body for company create and update.
type CompanyRequest struct {
	Name    string `json:"name" binding:"required"`
	CNPJ    string `json:"cnpj"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Active  *bool  `json:"active"`
}

func (req CompanyRequest) params() CompanyParams {
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return CompanyParams{
		Name:    req.Name,
		CNPJ:    req.CNPJ,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		Active:  active,
	}
}

// ListCompanies handles GET /admin/companies.
func (h *Handler) ListCompanies(c *gin.Context) {
	list, err := h.repo.ListCompanies(c.Request.Context())
	if err != nil {
		h.logger.Error("list companies", zap.Error(err))
		response.Internal(c, "failed to list companies")
		return
	}
	response.OK(c, list)
}

// CreateCompany handles POST /admin/companies.
func (h *Handler) CreateCompany(c *gin.Context) {
	var req CompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	company, err := h.repo.CreateCompany(c.Request.Context(), req.params())
	if database.IsUniqueViolation(err) {
		response.Conflict(c, "cnpj already registered")
		return
	}
	if err != nil {
		h.logger.Error("create company", zap.Error(err))
		response.Internal(c, "failed to create company")
		return
	}
	response.Created(c, company)
}

// UpdateCompany handles PUT /admin/companies/:id.
func (h *Handler) UpdateCompany(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid company id")
		return
	}
	var req CompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	company, err := h.repo.UpdateCompany(c.Request.Context(), id, req.params())
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "company not found")
		return
	}
	if database.IsUniqueViolation(err) {
		response.Conflict(c, "cnpj already registered")
		return
	}
	if err != nil {
		h.logger.Error("update company", zap.Error(err))
		response.Internal(c, "failed to update company")
		return
	}
	response.OK(c, company)
}

// DeleteCompany handles DELETE /admin/companies/:id.
func (h *Handler) DeleteCompany(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid company id")
		return
	}
	switch err := h.repo.DeleteCompany(c.Request.Context(), id); {
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "company not found")
	case errors.Is(err, ErrInUse):
		response.Conflict(c, "company has condominiums")
	case err != nil:
		h.logger.Error("delete company", zap.Error(err))
		response.Internal(c, "failed to delete company")
	default:
		response.NoContent(c)
	}
}

// CondominiumRequest is the body for condominium create and update.
type CondominiumRequest struct {
	Name                string    `json:"name" binding:"required"`
	Address             string    `json:"address"`
	PostalCode          string    `json:"postal_code"`
	City                string    `json:"city"`
	State               string    `json:"state"`
	Phone               string    `json:"phone"`
	Email               string    `json:"email"`
	ManagementCompanyID uuid.UUID `json:"management_company_id" binding:"required"`
	Active              *bool     `json:"active"`
}

func (req CondominiumRequest) params() CondominiumParams {
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return CondominiumParams{
		Name:                req.Name,
		Address:             req.Address,
		PostalCode:          req.PostalCode,
		City:                req.City,
		State:               req.State,
		Phone:               req.Phone,
		Email:               req.Email,
		ManagementCompanyID: req.ManagementCompanyID,
		Active:              active,
	}
}

// ListCondominiums handles GET /condominiums. Non-admins see only the
// condominiums in their scope.
func (h *Handler) ListCondominiums(c *gin.Context) {
	scope, ok := middleware.GetScope(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	var onlyIDs []uuid.UUID
	if !scope.IsAdmin {
		onlyIDs = make([]uuid.UUID, 0, len(scope.CondominiumIDs))
		for id := range scope.CondominiumIDs {
			onlyIDs = append(onlyIDs, id)
		}
	}
	list, err := h.repo.ListCondominiums(c.Request.Context(), onlyIDs)
	if err != nil {
		h.logger.Error("list condominiums", zap.Error(err))
		response.Internal(c, "failed to list condominiums")
		return
	}
	response.OK(c, list)
}

// GetCondominium handles GET /condominiums/:id.
func (h *Handler) GetCondominium(c *gin.Context) {
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
	condo, err := h.repo.GetCondominium(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "condominium not found")
		return
	}
	if err != nil {
		response.Internal(c, "failed to load condominium")
		return
	}
	response.OK(c, condo)
}

// CreateCondominium handles POST /admin/condominiums.
func (h *Handler) CreateCondominium(c *gin.Context) {
	var req CondominiumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	condo, err := h.repo.CreateCondominium(c.Request.Context(), req.params())
	if err != nil {
		h.logger.Error("create condominium", zap.Error(err))
		response.Internal(c, "failed to create condominium")
		return
	}
	response.Created(c, condo)
}

// UpdateCondominium handles PUT /admin/condominiums/:id.
func (h *Handler) UpdateCondominium(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid condominium id")
		return
	}
	var req CondominiumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	condo, err := h.repo.UpdateCondominium(c.Request.Context(), id, req.params())
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "condominium not found")
		return
	}
	if err != nil {
		h.logger.Error("update condominium", zap.Error(err))
		response.Internal(c, "failed to update condominium")
		return
	}
	response.OK(c, condo)
}

// DeleteCondominium handles DELETE /admin/condominiums/:id.
func (h *Handler) DeleteCondominium(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid condominium id")
		return
	}
	switch err := h.repo.DeleteCondominium(c.Request.Context(), id); {
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "condominium not found")
	case errors.Is(err, ErrInUse):
		response.Conflict(c, "condominium has orders or assigned users")
	case err != nil:
		h.logger.Error("delete condominium", zap.Error(err))
		response.Internal(c, "failed to delete condominium")
	default:
		response.NoContent(c)
	}
}

// AreaRequest is the body for area create and update.
type AreaRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// ListAreas handles GET /condominiums/:id/areas.
func (h *Handler) ListAreas(c *gin.Context) {
	condoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid condominium id")
		return
	}
	scope, _ := middleware.GetScope(c)
	if !scope.CanAccessCondominium(condoID) {
		response.Forbidden(c, "condominium outside your scope")
		return
	}
	list, err := h.repo.ListAreas(c.Request.Context(), condoID)
	if err != nil {
		h.logger.Error("list areas", zap.Error(err))
		response.Internal(c, "failed to list areas")
		return
	}
	response.OK(c, list)
}

// CreateArea handles POST /admin/condominiums/:id/areas.
func (h *Handler) CreateArea(c *gin.Context) {
	condoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid condominium id")
		return
	}
	var req AreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	area, err := h.repo.CreateArea(c.Request.Context(), AreaParams{
		CondominiumID: condoID,
		Name:          req.Name,
		Description:   req.Description,
	})
	if err != nil {
		h.logger.Error("create area", zap.Error(err))
		response.Internal(c, "failed to create area")
		return
	}
	response.Created(c, area)
}

// UpdateArea handles PUT /admin/areas/:id.
func (h *Handler) UpdateArea(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid area id")
		return
	}
	var req AreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	area, err := h.repo.UpdateArea(c.Request.Context(), id, req.Name, req.Description)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "area not found")
		return
	}
	if err != nil {
		h.logger.Error("update area", zap.Error(err))
		response.Internal(c, "failed to update area")
		return
	}
	response.OK(c, area)
}

// DeleteArea handles DELETE /admin/areas/:id.
func (h *Handler) DeleteArea(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid area id")
		return
	}
	switch err := h.repo.DeleteArea(c.Request.Context(), id); {
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "area not found")
	case errors.Is(err, ErrInUse):
		response.Conflict(c, "area has orders")
	case err != nil:
		h.logger.Error("delete area", zap.Error(err))
		response.Internal(c, "failed to delete area")
	default:
		response.NoContent(c)
	}
}
