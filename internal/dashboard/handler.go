package dashboard

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/condoops/backend/internal/middleware"
	"github.com/condoops/backend/pkg/response"
)

// Handler serves the dashboard aggregates.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

func scopedIDs(scope middleware.AccessScope) []uuid.UUID {
	if scope.IsAdmin {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(scope.CondominiumIDs))
	for id := range scope.CondominiumIDs {
		ids = append(ids, id)
	}
	return ids
}

// filterIDs narrows the scope to one condominium when the query asks
// for it. Returns false after writing the error response.
func filterIDs(c *gin.Context, scope middleware.AccessScope) ([]uuid.UUID, bool) {
	s := c.Query("condominium_id")
	if s == "" {
		return scopedIDs(scope), true
	}
	id, err := uuid.Parse(s)
	if err != nil {
		response.BadRequest(c, "invalid condominium_id")
		return nil, false
	}
	if !scope.CanAccessCondominium(id) {
		response.Forbidden(c, "condominium outside your scope")
		return nil, false
	}
	return []uuid.UUID{id}, true
}

// Summary handles GET /dashboard/summary.
func (h *Handler) Summary(c *gin.Context) {
	scope, ok := middleware.GetScope(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	ids, ok := filterIDs(c, scope)
	if !ok {
		return
	}
	summary, err := h.repo.GetSummary(c.Request.Context(), ids)
	if err != nil {
		h.logger.Error("dashboard summary", zap.Error(err))
		response.Internal(c, "failed to load summary")
		return
	}
	response.OK(c, summary)
}

// Charts handles GET /dashboard/charts.
func (h *Handler) Charts(c *gin.Context) {
	scope, ok := middleware.GetScope(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	ids, ok := filterIDs(c, scope)
	if !ok {
		return
	}
	granularity := c.DefaultQuery("granularity", "month")
	switch granularity {
	case "day", "week", "month", "year":
	default:
		response.BadRequest(c, "granularity must be day, week, month or year")
		return
	}
	periods, _ := strconv.Atoi(c.DefaultQuery("periods", "6"))

	period, err := h.repo.GetPeriodChart(c.Request.Context(), ids, granularity, periods, time.Now())
	if err != nil {
		h.logger.Error("dashboard period chart", zap.Error(err))
		response.Internal(c, "failed to load charts")
		return
	}
	completion, err := h.repo.GetCompletionTimes(c.Request.Context(), ids)
	if err != nil {
		h.logger.Error("dashboard completion times", zap.Error(err))
		response.Internal(c, "failed to load charts")
		return
	}
	response.OK(c, gin.H{
		"orders_by_period": period,
		"completion_times": completion,
	})
}

// AdminSummary handles GET /admin/summary.
func (h *Handler) AdminSummary(c *gin.Context) {
	summary, err := h.repo.GetAdminSummary(c.Request.Context())
	if err != nil {
		h.logger.Error("admin summary", zap.Error(err))
		response.Internal(c, "failed to load summary")
		return
	}
	response.OK(c, summary)
}
