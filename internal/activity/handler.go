package activity

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/condoops/backend/pkg/response"
)

// Handler serves the admin audit trail.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /admin/activity.
func (h *Handler) List(c *gin.Context) {
	var f ListFilter
	if s := c.Query("user_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			response.BadRequest(c, "invalid user_id")
			return
		}
		f.UserID = &id
	}
	f.ActivityType = c.Query("type")
	f.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	f.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	list, err := h.repo.List(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("list activity", zap.Error(err))
		response.Internal(c, "failed to list activity")
		return
	}
	response.OK(c, list)
}
