package orders

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/condoops/backend/internal/activity"
	"github.com/condoops/backend/internal/emaillog"
	"github.com/condoops/backend/internal/middleware"
	"github.com/condoops/backend/internal/models"
	"github.com/condoops/backend/pkg/mailer"
	"github.com/condoops/backend/pkg/response"
	"github.com/condoops/backend/pkg/storage"
)

// Handler serves the order endpoints.
type Handler struct {
	service    *Service
	repo       *Repository
	s3         *storage.S3
	notifier   *emaillog.Notifier
	emailLogs  *emaillog.Repository
	activities *activity.Repository
	logger     *zap.Logger
}

func NewHandler(service *Service, repo *Repository, s3 *storage.S3, notifier *emaillog.Notifier, emailLogs *emaillog.Repository, activities *activity.Repository, logger *zap.Logger) *Handler {
	return &Handler{
		service:    service,
		repo:       repo,
		s3:         s3,
		notifier:   notifier,
		emailLogs:  emailLogs,
		activities: activities,
		logger:     logger,
	}
}

// loadScoped parses :id, loads the order and checks the caller's
// condominium scope. It writes the error response itself on failure.
func (h *Handler) loadScoped(c *gin.Context) (*models.ServiceOrder, middleware.AccessScope, bool) {
	scope, ok := middleware.GetScope(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return nil, scope, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid order id")
		return nil, scope, false
	}
	o, err := h.repo.Get(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "order not found")
		return nil, scope, false
	}
	if err != nil {
		h.logger.Error("load order", zap.Error(err))
		response.Internal(c, "failed to load order")
		return nil, scope, false
	}
	if !scope.CanAccessCondominium(o.CondominiumID) {
		response.Forbidden(c, "order outside your scope")
		return nil, scope, false
	}
	return o, scope, true
}

func (h *Handler) record(c *gin.Context, scope middleware.AccessScope, activityType, details string) {
	if err := h.activities.Record(c.Request.Context(), scope.UserID, activityType, details, c.ClientIP(), c.Request.UserAgent()); err != nil {
		h.logger.Warn("record activity", zap.Error(err), zap.String("type", activityType))
	}
}

// notifyOrder fans an order email out to its creator and assignee.
func (h *Handler) notifyOrder(c *gin.Context, orderID uuid.UUID, job emaillog.EmailJob) {
	recipients, err := h.repo.NotificationRecipients(c.Request.Context(), orderID)
	if err != nil {
		h.logger.Warn("load notification recipients", zap.Error(err))
		return
	}
	for email, name := range recipients {
		j := job
		j.To = email
		j.RecipientName = name
		h.notifier.Enqueue(c.Request.Context(), &orderID, j)
	}
}

// CreateRequest is the body for POST /orders.
type CreateRequest struct {
	CondominiumID  uuid.UUID  `json:"condominium_id" binding:"required"`
	AreaID         *uuid.UUID `json:"area_id"`
	AssigneeID     *uuid.UUID `json:"assignee_id"`
	VendorID       *uuid.UUID `json:"vendor_id"`
	Title          string     `json:"title" binding:"required"`
	Description    string     `json:"description" binding:"required"`
	Priority       string     `json:"priority"`
	OrderType      string     `json:"order_type"`
	Observations   *string    `json:"observations"`
	EstimatedValue *float64   `json:"estimated_value"`
	ExpectedAt     *time.Time `json:"expected_at"`
}

// Create handles POST /orders.
func (h *Handler) Create(c *gin.Context) {
	scope, ok := middleware.GetScope(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !scope.CanAccessCondominium(req.CondominiumID) {
		response.Forbidden(c, "condominium outside your scope")
		return
	}

	o, err := h.service.Create(c.Request.Context(), CreateParams{
		CondominiumID:  req.CondominiumID,
		AreaID:         req.AreaID,
		AssigneeID:     req.AssigneeID,
		CreatorID:      scope.UserID,
		VendorID:       req.VendorID,
		Title:          req.Title,
		Description:    req.Description,
		Priority:       req.Priority,
		OrderType:      req.OrderType,
		Observations:   req.Observations,
		EstimatedValue: req.EstimatedValue,
		ExpectedAt:     req.ExpectedAt,
	})
	if errors.Is(err, ErrInvalidPriority) || errors.Is(err, ErrInvalidType) {
		response.BadRequest(c, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("create order", zap.Error(err))
		response.Internal(c, "failed to create order")
		return
	}

	h.record(c, scope, activity.TypeOrderCreated, o.Number)

	detail, err := h.repo.GetDetail(c.Request.Context(), o.ID)
	if err != nil {
		h.logger.Warn("load created order detail", zap.Error(err))
		response.Created(c, o)
		return
	}
	h.notifyOrder(c, o.ID, emaillog.EmailJob{
		Type:        mailer.TypeOrderCreated,
		OrderNumber: o.Number,
		OrderTitle:  o.Title,
		Condominium: detail.CondominiumName,
		Priority:    o.Priority,
	})
	response.Created(c, detail)
}

// List handles GET /orders.
func (h *Handler) List(c *gin.Context) {
	scope, ok := middleware.GetScope(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	var f ListFilter
	if !scope.IsAdmin {
		f.CondominiumIDs = make([]uuid.UUID, 0, len(scope.CondominiumIDs))
		for id := range scope.CondominiumIDs {
			f.CondominiumIDs = append(f.CondominiumIDs, id)
		}
	}
	if s := c.Query("condominium_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			response.BadRequest(c, "invalid condominium_id")
			return
		}
		if !scope.CanAccessCondominium(id) {
			response.Forbidden(c, "condominium outside your scope")
			return
		}
		f.CondominiumID = &id
	}
	if f.Status = c.Query("status"); f.Status != "" && !models.ValidStatus(f.Status) {
		response.BadRequest(c, "invalid status filter")
		return
	}
	if f.Priority = c.Query("priority"); f.Priority != "" && !models.ValidPriority(f.Priority) {
		response.BadRequest(c, "invalid priority filter")
		return
	}
	if f.OrderType = c.Query("type"); f.OrderType != "" && !models.ValidOrderType(f.OrderType) {
		response.BadRequest(c, "invalid type filter")
		return
	}
	f.Search = c.Query("search")
	if s := c.Query("from"); s != "" {
		t, err := parseDate(s)
		if err != nil {
			response.BadRequest(c, "invalid from date")
			return
		}
		f.From = &t
	}
	if s := c.Query("to"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			// whole-day bound, the query compares with <
			t = t.AddDate(0, 0, 1)
			f.To = &t
		} else if t, err := time.Parse(time.RFC3339, s); err == nil {
			f.To = &t
		} else {
			response.BadRequest(c, "invalid to date")
			return
		}
	}
	f.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	f.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))

	page, err := h.repo.List(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("list orders", zap.Error(err))
		response.Internal(c, "failed to list orders")
		return
	}
	response.OK(c, page)
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// Get handles GET /orders/:id.
func (h *Handler) Get(c *gin.Context) {
	o, _, ok := h.loadScoped(c)
	if !ok {
		return
	}
	detail, err := h.repo.GetDetail(c.Request.Context(), o.ID)
	if err != nil {
		h.logger.Error("load order detail", zap.Error(err))
		response.Internal(c, "failed to load order")
		return
	}
	response.OK(c, detail)
}

// UpdateRequest is the body for PUT /orders/:id. Status is absent on
// purpose; use the status endpoint.
type UpdateRequest struct {
	Title          string     `json:"title" binding:"required"`
	Description    string     `json:"description" binding:"required"`
	Priority       string     `json:"priority" binding:"required"`
	OrderType      string     `json:"order_type" binding:"required"`
	AreaID         *uuid.UUID `json:"area_id"`
	AssigneeID     *uuid.UUID `json:"assignee_id"`
	VendorID       *uuid.UUID `json:"vendor_id"`
	Observations   *string    `json:"observations"`
	EstimatedValue *float64   `json:"estimated_value"`
	FinalValue     *float64   `json:"final_value"`
	ExpectedAt     *time.Time `json:"expected_at"`
}

// Update handles PUT /orders/:id.
func (h *Handler) Update(c *gin.Context) {
	o, scope, ok := h.loadScoped(c)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !models.ValidPriority(req.Priority) {
		response.BadRequest(c, "invalid priority")
		return
	}
	if !models.ValidOrderType(req.OrderType) {
		response.BadRequest(c, "invalid order type")
		return
	}

	updated, err := h.repo.Update(c.Request.Context(), o.ID, UpdateParams{
		Title:          req.Title,
		Description:    req.Description,
		Priority:       req.Priority,
		OrderType:      req.OrderType,
		AreaID:         req.AreaID,
		AssigneeID:     req.AssigneeID,
		VendorID:       req.VendorID,
		Observations:   req.Observations,
		EstimatedValue: req.EstimatedValue,
		FinalValue:     req.FinalValue,
		ExpectedAt:     req.ExpectedAt,
	})
	if err != nil {
		h.logger.Error("update order", zap.Error(err))
		response.Internal(c, "failed to update order")
		return
	}
	h.record(c, scope, activity.TypeOrderUpdated, o.Number)
	response.OK(c, updated)
}

// Delete handles DELETE /orders/:id.
func (h *Handler) Delete(c *gin.Context) {
	o, scope, ok := h.loadScoped(c)
	if !ok {
		return
	}
	attachments, err := h.repo.ListAttachments(c.Request.Context(), o.ID)
	if err != nil {
		h.logger.Error("list attachments for delete", zap.Error(err))
		response.Internal(c, "failed to delete order")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), o.ID); err != nil {
		h.logger.Error("delete order", zap.Error(err))
		response.Internal(c, "failed to delete order")
		return
	}
	for _, a := range attachments {
		if err := h.s3.DeleteObject(c.Request.Context(), a.StorageKey); err != nil {
			h.logger.Warn("delete attachment object", zap.Error(err), zap.String("key", a.StorageKey))
		}
	}
	h.record(c, scope, activity.TypeOrderDeleted, o.Number)
	response.NoContent(c)
}

// StatusRequest is the body for POST /orders/:id/status.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// ChangeStatus handles POST /orders/:id/status.
func (h *Handler) ChangeStatus(c *gin.Context) {
	o, scope, ok := h.loadScoped(c)
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	previous := o.Status
	updated, entry, err := h.service.ChangeStatus(c.Request.Context(), o.ID, scope.UserID, scope.IsAdmin, req.Status, req.Note)
	switch {
	case errors.Is(err, ErrInvalidStatus):
		response.BadRequest(c, "invalid status")
		return
	case errors.Is(err, ErrTerminal):
		response.Conflict(c, "order is in a terminal status")
		return
	case err != nil:
		h.logger.Error("change status", zap.Error(err))
		response.Internal(c, "failed to change status")
		return
	}
	if entry == nil {
		// same status, nothing changed
		response.OK(c, updated)
		return
	}

	h.record(c, scope, activity.TypeStatusChanged, fmt.Sprintf("%s: %s -> %s", updated.Number, previous, updated.Status))
	h.notifyOrder(c, updated.ID, emaillog.EmailJob{
		Type:        mailer.TypeStatusChanged,
		OrderNumber: updated.Number,
		OrderTitle:  updated.Title,
		Status:      updated.Status,
		OldStatus:   previous,
	})
	response.OK(c, gin.H{"order": updated, "log": entry})
}

// CommentRequest is the body for POST /orders/:id/comments.
type CommentRequest struct {
	Text string `json:"text" binding:"required"`
}

// AddComment handles POST /orders/:id/comments.
func (h *Handler) AddComment(c *gin.Context) {
	o, scope, ok := h.loadScoped(c)
	if !ok {
		return
	}
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	comment, err := h.repo.AddComment(c.Request.Context(), o.ID, scope.UserID, req.Text)
	if err != nil {
		h.logger.Error("add comment", zap.Error(err))
		response.Internal(c, "failed to add comment")
		return
	}
	h.record(c, scope, activity.TypeCommentAdded, o.Number)
	h.notifyOrder(c, o.ID, emaillog.EmailJob{
		Type:          mailer.TypeCommentAdded,
		OrderNumber:   o.Number,
		OrderTitle:    o.Title,
		CommentAuthor: scope.Name,
		CommentText:   req.Text,
	})
	response.Created(c, comment)
}

// ListComments handles GET /orders/:id/comments.
func (h *Handler) ListComments(c *gin.Context) {
	o, _, ok := h.loadScoped(c)
	if !ok {
		return
	}
	list, err := h.repo.ListComments(c.Request.Context(), o.ID)
	if err != nil {
		h.logger.Error("list comments", zap.Error(err))
		response.Internal(c, "failed to list comments")
		return
	}
	response.OK(c, list)
}

// UploadAttachment handles POST /orders/:id/attachments (multipart).
func (h *Handler) UploadAttachment(c *gin.Context) {
	o, scope, ok := h.loadScoped(c)
	if !ok {
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file")
		return
	}
	if file.Size > storage.MaxAttachmentSize {
		response.BadRequest(c, "file too large")
		return
	}
	contentType := file.Header.Get("Content-Type")
	if !storage.ValidateAttachmentType(contentType, file.Filename) {
		response.BadRequest(c, "file type not allowed")
		return
	}
	category := c.DefaultPostForm("category", models.CategoryOther)
	if !models.ValidAttachmentCategory(category) {
		response.BadRequest(c, "invalid category")
		return
	}

	src, err := file.Open()
	if err != nil {
		response.Internal(c, "failed to read file")
		return
	}
	defer src.Close()

	attachmentID := uuid.New()
	key := storage.AttachmentKey(o.ID.String(), attachmentID.String(), file.Filename)
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(file.Filename)
	}
	if err := h.s3.Upload(c.Request.Context(), key, contentType, src, file.Size); err != nil {
		h.logger.Error("upload attachment", zap.Error(err))
		response.Internal(c, "failed to store file")
		return
	}

	size := file.Size
	a := &models.Attachment{
		ID:         attachmentID,
		OrderID:    o.ID,
		FileName:   file.Filename,
		StorageKey: key,
		Category:   category,
		SizeBytes:  &size,
		MimeType:   &contentType,
		UserID:     scope.UserID,
		UploadedAt: time.Now().UTC(),
	}
	if err := h.repo.AddAttachment(c.Request.Context(), a); err != nil {
		h.logger.Error("save attachment", zap.Error(err))
		if delErr := h.s3.DeleteObject(c.Request.Context(), key); delErr != nil {
			h.logger.Warn("cleanup attachment object", zap.Error(delErr))
		}
		response.Internal(c, "failed to save attachment")
		return
	}
	response.Created(c, a)
}

// ListAttachments handles GET /orders/:id/attachments.
func (h *Handler) ListAttachments(c *gin.Context) {
	o, _, ok := h.loadScoped(c)
	if !ok {
		return
	}
	list, err := h.repo.ListAttachments(c.Request.Context(), o.ID)
	if err != nil {
		h.logger.Error("list attachments", zap.Error(err))
		response.Internal(c, "failed to list attachments")
		return
	}
	response.OK(c, list)
}

// DownloadAttachment handles GET /orders/:id/attachments/:attachment_id/download.
// It answers with a short-lived pre-signed URL.
func (h *Handler) DownloadAttachment(c *gin.Context) {
	o, _, ok := h.loadScoped(c)
	if !ok {
		return
	}
	attachmentID, err := uuid.Parse(c.Param("attachment_id"))
	if err != nil {
		response.BadRequest(c, "invalid attachment id")
		return
	}
	a, err := h.repo.GetAttachment(c.Request.Context(), attachmentID)
	if errors.Is(err, ErrAttachmentNotFound) || (err == nil && a.OrderID != o.ID) {
		response.NotFound(c, "attachment not found")
		return
	}
	if err != nil {
		response.Internal(c, "failed to load attachment")
		return
	}
	url, err := h.s3.GeneratePresignedDownloadURL(c.Request.Context(), a.StorageKey, h.s3.PresignExpire())
	if err != nil {
		h.logger.Error("presign download", zap.Error(err))
		response.Internal(c, "failed to generate download url")
		return
	}
	response.OK(c, gin.H{"url": url, "file_name": a.FileName})
}

// DeleteAttachment handles DELETE /orders/:id/attachments/:attachment_id.
func (h *Handler) DeleteAttachment(c *gin.Context) {
	o, _, ok := h.loadScoped(c)
	if !ok {
		return
	}
	attachmentID, err := uuid.Parse(c.Param("attachment_id"))
	if err != nil {
		response.BadRequest(c, "invalid attachment id")
		return
	}
	a, err := h.repo.GetAttachment(c.Request.Context(), attachmentID)
	if errors.Is(err, ErrAttachmentNotFound) || (err == nil && a.OrderID != o.ID) {
		response.NotFound(c, "attachment not found")
		return
	}
	if err != nil {
		response.Internal(c, "failed to load attachment")
		return
	}
	if err := h.repo.DeleteAttachment(c.Request.Context(), a.ID); err != nil {
		h.logger.Error("delete attachment", zap.Error(err))
		response.Internal(c, "failed to delete attachment")
		return
	}
	if err := h.s3.DeleteObject(c.Request.Context(), a.StorageKey); err != nil {
		h.logger.Warn("delete attachment object", zap.Error(err), zap.String("key", a.StorageKey))
	}
	response.NoContent(c)
}

// ListEmails handles GET /orders/:id/emails.
func (h *Handler) ListEmails(c *gin.Context) {
	o, _, ok := h.loadScoped(c)
	if !ok {
		return
	}
	list, err := h.emailLogs.ListByOrder(c.Request.Context(), o.ID)
	if err != nil {
		h.logger.Error("list email logs", zap.Error(err))
		response.Internal(c, "failed to list notifications")
		return
	}
	response.OK(c, list)
}
