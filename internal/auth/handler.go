package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/condoops/backend/internal/activity"
	"github.com/condoops/backend/internal/emaillog"
	"github.com/condoops/backend/internal/middleware"
	"github.com/condoops/backend/internal/models"
	"github.com/condoops/backend/pkg/database"
	"github.com/condoops/backend/pkg/mailer"
	"github.com/condoops/backend/pkg/response"
	"github.com/condoops/backend/pkg/utils"
)

// Store is the persistence surface behind the auth endpoints.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, name, email, passwordHash string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	CreatePasswordReset(ctx context.Context, userID uuid.UUID, token string) (*models.PasswordReset, error)
	GetPasswordReset(ctx context.Context, token string, now time.Time) (*models.PasswordReset, error)
	MarkResetUsed(ctx context.Context, id uuid.UUID) error
}

// Recorder captures login and password reset activity.
type Recorder interface {
	Record(ctx context.Context, userID uuid.UUID, activityType, details, ip, userAgent string) error
}

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo       Store
	jwt        *JWTService
	notifier   *emaillog.Notifier
	activities Recorder
	baseURL    string
	logger     *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo Store, jwt *JWTService, notifier *emaillog.Notifier, activities Recorder, baseURL string, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, jwt: jwt, notifier: notifier, activities: activities, baseURL: baseURL, logger: logger}
}

// Register handles POST /auth/register. New accounts start pending and
// cannot log in until an admin approves them, so no token is issued here.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	email := normalizeEmail(req.Email)

	if _, err := h.repo.GetByEmail(c.Request.Context(), email); err == nil {
		response.Conflict(c, "email already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	user, err := h.repo.Create(c.Request.Context(), req.Name, email, hash)
	if database.IsUniqueViolation(err) {
		response.Conflict(c, "email already registered")
		return
	}
	if err != nil {
		h.logger.Error("create user", zap.Error(err))
		response.Internal(c, "failed to create user")
		return
	}

	response.Created(c, user)
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), normalizeEmail(req.Email))
	if err != nil {
		response.Unauthorized(c, "invalid email or password")
		return
	}
	if !utils.CheckPassword(req.Password, user.PasswordHash) {
		response.Unauthorized(c, "invalid email or password")
		return
	}
	if user.IsPending {
		response.Forbidden(c, "account pending approval")
		return
	}
	if !user.IsActive {
		response.Forbidden(c, "account deactivated")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	if err := h.repo.UpdateLastLogin(c.Request.Context(), user.ID); err != nil {
		h.logger.Warn("update last login", zap.Error(err))
	}
	if err := h.activities.Record(c.Request.Context(), user.ID, activity.TypeLogin, "", c.ClientIP(), c.Request.UserAgent()); err != nil {
		h.logger.Warn("record login activity", zap.Error(err))
	}

	response.OK(c, TokenResponse{Token: token, User: user})
}

// Me handles GET /auth/me.
func (h *Handler) Me(c *gin.Context) {
	scope, ok := middleware.GetScope(c)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	user, err := h.repo.GetByID(c.Request.Context(), scope.UserID)
	if err != nil {
		response.NotFound(c, "user not found")
		return
	}
	permissions := make([]string, 0, len(scope.Permissions))
	for p := range scope.Permissions {
		permissions = append(permissions, p)
	}
	response.OK(c, gin.H{"user": user, "permissions": permissions})
}

// ForgotRequest is the body for POST /auth/forgot-password.
type ForgotRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ForgotPassword handles POST /auth/forgot-password. It answers 200 even
// for unknown emails so the endpoint does not leak which accounts exist.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req ForgotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), normalizeEmail(req.Email))
	if err == nil {
		token, tokenErr := generateResetToken()
		if tokenErr != nil {
			response.Internal(c, "failed to create reset token")
			return
		}
		if _, err := h.repo.CreatePasswordReset(c.Request.Context(), user.ID, token); err != nil {
			h.logger.Error("create password reset", zap.Error(err))
			response.Internal(c, "failed to create reset token")
			return
		}
		h.notifier.Enqueue(c.Request.Context(), nil, emaillog.EmailJob{
			Type:          mailer.TypePasswordReset,
			To:            user.Email,
			RecipientName: user.Name,
			ResetURL:      fmt.Sprintf("%s/reset-password?token=%s", h.baseURL, token),
		})
	}

	response.OK(c, gin.H{"message": "if the email exists, a reset link was sent"})
}

// ResetRequest is the body for POST /auth/reset-password.
type ResetRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

// ResetPassword handles POST /auth/reset-password. The token is single
// use and expires 24 hours after issue.
func (h *Handler) ResetPassword(c *gin.Context) {
	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	reset, err := h.repo.GetPasswordReset(c.Request.Context(), req.Token, timeNow())
	if err != nil {
		response.BadRequest(c, "invalid or expired reset token")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}
	if err := h.repo.UpdatePassword(c.Request.Context(), reset.UserID, hash); err != nil {
		h.logger.Error("update password", zap.Error(err))
		response.Internal(c, "failed to update password")
		return
	}
	if err := h.repo.MarkResetUsed(c.Request.Context(), reset.ID); err != nil {
		h.logger.Error("mark reset used", zap.Error(err))
	}
	if err := h.activities.Record(c.Request.Context(), reset.UserID, activity.TypePasswordReset, "", c.ClientIP(), c.Request.UserAgent()); err != nil {
		h.logger.Warn("record reset activity", zap.Error(err))
	}

	response.OK(c, gin.H{"message": "password updated"})
}

// timeNow is swapped in tests that exercise token expiry.
var timeNow = time.Now

// normalizeEmail folds addresses to the stored form. Emails are unique
// case-insensitively, so every lookup and insert goes through this.
func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func generateResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
