package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/condoops/backend/internal/models"
	"github.com/condoops/backend/pkg/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeStore keys users by their stored (lowercase) email.
type fakeStore struct {
	users      map[string]*models.User
	createErr  error
	lastLogins int
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[string]*models.User{}}
}

func (f *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (f *fakeStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := f.users[strings.ToLower(email)]; ok {
		return u, nil
	}
	return nil, ErrUserNotFound
}

func (f *fakeStore) Create(ctx context.Context, name, email, passwordHash string) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	u := &models.User{ID: uuid.New(), Name: name, Email: email, PasswordHash: passwordHash, IsPending: true, IsActive: true}
	f.users[email] = u
	return u, nil
}

func (f *fakeStore) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	f.lastLogins++
	return nil
}

func (f *fakeStore) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return nil
}

func (f *fakeStore) CreatePasswordReset(ctx context.Context, userID uuid.UUID, token string) (*models.PasswordReset, error) {
	return &models.PasswordReset{ID: uuid.New(), UserID: userID, Token: token}, nil
}

func (f *fakeStore) GetPasswordReset(ctx context.Context, token string, now time.Time) (*models.PasswordReset, error) {
	return nil, ErrUserNotFound
}

func (f *fakeStore) MarkResetUsed(ctx context.Context, id uuid.UUID) error {
	return nil
}

type fakeRecorder struct{}

func (fakeRecorder) Record(ctx context.Context, userID uuid.UUID, activityType, details, ip, userAgent string) error {
	return nil
}

func newTestHandler(store Store) *Handler {
	return NewHandler(store, NewJWTService("test-secret", 1), nil, fakeRecorder{}, "http://localhost:3000", zap.NewNop())
}

func postJSON(handler gin.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	handler(c)
	return w
}

func TestRegisterStoresEmailLowercase(t *testing.T) {
	store := newFakeStore()
	h := newTestHandler(store)

	w := postJSON(h.Register, "/auth/register", `{"name":"Ana","email":"Ana.Silva@Example.COM","password":"secret1"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	u, ok := store.users["ana.silva@example.com"]
	require.True(t, ok)
	assert.Equal(t, "ana.silva@example.com", u.Email)
}

func TestRegisterRejectsDuplicateEmailAnyCase(t *testing.T) {
	store := newFakeStore()
	h := newTestHandler(store)

	w := postJSON(h.Register, "/auth/register", `{"name":"Ana","email":"ana@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(h.Register, "/auth/register", `{"name":"Ana","email":"ANA@Example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Len(t, store.users, 1)
}

func TestRegisterMapsUniqueViolationToConflict(t *testing.T) {
	store := newFakeStore()
	store.createErr = &pgconn.PgError{Code: "23505"}
	h := newTestHandler(store)

	w := postJSON(h.Register, "/auth/register", `{"name":"Ana","email":"ana@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginEmailIsCaseInsensitive(t *testing.T) {
	store := newFakeStore()
	hash, err := utils.HashPassword("secret1")
	require.NoError(t, err)
	store.users["ana@example.com"] = &models.User{
		ID:           uuid.New(),
		Name:         "Ana",
		Email:        "ana@example.com",
		PasswordHash: hash,
		IsActive:     true,
	}
	h := newTestHandler(store)

	w := postJSON(h.Login, "/auth/login", `{"email":"ANA@EXAMPLE.COM","password":"secret1"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, store.lastLogins)
}
