package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/condoops/backend/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func scopedContext(scope AccessScope) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set(ContextScope, scope)
	return c, w
}

func TestAccessScopeHas(t *testing.T) {
	scope := AccessScope{Permissions: map[string]bool{models.PermCreateOrder: true}}
	assert.True(t, scope.Has(models.PermCreateOrder))
	assert.False(t, scope.Has(models.PermDeleteOrder))

	admin := AccessScope{IsAdmin: true}
	assert.True(t, admin.Has(models.PermDeleteOrder))
}

func TestAccessScopeCanAccessCondominium(t *testing.T) {
	mine := uuid.New()
	scope := AccessScope{CondominiumIDs: map[uuid.UUID]bool{mine: true}}
	assert.True(t, scope.CanAccessCondominium(mine))
	assert.False(t, scope.CanAccessCondominium(uuid.New()))

	admin := AccessScope{IsAdmin: true}
	assert.True(t, admin.CanAccessCondominium(uuid.New()))
}

func TestRequirePermission(t *testing.T) {
	c, w := scopedContext(AccessScope{Permissions: map[string]bool{models.PermEditOrder: true}})
	RequirePermission(models.PermEditOrder)(c)
	assert.False(t, c.IsAborted())

	c, w = scopedContext(AccessScope{Permissions: map[string]bool{}})
	RequirePermission(models.PermEditOrder)(c)
	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequirePermissionMissingScope(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	RequirePermission(models.PermEditOrder)(c)
	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	c, _ := scopedContext(AccessScope{IsAdmin: true})
	RequireAdmin()(c)
	assert.False(t, c.IsAborted())

	c, w := scopedContext(AccessScope{})
	RequireAdmin()(c)
	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusForbidden, w.Code)
}
