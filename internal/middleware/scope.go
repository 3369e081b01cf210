package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/condoops/backend/pkg/response"
)

// AccessScope is everything request handlers need to authorize an action:
// who the caller is, whether they are admin, which permissions their roles
// grant and which condominiums they may touch. Admins bypass both sets.
type AccessScope struct {
	UserID         uuid.UUID
	Email          string
	Name           string
	IsAdmin        bool
	Permissions    map[string]bool
	CondominiumIDs map[uuid.UUID]bool
}

// Has reports whether the scope grants the permission. Admins always pass.
func (s AccessScope) Has(permission string) bool {
	if s.IsAdmin {
		return true
	}
	return s.Permissions[permission]
}

// CanAccessCondominium reports whether the scope covers the condominium.
func (s AccessScope) CanAccessCondominium(id uuid.UUID) bool {
	if s.IsAdmin {
		return true
	}
	return s.CondominiumIDs[id]
}

// ScopeLoader resolves the access scope for an authenticated user.
// The auth repository implements it.
type ScopeLoader interface {
	LoadScope(ctx context.Context, userID uuid.UUID) (AccessScope, error)
}

// Scope loads the caller's access scope from the database and sets it in
// context. Pending or deactivated accounts are rejected here even when
// they still hold a valid token.
func Scope(loader ScopeLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		idVal, ok := c.Get(ContextUserID)
		if !ok {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		userID, _ := idVal.(uuid.UUID)
		scope, err := loader.LoadScope(c.Request.Context(), userID)
		if err != nil {
			response.Unauthorized(c, "account is not active")
			c.Abort()
			return
		}
		c.Set(ContextScope, scope)
		c.Next()
	}
}

// GetScope returns the access scope set by the Scope middleware.
func GetScope(c *gin.Context) (AccessScope, bool) {
	v, ok := c.Get(ContextScope)
	if !ok {
		return AccessScope{}, false
	}
	scope, ok := v.(AccessScope)
	return scope, ok
}

// RequireAdmin allows only administrators.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := GetScope(c)
		if !ok {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		if !scope.IsAdmin {
			response.Forbidden(c, "administrator access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequirePermission allows callers whose roles grant the permission.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		scope, ok := GetScope(c)
		if !ok {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		if !scope.Has(permission) {
			response.Forbidden(c, "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}
