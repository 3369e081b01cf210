package models

import (
	"time"

	"github.com/google/uuid"
)

// Permissions grantable through roles.
const (
	PermCreateOrder = "create_order"
	PermEditOrder   = "edit_order"
	PermDeleteOrder = "delete_order"
	PermViewReports = "view_reports"
	PermManageUsers = "manage_users"
)

// ValidPermission reports whether p is a known permission.
func ValidPermission(p string) bool {
	switch p {
	case PermCreateOrder, PermEditOrder, PermDeleteOrder, PermViewReports, PermManageUsers:
		return true
	}
	return false
}

// User is an account in the system. New registrations start pending and
// cannot log in until an admin approves them.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	IsAdmin      bool       `json:"is_admin"`
	IsPending    bool       `json:"is_pending"`
	IsActive     bool       `json:"is_active"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Role groups permissions for assignment to users.
type Role struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PasswordReset is a single-use reset token valid for 24 hours.
type PasswordReset struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at"`
}
