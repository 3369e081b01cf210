package models

import (
	"time"

	"github.com/google/uuid"
)

// ActivityLog is one row of the audit trail (logins, CRUD, approvals).
type ActivityLog struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	UserName     string    `json:"user_name,omitempty"`
	ActivityType string    `json:"activity_type"`
	Details      *string   `json:"details,omitempty"`
	IPAddress    *string   `json:"ip_address,omitempty"`
	UserAgent    *string   `json:"user_agent,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
