package activity

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/condoops/backend/internal/models"
)

// Activity types recorded in the audit trail.
const (
	TypeLogin         = "login"
	TypeOrderCreated  = "order_created"
	TypeOrderUpdated  = "order_updated"
	TypeOrderDeleted  = "order_deleted"
	TypeStatusChanged = "status_changed"
	TypeCommentAdded  = "comment_added"
	TypeUserApproved  = "user_approved"
	TypePasswordReset = "password_reset"
)

// Repository persists the audit trail.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Record appends one audit row. Callers treat failures as non-fatal.
func (r *Repository) Record(ctx context.Context, userID uuid.UUID, activityType, details, ip, userAgent string) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO activity_logs (user_id, activity_type, details, ip_address, user_agent)
		VALUES ($1, $2, NULLIF($3,''), NULLIF($4,''), NULLIF($5,''))`,
		userID, activityType, details, ip, userAgent)
	return err
}

// ListFilter narrows List results.
type ListFilter struct {
	UserID       *uuid.UUID
	ActivityType string
	Limit        int
	Offset       int
}

// List returns audit rows, newest first, with the actor's name joined in.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]models.ActivityLog, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	const q = `SELECT a.id, a.user_id, u.name, a.activity_type, a.details, a.ip_address, a.user_agent, a.created_at
		FROM activity_logs a
		JOIN users u ON u.id = a.user_id
		WHERE ($1::uuid IS NULL OR a.user_id = $1)
		  AND ($2 = '' OR a.activity_type = $2)
		ORDER BY a.created_at DESC
		LIMIT $3 OFFSET $4`
	rows, err := r.pool.Query(ctx, q, f.UserID, f.ActivityType, f.Limit, f.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.ActivityLog{}
	for rows.Next() {
		var a models.ActivityLog
		if err := rows.Scan(&a.ID, &a.UserID, &a.UserName, &a.ActivityType, &a.Details, &a.IPAddress, &a.UserAgent, &a.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}
