package emaillog

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/condoops/backend/internal/models"
)

// Repository persists notification delivery records.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a pending email log row.
func (r *Repository) Create(ctx context.Context, orderID *uuid.UUID, recipient, emailType, subject string) (*models.EmailLog, error) {
	const q = `INSERT INTO email_logs (order_id, recipient_email, email_type, subject, status)
		VALUES ($1, $2, $3, NULLIF($4,''), 'pending')
		RETURNING id, order_id, recipient_email, email_type, subject, status, sent_at, error_message, created_at`
	var l models.EmailLog
	err := r.pool.QueryRow(ctx, q, orderID, recipient, emailType, subject).
		Scan(&l.ID, &l.OrderID, &l.RecipientEmail, &l.EmailType, &l.Subject, &l.Status, &l.SentAt, &l.ErrorMessage, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// MarkSent records a successful delivery.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE email_logs SET status = 'sent', sent_at = NOW(), error_message = NULL WHERE id = $1`, id)
	return err
}

// MarkFailed records a delivery failure.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	_, err := r.pool.Exec(ctx, `UPDATE email_logs SET status = 'failed', error_message = $2 WHERE id = $1`, id, reason)
	return err
}

// ListByOrder returns the notification history for an order, newest first.
func (r *Repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.EmailLog, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, order_id, recipient_email, email_type, subject, status, sent_at, error_message, created_at
		FROM email_logs WHERE order_id = $1 ORDER BY created_at DESC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.EmailLog{}
	for rows.Next() {
		var l models.EmailLog
		if err := rows.Scan(&l.ID, &l.OrderID, &l.RecipientEmail, &l.EmailType, &l.Subject, &l.Status, &l.SentAt, &l.ErrorMessage, &l.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, l)
	}
	return list, rows.Err()
}
