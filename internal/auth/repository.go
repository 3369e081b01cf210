package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/condoops/backend/internal/middleware"
	"github.com/condoops/backend/internal/models"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrAccountNotActive = errors.New("account is not active")
)

// Repository handles user and password reset persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, name, email, password_hash, is_admin, is_pending, is_active, last_login, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.IsPending, &u.IsActive, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail returns a user by email, matched case-insensitively.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email))
}

// Create inserts a new pending user. The email is stored lowercase so the
// unique index on LOWER(email) holds regardless of how callers spell it.
func (r *Repository) Create(ctx context.Context, name, email, passwordHash string) (*models.User, error) {
	const q = `INSERT INTO users (name, email, password_hash, is_admin, is_pending, is_active)
		VALUES ($1, LOWER($2), $3, FALSE, TRUE, TRUE)
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, q, name, email, passwordHash))
}

// UpdateLastLogin stamps a successful login.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login = NOW() WHERE id = $1`, id)
	return err
}

// UpdatePassword replaces the password hash.
func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
	return err
}

// LoadScope resolves the caller's permissions and condominium set. It
// fails for pending or deactivated accounts so stale tokens stop working
// the moment an admin flips the flags.
func (r *Repository) LoadScope(ctx context.Context, userID uuid.UUID) (middleware.AccessScope, error) {
	u, err := r.GetByID(ctx, userID)
	if err != nil {
		return middleware.AccessScope{}, err
	}
	if u.IsPending || !u.IsActive {
		return middleware.AccessScope{}, ErrAccountNotActive
	}

	scope := middleware.AccessScope{
		UserID:         u.ID,
		Email:          u.Email,
		Name:           u.Name,
		IsAdmin:        u.IsAdmin,
		Permissions:    make(map[string]bool),
		CondominiumIDs: make(map[uuid.UUID]bool),
	}

	rows, err := r.pool.Query(ctx, `SELECT rp.permission FROM role_permissions rp
		JOIN user_roles ur ON ur.role_id = rp.role_id
		WHERE ur.user_id = $1`, userID)
	if err != nil {
		return middleware.AccessScope{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return middleware.AccessScope{}, err
		}
		scope.Permissions[p] = true
	}
	if err := rows.Err(); err != nil {
		return middleware.AccessScope{}, err
	}

	condRows, err := r.pool.Query(ctx, `SELECT condominium_id FROM user_condominiums WHERE user_id = $1`, userID)
	if err != nil {
		return middleware.AccessScope{}, err
	}
	defer condRows.Close()
	for condRows.Next() {
		var id uuid.UUID
		if err := condRows.Scan(&id); err != nil {
			return middleware.AccessScope{}, err
		}
		scope.CondominiumIDs[id] = true
	}
	return scope, condRows.Err()
}

// CreatePasswordReset stores a new reset token valid for 24 hours.
func (r *Repository) CreatePasswordReset(ctx context.Context, userID uuid.UUID, token string) (*models.PasswordReset, error) {
	const q = `INSERT INTO password_resets (user_id, token, expires_at)
		VALUES ($1, $2, NOW() + INTERVAL '24 hours')
		RETURNING id, user_id, token, expires_at, used, created_at`
	var pr models.PasswordReset
	err := r.pool.QueryRow(ctx, q, userID, token).
		Scan(&pr.ID, &pr.UserID, &pr.Token, &pr.ExpiresAt, &pr.Used, &pr.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &pr, nil
}

// GetPasswordReset returns an unused, unexpired reset by token.
func (r *Repository) GetPasswordReset(ctx context.Context, token string, now time.Time) (*models.PasswordReset, error) {
	const q = `SELECT id, user_id, token, expires_at, used, created_at
		FROM password_resets WHERE token = $1 AND used = FALSE AND expires_at > $2`
	var pr models.PasswordReset
	err := r.pool.QueryRow(ctx, q, token, now).
		Scan(&pr.ID, &pr.UserID, &pr.Token, &pr.ExpiresAt, &pr.Used, &pr.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pr, nil
}

// MarkResetUsed consumes a reset token.
func (r *Repository) MarkResetUsed(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE password_resets SET used = TRUE WHERE id = $1`, id)
	return err
}
