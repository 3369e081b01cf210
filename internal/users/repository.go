package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/condoops/backend/internal/models"
)

var ErrNotFound = errors.New("user not found")

// Repository handles admin-side user management queries.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, name, email, password_hash, is_admin, is_pending, is_active, last_login, created_at, updated_at`

// List returns users, optionally only pending ones.
func (r *Repository) List(ctx context.Context, pendingOnly bool) ([]models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users`
	if pendingOnly {
		q += ` WHERE is_pending = TRUE`
	}
	q += ` ORDER BY name, email`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.IsPending, &u.IsActive, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// ListByCondominium returns the active, approved users scoped to the
// condominium.
func (r *Repository) ListByCondominium(ctx context.Context, condominiumID uuid.UUID) ([]models.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT u.id, u.name, u.email, u.password_hash, u.is_admin, u.is_pending, u.is_active, u.last_login, u.created_at, u.updated_at
		FROM users u JOIN user_condominiums uc ON uc.user_id = u.id
		WHERE uc.condominium_id = $1 AND u.is_active = TRUE AND u.is_pending = FALSE
		ORDER BY u.name`, condominiumID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.IsPending, &u.IsActive, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// Get returns one user.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.IsPending, &u.IsActive, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Update changes name, admin and active flags.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, name string, isAdmin, isActive bool) (*models.User, error) {
	const q = `UPDATE users SET name = $2, is_admin = $3, is_active = $4, updated_at = NOW()
		WHERE id = $1 RETURNING ` + userColumns
	var u models.User
	err := r.pool.QueryRow(ctx, q, id, name, isAdmin, isActive).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.IsPending, &u.IsActive, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Approve clears the pending flag and replaces the user's role and
// condominium assignments in one transaction.
func (r *Repository) Approve(ctx context.Context, id uuid.UUID, roleIDs, condominiumIDs []uuid.UUID) (*models.User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var u models.User
	err = tx.QueryRow(ctx, `UPDATE users SET is_pending = FALSE, updated_at = NOW() WHERE id = $1 RETURNING `+userColumns, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.IsPending, &u.IsActive, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := replaceAssignments(ctx, tx, id, roleIDs, condominiumIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &u, nil
}

// SetAssignments replaces the user's role and condominium assignments.
func (r *Repository) SetAssignments(ctx context.Context, id uuid.UUID, roleIDs, condominiumIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if err := replaceAssignments(ctx, tx, id, roleIDs, condominiumIDs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func replaceAssignments(ctx context.Context, tx pgx.Tx, id uuid.UUID, roleIDs, condominiumIDs []uuid.UUID) error {
	if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, id); err != nil {
		return err
	}
	for _, roleID := range roleIDs {
		if _, err := tx.Exec(ctx, `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`, id, roleID); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(ctx, `DELETE FROM user_condominiums WHERE user_id = $1`, id); err != nil {
		return err
	}
	for _, condID := range condominiumIDs {
		if _, err := tx.Exec(ctx, `INSERT INTO user_condominiums (user_id, condominium_id) VALUES ($1, $2)`, id, condID); err != nil {
			return err
		}
	}
	return nil
}

// Roles returns the roles assigned to a user.
func (r *Repository) Roles(ctx context.Context, id uuid.UUID) ([]models.Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT ro.id, ro.name, ro.description, ro.created_at, ro.updated_at
		FROM roles ro JOIN user_roles ur ON ur.role_id = ro.id
		WHERE ur.user_id = $1 ORDER BY ro.name`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Role{}
	for rows.Next() {
		var ro models.Role
		if err := rows.Scan(&ro.ID, &ro.Name, &ro.Description, &ro.CreatedAt, &ro.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, ro)
	}
	return list, rows.Err()
}

// Condominiums returns the condominiums a user is scoped to.
func (r *Repository) Condominiums(ctx context.Context, id uuid.UUID) ([]models.Condominium, error) {
	rows, err := r.pool.Query(ctx, `SELECT c.id, c.name, c.address, c.postal_code, c.city, c.state, c.phone, c.email, c.management_company_id, c.active, c.created_at, c.updated_at
		FROM condominiums c JOIN user_condominiums uc ON uc.condominium_id = c.id
		WHERE uc.user_id = $1 ORDER BY c.name`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Condominium{}
	for rows.Next() {
		var c models.Condominium
		if err := rows.Scan(&c.ID, &c.Name, &c.Address, &c.PostalCode, &c.City, &c.State, &c.Phone, &c.Email, &c.ManagementCompanyID, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// Delete removes a user. Fails with a foreign key violation when the
// user created or changed orders; callers map that to a conflict.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
