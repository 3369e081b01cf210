package roles

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/condoops/backend/internal/models"
)

var ErrNotFound = errors.New("role not found")

// Repository handles role persistence, permissions included.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns all roles with their permissions.
func (r *Repository) List(ctx context.Context) ([]models.Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, created_at, updated_at FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Role{}
	byID := map[uuid.UUID]int{}
	for rows.Next() {
		var ro models.Role
		if err := rows.Scan(&ro.ID, &ro.Name, &ro.Description, &ro.CreatedAt, &ro.UpdatedAt); err != nil {
			return nil, err
		}
		ro.Permissions = []string{}
		byID[ro.ID] = len(list)
		list = append(list, ro)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	permRows, err := r.pool.Query(ctx, `SELECT role_id, permission FROM role_permissions ORDER BY permission`)
	if err != nil {
		return nil, err
	}
	defer permRows.Close()
	for permRows.Next() {
		var roleID uuid.UUID
		var perm string
		if err := permRows.Scan(&roleID, &perm); err != nil {
			return nil, err
		}
		if i, ok := byID[roleID]; ok {
			list[i].Permissions = append(list[i].Permissions, perm)
		}
	}
	return list, permRows.Err()
}

// Get returns one role with its permissions.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	var ro models.Role
	err := r.pool.QueryRow(ctx, `SELECT id, name, description, created_at, updated_at FROM roles WHERE id = $1`, id).
		Scan(&ro.ID, &ro.Name, &ro.Description, &ro.CreatedAt, &ro.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	ro.Permissions = []string{}
	rows, err := r.pool.Query(ctx, `SELECT permission FROM role_permissions WHERE role_id = $1 ORDER BY permission`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		ro.Permissions = append(ro.Permissions, p)
	}
	return &ro, rows.Err()
}

// Create inserts a role and its permission rows in one transaction.
func (r *Repository) Create(ctx context.Context, name, description string, permissions []string) (*models.Role, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var ro models.Role
	err = tx.QueryRow(ctx, `INSERT INTO roles (name, description) VALUES ($1, NULLIF($2,''))
		RETURNING id, name, description, created_at, updated_at`, name, description).
		Scan(&ro.ID, &ro.Name, &ro.Description, &ro.CreatedAt, &ro.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := insertPermissions(ctx, tx, ro.ID, permissions); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	ro.Permissions = permissions
	return &ro, nil
}

// Update replaces a role's fields and permission set.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, name, description string, permissions []string) (*models.Role, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var ro models.Role
	err = tx.QueryRow(ctx, `UPDATE roles SET name = $2, description = NULLIF($3,''), updated_at = NOW()
		WHERE id = $1 RETURNING id, name, description, created_at, updated_at`, id, name, description).
		Scan(&ro.ID, &ro.Name, &ro.Description, &ro.CreatedAt, &ro.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, id); err != nil {
		return nil, err
	}
	if err := insertPermissions(ctx, tx, id, permissions); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	ro.Permissions = permissions
	return &ro, nil
}

func insertPermissions(ctx context.Context, tx pgx.Tx, roleID uuid.UUID, permissions []string) error {
	for _, p := range permissions {
		if _, err := tx.Exec(ctx, `INSERT INTO role_permissions (role_id, permission) VALUES ($1, $2)`, roleID, p); err != nil {
			return err
		}
	}
	return nil
}

// InUse reports whether any user holds the role.
func (r *Repository) InUse(ctx context.Context, id uuid.UUID) (bool, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM user_roles WHERE role_id = $1`, id).Scan(&n)
	return n > 0, err
}

// Delete removes a role.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
