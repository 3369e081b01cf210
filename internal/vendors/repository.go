package vendors

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/condoops/backend/internal/models"
)

var (
	ErrNotFound = errors.New("vendor not found")
	ErrInUse    = errors.New("vendor is referenced by orders")
)

// Repository handles vendor persistence.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Params holds the writable fields of a vendor.
type Params struct {
	Name        string
	CNPJCPF     string
	Email       string
	Phone       string
	Address     string
	ServiceType string
	Notes       string
	Active      bool
}

const vendorColumns = `id, name, cnpj_cpf, email, phone, address, service_type, notes, active, created_at, updated_at`

func scanVendor(row pgx.Row) (*models.Vendor, error) {
	var v models.Vendor
	err := row.Scan(&v.ID, &v.Name, &v.CNPJCPF, &v.Email, &v.Phone, &v.Address, &v.ServiceType, &v.Notes, &v.Active, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// List returns all vendors.
func (r *Repository) List(ctx context.Context) ([]models.Vendor, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+vendorColumns+` FROM vendors ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Vendor{}
	for rows.Next() {
		var v models.Vendor
		if err := rows.Scan(&v.ID, &v.Name, &v.CNPJCPF, &v.Email, &v.Phone, &v.Address, &v.ServiceType, &v.Notes, &v.Active, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, rows.Err()
}

// Get returns one vendor.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	return scanVendor(r.pool.QueryRow(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE id = $1`, id))
}

// Create inserts a vendor.
func (r *Repository) Create(ctx context.Context, p Params) (*models.Vendor, error) {
	const q = `INSERT INTO vendors (name, cnpj_cpf, email, phone, address, service_type, notes, active)
		VALUES ($1, NULLIF($2,''), NULLIF($3,''), NULLIF($4,''), NULLIF($5,''), NULLIF($6,''), NULLIF($7,''), $8)
		RETURNING ` + vendorColumns
	return scanVendor(r.pool.QueryRow(ctx, q, p.Name, p.CNPJCPF, p.Email, p.Phone, p.Address, p.ServiceType, p.Notes, p.Active))
}

// Update updates a vendor.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, p Params) (*models.Vendor, error) {
	const q = `UPDATE vendors SET name = $2, cnpj_cpf = NULLIF($3,''), email = NULLIF($4,''),
		phone = NULLIF($5,''), address = NULLIF($6,''), service_type = NULLIF($7,''), notes = NULLIF($8,''),
		active = $9, updated_at = NOW()
		WHERE id = $1 RETURNING ` + vendorColumns
	return scanVendor(r.pool.QueryRow(ctx, q, id, p.Name, p.CNPJCPF, p.Email, p.Phone, p.Address, p.ServiceType, p.Notes, p.Active))
}

// Delete removes a vendor unless orders reference it.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM service_orders WHERE vendor_id = $1`, id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrInUse
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM vendors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
