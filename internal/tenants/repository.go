package tenants

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/condoops/backend/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrInUse    = errors.New("record is referenced by other records")
)

// Repository handles management companies, condominiums and areas.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CompanyParams holds the writable fields of a management company.
type CompanyParams struct {
	Name    string
	CNPJ    string
	Email   string
	Phone   string
	Address string
	Active  bool
}

const companyColumns = `id, name, cnpj, email, phone, address, active, created_at, updated_at`

func scanCompany(row pgx.Row) (*models.ManagementCompany, error) {
	var m models.ManagementCompany
	err := row.Scan(&m.ID, &m.Name, &m.CNPJ, &m.Email, &m.Phone, &m.Address, &m.Active, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListCompanies returns all management companies.
func (r *Repository) ListCompanies(ctx context.Context) ([]models.ManagementCompany, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+companyColumns+` FROM management_companies ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.ManagementCompany{}
	for rows.Next() {
		var m models.ManagementCompany
		if err := rows.Scan(&m.ID, &m.Name, &m.CNPJ, &m.Email, &m.Phone, &m.Address, &m.Active, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// GetCompany returns one management company.
func (r *Repository) GetCompany(ctx context.Context, id uuid.UUID) (*models.ManagementCompany, error) {
	return scanCompany(r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM management_companies WHERE id = $1`, id))
}

// CreateCompany inserts a management company.
func (r *Repository) CreateCompany(ctx context.Context, p CompanyParams) (*models.ManagementCompany, error) {
	const q = `INSERT INTO management_companies (name, cnpj, email, phone, address, active)
		VALUES ($1, NULLIF($2,''), NULLIF($3,''), NULLIF($4,''), NULLIF($5,''), $6)
		RETURNING ` + companyColumns
	return scanCompany(r.pool.QueryRow(ctx, q, p.Name, p.CNPJ, p.Email, p.Phone, p.Address, p.Active))
}

// UpdateCompany updates a management company.
func (r *Repository) UpdateCompany(ctx context.Context, id uuid.UUID, p CompanyParams) (*models.ManagementCompany, error) {
	const q = `UPDATE management_companies SET name = $2, cnpj = NULLIF($3,''), email = NULLIF($4,''),
		phone = NULLIF($5,''), address = NULLIF($6,''), active = $7, updated_at = NOW()
		WHERE id = $1 RETURNING ` + companyColumns
	return scanCompany(r.pool.QueryRow(ctx, q, id, p.Name, p.CNPJ, p.Email, p.Phone, p.Address, p.Active))
}

// DeleteCompany removes a management company unless condominiums reference it.
func (r *Repository) DeleteCompany(ctx context.Context, id uuid.UUID) error {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM condominiums WHERE management_company_id = $1`, id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrInUse
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM management_companies WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CondominiumParams holds the writable fields of a condominium.
type CondominiumParams struct {
	Name                string
	Address             string
	PostalCode          string
	City                string
	State               string
	Phone               string
	Email               string
	ManagementCompanyID uuid.UUID
	Active              bool
}

const condominiumColumns = `id, name, address, postal_code, city, state, phone, email, management_company_id, active, created_at, updated_at`

func scanCondominium(row pgx.Row) (*models.Condominium, error) {
	var c models.Condominium
	err := row.Scan(&c.ID, &c.Name, &c.Address, &c.PostalCode, &c.City, &c.State, &c.Phone, &c.Email, &c.ManagementCompanyID, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCondominiums returns condominiums, all of them or only the given set.
func (r *Repository) ListCondominiums(ctx context.Context, onlyIDs []uuid.UUID) ([]models.Condominium, error) {
	q := `SELECT ` + condominiumColumns + ` FROM condominiums`
	args := []interface{}{}
	if onlyIDs != nil {
		q += ` WHERE id = ANY($1)`
		args = append(args, onlyIDs)
	}
	q += ` ORDER BY name`
	rows, err := r.pool.Query(ctx, q, args...)
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

// GetCondominium returns one condominium.
func (r *Repository) GetCondominium(ctx context.Context, id uuid.UUID) (*models.Condominium, error) {
	return scanCondominium(r.pool.QueryRow(ctx, `SELECT `+condominiumColumns+` FROM condominiums WHERE id = $1`, id))
}

// CreateCondominium inserts a condominium.
func (r *Repository) CreateCondominium(ctx context.Context, p CondominiumParams) (*models.Condominium, error) {
	const q = `INSERT INTO condominiums (name, address, postal_code, city, state, phone, email, management_company_id, active)
		VALUES ($1, NULLIF($2,''), NULLIF($3,''), NULLIF($4,''), NULLIF($5,''), NULLIF($6,''), NULLIF($7,''), $8, $9)
		RETURNING ` + condominiumColumns
	return scanCondominium(r.pool.QueryRow(ctx, q, p.Name, p.Address, p.PostalCode, p.City, p.State, p.Phone, p.Email, p.ManagementCompanyID, p.Active))
}

// UpdateCondominium updates a condominium.
func (r *Repository) UpdateCondominium(ctx context.Context, id uuid.UUID, p CondominiumParams) (*models.Condominium, error) {
	const q = `UPDATE condominiums SET name = $2, address = NULLIF($3,''), postal_code = NULLIF($4,''),
		city = NULLIF($5,''), state = NULLIF($6,''), phone = NULLIF($7,''), email = NULLIF($8,''),
		management_company_id = $9, active = $10, updated_at = NOW()
		WHERE id = $1 RETURNING ` + condominiumColumns
	return scanCondominium(r.pool.QueryRow(ctx, q, id, p.Name, p.Address, p.PostalCode, p.City, p.State, p.Phone, p.Email, p.ManagementCompanyID, p.Active))
}

// DeleteCondominium removes a condominium unless orders or user scopes reference it.
func (r *Repository) DeleteCondominium(ctx context.Context, id uuid.UUID) error {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT
		(SELECT COUNT(*) FROM service_orders WHERE condominium_id = $1) +
		(SELECT COUNT(*) FROM user_condominiums WHERE condominium_id = $1)`, id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrInUse
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM condominiums WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AreaParams holds the writable fields of an area.
type AreaParams struct {
	CondominiumID uuid.UUID
	Name          string
	Description   string
}

const areaColumns = `id, condominium_id, name, description, created_at, updated_at`

func scanArea(row pgx.Row) (*models.Area, error) {
	var a models.Area
	err := row.Scan(&a.ID, &a.CondominiumID, &a.Name, &a.Description, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAreas returns the areas of a condominium.
func (r *Repository) ListAreas(ctx context.Context, condominiumID uuid.UUID) ([]models.Area, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+areaColumns+` FROM areas WHERE condominium_id = $1 ORDER BY name`, condominiumID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Area{}
	for rows.Next() {
		var a models.Area
		if err := rows.Scan(&a.ID, &a.CondominiumID, &a.Name, &a.Description, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// GetArea returns one area.
func (r *Repository) GetArea(ctx context.Context, id uuid.UUID) (*models.Area, error) {
	return scanArea(r.pool.QueryRow(ctx, `SELECT `+areaColumns+` FROM areas WHERE id = $1`, id))
}

// CreateArea inserts an area.
func (r *Repository) CreateArea(ctx context.Context, p AreaParams) (*models.Area, error) {
	const q = `INSERT INTO areas (condominium_id, name, description)
		VALUES ($1, $2, NULLIF($3,'')) RETURNING ` + areaColumns
	return scanArea(r.pool.QueryRow(ctx, q, p.CondominiumID, p.Name, p.Description))
}

// UpdateArea updates an area.
func (r *Repository) UpdateArea(ctx context.Context, id uuid.UUID, name, description string) (*models.Area, error) {
	const q = `UPDATE areas SET name = $2, description = NULLIF($3,''), updated_at = NOW()
		WHERE id = $1 RETURNING ` + areaColumns
	return scanArea(r.pool.QueryRow(ctx, q, id, name, description))
}

// DeleteArea removes an area unless orders reference it.
func (r *Repository) DeleteArea(ctx context.Context, id uuid.UUID) error {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM service_orders WHERE area_id = $1`, id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrInUse
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM areas WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
