package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/condoops/backend/internal/models"
)

var ErrAttachmentNotFound = errors.New("attachment not found")

// Repository is the pgx-backed order store.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const orderColumns = `id, number, condominium_id, area_id, assignee_id, creator_id, vendor_id,
	title, description, priority, status, order_type, observations, estimated_value, final_value,
	created_at, started_at, expected_at, completed_at`

func scanOrder(row pgx.Row) (*models.ServiceOrder, error) {
	var o models.ServiceOrder
	err := row.Scan(&o.ID, &o.Number, &o.CondominiumID, &o.AreaID, &o.AssigneeID, &o.CreatorID, &o.VendorID,
		&o.Title, &o.Description, &o.Priority, &o.Status, &o.OrderType, &o.Observations, &o.EstimatedValue, &o.FinalValue,
		&o.CreatedAt, &o.StartedAt, &o.ExpectedAt, &o.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// NextSequence returns the next free sequence for the year.
func (r *Repository) NextSequence(ctx context.Context, year int) (int, error) {
	const q = `SELECT COALESCE(MAX(SPLIT_PART(number, '-', 3)::int), 0) + 1
		FROM service_orders WHERE number LIKE $1`
	var seq int
	err := r.pool.QueryRow(ctx, q, fmt.Sprintf("OS-%d-%%", year)).Scan(&seq)
	return seq, err
}

// Insert persists a new order and its creation log entry in one
// transaction.
func (r *Repository) Insert(ctx context.Context, o *models.ServiceOrder, entry *models.StatusLogEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const q = `INSERT INTO service_orders (id, number, condominium_id, area_id, assignee_id, creator_id, vendor_id,
		title, description, priority, status, order_type, observations, estimated_value, expected_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	if _, err := tx.Exec(ctx, q, o.ID, o.Number, o.CondominiumID, o.AreaID, o.AssigneeID, o.CreatorID, o.VendorID,
		o.Title, o.Description, o.Priority, o.Status, o.OrderType, o.Observations, o.EstimatedValue, o.ExpectedAt, o.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateNumber
		}
		return err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO order_status_logs (id, order_id, previous_status, new_status, user_id, note, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.OrderID, entry.PreviousStatus, entry.NewStatus, entry.UserID, entry.Note, entry.ChangedAt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Get returns one order.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.ServiceOrder, error) {
	return scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM service_orders WHERE id = $1`, id))
}

// ApplyStatusChange updates the order row and appends the log entry in
// one transaction.
func (r *Repository) ApplyStatusChange(ctx context.Context, o *models.ServiceOrder, entry *models.StatusLogEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE service_orders SET status = $2, started_at = $3, completed_at = $4 WHERE id = $1`,
		o.ID, o.Status, o.StartedAt, o.CompletedAt); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO order_status_logs (id, order_id, previous_status, new_status, user_id, note, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.OrderID, entry.PreviousStatus, entry.NewStatus, entry.UserID, entry.Note, entry.ChangedAt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListItem is one row of the order list with display names joined in.
type ListItem struct {
	models.ServiceOrder
	CondominiumName string  `json:"condominium_name"`
	CreatorName     string  `json:"creator_name"`
	AssigneeName    *string `json:"assignee_name,omitempty"`
}

// ListFilter narrows List results. CondominiumIDs non-nil limits to the
// caller's scope; an empty non-nil slice matches nothing.
type ListFilter struct {
	CondominiumIDs []uuid.UUID
	CondominiumID  *uuid.UUID
	Status         string
	Priority       string
	OrderType      string
	Search         string
	From           *time.Time
	To             *time.Time
	Page           int
	PerPage        int
}

// Page is one page of the order list.
type Page struct {
	Orders  []ListItem `json:"orders"`
	Total   int        `json:"total"`
	Pages   int        `json:"pages"`
	Page    int        `json:"page"`
	PerPage int        `json:"per_page"`
}

// List returns orders newest first, paginated.
func (r *Repository) List(ctx context.Context, f ListFilter) (*Page, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PerPage <= 0 || f.PerPage > 100 {
		f.PerPage = 20
	}

	where := ` WHERE 1=1`
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.CondominiumIDs != nil {
		where += ` AND o.condominium_id = ANY(` + arg(f.CondominiumIDs) + `)`
	}
	if f.CondominiumID != nil {
		where += ` AND o.condominium_id = ` + arg(*f.CondominiumID)
	}
	if f.Status != "" {
		where += ` AND o.status = ` + arg(f.Status)
	}
	if f.Priority != "" {
		where += ` AND o.priority = ` + arg(f.Priority)
	}
	if f.OrderType != "" {
		where += ` AND o.order_type = ` + arg(f.OrderType)
	}
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		where += ` AND (o.title ILIKE ` + p + ` OR o.number ILIKE ` + p + `)`
	}
	if f.From != nil {
		where += ` AND o.created_at >= ` + arg(*f.From)
	}
	if f.To != nil {
		where += ` AND o.created_at < ` + arg(*f.To)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM service_orders o`+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	q := `SELECT o.id, o.number, o.condominium_id, o.area_id, o.assignee_id, o.creator_id, o.vendor_id,
		o.title, o.description, o.priority, o.status, o.order_type, o.observations, o.estimated_value, o.final_value,
		o.created_at, o.started_at, o.expected_at, o.completed_at,
		c.name, cu.name, au.name
		FROM service_orders o
		JOIN condominiums c ON c.id = o.condominium_id
		JOIN users cu ON cu.id = o.creator_id
		LEFT JOIN users au ON au.id = o.assignee_id` + where +
		` ORDER BY o.created_at DESC LIMIT ` + arg(f.PerPage) + ` OFFSET ` + arg((f.Page-1)*f.PerPage)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []ListItem{}
	for rows.Next() {
		var it ListItem
		if err := rows.Scan(&it.ID, &it.Number, &it.CondominiumID, &it.AreaID, &it.AssigneeID, &it.CreatorID, &it.VendorID,
			&it.Title, &it.Description, &it.Priority, &it.Status, &it.OrderType, &it.Observations, &it.EstimatedValue, &it.FinalValue,
			&it.CreatedAt, &it.StartedAt, &it.ExpectedAt, &it.CompletedAt,
			&it.CondominiumName, &it.CreatorName, &it.AssigneeName); err != nil {
			return nil, err
		}
		list = append(list, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	pages := (total + f.PerPage - 1) / f.PerPage
	return &Page{Orders: list, Total: total, Pages: pages, Page: f.Page, PerPage: f.PerPage}, nil
}

// Detail is the full order view.
type Detail struct {
	ListItem
	AreaName    *string                 `json:"area_name,omitempty"`
	VendorName  *string                 `json:"vendor_name,omitempty"`
	StatusLogs  []models.StatusLogEntry `json:"status_logs"`
	Comments    []models.Comment        `json:"comments"`
	Attachments []models.Attachment     `json:"attachments"`
}

// GetDetail returns the order with names, history, comments and attachments.
func (r *Repository) GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	const q = `SELECT o.id, o.number, o.condominium_id, o.area_id, o.assignee_id, o.creator_id, o.vendor_id,
		o.title, o.description, o.priority, o.status, o.order_type, o.observations, o.estimated_value, o.final_value,
		o.created_at, o.started_at, o.expected_at, o.completed_at,
		c.name, cu.name, au.name, ar.name, v.name
		FROM service_orders o
		JOIN condominiums c ON c.id = o.condominium_id
		JOIN users cu ON cu.id = o.creator_id
		LEFT JOIN users au ON au.id = o.assignee_id
		LEFT JOIN areas ar ON ar.id = o.area_id
		LEFT JOIN vendors v ON v.id = o.vendor_id
		WHERE o.id = $1`
	var d Detail
	err := r.pool.QueryRow(ctx, q, id).Scan(&d.ID, &d.Number, &d.CondominiumID, &d.AreaID, &d.AssigneeID, &d.CreatorID, &d.VendorID,
		&d.Title, &d.Description, &d.Priority, &d.Status, &d.OrderType, &d.Observations, &d.EstimatedValue, &d.FinalValue,
		&d.CreatedAt, &d.StartedAt, &d.ExpectedAt, &d.CompletedAt,
		&d.CondominiumName, &d.CreatorName, &d.AssigneeName, &d.AreaName, &d.VendorName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if d.StatusLogs, err = r.ListStatusLogs(ctx, id); err != nil {
		return nil, err
	}
	if d.Comments, err = r.ListComments(ctx, id); err != nil {
		return nil, err
	}
	if d.Attachments, err = r.ListAttachments(ctx, id); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListStatusLogs returns the status history, newest first.
func (r *Repository) ListStatusLogs(ctx context.Context, orderID uuid.UUID) ([]models.StatusLogEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT l.id, l.order_id, l.previous_status, l.new_status, l.user_id, u.name, l.note, l.changed_at
		FROM order_status_logs l JOIN users u ON u.id = l.user_id
		WHERE l.order_id = $1 ORDER BY l.changed_at DESC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.StatusLogEntry{}
	for rows.Next() {
		var e models.StatusLogEntry
		if err := rows.Scan(&e.ID, &e.OrderID, &e.PreviousStatus, &e.NewStatus, &e.UserID, &e.UserName, &e.Note, &e.ChangedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// UpdateParams holds the editable fields of an order. Status is not here;
// ChangeStatus is the only status mutator.
type UpdateParams struct {
	Title          string
	Description    string
	Priority       string
	OrderType      string
	AreaID         *uuid.UUID
	AssigneeID     *uuid.UUID
	VendorID       *uuid.UUID
	Observations   *string
	EstimatedValue *float64
	FinalValue     *float64
	ExpectedAt     *time.Time
}

// Update edits order fields.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*models.ServiceOrder, error) {
	const q = `UPDATE service_orders SET title = $2, description = $3, priority = $4, order_type = $5,
		area_id = $6, assignee_id = $7, vendor_id = $8, observations = $9,
		estimated_value = $10, final_value = $11, expected_at = $12
		WHERE id = $1 RETURNING ` + orderColumns
	return scanOrder(r.pool.QueryRow(ctx, q, id, p.Title, p.Description, p.Priority, p.OrderType,
		p.AreaID, p.AssigneeID, p.VendorID, p.Observations, p.EstimatedValue, p.FinalValue, p.ExpectedAt))
}

// Delete removes an order and its children via cascades.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM service_orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddComment inserts a comment.
func (r *Repository) AddComment(ctx context.Context, orderID, userID uuid.UUID, text string) (*models.Comment, error) {
	const q = `INSERT INTO order_comments (order_id, user_id, text)
		VALUES ($1, $2, $3) RETURNING id, order_id, user_id, text, created_at`
	var cm models.Comment
	err := r.pool.QueryRow(ctx, q, orderID, userID, text).
		Scan(&cm.ID, &cm.OrderID, &cm.UserID, &cm.Text, &cm.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &cm, nil
}

// ListComments returns an order's comments, newest first.
func (r *Repository) ListComments(ctx context.Context, orderID uuid.UUID) ([]models.Comment, error) {
	rows, err := r.pool.Query(ctx, `SELECT cm.id, cm.order_id, cm.user_id, u.name, cm.text, cm.created_at
		FROM order_comments cm JOIN users u ON u.id = cm.user_id
		WHERE cm.order_id = $1 ORDER BY cm.created_at DESC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Comment{}
	for rows.Next() {
		var cm models.Comment
		if err := rows.Scan(&cm.ID, &cm.OrderID, &cm.UserID, &cm.UserName, &cm.Text, &cm.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, cm)
	}
	return list, rows.Err()
}

// AddAttachment inserts an attachment record.
func (r *Repository) AddAttachment(ctx context.Context, a *models.Attachment) error {
	const q = `INSERT INTO order_attachments (id, order_id, file_name, storage_key, category, size_bytes, mime_type, user_id, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.pool.Exec(ctx, q, a.ID, a.OrderID, a.FileName, a.StorageKey, a.Category, a.SizeBytes, a.MimeType, a.UserID, a.UploadedAt)
	return err
}

// GetAttachment returns one attachment.
func (r *Repository) GetAttachment(ctx context.Context, id uuid.UUID) (*models.Attachment, error) {
	const q = `SELECT id, order_id, file_name, storage_key, category, size_bytes, mime_type, user_id, uploaded_at
		FROM order_attachments WHERE id = $1`
	var a models.Attachment
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&a.ID, &a.OrderID, &a.FileName, &a.StorageKey, &a.Category, &a.SizeBytes, &a.MimeType, &a.UserID, &a.UploadedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAttachmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAttachments returns an order's attachments.
func (r *Repository) ListAttachments(ctx context.Context, orderID uuid.UUID) ([]models.Attachment, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, order_id, file_name, storage_key, category, size_bytes, mime_type, user_id, uploaded_at
		FROM order_attachments WHERE order_id = $1 ORDER BY uploaded_at DESC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []models.Attachment{}
	for rows.Next() {
		var a models.Attachment
		if err := rows.Scan(&a.ID, &a.OrderID, &a.FileName, &a.StorageKey, &a.Category, &a.SizeBytes, &a.MimeType, &a.UserID, &a.UploadedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// DeleteAttachment removes an attachment record.
func (r *Repository) DeleteAttachment(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM order_attachments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAttachmentNotFound
	}
	return nil
}

// NotificationRecipients returns the distinct emails of the creator and
// assignee of an order, for notification fan-out.
func (r *Repository) NotificationRecipients(ctx context.Context, orderID uuid.UUID) (map[string]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT u.email, u.name
		FROM service_orders o
		JOIN users u ON u.id = o.creator_id OR u.id = o.assignee_id
		WHERE o.id = $1 AND u.is_active = TRUE`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	recipients := map[string]string{}
	for rows.Next() {
		var email, name string
		if err := rows.Scan(&email, &name); err != nil {
			return nil, err
		}
		recipients[email] = name
	}
	return recipients, rows.Err()
}
