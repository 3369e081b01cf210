package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository runs the aggregate queries behind the dashboard.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Summary is the counters block of the dashboard.
type Summary struct {
	Total      int            `json:"total"`
	Last30Days int            `json:"last_30_days"`
	ByStatus   map[string]int `json:"by_status"`
	ByPriority map[string]int `json:"by_priority"`
	ByType     map[string]int `json:"by_type"`
}

// scopeClause builds the condominium restriction. A nil set means no
// restriction (admin).
func scopeClause(condominiumIDs []uuid.UUID, args *[]interface{}) string {
	if condominiumIDs == nil {
		return ""
	}
	*args = append(*args, condominiumIDs)
	return fmt.Sprintf(" AND condominium_id = ANY($%d)", len(*args))
}

func (r *Repository) countBy(ctx context.Context, column string, condominiumIDs []uuid.UUID) (map[string]int, error) {
	args := []interface{}{}
	q := `SELECT ` + column + `, COUNT(*) FROM service_orders WHERE 1=1` + scopeClause(condominiumIDs, &args) +
		` GROUP BY ` + column
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		out[key] = n
	}
	return out, rows.Err()
}

// GetSummary returns order counts grouped by status, priority and type.
func (r *Repository) GetSummary(ctx context.Context, condominiumIDs []uuid.UUID) (*Summary, error) {
	s := &Summary{}
	var err error
	if s.ByStatus, err = r.countBy(ctx, "status", condominiumIDs); err != nil {
		return nil, err
	}
	if s.ByPriority, err = r.countBy(ctx, "priority", condominiumIDs); err != nil {
		return nil, err
	}
	if s.ByType, err = r.countBy(ctx, "order_type", condominiumIDs); err != nil {
		return nil, err
	}
	for _, n := range s.ByStatus {
		s.Total += n
	}

	args := []interface{}{}
	q := `SELECT COUNT(*) FROM service_orders WHERE created_at >= NOW() - INTERVAL '30 days'` +
		scopeClause(condominiumIDs, &args)
	if err := r.pool.QueryRow(ctx, q, args...).Scan(&s.Last30Days); err != nil {
		return nil, err
	}
	return s, nil
}

// AdminSummary is the admin landing block: account and tenant counters.
type AdminSummary struct {
	Users        int `json:"users"`
	PendingUsers int `json:"pending_users"`
	Companies    int `json:"companies"`
	Condominiums int `json:"condominiums"`
	Vendors      int `json:"vendors"`
	Orders       int `json:"orders"`
}

// GetAdminSummary counts users, tenants and orders across the system.
func (r *Repository) GetAdminSummary(ctx context.Context) (*AdminSummary, error) {
	const q = `SELECT
		(SELECT COUNT(*) FROM users),
		(SELECT COUNT(*) FROM users WHERE is_pending = TRUE),
		(SELECT COUNT(*) FROM management_companies),
		(SELECT COUNT(*) FROM condominiums),
		(SELECT COUNT(*) FROM vendors),
		(SELECT COUNT(*) FROM service_orders)`
	var s AdminSummary
	err := r.pool.QueryRow(ctx, q).Scan(&s.Users, &s.PendingUsers, &s.Companies, &s.Condominiums, &s.Vendors, &s.Orders)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Series is one named line of the period chart.
type Series struct {
	Name string `json:"name"`
	Data []int  `json:"data"`
}

// PeriodChart is orders created per period bucket, one series per status.
type PeriodChart struct {
	Categories []string `json:"categories"`
	Series     []Series `json:"series"`
}

// GetPeriodChart buckets order creation by day, week, month or year over
// the window ending now and starting periods buckets earlier.
func (r *Repository) GetPeriodChart(ctx context.Context, condominiumIDs []uuid.UUID, granularity string, periods int, now time.Time) (*PeriodChart, error) {
	switch granularity {
	case "day", "week", "month", "year":
	default:
		return nil, fmt.Errorf("unsupported granularity %q", granularity)
	}
	if periods <= 0 || periods > 24 {
		periods = 6
	}

	args := []interface{}{granularity}
	scope := scopeClause(condominiumIDs, &args)
	args = append(args, now, periods)
	q := fmt.Sprintf(`SELECT date_trunc($1, created_at) AS bucket, status, COUNT(*)
		FROM service_orders
		WHERE 1=1%s AND created_at >= date_trunc($1, $%d::timestamptz) - ($%d - 1) * ('1 ' || $1)::interval
		GROUP BY bucket, status
		ORDER BY bucket`, scope, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type bucketStatus struct {
		bucket time.Time
		status string
	}
	counts := map[bucketStatus]int{}
	statuses := map[string]bool{}
	for rows.Next() {
		var b time.Time
		var status string
		var n int
		if err := rows.Scan(&b, &status, &n); err != nil {
			return nil, err
		}
		counts[bucketStatus{b.UTC(), status}] = n
		statuses[status] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	buckets := bucketsEnding(now.UTC(), granularity, periods)
	chart := &PeriodChart{Categories: make([]string, len(buckets))}
	layout := "2006-01"
	switch granularity {
	case "day", "week":
		layout = "2006-01-02"
	case "year":
		layout = "2006"
	}
	for i, b := range buckets {
		chart.Categories[i] = b.Format(layout)
	}
	for status := range statuses {
		s := Series{Name: status, Data: make([]int, len(buckets))}
		for i, b := range buckets {
			s.Data[i] = counts[bucketStatus{b, status}]
		}
		chart.Series = append(chart.Series, s)
	}
	return chart, nil
}

// bucketsEnding returns the period start times, oldest first, for the
// window of n buckets ending at the one containing now.
func bucketsEnding(now time.Time, granularity string, n int) []time.Time {
	out := make([]time.Time, n)
	switch granularity {
	case "day":
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		for i := 0; i < n; i++ {
			out[n-1-i] = start.AddDate(0, 0, -i)
		}
	case "week":
		// ISO week starts Monday, matching Postgres date_trunc
		weekday := (int(now.Weekday()) + 6) % 7
		start := time.Date(now.Year(), now.Month(), now.Day()-weekday, 0, 0, 0, 0, time.UTC)
		for i := 0; i < n; i++ {
			out[n-1-i] = start.AddDate(0, 0, -7*i)
		}
	case "year":
		start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		for i := 0; i < n; i++ {
			out[n-1-i] = start.AddDate(-i, 0, 0)
		}
	default:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		for i := 0; i < n; i++ {
			out[n-1-i] = start.AddDate(0, -i, 0)
		}
	}
	return out
}

// CompletionTime is the average days from creation to completion per type.
type CompletionTime struct {
	OrderType string  `json:"order_type"`
	AvgDays   float64 `json:"avg_days"`
	Count     int     `json:"count"`
}

// GetCompletionTimes averages completion time over completed orders.
func (r *Repository) GetCompletionTimes(ctx context.Context, condominiumIDs []uuid.UUID) ([]CompletionTime, error) {
	args := []interface{}{}
	q := `SELECT order_type, AVG(EXTRACT(EPOCH FROM completed_at - created_at) / 86400.0), COUNT(*)
		FROM service_orders
		WHERE completed_at IS NOT NULL` + scopeClause(condominiumIDs, &args) + `
		GROUP BY order_type ORDER BY order_type`
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []CompletionTime{}
	for rows.Next() {
		var ct CompletionTime
		if err := rows.Scan(&ct.OrderType, &ct.AvgDays, &ct.Count); err != nil {
			return nil, err
		}
		list = append(list, ct)
	}
	return list, rows.Err()
}
