package finance

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type financeDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository stores cash inflows and outflows.
type Repository struct {
	db financeDB
}

// NewRepository initializes a repo backed by pgxpool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("finance: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db financeDB) *Repository {
	return &Repository{db: db}
}

const inflowColumns = `id, category, COALESCE(description, ''), amount, currency, method,
	COALESCE(patient_id, ''), COALESCE(invoice_id, ''), occurred_at, COALESCE(created_by, '')`

const outflowColumns = `id, category, COALESCE(description, ''), amount, currency, occurred_at, COALESCE(created_by, '')`

// dateRange appends occurred_at bounds for inclusive YYYY-MM-DD filters.
func dateRange(where string, args []any, f ListFilter) (string, []any) {
	if f.StartDate != "" {
		args = append(args, f.StartDate)
		where += fmt.Sprintf(" AND occurred_at >= $%d::date", len(args))
	}
	if f.EndDate != "" {
		args = append(args, f.EndDate)
		where += fmt.Sprintf(" AND occurred_at < $%d::date + interval '1 day'", len(args))
	}
	if f.Currency != "" {
		args = append(args, f.Currency)
		where += fmt.Sprintf(" AND currency = $%d", len(args))
	}
	return where, args
}

func (r *Repository) ListInflows(ctx context.Context, f ListFilter) ([]Inflow, error) {
	where, args := dateRange(`WHERE true`, nil, f)
	rows, err := r.db.Query(ctx, `SELECT `+inflowColumns+` FROM inflows `+where+` ORDER BY occurred_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("finance: list inflows: %w", err)
	}
	defer rows.Close()

	out := []Inflow{}
	for rows.Next() {
		var in Inflow
		if err := rows.Scan(&in.ID, &in.Category, &in.Description, &in.Amount, &in.Currency,
			&in.Method, &in.PatientID, &in.InvoiceID, &in.OccurredAt, &in.CreatedBy); err != nil {
			return nil, fmt.Errorf("finance: scan inflow: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (r *Repository) CreateInflow(ctx context.Context, in *Inflow) error {
	query := `
		INSERT INTO inflows (id, category, description, amount, currency, method, patient_id, invoice_id, occurred_at, created_by)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9, NULLIF($10, ''))
	`
	if _, err := r.db.Exec(ctx, query,
		in.ID, in.Category, in.Description, in.Amount, in.Currency, in.Method,
		in.PatientID, in.InvoiceID, in.OccurredAt, in.CreatedBy,
	); err != nil {
		return fmt.Errorf("finance: insert inflow: %w", err)
	}
	return nil
}

func (r *Repository) UpdateInflow(ctx context.Context, id string, req *CreateInflowRequest) error {
	query := `
		UPDATE inflows SET category = $2, description = NULLIF($3, ''), amount = $4,
			currency = $5, method = $6, patient_id = NULLIF($7, ''), invoice_id = NULLIF($8, '')
		WHERE id = $1
	`
	currency := req.Currency
	if currency == "" {
		currency = "MKD"
	}
	method := req.Method
	if method == "" {
		method = MethodCash
	}
	tag, err := r.db.Exec(ctx, query,
		id, req.Category, req.Description, req.Amount, currency, method, req.PatientID, req.InvoiceID)
	if err != nil {
		return fmt.Errorf("finance: update inflow: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInflowNotFound
	}
	return nil
}

func (r *Repository) DeleteInflow(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM inflows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("finance: delete inflow: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInflowNotFound
	}
	return nil
}

func (r *Repository) ListOutflows(ctx context.Context, f ListFilter) ([]Outflow, error) {
	where, args := dateRange(`WHERE true`, nil, f)
	rows, err := r.db.Query(ctx, `SELECT `+outflowColumns+` FROM outflows `+where+` ORDER BY occurred_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("finance: list outflows: %w", err)
	}
	defer rows.Close()

	out := []Outflow{}
	for rows.Next() {
		var o Outflow
		if err := rows.Scan(&o.ID, &o.Category, &o.Description, &o.Amount, &o.Currency,
			&o.OccurredAt, &o.CreatedBy); err != nil {
			return nil, fmt.Errorf("finance: scan outflow: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *Repository) CreateOutflow(ctx context.Context, o *Outflow) error {
	query := `
		INSERT INTO outflows (id, category, description, amount, currency, occurred_at, created_by)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, NULLIF($7, ''))
	`
	if _, err := r.db.Exec(ctx, query,
		o.ID, o.Category, o.Description, o.Amount, o.Currency, o.OccurredAt, o.CreatedBy,
	); err != nil {
		return fmt.Errorf("finance: insert outflow: %w", err)
	}
	return nil
}

func (r *Repository) UpdateOutflow(ctx context.Context, id string, req *CreateOutflowRequest) error {
	query := `
		UPDATE outflows SET category = $2, description = NULLIF($3, ''), amount = $4, currency = $5
		WHERE id = $1
	`
	currency := req.Currency
	if currency == "" {
		currency = "MKD"
	}
	tag, err := r.db.Exec(ctx, query, id, req.Category, req.Description, req.Amount, currency)
	if err != nil {
		return fmt.Errorf("finance: update outflow: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOutflowNotFound
	}
	return nil
}

func (r *Repository) DeleteOutflow(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM outflows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("finance: delete outflow: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOutflowNotFound
	}
	return nil
}
