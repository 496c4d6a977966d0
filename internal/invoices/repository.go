package invoices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type invoiceDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository stores invoices in the relational database. Line items live in
// a jsonb column; they are only ever read and written as a whole document.
type Repository struct {
	db invoiceDB
}

// NewRepository initializes a repo backed by pgxpool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("invoices: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db invoiceDB) *Repository {
	return &Repository{db: db}
}

const invoiceColumns = `id, number, patient_id, COALESCE(patient_name, ''), items, subtotal, tax_rate,
	tax_amount, total, currency, status, issue_date, COALESCE(due_date, ''), COALESCE(notes, ''),
	created_at, COALESCE(created_by, '')`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	var itemsRaw []byte
	err := row.Scan(&inv.ID, &inv.Number, &inv.PatientID, &inv.PatientName, &itemsRaw,
		&inv.Subtotal, &inv.TaxRate, &inv.TaxAmount, &inv.Total, &inv.Currency, &inv.Status,
		&inv.IssueDate, &inv.DueDate, &inv.Notes, &inv.CreatedAt, &inv.CreatedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("invoices: scan: %w", err)
	}
	inv.Items = []Item{}
	if len(itemsRaw) > 0 {
		if err := json.Unmarshal(itemsRaw, &inv.Items); err != nil {
			return nil, fmt.Errorf("invoices: decode items: %w", err)
		}
	}
	return &inv, nil
}

// List returns invoices newest-first, optionally filtered to one patient.
func (r *Repository) List(ctx context.Context, patientID string) ([]Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	args := []any{}
	if patientID != "" {
		query += ` WHERE patient_id = $1`
		args = append(args, patientID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("invoices: list: %w", err)
	}
	defer rows.Close()

	out := []Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id string) (*Invoice, error) {
	row := r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	return scanInvoice(row)
}

func (r *Repository) Create(ctx context.Context, inv *Invoice) error {
	itemsRaw, err := json.Marshal(inv.Items)
	if err != nil {
		return fmt.Errorf("invoices: encode items: %w", err)
	}
	query := `
		INSERT INTO invoices (id, number, patient_id, patient_name, items, subtotal, tax_rate,
			tax_amount, total, currency, status, issue_date, due_date, notes, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			NULLIF($13, ''), NULLIF($14, ''), $15, NULLIF($16, ''))
	`
	if _, err := r.db.Exec(ctx, query,
		inv.ID, inv.Number, inv.PatientID, inv.PatientName, itemsRaw, inv.Subtotal, inv.TaxRate,
		inv.TaxAmount, inv.Total, inv.Currency, inv.Status, inv.IssueDate,
		inv.DueDate, inv.Notes, inv.CreatedAt, inv.CreatedBy,
	); err != nil {
		return fmt.Errorf("invoices: insert: %w", err)
	}
	return nil
}

func (r *Repository) Update(ctx context.Context, id string, inv *Invoice) error {
	itemsRaw, err := json.Marshal(inv.Items)
	if err != nil {
		return fmt.Errorf("invoices: encode items: %w", err)
	}
	query := `
		UPDATE invoices SET number = $2, patient_id = $3, patient_name = $4, items = $5,
			subtotal = $6, tax_rate = $7, tax_amount = $8, total = $9, currency = $10, status = $11,
			issue_date = $12, due_date = NULLIF($13, ''), notes = NULLIF($14, '')
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query,
		id, inv.Number, inv.PatientID, inv.PatientName, itemsRaw,
		inv.Subtotal, inv.TaxRate, inv.TaxAmount, inv.Total, inv.Currency, inv.Status,
		inv.IssueDate, inv.DueDate, inv.Notes)
	if err != nil {
		return fmt.Errorf("invoices: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

// MarkPaid flips the invoice status when a linked inflow is recorded.
func (r *Repository) MarkPaid(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `UPDATE invoices SET status = $2 WHERE id = $1`, id, StatusPaid)
	if err != nil {
		return fmt.Errorf("invoices: mark paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("invoices: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}
