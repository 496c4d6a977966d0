package patients

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type patientDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository stores patients in the relational database.
type Repository struct {
	db patientDB
}

// NewRepository initializes a repo backed by pgxpool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("patients: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db patientDB) *Repository {
	return &Repository{db: db}
}

const patientColumns = `id, first_name, last_name, COALESCE(phone, ''), COALESCE(email, ''),
	COALESCE(address, ''), COALESCE(birth_date, ''), COALESCE(notes, ''), created_at, COALESCE(created_by, '')`

func (r *Repository) List(ctx context.Context) ([]Patient, error) {
	rows, err := r.db.Query(ctx, `SELECT `+patientColumns+` FROM patients ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("patients: list: %w", err)
	}
	defer rows.Close()

	out := []Patient{}
	for rows.Next() {
		var p Patient
		if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Phone, &p.Email,
			&p.Address, &p.BirthDate, &p.Notes, &p.CreatedAt, &p.CreatedBy); err != nil {
			return nil, fmt.Errorf("patients: scan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id string) (*Patient, error) {
	var p Patient
	err := r.db.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id).
		Scan(&p.ID, &p.FirstName, &p.LastName, &p.Phone, &p.Email,
			&p.Address, &p.BirthDate, &p.Notes, &p.CreatedAt, &p.CreatedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("patients: get: %w", err)
	}
	return &p, nil
}

func (r *Repository) Create(ctx context.Context, p *Patient) error {
	query := `
		INSERT INTO patients (id, first_name, last_name, phone, email, address, birth_date, notes, created_at, created_by)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), $9, NULLIF($10, ''))
	`
	if _, err := r.db.Exec(ctx, query,
		p.ID, p.FirstName, p.LastName, p.Phone, p.Email, p.Address, p.BirthDate, p.Notes, p.CreatedAt, p.CreatedBy,
	); err != nil {
		return fmt.Errorf("patients: insert: %w", err)
	}
	return nil
}

func (r *Repository) Update(ctx context.Context, id string, req *CreatePatientRequest) error {
	query := `
		UPDATE patients SET first_name = $2, last_name = $3, phone = NULLIF($4, ''),
			email = NULLIF($5, ''), address = NULLIF($6, ''), birth_date = NULLIF($7, ''), notes = NULLIF($8, '')
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query,
		id, req.FirstName, req.LastName, req.Phone, req.Email, req.Address, req.BirthDate, req.Notes)
	if err != nil {
		return fmt.Errorf("patients: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("patients: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&n); err != nil {
		return 0, fmt.Errorf("patients: count: %w", err)
	}
	return n, nil
}
