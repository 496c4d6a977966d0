package appointments

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type appointmentDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository stores appointments in the relational database.
type Repository struct {
	db appointmentDB
}

// NewRepository initializes a repo backed by pgxpool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db appointmentDB) *Repository {
	return &Repository{db: db}
}

const apptColumns = `id, patient_id, COALESCE(patient_name, ''), COALESCE(patient_email, ''),
	visit_date, visit_time, reason, status, COALESCE(notes, ''), created_at, COALESCE(created_by, '')`

// List returns appointments ordered by date then time; the optional date
// filter narrows to one day.
func (r *Repository) List(ctx context.Context, date string) ([]Appointment, error) {
	query := `SELECT ` + apptColumns + ` FROM appointments`
	args := []any{}
	if date != "" {
		query += ` WHERE visit_date = $1`
		args = append(args, date)
	}
	query += ` ORDER BY visit_date ASC, visit_time ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	defer rows.Close()

	out := []Appointment{}
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.PatientID, &a.PatientName, &a.PatientEmail,
			&a.Date, &a.Time, &a.Reason, &a.Status, &a.Notes, &a.CreatedAt, &a.CreatedBy); err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id string) (*Appointment, error) {
	var a Appointment
	err := r.db.QueryRow(ctx, `SELECT `+apptColumns+` FROM appointments WHERE id = $1`, id).
		Scan(&a.ID, &a.PatientID, &a.PatientName, &a.PatientEmail,
			&a.Date, &a.Time, &a.Reason, &a.Status, &a.Notes, &a.CreatedAt, &a.CreatedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("appointments: get: %w", err)
	}
	return &a, nil
}

func (r *Repository) Create(ctx context.Context, a *Appointment) error {
	query := `
		INSERT INTO appointments (id, patient_id, patient_name, patient_email, visit_date, visit_time,
			reason, status, notes, created_at, created_by)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, NULLIF($9, ''), $10, NULLIF($11, ''))
	`
	if _, err := r.db.Exec(ctx, query,
		a.ID, a.PatientID, a.PatientName, a.PatientEmail, a.Date, a.Time,
		a.Reason, a.Status, a.Notes, a.CreatedAt, a.CreatedBy,
	); err != nil {
		return fmt.Errorf("appointments: insert: %w", err)
	}
	return nil
}

func (r *Repository) Update(ctx context.Context, id string, a *Appointment) error {
	query := `
		UPDATE appointments SET patient_id = $2, patient_name = $3, patient_email = NULLIF($4, ''),
			visit_date = $5, visit_time = $6, reason = $7, status = $8, notes = NULLIF($9, '')
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query,
		id, a.PatientID, a.PatientName, a.PatientEmail, a.Date, a.Time, a.Reason, a.Status, a.Notes)
	if err != nil {
		return fmt.Errorf("appointments: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("appointments: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}
