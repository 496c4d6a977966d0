// Package activity provides the append-only activity log every mutation in
// the system writes to.
package activity

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mdental/practice-platform/internal/ids"
	"github.com/mdental/practice-platform/pkg/logging"
)

// Action names mirror what the admin activity view displays.
const (
	ActionCreated     = "created"
	ActionUpdated     = "updated"
	ActionDeleted     = "deleted"
	ActionRegistered  = "registered"
	ActionRoleChanged = "role_changed"
	ActionLoggedIn    = "logged_in"
	ActionLoggedOut   = "logged_out"
)

// Entry is one immutable activity record.
type Entry struct {
	ID         string    `json:"log_id"`
	UserID     string    `json:"user_id"`
	UserName   string    `json:"user_name"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id,omitempty"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `json:"timestamp"`
}

// Recorder is the narrow interface handlers use to append entries.
// Recording is best-effort: implementations never fail the caller.
type Recorder interface {
	Record(ctx context.Context, userID, userName, action, entityType, entityID, details string)
}

// Service writes and reads activity entries.
type Service struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewService creates an activity service over the relational database.
func NewService(db *sql.DB, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{db: db, logger: logger}
}

// Record appends an entry. Failures are logged, never surfaced: an audit
// write must not fail the mutation it describes.
func (s *Service) Record(ctx context.Context, userID, userName, action, entityType, entityID, details string) {
	if s == nil || s.db == nil {
		return
	}
	e := Entry{
		ID:         ids.New("log"),
		UserID:     userID,
		UserName:   userName,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		CreatedAt:  time.Now().UTC(),
	}
	query := `
		INSERT INTO activity_logs (id, user_id, user_name, action, entity_type, entity_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := s.db.ExecContext(ctx, query,
		e.ID, e.UserID, e.UserName, e.Action, e.EntityType,
		nullString(e.EntityID), nullString(e.Details), e.CreatedAt,
	); err != nil {
		s.logger.Error("activity record failed", "error", err, "action", action, "entity_type", entityType)
	}
}

// List returns the newest entries, capped at limit.
func (s *Service) List(ctx context.Context, limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("activity: store not configured")
	}
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, user_id, user_name, action, entity_type,
		       COALESCE(entity_id, ''), COALESCE(details, ''), created_at
		FROM activity_logs ORDER BY created_at DESC LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("activity: list: %w", err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.UserName, &e.Action, &e.EntityType, &e.EntityID, &e.Details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("activity: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// NopRecorder discards entries; used where no database is wired.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, string, string, string, string, string, string) {}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
