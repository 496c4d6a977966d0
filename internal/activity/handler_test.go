package activity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestHandler_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("FROM activity_logs ORDER BY created_at DESC LIMIT").
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "user_name", "action", "entity_type", "entity_id", "details", "created_at"}).
			AddRow("log_1", "user_1", "Dr. Ana", ActionCreated, "patient", "pat_1", "patient Ana Petrov", now))

	h := NewHandler(NewService(db, nil))
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest("GET", "/api/activity-logs", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("content-type = %q", ct)
	}
	var entries []Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "log_1" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestHandler_List_ErrorIsJSONDetail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("FROM activity_logs").
		WillReturnError(errors.New(`pq: relation "activity_logs" does not exist`))

	h := NewHandler(NewService(db, nil))
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest("GET", "/api/activity-logs", nil))

	if rec.Code != 500 {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("content-type = %q, want application/json", ct)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %v (%s)", err, rec.Body.String())
	}
	if body["detail"] != "failed to list activity" {
		t.Errorf("detail = %q", body["detail"])
	}
	// Internal error text must not leak to the client.
	if strings.Contains(rec.Body.String(), "relation") {
		t.Errorf("body leaks database internals: %s", rec.Body.String())
	}
}

func TestList_WithoutDatabase(t *testing.T) {
	svc := NewService(nil, nil)
	if _, err := svc.List(context.Background(), 10); err == nil {
		t.Fatal("expected error when no database is wired")
	}
}
