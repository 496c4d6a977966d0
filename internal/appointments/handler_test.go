package appointments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/mdental/practice-platform/internal/auth"
	"github.com/mdental/practice-platform/internal/patients"
)

type fakePatients struct {
	byID map[string]*patients.Patient
}

func (f *fakePatients) Get(_ context.Context, id string) (*patients.Patient, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, patients.ErrPatientNotFound
	}
	return p, nil
}

type recordingConfirmer struct {
	calls []string
}

func (c *recordingConfirmer) AppointmentScheduled(_ context.Context, toEmail, _, date, timeOfDay, _ string) {
	c.calls = append(c.calls, toEmail+" "+date+" "+timeOfDay)
}

func newApptServer(t *testing.T, confirmer Confirmer) (*httptest.Server, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)

	lookup := &fakePatients{byID: map[string]*patients.Patient{
		"pat_1": {ID: "pat_1", FirstName: "Ana", LastName: "Petrov", Email: "ana@x.mk"},
		"pat_2": {ID: "pat_2", FirstName: "Bora", LastName: "Iliev"},
	}}
	h := NewHandler(NewRepositoryWithDB(mock), lookup, confirmer, nil)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := auth.ContextWithUser(req.Context(), &auth.User{ID: "user_1", Name: "Dr. Ana", Role: auth.RoleStaff})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Get("/api/appointments", h.List)
	r.Post("/api/appointments", h.Create)
	r.Put("/api/appointments/{id}", h.Update)
	r.Delete("/api/appointments/{id}", h.Delete)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, mock
}

func TestHandler_CreateAppointment(t *testing.T) {
	confirmer := &recordingConfirmer{}
	srv, mock := newApptServer(t, confirmer)

	mock.ExpectExec(`INSERT INTO appointments`).
		WithArgs(pgxmock.AnyArg(), "pat_1", "Ana Petrov", "ana@x.mk", "2026-09-10", "14:30",
			"checkup", StatusScheduled, "", pgxmock.AnyArg(), "user_1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	body := `{"patient_id": "pat_1", "date": "2026-09-10", "time": "14:30", "reason": "checkup", "send_email": true}`
	resp, err := http.Post(srv.URL+"/api/appointments", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var a Appointment
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a.PatientName != "Ana Petrov" {
		t.Errorf("PatientName = %q", a.PatientName)
	}
	if a.Status != StatusScheduled {
		t.Errorf("Status = %q, want scheduled default", a.Status)
	}
	if len(confirmer.calls) != 1 || confirmer.calls[0] != "ana@x.mk 2026-09-10 14:30" {
		t.Errorf("confirmer calls = %v", confirmer.calls)
	}
}

func TestHandler_CreateAppointment_NoEmailOnFile(t *testing.T) {
	confirmer := &recordingConfirmer{}
	srv, mock := newApptServer(t, confirmer)

	mock.ExpectExec(`INSERT INTO appointments`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	body := `{"patient_id": "pat_2", "date": "2026-09-10", "time": "09:00", "reason": "cleaning", "send_email": true}`
	resp, err := http.Post(srv.URL+"/api/appointments", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if len(confirmer.calls) != 0 {
		t.Errorf("expected no confirmation without an email on file, got %v", confirmer.calls)
	}
}

func TestHandler_CreateAppointment_UnknownPatient(t *testing.T) {
	srv, _ := newApptServer(t, nil)

	body := `{"patient_id": "pat_ghost", "date": "2026-09-10", "time": "09:00", "reason": "cleaning"}`
	resp, err := http.Post(srv.URL+"/api/appointments", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["detail"] != "unknown patient" {
		t.Errorf("detail = %q", out["detail"])
	}
}

func TestHandler_CreateAppointment_BadDate(t *testing.T) {
	srv, _ := newApptServer(t, nil)

	body := `{"patient_id": "pat_1", "date": "10/09/2026", "time": "09:00", "reason": "cleaning"}`
	resp, err := http.Post(srv.URL+"/api/appointments", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandler_UpdateAppointment_NotFound(t *testing.T) {
	srv, mock := newApptServer(t, nil)

	mock.ExpectExec(`UPDATE appointments SET patient_id = \$2, patient_name = \$3, patient_email = NULLIF\(\$4, ''\)`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	body := `{"patient_id": "pat_1", "date": "2026-09-10", "time": "09:00", "reason": "cleaning", "status": "completed"}`
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/appointments/apt_ghost", strings.NewReader(body))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestHandler_DeleteAppointment(t *testing.T) {
	srv, mock := newApptServer(t, nil)

	mock.ExpectExec(`DELETE FROM appointments WHERE id = \$1`).
		WithArgs("apt_1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/appointments/apt_1", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["message"] != "appointment deleted" {
		t.Errorf("message = %q", out["message"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestValidate_AppointmentRequest(t *testing.T) {
	cases := []struct {
		name    string
		req     CreateAppointmentRequest
		wantErr bool
	}{
		{"valid", CreateAppointmentRequest{PatientID: "pat_1", Date: "2026-09-10", Time: "14:30", Reason: "checkup"}, false},
		{"missing patient", CreateAppointmentRequest{Date: "2026-09-10", Time: "14:30", Reason: "checkup"}, true},
		{"bad time", CreateAppointmentRequest{PatientID: "pat_1", Date: "2026-09-10", Time: "2:30pm", Reason: "checkup"}, true},
		{"missing reason", CreateAppointmentRequest{PatientID: "pat_1", Date: "2026-09-10", Time: "14:30"}, true},
		{"bad status", CreateAppointmentRequest{PatientID: "pat_1", Date: "2026-09-10", Time: "14:30", Reason: "checkup", Status: "pending"}, true},
		{"explicit status", CreateAppointmentRequest{PatientID: "pat_1", Date: "2026-09-10", Time: "14:30", Reason: "checkup", Status: StatusCancelled}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.wantErr && err == nil {
				t.Error("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
