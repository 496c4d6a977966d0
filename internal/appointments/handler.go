package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mdental/practice-platform/internal/activity"
	"github.com/mdental/practice-platform/internal/auth"
	"github.com/mdental/practice-platform/internal/http/respond"
	"github.com/mdental/practice-platform/internal/patients"
)

// patientLookup is the slice of the patients repository the handler needs.
type patientLookup interface {
	Get(ctx context.Context, id string) (*patients.Patient, error)
}

// Confirmer sends the appointment confirmation email. Delivery is
// best-effort and never fails the create.
type Confirmer interface {
	AppointmentScheduled(ctx context.Context, toEmail, toName, date, timeOfDay, reason string)
}

// Handler serves the appointments collection.
type Handler struct {
	repo      *Repository
	patients  patientLookup
	confirmer Confirmer
	recorder  activity.Recorder
}

func NewHandler(repo *Repository, patientRepo patientLookup, confirmer Confirmer, recorder activity.Recorder) *Handler {
	if recorder == nil {
		recorder = activity.NopRecorder{}
	}
	return &Handler{repo: repo, patients: patientRepo, confirmer: confirmer, recorder: recorder}
}

// GET /api/appointments?date=YYYY-MM-DD
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.repo.List(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		respond.Detail(w, http.StatusInternalServerError, "failed to list appointments")
		return
	}
	respond.JSON(w, http.StatusOK, out)
}

// POST /api/appointments
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respond.Detail(w, http.StatusBadRequest, err.Error())
		return
	}

	patient, err := h.patients.Get(r.Context(), req.PatientID)
	if err != nil {
		if errors.Is(err, patients.ErrPatientNotFound) {
			respond.Detail(w, http.StatusBadRequest, "unknown patient")
			return
		}
		respond.Detail(w, http.StatusInternalServerError, "failed to load patient")
		return
	}

	user, _ := auth.UserFromContext(r.Context())
	createdBy := ""
	if user != nil {
		createdBy = user.ID
	}
	a := NewAppointment(&req, patient.FullName(), patient.Email, createdBy)
	if err := h.repo.Create(r.Context(), a); err != nil {
		respond.Detail(w, http.StatusInternalServerError, "failed to create appointment")
		return
	}

	if req.SendEmail && a.PatientEmail != "" && h.confirmer != nil {
		h.confirmer.AppointmentScheduled(r.Context(), a.PatientEmail, a.PatientName, a.Date, a.Time, a.Reason)
	}
	if user != nil {
		h.recorder.Record(r.Context(), user.ID, user.Name, activity.ActionCreated, "appointment", a.ID,
			fmt.Sprintf("%s at %s %s", a.PatientName, a.Date, a.Time))
	}
	respond.JSON(w, http.StatusCreated, a)
}

// PUT /api/appointments/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respond.Detail(w, http.StatusBadRequest, err.Error())
		return
	}

	patient, err := h.patients.Get(r.Context(), req.PatientID)
	if err != nil {
		if errors.Is(err, patients.ErrPatientNotFound) {
			respond.Detail(w, http.StatusBadRequest, "unknown patient")
			return
		}
		respond.Detail(w, http.StatusInternalServerError, "failed to load patient")
		return
	}

	a := NewAppointment(&req, patient.FullName(), patient.Email, "")
	if err := h.repo.Update(r.Context(), id, a); err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			respond.Detail(w, http.StatusNotFound, "appointment not found")
			return
		}
		respond.Detail(w, http.StatusInternalServerError, "failed to update appointment")
		return
	}

	if user, ok := auth.UserFromContext(r.Context()); ok {
		h.recorder.Record(r.Context(), user.ID, user.Name, activity.ActionUpdated, "appointment", id, "")
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "appointment updated"})
}

// DELETE /api/appointments/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			respond.Detail(w, http.StatusNotFound, "appointment not found")
			return
		}
		respond.Detail(w, http.StatusInternalServerError, "failed to delete appointment")
		return
	}

	if user, ok := auth.UserFromContext(r.Context()); ok {
		h.recorder.Record(r.Context(), user.ID, user.Name, activity.ActionDeleted, "appointment", id, "")
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "appointment deleted"})
}
