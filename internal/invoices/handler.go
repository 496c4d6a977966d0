package invoices

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mdental/practice-platform/internal/activity"
	"github.com/mdental/practice-platform/internal/auth"
	"github.com/mdental/practice-platform/internal/http/respond"
	"github.com/mdental/practice-platform/internal/patients"
)

type patientLookup interface {
	Get(ctx context.Context, id string) (*patients.Patient, error)
}

// Handler serves the invoices collection.
type Handler struct {
	repo     *Repository
	patients patientLookup
	recorder activity.Recorder
}

func NewHandler(repo *Repository, patientRepo patientLookup, recorder activity.Recorder) *Handler {
	if recorder == nil {
		recorder = activity.NopRecorder{}
	}
	return &Handler{repo: repo, patients: patientRepo, recorder: recorder}
}

// GET /api/invoices?patient_id=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.repo.List(r.Context(), r.URL.Query().Get("patient_id"))
	if err != nil {
		respond.Detail(w, http.StatusInternalServerError, "failed to list invoices")
		return
	}
	respond.JSON(w, http.StatusOK, out)
}

// GET /api/invoices/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	inv, err := h.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrInvoiceNotFound) {
			respond.Detail(w, http.StatusNotFound, "invoice not found")
			return
		}
		respond.Detail(w, http.StatusInternalServerError, "failed to load invoice")
		return
	}
	respond.JSON(w, http.StatusOK, inv)
}

// POST /api/invoices
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respond.Detail(w, http.StatusBadRequest, err.Error())
		return
	}

	patientName := h.patientName(r.Context(), req.PatientID)
	user, _ := auth.UserFromContext(r.Context())
	createdBy := ""
	if user != nil {
		createdBy = user.ID
	}

	inv := NewInvoice(&req, patientName, createdBy)
	if err := h.repo.Create(r.Context(), inv); err != nil {
		respond.Detail(w, http.StatusInternalServerError, "failed to create invoice")
		return
	}

	if user != nil {
		h.recorder.Record(r.Context(), user.ID, user.Name, activity.ActionCreated, "invoice", inv.ID, "invoice "+inv.Number)
	}
	respond.JSON(w, http.StatusCreated, inv)
}

// PUT /api/invoices/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req CreateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respond.Detail(w, http.StatusBadRequest, err.Error())
		return
	}

	existing, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrInvoiceNotFound) {
			respond.Detail(w, http.StatusNotFound, "invoice not found")
			return
		}
		respond.Detail(w, http.StatusInternalServerError, "failed to load invoice")
		return
	}

	inv := NewInvoice(&req, h.patientName(r.Context(), req.PatientID), existing.CreatedBy)
	inv.ID = existing.ID
	if req.Number == "" {
		inv.Number = existing.Number
	}
	if err := h.repo.Update(r.Context(), id, inv); err != nil {
		respond.Detail(w, http.StatusInternalServerError, "failed to update invoice")
		return
	}

	if user, ok := auth.UserFromContext(r.Context()); ok {
		h.recorder.Record(r.Context(), user.ID, user.Name, activity.ActionUpdated, "invoice", id, "invoice "+inv.Number)
	}
	respond.JSON(w, http.StatusOK, inv)
}

// DELETE /api/invoices/{id} (admin only, enforced by routing)
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrInvoiceNotFound) {
			respond.Detail(w, http.StatusNotFound, "invoice not found")
			return
		}
		respond.Detail(w, http.StatusInternalServerError, "failed to delete invoice")
		return
	}

	if user, ok := auth.UserFromContext(r.Context()); ok {
		h.recorder.Record(r.Context(), user.ID, user.Name, activity.ActionDeleted, "invoice", id, "")
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "invoice deleted"})
}

func (h *Handler) patientName(ctx context.Context, patientID string) string {
	p, err := h.patients.Get(ctx, patientID)
	if err != nil {
		return "unknown"
	}
	return p.FullName()
}
