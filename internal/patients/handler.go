package patients

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mdental/practice-platform/internal/activity"
	"github.com/mdental/practice-platform/internal/auth"
	"github.com/mdental/practice-platform/internal/http/respond"
)

// Handler serves the patients collection.
type Handler struct {
	repo     *Repository
	recorder activity.Recorder
}

func NewHandler(repo *Repository, recorder activity.Recorder) *Handler {
	if recorder == nil {
		recorder = activity.NopRecorder{}
	}
	return &Handler{repo: repo, recorder: recorder}
}

// GET /api/patients
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.repo.List(r.Context())
	if err != nil {
		respond.Detail(w, http.StatusInternalServerError, "failed to list patients")
		return
	}
	respond.JSON(w, http.StatusOK, out)
}

// GET /api/patients/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			respond.Detail(w, http.StatusNotFound, "patient not found")
			return
		}
		respond.Detail(w, http.StatusInternalServerError, "failed to load patient")
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

// POST /api/patients
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respond.Detail(w, http.StatusBadRequest, err.Error())
		return
	}

	user, _ := auth.UserFromContext(r.Context())
	p := NewPatient(&req, userID(user))
	if err := h.repo.Create(r.Context(), p); err != nil {
		respond.Detail(w, http.StatusInternalServerError, "failed to create patient")
		return
	}

	if user != nil {
		h.recorder.Record(r.Context(), user.ID, user.Name, activity.ActionCreated, "patient", p.ID, "patient "+p.FullName())
	}
	respond.JSON(w, http.StatusCreated, p)
}

// PUT /api/patients/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req CreatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respond.Detail(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.repo.Update(r.Context(), id, &req); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			respond.Detail(w, http.StatusNotFound, "patient not found")
			return
		}
		respond.Detail(w, http.StatusInternalServerError, "failed to update patient")
		return
	}

	if user, ok := auth.UserFromContext(r.Context()); ok {
		h.recorder.Record(r.Context(), user.ID, user.Name, activity.ActionUpdated, "patient", id, "")
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "patient updated"})
}

// DELETE /api/patients/{id} (admin only, enforced by routing)
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			respond.Detail(w, http.StatusNotFound, "patient not found")
			return
		}
		respond.Detail(w, http.StatusInternalServerError, "failed to load patient")
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		respond.Detail(w, http.StatusInternalServerError, "failed to delete patient")
		return
	}

	if user, ok := auth.UserFromContext(r.Context()); ok {
		h.recorder.Record(r.Context(), user.ID, user.Name, activity.ActionDeleted, "patient", id, "patient "+p.FullName())
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "patient deleted"})
}

func userID(u *auth.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}
