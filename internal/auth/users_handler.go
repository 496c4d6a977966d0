package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mdental/practice-platform/internal/activity"
	"github.com/mdental/practice-platform/internal/http/respond"
)

// UsersHandler serves the admin-only user management endpoints.
type UsersHandler struct {
	users    UserRepository
	service  *Service
	recorder activity.Recorder
}

func NewUsersHandler(users UserRepository, service *Service, recorder activity.Recorder) *UsersHandler {
	if recorder == nil {
		recorder = activity.NopRecorder{}
	}
	return &UsersHandler{users: users, service: service, recorder: recorder}
}

// GET /api/users
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		respond.Detail(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	respond.JSON(w, http.StatusOK, users)
}

// PUT /api/users/{id}/role?role={admin|staff|pending}
func (h *UsersHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	role, err := ParseRole(r.URL.Query().Get("role"))
	if err != nil {
		respond.Detail(w, http.StatusBadRequest, "invalid role")
		return
	}

	target, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		respond.Detail(w, http.StatusNotFound, "user not found")
		return
	}
	if target.Role == role {
		respond.JSON(w, http.StatusOK, target)
		return
	}

	if err := h.users.UpdateRole(r.Context(), id, role); err != nil {
		respond.Detail(w, http.StatusInternalServerError, "failed to update role")
		return
	}
	target.Role = role

	// Demoting to pending cuts off any live session immediately.
	if !role.CanAccess() {
		h.service.RevokeUserSessions(r.Context(), id)
	}

	if admin, ok := UserFromContext(r.Context()); ok {
		h.recorder.Record(r.Context(), admin.ID, admin.Name, activity.ActionRoleChanged, "user", id,
			fmt.Sprintf("role changed to %s", role))
	}
	respond.JSON(w, http.StatusOK, target)
}

// DELETE /api/users/{id}
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	admin, ok := UserFromContext(r.Context())
	if ok && admin.ID == id {
		respond.Detail(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			respond.Detail(w, http.StatusNotFound, "user not found")
			return
		}
		respond.Detail(w, http.StatusInternalServerError, "failed to delete user")
		return
	}
	h.service.RevokeUserSessions(r.Context(), id)

	if ok {
		h.recorder.Record(r.Context(), admin.ID, admin.Name, activity.ActionDeleted, "user", id, "")
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}
