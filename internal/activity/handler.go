package activity

import (
	"net/http"
	"strconv"

	"github.com/mdental/practice-platform/internal/http/respond"
)

// Handler serves the admin activity log view.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GET /api/activity-logs?limit=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := h.service.List(r.Context(), limit)
	if err != nil {
		respond.Detail(w, http.StatusInternalServerError, "failed to list activity")
		return
	}

	respond.JSON(w, http.StatusOK, entries)
}
