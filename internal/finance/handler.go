package finance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mdental/practice-platform/internal/activity"
	"github.com/mdental/practice-platform/internal/auth"
	"github.com/mdental/practice-platform/internal/http/respond"
	"github.com/mdental/practice-platform/pkg/logging"
)

// invoiceMarker lets inflow creation settle the linked invoice without
// importing the invoices handler wiring.
type invoiceMarker interface {
	MarkPaid(ctx context.Context, id string) error
}

// Handler serves cash flows, the exchange rate, dashboard stats and the
// monthly report.
type Handler struct {
	repo     *Repository
	stats    *StatsRepository
	rates    *RateService
	invoices invoiceMarker
	recorder activity.Recorder
	logger   *logging.Logger
}

func NewHandler(repo *Repository, stats *StatsRepository, rates *RateService, invoices invoiceMarker, recorder activity.Recorder, logger *logging.Logger) *Handler {
	if recorder == nil {
		recorder = activity.NopRecorder{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, stats: stats, rates: rates, invoices: invoices, recorder: recorder, logger: logger}
}

func listFilter(r *http.Request) ListFilter {
	q := r.URL.Query()
	return ListFilter{
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		Currency:  q.Get("currency"),
	}
}

// GET /api/inflows
func (h *Handler) ListInflows(w http.ResponseWriter, r *http.Request) {
	out, err := h.repo.ListInflows(r.Context(), listFilter(r))
	if err != nil {
		respond.Detail(w, http.StatusInternalServerError, "failed to list inflows")
		return
	}
	respond.JSON(w, http.StatusOK, out)
}

// POST /api/inflows
func (h *Handler) CreateInflow(w http.ResponseWriter, r *http.Request) {
	var req CreateInflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respond.Detail(w, http.StatusBadRequest, err.Error())
		return
	}

	user, _ := auth.UserFromContext(r.Context())
	createdBy := ""
	if user != nil {
		createdBy = user.ID
	}
	in := NewInflow(&req, createdBy)
	if err := h.repo.CreateInflow(r.Context(), in); err != nil {
		respond.Detail(w, http.StatusInternalServerError, "failed to create inflow")
		return
	}

	// A payment against an invoice settles it. Best effort: the inflow is
	// already recorded even if the invoice update fails.
	if in.InvoiceID != "" && h.invoices != nil {
		if err := h.invoices.MarkPaid(r.Context(), in.InvoiceID); err != nil {
			h.logger.Warn("failed to mark invoice paid", "invoice_id", in.InvoiceID, "error", err)
		}
	}

	if user != nil {
		detail := fmt.Sprintf("inflow %.2f %s", in.Amount, in.Currency)
		h.recorder.Record(r.Context(), user.ID, user.Name, activity.ActionCreated, "inflow", in.ID, detail)
	}
	respond.JSON(w, http.StatusCreated, in)
}

// PUT /api/inflows/{id}
func (h *Handler) UpdateInflow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req CreateInflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respond.Detail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.repo.UpdateInflow(r.Context(), id, &req); err != nil {
		if errors.Is(err, ErrInflowNotFound) {
			respond.Detail(w, http.StatusNotFound, "inflow not found")
			return
		}
		respond.Detail(w, http.StatusInternalServerError, "failed to update inflow")
		return
	}
	if user, ok := auth.UserFromContext(r.Context()); ok {
		h.recorder.Record(r.Context(), user.ID, user.Name, activity.ActionUpdated, "inflow", id, "")
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "inflow updated"})
}

// DELETE /api/inflows/{id}
func (h *Handler) DeleteInflow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.repo.DeleteInflow(r.Context(), id); err != nil {
		if errors.Is(err, ErrInflowNotFound) {
			respond.Detail(w, http.StatusNotFound, "inflow not found")
			return
		}
		respond.Detail(w, http.StatusInternalServerError, "failed to delete inflow")
		return
	}
	if user, ok := auth.UserFromContext(r.Context()); ok {
		h.recorder.Record(r.Context(), user.ID, user.Name, activity.ActionDeleted, "inflow", id, "")
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "inflow deleted"})
}

// GET /api/outflows
func (h *Handler) ListOutflows(w http.ResponseWriter, r *http.Request) {
	out, err := h.repo.ListOutflows(r.Context(), listFilter(r))
	if err != nil {
		respond.Detail(w, http.StatusInternalServerError, "failed to list outflows")
		return
	}
	respond.JSON(w, http.StatusOK, out)
}

// POST /api/outflows
func (h *Handler) CreateOutflow(w http.ResponseWriter, r *http.Request) {
	var req CreateOutflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respond.Detail(w, http.StatusBadRequest, err.Error())
		return
	}

	user, _ := auth.UserFromContext(r.Context())
	createdBy := ""
	if user != nil {
		createdBy = user.ID
	}
	o := NewOutflow(&req, createdBy)
	if err := h.repo.CreateOutflow(r.Context(), o); err != nil {
		respond.Detail(w, http.StatusInternalServerError, "failed to create outflow")
		return
	}
	if user != nil {
		detail := fmt.Sprintf("outflow %.2f %s", o.Amount, o.Currency)
		h.recorder.Record(r.Context(), user.ID, user.Name, activity.ActionCreated, "outflow", o.ID, detail)
	}
	respond.JSON(w, http.StatusCreated, o)
}

// PUT /api/outflows/{id}
func (h *Handler) UpdateOutflow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req CreateOutflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respond.Detail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.repo.UpdateOutflow(r.Context(), id, &req); err != nil {
		if errors.Is(err, ErrOutflowNotFound) {
			respond.Detail(w, http.StatusNotFound, "outflow not found")
			return
		}
		respond.Detail(w, http.StatusInternalServerError, "failed to update outflow")
		return
	}
	if user, ok := auth.UserFromContext(r.Context()); ok {
		h.recorder.Record(r.Context(), user.ID, user.Name, activity.ActionUpdated, "outflow", id, "")
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "outflow updated"})
}

// DELETE /api/outflows/{id}
func (h *Handler) DeleteOutflow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.repo.DeleteOutflow(r.Context(), id); err != nil {
		if errors.Is(err, ErrOutflowNotFound) {
			respond.Detail(w, http.StatusNotFound, "outflow not found")
			return
		}
		respond.Detail(w, http.StatusInternalServerError, "failed to delete outflow")
		return
	}
	if user, ok := auth.UserFromContext(r.Context()); ok {
		h.recorder.Record(r.Context(), user.ID, user.Name, activity.ActionDeleted, "outflow", id, "")
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "outflow deleted"})
}

// GET /api/exchange-rate
func (h *Handler) GetExchangeRate(w http.ResponseWriter, r *http.Request) {
	rate, err := h.rates.Current(r.Context())
	if err != nil {
		respond.Detail(w, http.StatusInternalServerError, "failed to load exchange rate")
		return
	}
	respond.JSON(w, http.StatusOK, rate)
}

// PUT /api/exchange-rate
func (h *Handler) UpdateExchangeRate(w http.ResponseWriter, r *http.Request) {
	var req UpdateRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respond.Detail(w, http.StatusBadRequest, err.Error())
		return
	}

	user, _ := auth.UserFromContext(r.Context())
	updatedBy := ""
	if user != nil {
		updatedBy = user.ID
	}
	rate, err := h.rates.Update(r.Context(), req.EURToMKD, updatedBy)
	if err != nil {
		respond.Detail(w, http.StatusInternalServerError, "failed to update exchange rate")
		return
	}
	if user != nil {
		detail := fmt.Sprintf("rate: 1 EUR = %g MKD", rate.EURToMKD)
		h.recorder.Record(r.Context(), user.ID, user.Name, activity.ActionUpdated, "exchange_rate", rate.ID, detail)
	}
	respond.JSON(w, http.StatusOK, rate)
}

// GET /api/dashboard/stats
func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	rate := h.rates.CurrentValue(r.Context())
	stats, err := h.stats.GetDashboardStats(r.Context(), rate, time.Now().UTC())
	if err != nil {
		h.logger.Error("dashboard stats failed", "error", err)
		respond.Detail(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	respond.JSON(w, http.StatusOK, stats)
}

// GET /api/reports/monthly?year=&month=
func (h *Handler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	year := now.Year()
	month := int(now.Month())
	if v := r.URL.Query().Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 2000 || n > 2100 {
			respond.Detail(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = n
	}
	if v := r.URL.Query().Get("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 12 {
			respond.Detail(w, http.StatusBadRequest, "invalid month")
			return
		}
		month = n
	}

	rate := h.rates.CurrentValue(r.Context())
	report, err := h.stats.GetMonthlyReport(r.Context(), year, month, rate)
	if err != nil {
		h.logger.Error("monthly report failed", "error", err)
		respond.Detail(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	respond.JSON(w, http.StatusOK, report)
}
