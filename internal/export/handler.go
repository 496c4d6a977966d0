package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/mdental/practice-platform/internal/finance"
	"github.com/mdental/practice-platform/internal/http/respond"
	"github.com/mdental/practice-platform/internal/invoices"
	"github.com/mdental/practice-platform/internal/patients"
	"github.com/mdental/practice-platform/pkg/logging"
)

type patientLister interface {
	List(ctx context.Context) ([]patients.Patient, error)
}

type invoiceLister interface {
	List(ctx context.Context, patientID string) ([]invoices.Invoice, error)
}

type flowLister interface {
	ListInflows(ctx context.Context, f finance.ListFilter) ([]finance.Inflow, error)
	ListOutflows(ctx context.Context, f finance.ListFilter) ([]finance.Outflow, error)
}

// Handler streams collections as CSV attachments.
type Handler struct {
	patients patientLister
	invoices invoiceLister
	flows    flowLister
	logger   *logging.Logger
}

func NewHandler(patients patientLister, invoices invoiceLister, flows flowLister, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{patients: patients, invoices: invoices, flows: flows, logger: logger}
}

// CSV handles GET /api/export/csv?type=patients|invoices|inflows|outflows.
// Date filters (start_date, end_date) apply to the flow types.
func (h *Handler) CSV(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("type")
	if kind == "" {
		kind = "inflows"
	}

	var rows [][]string
	var err error
	switch kind {
	case "patients":
		rows, err = h.patientRows(r.Context())
	case "invoices":
		rows, err = h.invoiceRows(r.Context())
	case "inflows":
		rows, err = h.inflowRows(r.Context(), flowFilter(r))
	case "outflows":
		rows, err = h.outflowRows(r.Context(), flowFilter(r))
	default:
		respond.Detail(w, http.StatusBadRequest, "unknown export type")
		return
	}
	if err != nil {
		h.logger.Error("export failed", "type", kind, "error", err)
		respond.Detail(w, http.StatusInternalServerError, "export failed")
		return
	}

	filename := fmt.Sprintf("%s-%s.csv", kind, time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	cw := csv.NewWriter(w)
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			h.logger.Error("csv write failed", "error", err)
			return
		}
	}
	cw.Flush()
}

func flowFilter(r *http.Request) finance.ListFilter {
	q := r.URL.Query()
	return finance.ListFilter{StartDate: q.Get("start_date"), EndDate: q.Get("end_date")}
}

func (h *Handler) patientRows(ctx context.Context) ([][]string, error) {
	list, err := h.patients.List(ctx)
	if err != nil {
		return nil, err
	}
	rows := [][]string{{"ID", "First Name", "Last Name", "Phone", "Email", "Address", "Created At"}}
	for _, p := range list {
		rows = append(rows, []string{
			p.ID, p.FirstName, p.LastName, p.Phone, p.Email, p.Address,
			p.CreatedAt.Format(time.RFC3339),
		})
	}
	return rows, nil
}

func (h *Handler) invoiceRows(ctx context.Context) ([][]string, error) {
	list, err := h.invoices.List(ctx, "")
	if err != nil {
		return nil, err
	}
	rows := [][]string{{"ID", "Number", "Patient", "Subtotal", "Tax", "Total", "Currency", "Status", "Issue Date"}}
	for _, inv := range list {
		rows = append(rows, []string{
			inv.ID, inv.Number, inv.PatientName,
			money(inv.Subtotal), money(inv.TaxAmount), money(inv.Total),
			inv.Currency, inv.Status, inv.IssueDate,
		})
	}
	return rows, nil
}

func (h *Handler) inflowRows(ctx context.Context, f finance.ListFilter) ([][]string, error) {
	list, err := h.flows.ListInflows(ctx, f)
	if err != nil {
		return nil, err
	}
	rows := [][]string{{"ID", "Category", "Description", "Amount", "Currency", "Method", "Date"}}
	for _, in := range list {
		rows = append(rows, []string{
			in.ID, in.Category, in.Description, money(in.Amount), in.Currency,
			in.Method, in.OccurredAt.Format(time.RFC3339),
		})
	}
	return rows, nil
}

func (h *Handler) outflowRows(ctx context.Context, f finance.ListFilter) ([][]string, error) {
	list, err := h.flows.ListOutflows(ctx, f)
	if err != nil {
		return nil, err
	}
	rows := [][]string{{"ID", "Category", "Description", "Amount", "Currency", "Date"}}
	for _, o := range list {
		rows = append(rows, []string{
			o.ID, o.Category, o.Description, money(o.Amount), o.Currency,
			o.OccurredAt.Format(time.RFC3339),
		})
	}
	return rows, nil
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
