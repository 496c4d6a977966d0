// Package invoices implements invoicing with server-computed totals.
package invoices

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mdental/practice-platform/internal/ids"
)

// ErrInvoiceNotFound is returned when an invoice lookup misses.
var ErrInvoiceNotFound = errors.New("invoices: not found")

// Invoice statuses.
const (
	StatusDraft     = "draft"
	StatusSent      = "sent"
	StatusPaid      = "paid"
	StatusCancelled = "cancelled"
)

// Supported currencies.
const (
	CurrencyMKD = "MKD"
	CurrencyEUR = "EUR"
)

// DefaultTaxRate is the VAT percentage applied when the request omits one.
const DefaultTaxRate = 18.0

// Item is one invoice line.
type Item struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`
}

// Invoice is a billing document for one patient.
type Invoice struct {
	ID          string    `json:"invoice_id"`
	Number      string    `json:"invoice_number"`
	PatientID   string    `json:"patient_id"`
	PatientName string    `json:"patient_name,omitempty"`
	Items       []Item    `json:"items"`
	Subtotal    float64   `json:"subtotal"`
	TaxRate     float64   `json:"tax_rate"`
	TaxAmount   float64   `json:"tax_amount"`
	Total       float64   `json:"total_amount"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	IssueDate   string    `json:"issue_date"`          // YYYY-MM-DD
	DueDate     string    `json:"due_date,omitempty"`  // YYYY-MM-DD
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   string    `json:"created_by,omitempty"`
}

// CreateInvoiceRequest carries the writable fields. Totals sent by the
// client are ignored; the server recomputes them from the items.
type CreateInvoiceRequest struct {
	Number    string   `json:"invoice_number"`
	PatientID string   `json:"patient_id"`
	Items     []Item   `json:"items"`
	TaxRate   *float64 `json:"tax_rate"` // nil means the default rate
	Currency  string   `json:"currency"`
	Status    string   `json:"status"`
	IssueDate string   `json:"issue_date"`
	DueDate   string   `json:"due_date"`
	Notes     string   `json:"notes"`
}

// Validate enforces patient, currency, status and item sanity.
func (r *CreateInvoiceRequest) Validate() error {
	if strings.TrimSpace(r.PatientID) == "" {
		return errors.New("patient_id is required")
	}
	if r.Currency != "" && r.Currency != CurrencyMKD && r.Currency != CurrencyEUR {
		return errors.New("currency must be MKD or EUR")
	}
	if r.Status != "" && !validStatus(r.Status) {
		return errors.New("status must be draft, sent, paid or cancelled")
	}
	if r.TaxRate != nil && (*r.TaxRate < 0 || *r.TaxRate > 100) {
		return errors.New("tax_rate must be between 0 and 100")
	}
	for i, item := range r.Items {
		if strings.TrimSpace(item.Description) == "" {
			return fmt.Errorf("item %d: description is required", i+1)
		}
		if item.Quantity < 0 || item.UnitPrice < 0 {
			return fmt.Errorf("item %d: quantity and unit_price must not be negative", i+1)
		}
	}
	return nil
}

func validStatus(s string) bool {
	switch s {
	case StatusDraft, StatusSent, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// Round2 rounds a money amount to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeTotals fills every derived amount: per-item totals, subtotal, tax
// and grand total, all rounded to two decimals.
func (inv *Invoice) ComputeTotals() {
	subtotal := 0.0
	for i := range inv.Items {
		inv.Items[i].Total = Round2(inv.Items[i].Quantity * inv.Items[i].UnitPrice)
		subtotal += inv.Items[i].Total
	}
	inv.Subtotal = Round2(subtotal)
	inv.TaxAmount = Round2(inv.Subtotal * inv.TaxRate / 100)
	inv.Total = Round2(inv.Subtotal + inv.TaxAmount)
}

// NewNumber generates an invoice number like INV-202608-3F2A.
func NewNumber(now time.Time) string {
	random := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
	return fmt.Sprintf("INV-%d%02d-%s", now.Year(), int(now.Month()), random)
}

// NewInvoice builds an invoice from a validated request, generating number
// and issue date when absent and computing all totals.
func NewInvoice(req *CreateInvoiceRequest, patientName, createdBy string) *Invoice {
	now := time.Now().UTC()
	number := req.Number
	if number == "" {
		number = NewNumber(now)
	}
	issueDate := req.IssueDate
	if issueDate == "" {
		issueDate = now.Format("2006-01-02")
	}
	currency := req.Currency
	if currency == "" {
		currency = CurrencyMKD
	}
	status := req.Status
	if status == "" {
		status = StatusDraft
	}
	taxRate := DefaultTaxRate
	if req.TaxRate != nil {
		taxRate = *req.TaxRate
	}
	items := req.Items
	if items == nil {
		items = []Item{}
	}

	inv := &Invoice{
		ID:          ids.New("inv"),
		Number:      number,
		PatientID:   req.PatientID,
		PatientName: patientName,
		Items:       items,
		TaxRate:     taxRate,
		Currency:    currency,
		Status:      status,
		IssueDate:   issueDate,
		DueDate:     req.DueDate,
		Notes:       req.Notes,
		CreatedAt:   now,
		CreatedBy:   createdBy,
	}
	inv.ComputeTotals()
	return inv
}
