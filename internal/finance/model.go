package finance

import (
	"errors"
	"time"

	"github.com/mdental/practice-platform/internal/ids"
)

var (
	ErrInflowNotFound  = errors.New("finance: inflow not found")
	ErrOutflowNotFound = errors.New("finance: outflow not found")
)

// Inflow categories.
const (
	InflowPatientPayment = "patient_payment"
	InflowDentalService  = "dental_service"
	InflowOther          = "other"
)

// Outflow categories.
const (
	OutflowSupplies  = "supplies"
	OutflowRent      = "rent"
	OutflowSalaries  = "salaries"
	OutflowOperating = "operating"
	OutflowOther     = "other"
)

// Payment methods for inflows.
const (
	MethodCash     = "cash"
	MethodCard     = "card"
	MethodTransfer = "transfer"
)

// DefaultEURToMKD is used until an admin records a rate.
const DefaultEURToMKD = 61.5

// Inflow is a cash receipt, optionally tied to a patient or invoice.
type Inflow struct {
	ID          string    `json:"inflow_id"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	Method      string    `json:"method"`
	PatientID   string    `json:"patient_id,omitempty"`
	InvoiceID   string    `json:"invoice_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
	CreatedBy   string    `json:"created_by,omitempty"`
}

// Outflow is a cash expense.
type Outflow struct {
	ID          string    `json:"outflow_id"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	OccurredAt  time.Time `json:"occurred_at"`
	CreatedBy   string    `json:"created_by,omitempty"`
}

// ExchangeRate is one row of the append-only rate history.
type ExchangeRate struct {
	ID        string    `json:"rate_id"`
	EURToMKD  float64   `json:"eur_to_mkd"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by,omitempty"`
}

type CreateInflowRequest struct {
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Method      string  `json:"method"`
	PatientID   string  `json:"patient_id"`
	InvoiceID   string  `json:"invoice_id"`
}

func (r *CreateInflowRequest) Validate() error {
	if r.Category == "" {
		return errors.New("category is required")
	}
	if r.Amount <= 0 {
		return errors.New("amount must be positive")
	}
	if r.Currency != "" && r.Currency != "MKD" && r.Currency != "EUR" {
		return errors.New("currency must be MKD or EUR")
	}
	return nil
}

type CreateOutflowRequest struct {
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
}

func (r *CreateOutflowRequest) Validate() error {
	if r.Category == "" {
		return errors.New("category is required")
	}
	if r.Amount <= 0 {
		return errors.New("amount must be positive")
	}
	if r.Currency != "" && r.Currency != "MKD" && r.Currency != "EUR" {
		return errors.New("currency must be MKD or EUR")
	}
	return nil
}

type UpdateRateRequest struct {
	EURToMKD float64 `json:"eur_to_mkd"`
}

func (r *UpdateRateRequest) Validate() error {
	if r.EURToMKD <= 0 {
		return errors.New("eur_to_mkd must be positive")
	}
	return nil
}

// NewInflow builds an inflow from a create request, filling defaults.
func NewInflow(req *CreateInflowRequest, createdBy string) *Inflow {
	currency := req.Currency
	if currency == "" {
		currency = "MKD"
	}
	method := req.Method
	if method == "" {
		method = MethodCash
	}
	return &Inflow{
		ID:          ids.New("in"),
		Category:    req.Category,
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    currency,
		Method:      method,
		PatientID:   req.PatientID,
		InvoiceID:   req.InvoiceID,
		OccurredAt:  time.Now().UTC(),
		CreatedBy:   createdBy,
	}
}

// NewOutflow builds an outflow from a create request, filling defaults.
func NewOutflow(req *CreateOutflowRequest, createdBy string) *Outflow {
	currency := req.Currency
	if currency == "" {
		currency = "MKD"
	}
	return &Outflow{
		ID:          ids.New("out"),
		Category:    req.Category,
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    currency,
		OccurredAt:  time.Now().UTC(),
		CreatedBy:   createdBy,
	}
}

// NewExchangeRate builds a rate history row.
func NewExchangeRate(eurToMKD float64, updatedBy string) *ExchangeRate {
	return &ExchangeRate{
		ID:        ids.New("rate"),
		EURToMKD:  eurToMKD,
		UpdatedAt: time.Now().UTC(),
		UpdatedBy: updatedBy,
	}
}

// ListFilter narrows inflow/outflow listings.
type ListFilter struct {
	StartDate string // YYYY-MM-DD, inclusive
	EndDate   string // YYYY-MM-DD, inclusive
	Currency  string
}
