package invoices

import (
	"strings"
	"testing"
	"time"
)

func TestComputeTotals(t *testing.T) {
	inv := &Invoice{
		TaxRate: 18,
		Items: []Item{
			{Description: "Cleaning", Quantity: 1, UnitPrice: 1500},
			{Description: "Filling", Quantity: 2, UnitPrice: 2200.505},
		},
	}
	inv.ComputeTotals()

	if inv.Items[1].Total != 4401.01 {
		t.Errorf("item total = %v, want 4401.01", inv.Items[1].Total)
	}
	if inv.Subtotal != 5901.01 {
		t.Errorf("subtotal = %v, want 5901.01", inv.Subtotal)
	}
	if inv.TaxAmount != 1062.18 {
		t.Errorf("tax = %v, want 1062.18", inv.TaxAmount)
	}
	if inv.Total != 6963.19 {
		t.Errorf("total = %v, want 6963.19", inv.Total)
	}
}

func TestComputeTotals_NoItems(t *testing.T) {
	inv := &Invoice{TaxRate: 18, Items: []Item{}}
	inv.ComputeTotals()
	if inv.Subtotal != 0 || inv.TaxAmount != 0 || inv.Total != 0 {
		t.Errorf("empty invoice totals = %v/%v/%v, want zeros", inv.Subtotal, inv.TaxAmount, inv.Total)
	}
}

func TestNewInvoice_Defaults(t *testing.T) {
	inv := NewInvoice(&CreateInvoiceRequest{
		PatientID: "pat_1",
		Items:     []Item{{Description: "Checkup", Quantity: 1, UnitPrice: 1000}},
	}, "Ana Petrov", "user_1")

	if !strings.HasPrefix(inv.ID, "inv_") {
		t.Errorf("ID = %q", inv.ID)
	}
	if !strings.HasPrefix(inv.Number, "INV-") {
		t.Errorf("Number = %q", inv.Number)
	}
	if inv.Currency != CurrencyMKD {
		t.Errorf("Currency = %q, want MKD default", inv.Currency)
	}
	if inv.Status != StatusDraft {
		t.Errorf("Status = %q, want draft default", inv.Status)
	}
	if inv.TaxRate != DefaultTaxRate {
		t.Errorf("TaxRate = %v, want %v", inv.TaxRate, DefaultTaxRate)
	}
	if inv.IssueDate != time.Now().UTC().Format("2006-01-02") {
		t.Errorf("IssueDate = %q", inv.IssueDate)
	}
	if inv.Total != 1180 {
		t.Errorf("Total = %v, want 1180 with 18%% VAT", inv.Total)
	}
}

func TestNewInvoice_ExplicitZeroTaxRate(t *testing.T) {
	zero := 0.0
	inv := NewInvoice(&CreateInvoiceRequest{
		PatientID: "pat_1",
		TaxRate:   &zero,
		Items:     []Item{{Description: "Checkup", Quantity: 1, UnitPrice: 1000}},
	}, "", "")

	if inv.TaxRate != 0 {
		t.Errorf("TaxRate = %v, want 0 when set explicitly", inv.TaxRate)
	}
	if inv.Total != 1000 {
		t.Errorf("Total = %v, want 1000", inv.Total)
	}
}

func TestNewNumber(t *testing.T) {
	n := NewNumber(time.Date(2026, time.August, 30, 12, 0, 0, 0, time.UTC))
	if !strings.HasPrefix(n, "INV-202608-") {
		t.Errorf("number = %q, want INV-202608- prefix", n)
	}
	if len(n) != len("INV-202608-XXXX") {
		t.Errorf("number length = %d: %q", len(n), n)
	}
}

func TestValidate_InvoiceRequest(t *testing.T) {
	rate := 150.0
	cases := []struct {
		name    string
		req     CreateInvoiceRequest
		wantErr bool
	}{
		{"valid", CreateInvoiceRequest{PatientID: "pat_1", Items: []Item{{Description: "x", Quantity: 1, UnitPrice: 10}}}, false},
		{"missing patient", CreateInvoiceRequest{}, true},
		{"bad currency", CreateInvoiceRequest{PatientID: "pat_1", Currency: "USD"}, true},
		{"bad status", CreateInvoiceRequest{PatientID: "pat_1", Status: "open"}, true},
		{"tax rate out of range", CreateInvoiceRequest{PatientID: "pat_1", TaxRate: &rate}, true},
		{"item without description", CreateInvoiceRequest{PatientID: "pat_1", Items: []Item{{Quantity: 1, UnitPrice: 10}}}, true},
		{"negative quantity", CreateInvoiceRequest{PatientID: "pat_1", Items: []Item{{Description: "x", Quantity: -1, UnitPrice: 10}}}, true},
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

func TestRound2(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{1.005, 1.0}, // float64 stores 1.005 slightly below the midpoint
		{1.015, 1.01},
		{2.675, 2.67},
		{12.3456, 12.35},
		{0, 0},
	}
	for _, tc := range cases {
		if got := Round2(tc.in); got != tc.want {
			t.Errorf("Round2(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
