package finance

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
)

func TestDateRange(t *testing.T) {
	where, args := dateRange("WHERE true", nil, ListFilter{})
	if where != "WHERE true" || len(args) != 0 {
		t.Errorf("empty filter: %q %v", where, args)
	}

	where, args = dateRange("WHERE true", nil, ListFilter{StartDate: "2026-08-01", EndDate: "2026-08-31", Currency: "EUR"})
	if !strings.Contains(where, "occurred_at >= $1::date") {
		t.Errorf("missing start bound: %q", where)
	}
	if !strings.Contains(where, "occurred_at < $2::date + interval '1 day'") {
		t.Errorf("end bound should be inclusive of the whole day: %q", where)
	}
	if !strings.Contains(where, "currency = $3") {
		t.Errorf("missing currency filter: %q", where)
	}
	if len(args) != 3 || args[0] != "2026-08-01" || args[1] != "2026-08-31" || args[2] != "EUR" {
		t.Errorf("args = %v", args)
	}

	// Placeholders stay sequential when only the end date is set.
	where, args = dateRange("WHERE true", nil, ListFilter{EndDate: "2026-08-31"})
	if !strings.Contains(where, "$1::date + interval") || len(args) != 1 {
		t.Errorf("end-only filter: %q %v", where, args)
	}
}

func TestListInflows_Filtered(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`FROM inflows WHERE true AND occurred_at >= \$1::date ORDER BY occurred_at DESC`).
		WithArgs("2026-08-01").
		WillReturnRows(pgxmock.NewRows([]string{"id", "category", "description", "amount", "currency",
			"method", "patient_id", "invoice_id", "occurred_at", "created_by"}).
			AddRow("in_1", InflowPatientPayment, "filling", 2500.0, "MKD", MethodCash, "pat_1", "", now, "user_1"))

	repo := NewRepositoryWithDB(mock)
	out, err := repo.ListInflows(context.Background(), ListFilter{StartDate: "2026-08-01"})
	if err != nil {
		t.Fatalf("ListInflows failed: %v", err)
	}
	if len(out) != 1 || out[0].Amount != 2500 {
		t.Errorf("out = %+v", out)
	}
}

func TestUpdateInflow_DefaultsAndNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	// Blank currency and method fall back to MKD cash.
	mock.ExpectExec(`UPDATE inflows SET`).
		WithArgs("in_1", InflowOther, "", 100.0, "MKD", MethodCash, "", "").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE inflows SET`).
		WithArgs("in_ghost", InflowOther, "", 100.0, "MKD", MethodCash, "", "").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewRepositoryWithDB(mock)
	req := &CreateInflowRequest{Category: InflowOther, Amount: 100}
	if err := repo.UpdateInflow(context.Background(), "in_1", req); err != nil {
		t.Fatalf("UpdateInflow failed: %v", err)
	}
	if err := repo.UpdateInflow(context.Background(), "in_ghost", req); !errors.Is(err, ErrInflowNotFound) {
		t.Errorf("err = %v, want ErrInflowNotFound", err)
	}
}

func TestDeleteOutflow_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM outflows WHERE id = \$1`).
		WithArgs("out_ghost").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := NewRepositoryWithDB(mock)
	if err := repo.DeleteOutflow(context.Background(), "out_ghost"); !errors.Is(err, ErrOutflowNotFound) {
		t.Errorf("err = %v, want ErrOutflowNotFound", err)
	}
}

func TestNewInflow_Defaults(t *testing.T) {
	in := NewInflow(&CreateInflowRequest{Category: InflowPatientPayment, Amount: 500}, "user_1")
	if !strings.HasPrefix(in.ID, "in_") {
		t.Errorf("ID = %q", in.ID)
	}
	if in.Currency != "MKD" {
		t.Errorf("Currency = %q, want MKD default", in.Currency)
	}
	if in.Method != MethodCash {
		t.Errorf("Method = %q, want cash default", in.Method)
	}
	if in.OccurredAt.IsZero() {
		t.Error("OccurredAt not set")
	}
}

func TestCreateRequests_Validate(t *testing.T) {
	cases := []struct {
		name    string
		req     CreateInflowRequest
		wantErr bool
	}{
		{"valid", CreateInflowRequest{Category: InflowOther, Amount: 10}, false},
		{"missing category", CreateInflowRequest{Amount: 10}, true},
		{"zero amount", CreateInflowRequest{Category: InflowOther}, true},
		{"negative amount", CreateInflowRequest{Category: InflowOther, Amount: -5}, true},
		{"bad currency", CreateInflowRequest{Category: InflowOther, Amount: 10, Currency: "USD"}, true},
		{"eur ok", CreateInflowRequest{Category: InflowOther, Amount: 10, Currency: "EUR"}, false},
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

	if err := (&UpdateRateRequest{EURToMKD: 0}).Validate(); err == nil {
		t.Error("zero rate should be rejected")
	}
	if err := (&UpdateRateRequest{EURToMKD: 61.5}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
