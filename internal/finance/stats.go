package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mdental/practice-platform/internal/invoices"
)

// DashboardStats aggregates clinic cash flow for the dashboard cards.
// All MKD figures convert EUR entries at the current exchange rate.
type DashboardStats struct {
	TotalInflowsMKD  float64 `json:"total_inflows_mkd"`
	TotalInflowsEUR  float64 `json:"total_inflows_eur"`
	TotalOutflowsMKD float64 `json:"total_outflows_mkd"`
	TotalOutflowsEUR float64 `json:"total_outflows_eur"`
	BalanceMKD       float64 `json:"balance_mkd"`
	BalanceEUR       float64 `json:"balance_eur"`
	TodayInflowsMKD  float64 `json:"today_inflows_mkd"`
	TodayOutflowsMKD float64 `json:"today_outflows_mkd"`
	MonthInflowsMKD  float64 `json:"month_inflows_mkd"`
	MonthOutflowsMKD float64 `json:"month_outflows_mkd"`
	PatientsCount    int64   `json:"patients_count"`
	InvoicesPending  int64   `json:"invoices_pending"`
	ExchangeRate     float64 `json:"exchange_rate"`
}

// StatsRepository aggregates flows straight in SQL.
type StatsRepository struct {
	db financeDB
}

// NewStatsRepository creates a stats repository backed by pgxpool.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	if pool == nil {
		panic("finance: pgx pool required for stats")
	}
	return &StatsRepository{db: pool}
}

// NewStatsRepositoryWithDB allows injecting a mock database for testing.
func NewStatsRepositoryWithDB(db financeDB) *StatsRepository {
	return &StatsRepository{db: db}
}

// mkdSum converts EUR rows at the given rate and sums in MKD.
const mkdSum = `COALESCE(SUM(CASE WHEN currency = 'EUR' THEN amount * $1 ELSE amount END), 0)`

// flowTotals returns all-time, today and current-month MKD totals for one
// flow table in a single scan.
func (r *StatsRepository) flowTotals(ctx context.Context, table string, rate float64, now time.Time) (total, today, month float64, err error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	query := fmt.Sprintf(`SELECT %s,
		%s FILTER (WHERE occurred_at >= $2 AND occurred_at < $3),
		%s FILTER (WHERE occurred_at >= $4)
		FROM %s`, mkdSum, mkdSum, mkdSum, table)
	err = r.db.QueryRow(ctx, query, rate, dayStart, dayStart.AddDate(0, 0, 1), monthStart).
		Scan(&total, &today, &month)
	if err != nil {
		err = fmt.Errorf("finance: %s totals: %w", table, err)
	}
	return total, today, month, err
}

// GetDashboardStats computes the dashboard aggregate at the given rate.
func (r *StatsRepository) GetDashboardStats(ctx context.Context, rate float64, now time.Time) (*DashboardStats, error) {
	s := &DashboardStats{ExchangeRate: rate}

	inTotal, inToday, inMonth, err := r.flowTotals(ctx, "inflows", rate, now)
	if err != nil {
		return nil, err
	}
	outTotal, outToday, outMonth, err := r.flowTotals(ctx, "outflows", rate, now)
	if err != nil {
		return nil, err
	}

	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&s.PatientsCount); err != nil {
		return nil, fmt.Errorf("finance: count patients: %w", err)
	}
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM invoices WHERE status IN ('draft', 'sent')`).Scan(&s.InvoicesPending); err != nil {
		return nil, fmt.Errorf("finance: count pending invoices: %w", err)
	}

	balance := inTotal - outTotal
	s.TotalInflowsMKD = invoices.Round2(inTotal)
	s.TotalInflowsEUR = invoices.Round2(inTotal / rate)
	s.TotalOutflowsMKD = invoices.Round2(outTotal)
	s.TotalOutflowsEUR = invoices.Round2(outTotal / rate)
	s.BalanceMKD = invoices.Round2(balance)
	s.BalanceEUR = invoices.Round2(balance / rate)
	s.TodayInflowsMKD = invoices.Round2(inToday)
	s.TodayOutflowsMKD = invoices.Round2(outToday)
	s.MonthInflowsMKD = invoices.Round2(inMonth)
	s.MonthOutflowsMKD = invoices.Round2(outMonth)
	return s, nil
}
