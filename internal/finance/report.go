package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/mdental/practice-platform/internal/invoices"
)

// DailyFlow is one day of the monthly report series. Only days with at
// least one entry appear.
type DailyFlow struct {
	Date     string  `json:"date"`
	Inflows  float64 `json:"inflows"`
	Outflows float64 `json:"outflows"`
}

// MonthlyReport summarizes one calendar month, all amounts in MKD at the
// current exchange rate.
type MonthlyReport struct {
	Year               int                `json:"year"`
	Month              int                `json:"month"`
	TotalInflowsMKD    float64            `json:"total_inflows_mkd"`
	TotalOutflowsMKD   float64            `json:"total_outflows_mkd"`
	BalanceMKD         float64            `json:"balance_mkd"`
	InflowsByCategory  map[string]float64 `json:"inflows_by_category"`
	OutflowsByCategory map[string]float64 `json:"outflows_by_category"`
	DailyData          []DailyFlow        `json:"daily_data"`
	ExchangeRate       float64            `json:"exchange_rate"`
}

// GetMonthlyReport aggregates one month of flows grouped by category and day.
func (r *StatsRepository) GetMonthlyReport(ctx context.Context, year, month int, rate float64) (*MonthlyReport, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	report := &MonthlyReport{
		Year:               year,
		Month:              month,
		InflowsByCategory:  map[string]float64{},
		OutflowsByCategory: map[string]float64{},
		DailyData:          []DailyFlow{},
		ExchangeRate:       rate,
	}

	inByCat, inTotal, err := r.categoryTotals(ctx, "inflows", rate, start, end)
	if err != nil {
		return nil, err
	}
	outByCat, outTotal, err := r.categoryTotals(ctx, "outflows", rate, start, end)
	if err != nil {
		return nil, err
	}
	report.InflowsByCategory = inByCat
	report.OutflowsByCategory = outByCat
	report.TotalInflowsMKD = invoices.Round2(inTotal)
	report.TotalOutflowsMKD = invoices.Round2(outTotal)
	report.BalanceMKD = invoices.Round2(inTotal - outTotal)

	daily, err := r.dailySeries(ctx, rate, start, end)
	if err != nil {
		return nil, err
	}
	report.DailyData = daily
	return report, nil
}

func (r *StatsRepository) categoryTotals(ctx context.Context, table string, rate float64, start, end time.Time) (map[string]float64, float64, error) {
	query := fmt.Sprintf(`SELECT category, %s FROM %s
		WHERE occurred_at >= $2 AND occurred_at < $3 GROUP BY category`, mkdSum, table)
	rows, err := r.db.Query(ctx, query, rate, start, end)
	if err != nil {
		return nil, 0, fmt.Errorf("finance: %s by category: %w", table, err)
	}
	defer rows.Close()

	byCat := map[string]float64{}
	var total float64
	for rows.Next() {
		var cat string
		var sum float64
		if err := rows.Scan(&cat, &sum); err != nil {
			return nil, 0, fmt.Errorf("finance: scan %s category: %w", table, err)
		}
		byCat[cat] = invoices.Round2(sum)
		total += sum
	}
	return byCat, total, rows.Err()
}

func (r *StatsRepository) dailySeries(ctx context.Context, rate float64, start, end time.Time) ([]DailyFlow, error) {
	query := `SELECT day, ` +
		`COALESCE(SUM(CASE WHEN kind = 'in' THEN amount_mkd END), 0), ` +
		`COALESCE(SUM(CASE WHEN kind = 'out' THEN amount_mkd END), 0) FROM (
			SELECT to_char(occurred_at, 'YYYY-MM-DD') AS day, 'in' AS kind,
				CASE WHEN currency = 'EUR' THEN amount * $1 ELSE amount END AS amount_mkd
			FROM inflows WHERE occurred_at >= $2 AND occurred_at < $3
			UNION ALL
			SELECT to_char(occurred_at, 'YYYY-MM-DD'), 'out',
				CASE WHEN currency = 'EUR' THEN amount * $1 ELSE amount END
			FROM outflows WHERE occurred_at >= $2 AND occurred_at < $3
		) flows GROUP BY day ORDER BY day`
	rows, err := r.db.Query(ctx, query, rate, start, end)
	if err != nil {
		return nil, fmt.Errorf("finance: daily series: %w", err)
	}
	defer rows.Close()

	out := []DailyFlow{}
	for rows.Next() {
		var d DailyFlow
		if err := rows.Scan(&d.Date, &d.Inflows, &d.Outflows); err != nil {
			return nil, fmt.Errorf("finance: scan day: %w", err)
		}
		d.Inflows = invoices.Round2(d.Inflows)
		d.Outflows = invoices.Round2(d.Outflows)
		out = append(out, d)
	}
	return out, rows.Err()
}
