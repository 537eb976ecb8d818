package insights

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/docsight/docsight/internal/common"
)

// VendorStat aggregates spend for one vendor.
type VendorStat struct {
	Vendor           string  `json:"vendor"`
	TotalSpend       float64 `json:"total_spend"`
	TransactionCount int     `json:"transaction_count"`
	AvgAmount        float64 `json:"avg_amount"`
}

// CategoryStat aggregates spend for one category.
type CategoryStat struct {
	Category         string  `json:"category"`
	TotalSpend       float64 `json:"total_spend"`
	TransactionCount int     `json:"transaction_count"`
	Percentage       float64 `json:"percentage"`
}

// MonthlyStat aggregates spend for one calendar month.
type MonthlyStat struct {
	Year             int     `json:"year"`
	Month            int     `json:"month"`
	TotalSpend       float64 `json:"total_spend"`
	TransactionCount int     `json:"transaction_count"`
}

// Forecast is a naive projection of next-month spend from recent months.
type Forecast struct {
	Months         []MonthlyStat `json:"months"`
	NextMonthSpend float64       `json:"next_month_spend"`
	Trend          string        `json:"trend"` // "up" | "down" | "flat"
}

// Service computes deterministic spending metrics from the transactions table.
type Service struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewService(db *sql.DB, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, logger: logger}
}

// TopVendors returns the highest-spend vendors, descending.
func (s *Service) TopVendors(ctx context.Context, limit int) ([]VendorStat, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT vendor, SUM(amount), COUNT(*), AVG(amount)
		FROM transactions
		GROUP BY vendor
		ORDER BY SUM(amount) DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, common.NewAppError("INSIGHTS_VENDORS", "vendor aggregation failed", err)
	}
	defer rows.Close()

	var out []VendorStat
	for rows.Next() {
		var v VendorStat
		if err := rows.Scan(&v.Vendor, &v.TotalSpend, &v.TransactionCount, &v.AvgAmount); err != nil {
			return nil, common.NewAppError("INSIGHTS_VENDORS", "failed to scan vendor row", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// CategoryBreakdown returns spend per category with each category's share of
// the overall total. Uncategorized rows are bucketed explicitly.
func (s *Service) CategoryBreakdown(ctx context.Context) ([]CategoryStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(NULLIF(category, ''), 'Uncategorized'), SUM(amount), COUNT(*)
		FROM transactions
		GROUP BY COALESCE(NULLIF(category, ''), 'Uncategorized')
		ORDER BY SUM(amount) DESC`)
	if err != nil {
		return nil, common.NewAppError("INSIGHTS_CATEGORIES", "category aggregation failed", err)
	}
	defer rows.Close()

	var out []CategoryStat
	var grand float64
	for rows.Next() {
		var c CategoryStat
		if err := rows.Scan(&c.Category, &c.TotalSpend, &c.TransactionCount); err != nil {
			return nil, common.NewAppError("INSIGHTS_CATEGORIES", "failed to scan category row", err)
		}
		grand += c.TotalSpend
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if grand > 0 {
		for i := range out {
			out[i].Percentage = out[i].TotalSpend / grand * 100
		}
	}
	return out, nil
}

// MonthlySpend returns spend for one calendar month. Dates are stored as
// RFC 3339 text, so the month is matched on the string prefix.
func (s *Service) MonthlySpend(ctx context.Context, year, month int) (MonthlyStat, error) {
	if month < 1 || month > 12 {
		return MonthlyStat{}, common.NewAppError("INSIGHTS_MONTH", "month out of range", common.ErrInvalidInput)
	}
	prefix := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
	var stat MonthlyStat
	stat.Year, stat.Month = year, month
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0), COUNT(*)
		FROM transactions
		WHERE date LIKE ? || '%'`, prefix).Scan(&stat.TotalSpend, &stat.TransactionCount)
	if err != nil {
		return MonthlyStat{}, common.NewAppError("INSIGHTS_MONTH", "monthly aggregation failed", err)
	}
	return stat, nil
}

// TimeSeries returns per-month spend over the trailing window, oldest first.
func (s *Service) TimeSeries(ctx context.Context, months int) ([]MonthlyStat, error) {
	if months <= 0 {
		months = 12
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT substr(date, 1, 4), substr(date, 6, 2), SUM(amount), COUNT(*)
		FROM transactions
		GROUP BY substr(date, 1, 7)
		ORDER BY substr(date, 1, 7) DESC
		LIMIT ?`, months)
	if err != nil {
		return nil, common.NewAppError("INSIGHTS_SERIES", "time series aggregation failed", err)
	}
	defer rows.Close()

	var out []MonthlyStat
	for rows.Next() {
		var m MonthlyStat
		var year, month string
		if err := rows.Scan(&year, &month, &m.TotalSpend, &m.TransactionCount); err != nil {
			return nil, common.NewAppError("INSIGHTS_SERIES", "failed to scan series row", err)
		}
		m.Year = atoi(year)
		m.Month = atoi(month)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// reverse to oldest-first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// SpendingForecast projects next month as the mean of the trailing window,
// nudged by the most recent month-over-month delta. Never negative.
func (s *Service) SpendingForecast(ctx context.Context, months int) (Forecast, error) {
	series, err := s.TimeSeries(ctx, months)
	if err != nil {
		return Forecast{}, err
	}
	f := Forecast{Months: series, Trend: "flat"}
	if len(series) == 0 {
		return f, nil
	}

	var sum float64
	for _, m := range series {
		sum += m.TotalSpend
	}
	mean := sum / float64(len(series))

	projection := mean
	if n := len(series); n >= 2 {
		delta := series[n-1].TotalSpend - series[n-2].TotalSpend
		projection = mean + delta/2
		switch {
		case delta > 0:
			f.Trend = "up"
		case delta < 0:
			f.Trend = "down"
		}
	}
	if projection < 0 {
		projection = 0
	}
	f.NextMonthSpend = projection
	return f, nil
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
