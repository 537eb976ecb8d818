package insights

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsight/docsight/internal/repository"
)

func seededService(t *testing.T) *Service {
	t.Helper()
	db, err := repository.Open(":memory:", 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`INSERT INTO documents (filename, file_path, document_type, created_at, updated_at)
		VALUES ('a.pdf', '/a.pdf', 'invoice', '2024-01-01T00:00:00Z', '2024-01-01T00:00:00Z')`)
	require.NoError(t, err)

	seed := func(date string, amount float64, vendor, category string) {
		_, err := db.Exec(`INSERT INTO transactions (document_id, date, amount, vendor, category, created_at)
			VALUES (1, ?, ?, ?, ?, ?)`, date, amount, vendor, category, date)
		require.NoError(t, err)
	}
	seed("2024-01-10T00:00:00Z", 100, "Acme Corp", "Invoice Line Item")
	seed("2024-01-20T00:00:00Z", 50, "Acme Corp", "Invoice Line Item")
	seed("2024-02-05T00:00:00Z", 200, "Globex", "Banking")
	seed("2024-02-15T00:00:00Z", 25, "Initech", "")

	return NewService(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestTopVendors(t *testing.T) {
	s := seededService(t)
	stats, err := s.TopVendors(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, stats, 3)
	assert.Equal(t, "Globex", stats[0].Vendor)
	assert.InDelta(t, 200, stats[0].TotalSpend, 0.001)
	assert.Equal(t, "Acme Corp", stats[1].Vendor)
	assert.InDelta(t, 150, stats[1].TotalSpend, 0.001)
	assert.Equal(t, 2, stats[1].TransactionCount)
	assert.InDelta(t, 75, stats[1].AvgAmount, 0.001)
}

func TestCategoryBreakdown(t *testing.T) {
	s := seededService(t)
	stats, err := s.CategoryBreakdown(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 3)

	byName := make(map[string]CategoryStat)
	var pctSum float64
	for _, c := range stats {
		byName[c.Category] = c
		pctSum += c.Percentage
	}
	assert.InDelta(t, 100, pctSum, 0.001)
	assert.InDelta(t, 25, byName["Uncategorized"].TotalSpend, 0.001)
	assert.InDelta(t, 150, byName["Invoice Line Item"].TotalSpend, 0.001)
}

func TestMonthlySpend(t *testing.T) {
	s := seededService(t)
	stat, err := s.MonthlySpend(context.Background(), 2024, 1)
	require.NoError(t, err)
	assert.InDelta(t, 150, stat.TotalSpend, 0.001)
	assert.Equal(t, 2, stat.TransactionCount)

	empty, err := s.MonthlySpend(context.Background(), 2023, 6)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalSpend)
	assert.Zero(t, empty.TransactionCount)

	_, err = s.MonthlySpend(context.Background(), 2024, 13)
	assert.Error(t, err)
}

func TestTimeSeriesOldestFirst(t *testing.T) {
	s := seededService(t)
	series, err := s.TimeSeries(context.Background(), 12)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, 1, series[0].Month)
	assert.Equal(t, 2, series[1].Month)
	assert.InDelta(t, 225, series[1].TotalSpend, 0.001)
}

func TestSpendingForecast_NeverNegative(t *testing.T) {
	db, err := repository.Open(":memory:", 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`INSERT INTO documents (filename, file_path, document_type, created_at, updated_at)
		VALUES ('a.pdf', '/a.pdf', 'invoice', '2024-01-01T00:00:00Z', '2024-01-01T00:00:00Z')`)
	require.NoError(t, err)
	seed := func(date string, amount float64) {
		_, err := db.Exec(`INSERT INTO transactions (document_id, date, amount, vendor, category, created_at)
			VALUES (1, ?, ?, 'v', 'c', ?)`, date, amount, date)
		require.NoError(t, err)
	}
	// steep drop between the two months
	seed("2024-01-10T00:00:00Z", 1000)
	seed("2024-02-10T00:00:00Z", 10)

	s := NewService(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	f, err := s.SpendingForecast(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, "down", f.Trend)
	assert.GreaterOrEqual(t, f.NextMonthSpend, 0.0)
}

func TestSpendingForecast_Upward(t *testing.T) {
	s := seededService(t)
	f, err := s.SpendingForecast(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, "up", f.Trend)
	assert.Greater(t, f.NextMonthSpend, 0.0)
}
