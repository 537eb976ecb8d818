package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/docsight/docsight/internal/insights"
	"github.com/docsight/docsight/internal/rag"
)

const maxRawResultLen = 500

// formatVendorStats renders a deterministic markdown answer for the vendor
// fast path.
func formatVendorStats(stats []insights.VendorStat) string {
	if len(stats) == 0 {
		return "No vendor data available yet. Ingest some documents first."
	}
	var b strings.Builder
	b.WriteString("Top vendors by spend:\n")
	for i, v := range stats {
		fmt.Fprintf(&b, "%d. **%s** — $%.2f across %d transactions (avg $%.2f)\n",
			i+1, v.Vendor, v.TotalSpend, v.TransactionCount, v.AvgAmount)
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatCategoryStats renders the category breakdown with percentage shares.
func formatCategoryStats(stats []insights.CategoryStat) string {
	if len(stats) == 0 {
		return "No category data available yet. Ingest some documents first."
	}
	var b strings.Builder
	b.WriteString("Spending by category:\n")
	for _, c := range stats {
		fmt.Fprintf(&b, "- **%s**: $%.2f (%.1f%%, %d transactions)\n",
			c.Category, c.TotalSpend, c.Percentage, c.TransactionCount)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatMonthlyStat(m insights.MonthlyStat) string {
	return fmt.Sprintf("Spend for %04d-%02d: $%.2f across %d transactions.",
		m.Year, m.Month, m.TotalSpend, m.TransactionCount)
}

func formatForecast(f insights.Forecast) string {
	if len(f.Months) == 0 {
		return "Not enough history to forecast spending."
	}
	return fmt.Sprintf("Projected next-month spend: $%.2f (trend: %s, based on %d months).",
		f.NextMonthSpend, f.Trend, len(f.Months))
}

// formatRows renders query results as a fenced JSON block, truncated so an
// answer never balloons past readability.
func formatRows(rows []map[string]any) string {
	if len(rows) == 0 {
		return "The query returned no rows."
	}
	raw, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Sprintf("Query returned %d rows (unrenderable: %v).", len(rows), err)
	}
	body := string(raw)
	if len(body) > maxRawResultLen {
		body = body[:maxRawResultLen] + "\n... (truncated)"
	}
	return "```json\n" + body + "\n```"
}

func formatSearchResults(results []rag.SearchResult) string {
	if len(results) == 0 {
		return "No matching documents found."
	}
	var b strings.Builder
	b.WriteString("Relevant documents:\n")
	for _, r := range results {
		fmt.Fprintf(&b, "- **%s** (%s, score %.2f): %s\n",
			r.Filename, r.DocumentType, r.Score, r.Snippet)
	}
	return strings.TrimRight(b.String(), "\n")
}
