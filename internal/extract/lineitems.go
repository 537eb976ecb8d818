package extract

import (
	"regexp"
	"strings"
)

const (
	maxLineItems      = 200
	minLineItemAmount = 1.0
	maxLineItemAmount = 100_000.0
)

var (
	reItemsSection = regexp.MustCompile(`(?is)items(.*?)(?:summary|total|gross)`)
	reNetPriceLine = regexp.MustCompile(`(?i)net\s+price`)
	reEuroAmount   = regexp.MustCompile(`(\d+(?:\s+\d+)*,\d{2})`)
	reItemRow      = regexp.MustCompile(`^(\d+)[.:)]\s*(.+)`)
	reTrailingAmt  = regexp.MustCompile(`\s+\d+[.,]\d{2}\s*$`)
	reQuantity     = regexp.MustCompile(`(?i)\b(?:qty|quantity)[:\s]+(\d+(?:[.,]\d+)?)`)
)

// ExtractLineItems reconstructs an invoice's items table from flattened OCR
// text. Descriptions come from numbered rows inside the ITEMS span; without
// that span there is no items table and nothing is extracted. Prices come
// from a per-item amount column scanned over the whole document, and the two
// are paired by position. The pairing assumes both scans walked the table in
// the same order; when the counts disagree the shorter list bounds the
// result.
func ExtractLineItems(text string) []LineItem {
	m := reItemsSection.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	descriptions := scanDescriptions(m[1])
	if len(descriptions) == 0 {
		return nil
	}

	prices := scanNetPrices(text)
	if len(prices) == 0 {
		prices = fallbackPrices(text, len(descriptions))
	}

	n := len(descriptions)
	if len(prices) < n {
		n = len(prices)
	}
	items := make([]LineItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, LineItem{
			ItemNumber:  descriptions[i].number,
			Description: descriptions[i].text,
			Amount:      prices[i],
			Quantity:    descriptions[i].quantity,
		})
	}
	return items
}

type itemRow struct {
	number   string
	text     string
	quantity *float64
}

// scanDescriptions collects numbered rows ("1. Widget assembly 120,00"),
// stripping a trailing inline amount from the description text.
func scanDescriptions(section string) []itemRow {
	var rows []itemRow
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		m := reItemRow.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		desc := strings.TrimSpace(reTrailingAmt.ReplaceAllString(m[2], ""))
		if desc == "" {
			continue
		}
		var qty *float64
		if qm := reQuantity.FindStringSubmatch(line); qm != nil {
			if v, ok := normalizeAmount(qm[1]); ok {
				qty = &v
			}
		}
		rows = append(rows, itemRow{number: m[1], text: desc, quantity: qty})
		if len(rows) >= maxLineItems {
			break
		}
	}
	return rows
}

// scanNetPrices reads the per-item price column: amounts in European comma
// format on the lines following a "Net price" header, anywhere in the
// document.
func scanNetPrices(text string) []float64 {
	lines := strings.Split(text, "\n")
	start := -1
	for i, line := range lines {
		if reNetPriceLine.MatchString(line) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil
	}

	var prices []float64
	for _, line := range lines[start:] {
		for _, m := range reEuroAmount.FindAllStringSubmatch(line, -1) {
			v, ok := normalizeAmount(m[1])
			if !ok || v < minLineItemAmount || v > maxLineItemAmount {
				continue
			}
			prices = append(prices, v)
		}
	}
	return prices
}

// fallbackPrices pairs descriptions against the document's general amount
// pool when no price column was found, keeping only per-item-plausible values.
func fallbackPrices(text string, want int) []float64 {
	var prices []float64
	for _, a := range ExtractAmounts(text) {
		if a < minLineItemAmount || a > maxLineItemAmount {
			continue
		}
		prices = append(prices, a)
		if len(prices) >= want {
			break
		}
	}
	return prices
}
