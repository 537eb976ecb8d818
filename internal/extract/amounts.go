package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Plausible currency range; anything outside is treated as OCR noise.
const (
	minAmount = 0.01
	maxAmount = 1_000_000
)

// Layered extraction patterns in priority order: label-anchored first,
// then dollar-prefixed, then European space/comma grouping, then bare decimals.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)gross\s+worth[:\s]+\$?\s*([\d\s,.]+[.,]\d{2})`),
	regexp.MustCompile(`(?i)net\s+worth[:\s]+\$?\s*([\d\s,.]+[.,]\d{2})`),
	regexp.MustCompile(`(?i)total[:\s]+\$?\s*([\d\s,.]+[.,]\d{2})`),
	regexp.MustCompile(`(?i)amount[:\s]+\$?\s*([\d\s,.]+[.,]\d{2})`),
	regexp.MustCompile(`\$\s*[\d\s,]+\.\d{2}`),
	regexp.MustCompile(`\$[\d,]+\.\d{2}`),
	regexp.MustCompile(`\d{1,3}(?:\.\d{3})+,\d{2}`),
	regexp.MustCompile(`[\d\s]+,\d{2}`),
	regexp.MustCompile(`[\d\s,]+\.\d{2}`),
	regexp.MustCompile(`\d{3,}\.\d{2}`),
}

var reAmountNoise = regexp.MustCompile(`[^\d\s,.]`)

// normalizeAmount converts a raw matched token to a canonical decimal.
// Rules, checked in order:
//   - both '.' and ',' present: the separator appearing last is the decimal
//     point, the other is a grouping separator ("14.367,76" and "14,367.76"
//     both mean 14367.76);
//   - exactly one comma followed by two digits: comma is the decimal point;
//   - a comma elsewhere: comma is a grouping separator;
//   - otherwise spaces and commas are grouping separators.
func normalizeAmount(raw string) (float64, bool) {
	cleaned := strings.TrimSpace(reAmountNoise.ReplaceAllString(raw, ""))
	if cleaned == "" {
		return 0, false
	}

	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")
	switch {
	case hasComma && hasDot:
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
		cleaned = strings.ReplaceAll(cleaned, " ", "")
	case strings.Count(cleaned, ",") == 1:
		parts := strings.SplitN(cleaned, ",", 2)
		if len(parts[1]) == 2 {
			cleaned = strings.ReplaceAll(cleaned, " ", "")
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
			cleaned = strings.ReplaceAll(cleaned, " ", "")
		}
	default:
		cleaned = strings.ReplaceAll(cleaned, " ", "")
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ExtractAmounts pulls every plausible currency value out of the text.
// The result is deduplicated by exact value and sorted descending so callers
// scanning for a likely total start from the front. Malformed tokens are
// skipped per-candidate; values outside [0.01, 1,000,000] are discarded.
func ExtractAmounts(text string) []float64 {
	var amounts []float64
	seen := make(map[float64]struct{})

	for _, re := range amountPatterns {
		for _, match := range re.FindAllStringSubmatch(text, -1) {
			raw := match[0]
			if len(match) > 1 {
				raw = match[1]
			}
			v, ok := normalizeAmount(raw)
			if !ok || v < minAmount || v > maxAmount {
				continue
			}
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			amounts = append(amounts, v)
		}
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(amounts)))
	return amounts
}
