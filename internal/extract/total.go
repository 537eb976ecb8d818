package extract

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

var totalLabelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)gross\s+worth[:\s]+\$?\s*([\d\s,.]+[.,]\d{2})`),
	regexp.MustCompile(`(?i)total[:\s]+\$?\s*([\d\s,.]+[.,]\d{2})`),
	regexp.MustCompile(`(?i)amount\s+due[:\s]+\$?\s*([\d\s,.]+[.,]\d{2})`),
	regexp.MustCompile(`(?i)grand\s+total[:\s]+\$?\s*([\d\s,.]+[.,]\d{2})`),
}

var reDollarGrouped = regexp.MustCompile(`\$\s*([\d\s,.]+[.,]\d{2})`)

// ExtractTotal selects the most likely invoice total from the already
// validated amount set. Four strategies run as a fallback cascade, each only
// attempted if the previous produced nothing — an explicit confidence
// ranking from "labeled" down to "best guess by magnitude". Strategies that
// parse text directly only accept values already present in amounts, so the
// returned total is always a member of the amount set.
func ExtractTotal(text string, amounts []float64) (float64, bool) {
	if len(amounts) == 0 {
		return 0, false
	}
	inSet := make(map[float64]struct{}, len(amounts))
	for _, a := range amounts {
		inSet[a] = struct{}{}
	}

	// Strategy 1: label-anchored totals.
	for _, re := range totalLabelPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if v, ok := normalizeAmount(m[1]); ok {
				if _, member := inSet[v]; member {
					return v, true
				}
			}
		}
	}

	// Strategy 2: last dollar-prefixed grouped amount; totals are usually
	// quoted last in the document.
	if all := reDollarGrouped.FindAllStringSubmatch(text, -1); len(all) > 0 {
		if v, ok := normalizeAmount(all[len(all)-1][1]); ok {
			if _, member := inSet[v]; member {
				return v, true
			}
		}
	}

	// Strategy 3: a large amount whose textual rendering sits next to a
	// total/summary/gross-worth keyword.
	for _, a := range amounts {
		if a < 1000 {
			continue
		}
		for _, variant := range amountVariants(a) {
			re, err := regexp.Compile(`(?i)(total|summary|gross\s+worth)[^\d]*` + variant)
			if err != nil {
				continue
			}
			if re.MatchString(text) {
				return a, true
			}
		}
	}

	// Strategy 4: largest amount >= 1000, else the largest overall.
	// Amounts arrive sorted descending.
	for _, a := range amounts {
		if a >= 1000 {
			return a, true
		}
	}
	return amounts[0], true
}

// amountVariants renders the textual shapes an amount may take in a document:
// "15804.54"/"15804,54" and the space-grouped "15 804,54" form.
func amountVariants(a float64) []string {
	plain := strings.ReplaceAll(fmt.Sprintf("%.2f", a), ".", `[.,]`)
	whole := int64(a)
	frac := int64(math.Round((a - float64(whole)) * 100))
	grouped := fmt.Sprintf(`%d[\s,]+%02d`, whole, frac)
	return []string{plain, grouped}
}
