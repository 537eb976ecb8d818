package extract

import (
	"regexp"
	"strings"
)

// Date shapes in the order they are collected: ISO, US slashed, long-form.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`),
	regexp.MustCompile(`(?i)\b(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2},?\s+\d{4}\b`),
}

var invoiceNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)invoice\s*(?:number|no\.?|#)\s*:?\s*([A-Za-z0-9/-]+)`),
	regexp.MustCompile(`(?i)invoice\s*:?\s*#?\s*([A-Za-z0-9/-]+)`),
	regexp.MustCompile(`(?i)\binv\b\.?\s*(?:no\.?|#)?\s*:?\s*([A-Za-z0-9/-]+)`),
	regexp.MustCompile(`(?i)\bno\.?\s*:?\s*(\d[A-Za-z0-9/-]*)`),
}

// ExtractDates collects every date-looking token in document order,
// deduplicated on the exact matched text.
func ExtractDates(text string) []string {
	var dates []string
	seen := make(map[string]struct{})
	for _, re := range datePatterns {
		for _, m := range re.FindAllString(text, -1) {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			dates = append(dates, m)
		}
	}
	return dates
}

// ExtractInvoiceNumber returns the first plausible invoice identifier.
// Captures that are too short or the literal word "no" are artifacts of the
// looser patterns and are rejected.
func ExtractInvoiceNumber(text string) string {
	for _, re := range invoiceNumberPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			candidate := strings.TrimSpace(m[1])
			if len(candidate) <= 2 || strings.EqualFold(candidate, "no") {
				continue
			}
			return candidate
		}
	}
	return ""
}
