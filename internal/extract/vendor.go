package extract

import (
	"regexp"
	"strings"
)

// High-signal vendor anchors scanned over the top of the document. The
// capture may be empty: a bare label line means the name is on the next line.
var vendorLabelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^seller[:\s]+(.*)$`),
	regexp.MustCompile(`(?i)^from[:\s]+(.*)$`),
	regexp.MustCompile(`(?i)^vendor[:\s]+(.*)$`),
	regexp.MustCompile(`(?i)^company[:\s]+(.*)$`),
	regexp.MustCompile(`(?i)^billed?\s+by[:\s]+(.*)$`),
}

// Leading labels cleaned off fallback candidate lines.
var reVendorPrefix = regexp.MustCompile(`(?i)^(?:bill\s+to|sold\s+to|from|vendor|merchant|seller)[:\s]+`)

// Trailing boilerplate stripped off a labeled vendor line.
var vendorSuffixPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s+tax\s*id.*$`),
	regexp.MustCompile(`(?i)\s+vat\s*(?:id|no).*$`),
	regexp.MustCompile(`(?i)\s+iban.*$`),
	regexp.MustCompile(`(?i)\s+\d{1,5}\s+\w+\s+(?:st|street|ave|avenue|rd|road|blvd|boulevard|dr|drive|ln|lane)\b.*$`),
}

// Lines that can never be a vendor name in the fallback scan: structural
// labels, numbers, dates, page markers.
var vendorSkipPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^invoice\s*no`),
	regexp.MustCompile(`(?i)^invoice\s*#`),
	regexp.MustCompile(`(?i)^invoice\b`),
	regexp.MustCompile(`(?i)^statement\b`),
	regexp.MustCompile(`(?i)^receipt\b`),
	regexp.MustCompile(`(?i)^date\b`),
	regexp.MustCompile(`(?i)^total\b`),
	regexp.MustCompile(`(?i)^amount\b`),
	regexp.MustCompile(`(?i)^balance\b`),
	regexp.MustCompile(`(?i)^page\s+\d+`),
	regexp.MustCompile(`(?i)^qty\b`),
	regexp.MustCompile(`(?i)^quantity\b`),
	regexp.MustCompile(`(?i)^description\b`),
	regexp.MustCompile(`(?i)^item\b`),
	regexp.MustCompile(`^\d`),
	regexp.MustCompile(`^\$`),
}

var reHasLetter = regexp.MustCompile(`[A-Za-z]`)

// ExtractVendor finds the issuing party's name. Labeled anchors in the first
// 20 lines win, taking the same-line suffix or, when the label stands alone,
// the next non-skip line. Otherwise the first fallback-eligible line in the
// first 15 is taken, with leading labels stripped. Returns "" when nothing
// qualifies.
func ExtractVendor(text string) string {
	lines := strings.Split(text, "\n")

	limit := len(lines)
	if limit > 20 {
		limit = 20
	}
	for _, re := range vendorLabelPatterns {
		for i, raw := range lines[:limit] {
			m := re.FindStringSubmatch(strings.TrimSpace(raw))
			if m == nil {
				continue
			}
			if name := cleanVendorName(m[1]); vendorPlausible(name) {
				return name
			}
			// bare label; the name sits on the following line
			if name := vendorFromNextLine(lines, i+1); name != "" {
				return name
			}
		}
	}

	limit = len(lines)
	if limit > 15 {
		limit = 15
	}
	for _, raw := range lines[:limit] {
		line := strings.TrimSpace(raw)
		if line == "" || vendorLineSkipped(line) {
			continue
		}
		name := cleanVendorName(reVendorPrefix.ReplaceAllString(line, ""))
		if vendorPlausible(name) {
			return name
		}
	}
	return ""
}

// vendorFromNextLine takes the first non-skip, letter-bearing line at or
// after start.
func vendorFromNextLine(lines []string, start int) string {
	if start >= len(lines) {
		return ""
	}
	for _, raw := range lines[start:] {
		line := strings.TrimSpace(raw)
		if line == "" || vendorLineSkipped(line) || !reHasLetter.MatchString(line) {
			continue
		}
		if name := cleanVendorName(line); vendorPlausible(name) {
			return name
		}
		return ""
	}
	return ""
}

func cleanVendorName(name string) string {
	name = strings.TrimSpace(name)
	for _, suffix := range vendorSuffixPatterns {
		name = suffix.ReplaceAllString(name, "")
	}
	return strings.TrimSpace(strings.Trim(name, ",;"))
}

func vendorLineSkipped(line string) bool {
	for _, re := range vendorSkipPatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

func vendorPlausible(name string) bool {
	return len(name) > 3 && len(name) < 100 && reHasLetter.MatchString(name)
}
