package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAmounts_NormalizesLocaleFormats(t *testing.T) {
	cases := map[string]string{
		"us_grouped":    "Total: $14,367.76",
		"euro_grouped":  "Total: 14.367,76",
		"space_grouped": "Total: 14 367,76",
		"plain":         "Total: 14367.76",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			amounts := ExtractAmounts(text)
			count := 0
			for _, a := range amounts {
				if a == 14367.76 {
					count++
				}
			}
			assert.Equal(t, 1, count, "expected 14367.76 exactly once in %v", amounts)
		})
	}
}

func TestExtractAmounts_FiltersImplausibleValues(t *testing.T) {
	text := "fee 0.001 noted\ncharge 2000000.00 rejected\nvalid 150.00 kept"
	amounts := ExtractAmounts(text)
	assert.Contains(t, amounts, 150.00)
	assert.NotContains(t, amounts, 0.001)
	assert.NotContains(t, amounts, 2000000.00)
}

func TestExtractAmounts_SortedDescendingNoDuplicates(t *testing.T) {
	text := "Amount: 100.00\nAmount: 250.00\nAmount: 100.00"
	amounts := ExtractAmounts(text)
	require.Len(t, amounts, 2)
	assert.Equal(t, []float64{250.00, 100.00}, amounts)
}

func TestNormalizeAmount(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"$14,367.76", 14367.76, true},
		{"14.367,76", 14367.76, true},
		{"14 367,76", 14367.76, true},
		{"14367.76", 14367.76, true},
		{"123,45", 123.45, true},
		{"1,234", 1234, true},
		{"", 0, false},
		{"$", 0, false},
	}
	for _, tc := range cases {
		got, ok := normalizeAmount(tc.raw)
		assert.Equal(t, tc.ok, ok, "raw=%q", tc.raw)
		if tc.ok {
			assert.InDelta(t, tc.want, got, 0.001, "raw=%q", tc.raw)
		}
	}
}

func TestExtractTotal_LabeledWins(t *testing.T) {
	text := "Fee: 1,000.00\nTotal: 1,234.56\nPaid"
	amounts := ExtractAmounts(text)
	require.Contains(t, amounts, 1234.56)

	total, ok := ExtractTotal(text, amounts)
	require.True(t, ok)
	assert.Equal(t, 1234.56, total)
}

func TestExtractTotal_AlwaysMemberOfAmounts(t *testing.T) {
	// The labeled value is not in the candidate set, so the cascade must
	// fall through to a member instead of inventing a value.
	text := "Total: 9,999.99"
	total, ok := ExtractTotal(text, []float64{50.0})
	require.True(t, ok)
	assert.Equal(t, 50.0, total)
}

func TestExtractTotal_FallsBackToLargest(t *testing.T) {
	total, ok := ExtractTotal("payment schedule", []float64{500.0, 120.0})
	require.True(t, ok)
	assert.Equal(t, 500.0, total)
}

func TestExtractTotal_PrefersLargeOverLargest(t *testing.T) {
	total, ok := ExtractTotal("no labels here", []float64{5000.0, 120.0, 1500.0})
	require.True(t, ok)
	assert.Equal(t, 5000.0, total)
}

func TestExtractTotal_EmptyAmounts(t *testing.T) {
	_, ok := ExtractTotal("Total: 100.00", nil)
	assert.False(t, ok)
}
