package extract

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsight/docsight/constants"
)

func testEngine() *Engine {
	return NewEngine(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClassify_PriorityOrder(t *testing.T) {
	// Invoice keywords outrank statement keywords when both appear.
	assert.Equal(t, constants.Invoice, Classify("invoice attached to your statement"))
	assert.Equal(t, constants.Statement, Classify("monthly statement with a deposit"))
	assert.Equal(t, constants.Receipt, Classify("thank you for your purchase"))
	assert.Equal(t, constants.Form, Classify("please complete and sign this application"))
	assert.Equal(t, constants.Unknown, Classify("lorem ipsum dolor sit amet"))
}

func TestExtractVendor_LabeledLine(t *testing.T) {
	text := "Seller: Acme Corp\nInvoice No: 12345"
	assert.Equal(t, "Acme Corp", ExtractVendor(text))
}

func TestExtractVendor_StripsTaxSuffix(t *testing.T) {
	text := "Seller: Acme Corp Tax ID: 123-45-6789"
	assert.Equal(t, "Acme Corp", ExtractVendor(text))
}

func TestExtractVendor_BareLabelTakesNextLine(t *testing.T) {
	text := "Seller:\nAcme Corporation\nInvoice No: 12345"
	assert.Equal(t, "Acme Corporation", ExtractVendor(text))
}

func TestExtractVendor_StripsLeadingLabelInFallback(t *testing.T) {
	text := "Merchant Acme Stores\nDate: 2024-01-15"
	assert.Equal(t, "Acme Stores", ExtractVendor(text))
}

func TestExtractVendor_RejectsOverlongLines(t *testing.T) {
	text := strings.Repeat("x", 120) + "\nAcme Widgets Inc"
	assert.Equal(t, "Acme Widgets Inc", ExtractVendor(text))
}

func TestExtractVendor_SkipsStructuralLines(t *testing.T) {
	text := "Invoice No: 12345\nDate: 2024-01-15\nTotal: 500.00\nAcme Widgets Inc\n123 Main St"
	assert.Equal(t, "Acme Widgets Inc", ExtractVendor(text))
}

func TestExtractVendor_NothingPlausible(t *testing.T) {
	text := "Invoice No: 12345\n$500.00\n42"
	assert.Equal(t, "", ExtractVendor(text))
}

func TestExtractDates_CollectsAllFormats(t *testing.T) {
	text := "issued 2024-01-15 due 02/28/2024 signed January 5, 2024 again 2024-01-15"
	dates := ExtractDates(text)
	require.Len(t, dates, 3)
	assert.Contains(t, dates, "2024-01-15")
	assert.Contains(t, dates, "02/28/2024")
	assert.Contains(t, dates, "January 5, 2024")
}

func TestExtractInvoiceNumber(t *testing.T) {
	assert.Equal(t, "INV-2024-001", ExtractInvoiceNumber("Invoice Number: INV-2024-001"))
	assert.Equal(t, "8675309", ExtractInvoiceNumber("Invoice #: 8675309"))
	assert.Equal(t, "", ExtractInvoiceNumber("Invoice #: 12"), "too-short captures are artifacts")
	assert.Equal(t, "", ExtractInvoiceNumber("no identifiers here"))
}

func TestExtractLineItems_PairsDescriptionsWithNetPrices(t *testing.T) {
	text := `ITEMS
1. Widget assembly 120,00
2. Gear housing 80,50
Net price
120,00
80,50
TOTAL
Gross worth: 200,50`

	items := ExtractLineItems(text)
	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].ItemNumber)
	assert.Equal(t, "Widget assembly", items[0].Description)
	assert.InDelta(t, 120.00, items[0].Amount, 0.001)
	assert.Equal(t, "Gear housing", items[1].Description)
	assert.InDelta(t, 80.50, items[1].Amount, 0.001)
}

func TestExtractLineItems_CountMismatchBoundsResult(t *testing.T) {
	text := `ITEMS
1. Widget assembly
2. Gear housing
3. Mounting kit
Net price
120,00
80,50
TOTAL`

	items := ExtractLineItems(text)
	assert.Len(t, items, 2)
}

func TestExtractLineItems_NoNumberedRows(t *testing.T) {
	assert.Nil(t, ExtractLineItems("Total: 100.00 with no items table"))
}

func TestExtractLineItems_NoItemsSection(t *testing.T) {
	// numbered lists outside an items table are not line items
	text := `Terms:
1. Payment due in 30 days 100,00
2. Late fee applies 50,00`
	assert.Nil(t, ExtractLineItems(text))
}

func TestExtractLineItems_NetPricesOutsideItemsSpan(t *testing.T) {
	text := `ITEMS
1. Widget assembly
2. Gear housing
TOTAL
Net price
120,00
80,50`

	items := ExtractLineItems(text)
	require.Len(t, items, 2)
	assert.InDelta(t, 120.00, items[0].Amount, 0.001)
	assert.InDelta(t, 80.50, items[1].Amount, 0.001)
}

func TestEngine_ExtractInvoiceFields(t *testing.T) {
	text := `Invoice Number: INV-42
Seller: Acme Corp
Date: 2024-03-10
ITEMS
1. Consulting retainer
Net price
1 500,00
TOTAL
Total: 1 500,00`

	fields := testEngine().ExtractInvoiceFields(text)
	assert.Equal(t, "INV-42", fields.InvoiceNumber)
	assert.Equal(t, "Acme Corp", fields.Vendor)
	assert.Contains(t, fields.Dates, "2024-03-10")
	require.NotNil(t, fields.Total)
	assert.InDelta(t, 1500.00, *fields.Total, 0.001)
	require.Len(t, fields.LineItems, 1)
	assert.Equal(t, "Consulting retainer", fields.LineItems[0].Description)
}

func TestEngine_ExtractStatementFields(t *testing.T) {
	text := `Bank Statement
Account Number: 1234-5678
Ending Balance: $2,500.00
01/05/2024 deposit 100.00
01/06/2024 withdrawal 50.00`

	fields := testEngine().ExtractStatementFields(text)
	assert.Equal(t, "1234-5678", fields.AccountNumber)
	require.NotNil(t, fields.Balance)
	assert.InDelta(t, 2500.00, *fields.Balance, 0.001)
	assert.Contains(t, fields.Amounts, 2500.00)
	require.NotEmpty(t, fields.Dates)
	assert.Equal(t, fields.Dates[len(fields.Dates)-1], fields.StatementDate)
}

func TestEngine_ExtractDispatch(t *testing.T) {
	docType, fields := testEngine().Extract("invoice from Seller: Acme Corp Total: 99.00")
	assert.Equal(t, constants.Invoice, docType)
	_, ok := fields.(InvoiceFields)
	assert.True(t, ok)
}

func TestFieldsEnvelope_RoundTrip(t *testing.T) {
	total := 99.50
	in := InvoiceFields{
		InvoiceNumber: "INV-1",
		Vendor:        "Acme Corp",
		Amounts:       []float64{99.50},
		Dates:         []string{"2024-01-01"},
		Total:         &total,
	}
	raw, err := MarshalFields(in)
	require.NoError(t, err)

	out, err := UnmarshalFields(raw)
	require.NoError(t, err)
	got, ok := out.(InvoiceFields)
	require.True(t, ok)
	assert.Equal(t, in, got)
}
