package extract

import (
	"log/slog"
	"regexp"
	"time"

	"github.com/docsight/docsight/constants"
)

var (
	reAccountNumber = regexp.MustCompile(`(?i)(?:account|acct)\s*(?:number|no\.?)?\s*#?\s*:?\s*([\d-]+)`)
	reBalance       = regexp.MustCompile(`(?i)(?:ending\s+)?balance\s*:?\s*\$?([\d,]+\.?\d*)`)
)

// Engine classifies raw document text and extracts structured fields for the
// detected type. It is stateless and safe for concurrent use.
type Engine struct {
	logger *slog.Logger
}

func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{logger: logger}
}

// Extract classifies text and runs the extractor for the detected type.
func (e *Engine) Extract(text string) (constants.DocumentType, Fields) {
	start := time.Now()
	docType := Classify(text)

	var fields Fields
	switch docType {
	case constants.Invoice:
		fields = e.ExtractInvoiceFields(text)
	case constants.Statement:
		fields = e.ExtractStatementFields(text)
	default:
		fields = e.extractGenericFields(text)
	}

	e.logger.Info("extract.completed",
		"document_type", docType,
		"text_len", len(text),
		"elapsed_ms", time.Since(start).Milliseconds())
	return docType, fields
}

// ExtractInvoiceFields pulls invoice number, vendor, amounts, dates, line
// items and the best-guess total from invoice text.
func (e *Engine) ExtractInvoiceFields(text string) InvoiceFields {
	fields := InvoiceFields{
		InvoiceNumber: ExtractInvoiceNumber(text),
		Vendor:        ExtractVendor(text),
		Amounts:       ExtractAmounts(text),
		Dates:         ExtractDates(text),
		LineItems:     ExtractLineItems(text),
	}
	if total, ok := ExtractTotal(text, fields.Amounts); ok {
		fields.Total = &total
	}
	return fields
}

// ExtractStatementFields pulls account metadata plus the raw amount and date
// streams that drive per-amount transaction rows.
func (e *Engine) ExtractStatementFields(text string) StatementFields {
	fields := StatementFields{
		Amounts: ExtractAmounts(text),
		Dates:   ExtractDates(text),
	}
	if m := reAccountNumber.FindStringSubmatch(text); m != nil {
		fields.AccountNumber = m[1]
	}
	if m := reBalance.FindStringSubmatch(text); m != nil {
		if v, ok := normalizeAmount(m[1]); ok {
			fields.Balance = &v
		}
	}
	if len(fields.Dates) > 0 {
		// Statements usually print the period-end date last.
		fields.StatementDate = fields.Dates[len(fields.Dates)-1]
	}
	return fields
}

func (e *Engine) extractGenericFields(text string) GenericFields {
	return GenericFields{
		Vendor:  ExtractVendor(text),
		Amounts: ExtractAmounts(text),
		Dates:   ExtractDates(text),
	}
}
