package materialize

import (
	"log/slog"
	"math"
	"time"

	"github.com/docsight/docsight/constants"
	"github.com/docsight/docsight/internal/entity"
	"github.com/docsight/docsight/internal/extract"
)

// Statements are noisy; only the first few amounts are trusted as rows.
const maxStatementTransactions = 10

// Tolerance below which an invoice total is considered already covered by
// its line items and not materialized as its own row.
const totalCoverageTolerance = 0.01

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"01/02/06",
	"02/01/2006",
	"January 2, 2006",
	"January 2 2006",
}

// Materializer turns extracted fields into transaction rows for the
// analytics tables.
type Materializer struct {
	logger *slog.Logger
	now    func() time.Time
}

func New(logger *slog.Logger) *Materializer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Materializer{logger: logger, now: time.Now}
}

// ParseDate tries the known layouts in order; unparseable input falls back
// to the current time so a bad date never drops a transaction.
func (m *Materializer) ParseDate(raw string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return m.now()
}

// Transactions derives transaction rows for one document's fields.
// Invoices yield one row per line item plus a conditional total row;
// statements yield one row per amount, capped; everything else yields none.
func (m *Materializer) Transactions(docID int64, fields extract.Fields) []entity.Transaction {
	switch f := fields.(type) {
	case extract.InvoiceFields:
		return m.invoiceTransactions(docID, f)
	case extract.StatementFields:
		return m.statementTransactions(docID, f)
	default:
		return nil
	}
}

func (m *Materializer) invoiceTransactions(docID int64, f extract.InvoiceFields) []entity.Transaction {
	vendor := f.Vendor
	if vendor == "" {
		vendor = constants.VendorUnknown
	}
	date := m.firstDate(f.Dates)

	var txs []entity.Transaction
	var itemSum float64
	for _, item := range f.LineItems {
		itemSum += item.Amount
		txs = append(txs, entity.Transaction{
			DocumentID:  docID,
			Date:        date,
			Amount:      item.Amount,
			Vendor:      vendor,
			Category:    constants.CategoryLineItem,
			Description: item.Description,
			Metadata:    map[string]any{"item_number": item.ItemNumber},
		})
	}

	// The total row is only added when it carries information the line
	// items do not: no items at all, or a total the items don't add up to.
	if f.Total != nil {
		uncovered := len(f.LineItems) == 0 ||
			math.Abs(*f.Total-itemSum) > totalCoverageTolerance
		if uncovered {
			txs = append(txs, entity.Transaction{
				DocumentID:  docID,
				Date:        date,
				Amount:      *f.Total,
				Vendor:      vendor,
				Category:    constants.CategoryInvoiceTotal,
				Description: "Invoice total",
				Metadata:    map[string]any{"invoice_number": f.InvoiceNumber},
			})
		}
	}

	m.logger.Debug("materialize.invoice",
		"document_id", docID,
		"line_items", len(f.LineItems),
		"transactions", len(txs))
	return txs
}

func (m *Materializer) statementTransactions(docID int64, f extract.StatementFields) []entity.Transaction {
	amounts := f.Amounts
	if len(amounts) > maxStatementTransactions {
		amounts = amounts[:maxStatementTransactions]
	}

	txs := make([]entity.Transaction, 0, len(amounts))
	for i, amount := range amounts {
		date := m.now()
		if i < len(f.Dates) {
			date = m.ParseDate(f.Dates[i])
		} else if f.StatementDate != "" {
			date = m.ParseDate(f.StatementDate)
		}
		txs = append(txs, entity.Transaction{
			DocumentID:  docID,
			Date:        date,
			Amount:      amount,
			Vendor:      constants.VendorBank,
			Category:    constants.CategoryBanking,
			Description: "Statement entry",
			Metadata:    map[string]any{"account_number": f.AccountNumber},
		})
	}

	m.logger.Debug("materialize.statement",
		"document_id", docID,
		"transactions", len(txs))
	return txs
}

func (m *Materializer) firstDate(dates []string) time.Time {
	if len(dates) == 0 {
		return m.now()
	}
	return m.ParseDate(dates[0])
}
