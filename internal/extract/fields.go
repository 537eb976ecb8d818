package extract

import (
	"encoding/json"
	"fmt"

	"github.com/docsight/docsight/constants"
)

// Fields is the structured result of field extraction. It is a closed set:
// consumers type-switch over InvoiceFields, StatementFields and GenericFields.
type Fields interface {
	DocType() constants.DocumentType
}

// LineItem is one numbered invoice row paired with its net price.
// Quantity is nil when the items table did not expose one.
type LineItem struct {
	ItemNumber  string   `json:"item_number"`
	Description string   `json:"description"`
	Amount      float64  `json:"amount"`
	Quantity    *float64 `json:"quantity"`
}

// InvoiceFields holds everything extracted from an invoice-typed document.
type InvoiceFields struct {
	InvoiceNumber string     `json:"invoice_number,omitempty"`
	Vendor        string     `json:"vendor,omitempty"`
	Amounts       []float64  `json:"amounts"`
	Dates         []string   `json:"dates"`
	Total         *float64   `json:"total,omitempty"`
	LineItems     []LineItem `json:"line_items,omitempty"`
}

func (InvoiceFields) DocType() constants.DocumentType { return constants.Invoice }

// StatementFields holds everything extracted from a bank statement.
// Amounts and Dates feed the materializer's per-amount transaction rows.
type StatementFields struct {
	AccountNumber string    `json:"account_number,omitempty"`
	StatementDate string    `json:"statement_date,omitempty"`
	Balance       *float64  `json:"balance,omitempty"`
	Amounts       []float64 `json:"amounts"`
	Dates         []string  `json:"dates"`
}

func (StatementFields) DocType() constants.DocumentType { return constants.Statement }

// GenericFields is the fallback shape for receipts, forms and unknown documents.
type GenericFields struct {
	Vendor  string    `json:"vendor,omitempty"`
	Amounts []float64 `json:"amounts"`
	Dates   []string  `json:"dates"`
}

func (GenericFields) DocType() constants.DocumentType { return constants.Unknown }

type envelope struct {
	DocumentType constants.DocumentType `json:"document_type"`
	Fields       json.RawMessage        `json:"fields"`
}

// MarshalFields encodes a Fields value into the JSON envelope persisted
// in documents.extracted_data.
func MarshalFields(f Fields) ([]byte, error) {
	if f == nil {
		f = GenericFields{}
	}
	inner, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshal fields: %w", err)
	}
	return json.Marshal(envelope{DocumentType: f.DocType(), Fields: inner})
}

// UnmarshalFields decodes the persisted envelope back into its concrete variant.
func UnmarshalFields(b []byte) (Fields, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("unmarshal fields envelope: %w", err)
	}
	switch env.DocumentType {
	case constants.Invoice:
		var f InvoiceFields
		if err := json.Unmarshal(env.Fields, &f); err != nil {
			return nil, fmt.Errorf("unmarshal invoice fields: %w", err)
		}
		return f, nil
	case constants.Statement:
		var f StatementFields
		if err := json.Unmarshal(env.Fields, &f); err != nil {
			return nil, fmt.Errorf("unmarshal statement fields: %w", err)
		}
		return f, nil
	default:
		var f GenericFields
		if err := json.Unmarshal(env.Fields, &f); err != nil {
			return nil, fmt.Errorf("unmarshal generic fields: %w", err)
		}
		return f, nil
	}
}
