package entity

import "time"

// Transaction is one normalized spend record derived from a document.
// DocumentID is zero for synthetic or seeded rows.
type Transaction struct {
	ID              int64
	DocumentID      int64
	Date            time.Time
	Amount          float64
	Vendor          string
	Category        string
	Description     string
	Metadata        map[string]any
	ConfidenceScore *float64 // 0-100, nil when the extractor produced none
	IsCorrected     bool
	CreatedAt       time.Time
}
