package entity

import "time"

// DocumentCorrection is an append-only audit record of a user override
// of one extracted field. Rows are never updated or deleted.
type DocumentCorrection struct {
	ID             int64
	DocumentID     int64
	FieldName      string
	OriginalValue  string
	CorrectedValue string
	CreatedAt      time.Time
}
