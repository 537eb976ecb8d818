package entity

import (
	"time"

	"github.com/docsight/docsight/constants"
)

// Document is one ingested file plus everything derived from it.
// ExtractedData holds the JSON envelope produced by extract.MarshalFields.
type Document struct {
	ID            int64
	Filename      string
	FilePath      string
	DocumentType  constants.DocumentType
	RawText       string
	ExtractedData []byte
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
