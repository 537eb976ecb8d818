package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/docsight/docsight/internal/common"
	"github.com/docsight/docsight/internal/entity"
)

// CorrectionRepository keeps the append-only audit trail of user overrides.
// Rows are never updated or deleted.
type CorrectionRepository struct {
	db *sql.DB
}

func NewCorrectionRepository(db *sql.DB) *CorrectionRepository {
	return &CorrectionRepository{db: db}
}

func (r *CorrectionRepository) Insert(ctx context.Context, c *entity.DocumentCorrection) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO document_corrections (document_id, field_name, original_value, corrected_value, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.DocumentID, c.FieldName, c.OriginalValue, c.CorrectedValue, now.Format(time.RFC3339))
	if err != nil {
		return common.NewAppError("CORRECTION_INSERT", "failed to insert correction", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		c.ID = id
	}
	c.CreatedAt = now
	return nil
}

func (r *CorrectionRepository) ListByDocument(ctx context.Context, docID int64) ([]entity.DocumentCorrection, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, document_id, field_name, original_value, corrected_value, created_at
		FROM document_corrections WHERE document_id = ? ORDER BY id`, docID)
	if err != nil {
		return nil, common.NewAppError("CORRECTION_LIST", "failed to list corrections", err)
	}
	defer rows.Close()

	var out []entity.DocumentCorrection
	for rows.Next() {
		var c entity.DocumentCorrection
		var createdAt string
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.FieldName, &c.OriginalValue, &c.CorrectedValue, &createdAt); err != nil {
			return nil, common.NewAppError("CORRECTION_SCAN", "failed to scan correction row", err)
		}
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, c)
	}
	return out, rows.Err()
}
