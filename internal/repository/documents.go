package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/docsight/docsight/constants"
	"github.com/docsight/docsight/internal/common"
	"github.com/docsight/docsight/internal/entity"
)

// DocumentRepository persists documents and their extracted field envelopes.
type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Insert(ctx context.Context, doc *entity.Document) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO documents (filename, file_path, document_type, raw_text, extracted_data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		doc.Filename, doc.FilePath, string(doc.DocumentType), doc.RawText,
		string(doc.ExtractedData), now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return common.NewAppError("DOC_INSERT", "failed to insert document", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return common.NewAppError("DOC_INSERT", "failed to read inserted id", err)
	}
	doc.ID = id
	doc.CreatedAt = now
	doc.UpdatedAt = now
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (*entity.Document, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `
		SELECT id, filename, file_path, document_type, raw_text, extracted_data, created_at, updated_at
		FROM documents WHERE id = ?`, id))
}

func (r *DocumentRepository) GetByPath(ctx context.Context, path string) (*entity.Document, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `
		SELECT id, filename, file_path, document_type, raw_text, extracted_data, created_at, updated_at
		FROM documents WHERE file_path = ?`, path))
}

// UpdateExtracted replaces a document's type and extracted field envelope,
// used when a correction changes what was originally parsed.
func (r *DocumentRepository) UpdateExtracted(ctx context.Context, id int64, docType constants.DocumentType, extracted []byte) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE documents SET document_type = ?, extracted_data = ?, updated_at = ? WHERE id = ?`,
		string(docType), string(extracted), time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return common.NewAppError("DOC_UPDATE", "failed to update document", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return common.NewAppError("DOC_UPDATE", "failed to read affected rows", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *DocumentRepository) List(ctx context.Context, limit int) ([]entity.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, filename, file_path, document_type, raw_text, extracted_data, created_at, updated_at
		FROM documents ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, common.NewAppError("DOC_LIST", "failed to list documents", err)
	}
	defer rows.Close()

	var docs []entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *DocumentRepository) scanOne(row *sql.Row) (*entity.Document, error) {
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	return doc, err
}

func scanDocument(row rowScanner) (*entity.Document, error) {
	var doc entity.Document
	var docType, createdAt, updatedAt, extracted string
	if err := row.Scan(&doc.ID, &doc.Filename, &doc.FilePath, &docType,
		&doc.RawText, &extracted, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, common.NewAppError("DOC_SCAN", "failed to scan document row", err)
	}
	doc.DocumentType = constants.DocumentType(docType)
	doc.ExtractedData = []byte(extracted)
	doc.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	doc.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &doc, nil
}
