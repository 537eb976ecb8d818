package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/docsight/docsight/internal/common"
	"github.com/docsight/docsight/internal/entity"
)

// TransactionRepository persists the materialized transaction rows queried
// by the insights layer.
type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// InsertBatch writes all rows inside one transaction; either the whole
// document's rows land or none do.
func (r *TransactionRepository) InsertBatch(ctx context.Context, txs []entity.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return common.NewAppError("TX_BEGIN", "failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (document_id, date, amount, vendor, category, description, metadata, confidence_score, is_corrected, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return common.NewAppError("TX_PREPARE", "failed to prepare insert", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for i := range txs {
		meta, err := json.Marshal(txs[i].Metadata)
		if err != nil {
			return common.NewAppError("TX_METADATA", "failed to encode metadata", err)
		}
		res, err := stmt.ExecContext(ctx,
			txs[i].DocumentID,
			txs[i].Date.UTC().Format(time.RFC3339),
			txs[i].Amount,
			txs[i].Vendor,
			txs[i].Category,
			txs[i].Description,
			string(meta),
			txs[i].ConfidenceScore,
			txs[i].IsCorrected,
			now)
		if err != nil {
			return common.NewAppError("TX_INSERT", "failed to insert transaction", err)
		}
		if id, err := res.LastInsertId(); err == nil {
			txs[i].ID = id
		}
	}
	if err := tx.Commit(); err != nil {
		return common.NewAppError("TX_COMMIT", "failed to commit transactions", err)
	}
	return nil
}

func (r *TransactionRepository) ListByDocument(ctx context.Context, docID int64) ([]entity.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, document_id, date, amount, vendor, category, description, metadata, confidence_score, is_corrected, created_at
		FROM transactions WHERE document_id = ? ORDER BY id`, docID)
	if err != nil {
		return nil, common.NewAppError("TX_LIST", "failed to list transactions", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *TransactionRepository) List(ctx context.Context, limit int) ([]entity.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, document_id, date, amount, vendor, category, description, metadata, confidence_score, is_corrected, created_at
		FROM transactions ORDER BY date DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, common.NewAppError("TX_LIST", "failed to list transactions", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func collectTransactions(rows *sql.Rows) ([]entity.Transaction, error) {
	var txs []entity.Transaction
	for rows.Next() {
		var t entity.Transaction
		var date, meta, createdAt string
		if err := rows.Scan(&t.ID, &t.DocumentID, &date, &t.Amount, &t.Vendor,
			&t.Category, &t.Description, &meta, &t.ConfidenceScore, &t.IsCorrected, &createdAt); err != nil {
			return nil, common.NewAppError("TX_SCAN", "failed to scan transaction row", err)
		}
		t.Date, _ = time.Parse(time.RFC3339, date)
		t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		if meta != "" && meta != "null" {
			if err := json.Unmarshal([]byte(meta), &t.Metadata); err != nil {
				return nil, common.NewAppError("TX_SCAN", "failed to decode metadata", err)
			}
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}
