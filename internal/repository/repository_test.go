package repository

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsight/docsight/constants"
	"github.com/docsight/docsight/internal/common"
	"github.com/docsight/docsight/internal/entity"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(":memory:", 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestDocumentRepository_InsertAndGet(t *testing.T) {
	db := testDB(t)
	repo := NewDocumentRepository(db)
	ctx := context.Background()

	doc := &entity.Document{
		Filename:      "invoice.pdf",
		FilePath:      "/docs/invoice.pdf",
		DocumentType:  constants.Invoice,
		RawText:       "Invoice Total: 100.00",
		ExtractedData: []byte(`{"document_type":"invoice","fields":{}}`),
	}
	require.NoError(t, repo.Insert(ctx, doc))
	assert.NotZero(t, doc.ID)

	got, err := repo.GetByPath(ctx, "/docs/invoice.pdf")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, constants.Invoice, got.DocumentType)
	assert.Equal(t, doc.RawText, got.RawText)
}

func TestDocumentRepository_GetByPathNotFound(t *testing.T) {
	repo := NewDocumentRepository(testDB(t))
	_, err := repo.GetByPath(context.Background(), "/nope")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestDocumentRepository_UpdateExtracted(t *testing.T) {
	db := testDB(t)
	repo := NewDocumentRepository(db)
	ctx := context.Background()

	doc := &entity.Document{Filename: "a.txt", FilePath: "/a.txt", DocumentType: constants.Unknown}
	require.NoError(t, repo.Insert(ctx, doc))

	require.NoError(t, repo.UpdateExtracted(ctx, doc.ID, constants.Invoice, []byte(`{"document_type":"invoice","fields":{}}`)))
	got, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.Invoice, got.DocumentType)

	err = repo.UpdateExtracted(ctx, 9999, constants.Invoice, []byte(`{}`))
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestTransactionRepository_BatchRoundTrip(t *testing.T) {
	db := testDB(t)
	docs := NewDocumentRepository(db)
	txRepo := NewTransactionRepository(db)
	ctx := context.Background()

	doc := &entity.Document{Filename: "inv.pdf", FilePath: "/inv.pdf", DocumentType: constants.Invoice}
	require.NoError(t, docs.Insert(ctx, doc))

	batch := []entity.Transaction{
		{
			DocumentID:  doc.ID,
			Date:        time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			Amount:      300.00,
			Vendor:      "Acme Corp",
			Category:    constants.CategoryLineItem,
			Description: "Widget",
			Metadata:    map[string]any{"item_number": "1"},
		},
		{
			DocumentID: doc.ID,
			Date:       time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			Amount:     200.00,
			Vendor:     "Acme Corp",
			Category:   constants.CategoryLineItem,
		},
	}
	require.NoError(t, txRepo.InsertBatch(ctx, batch))

	got, err := txRepo.ListByDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Acme Corp", got[0].Vendor)
	assert.Equal(t, "1", got[0].Metadata["item_number"])
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), got[0].Date)
}

func TestCorrectionRepository_AppendOnly(t *testing.T) {
	db := testDB(t)
	docs := NewDocumentRepository(db)
	corrections := NewCorrectionRepository(db)
	ctx := context.Background()

	doc := &entity.Document{Filename: "a.txt", FilePath: "/a.txt", DocumentType: constants.Invoice}
	require.NoError(t, docs.Insert(ctx, doc))

	first := &entity.DocumentCorrection{DocumentID: doc.ID, FieldName: "vendor", OriginalValue: "Acme", CorrectedValue: "Acme Corp"}
	second := &entity.DocumentCorrection{DocumentID: doc.ID, FieldName: "vendor", OriginalValue: "Acme Corp", CorrectedValue: "Acme Corporation"}
	require.NoError(t, corrections.Insert(ctx, first))
	require.NoError(t, corrections.Insert(ctx, second))

	got, err := corrections.ListByDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Acme Corp", got[0].CorrectedValue)
	assert.Equal(t, "Acme Corporation", got[1].CorrectedValue)
}
