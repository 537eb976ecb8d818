package export

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/docsight/docsight/internal/repository"
)

func TestExportTransactionsXLSX(t *testing.T) {
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := repository.Open(":memory:", 5*time.Second, discard)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`INSERT INTO documents (filename, file_path, document_type, created_at, updated_at)
		VALUES ('a.pdf', '/a.pdf', 'invoice', '2024-01-01T00:00:00Z', '2024-01-01T00:00:00Z')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO transactions (document_id, date, amount, vendor, category, description, created_at)
		VALUES (1, '2024-03-10T00:00:00Z', 150.0, 'Acme Corp', 'Invoice Line Item', 'Widget', '2024-03-10T00:00:00Z')`)
	require.NoError(t, err)

	svc := NewService(repository.NewTransactionRepository(db), discard)
	out, err := svc.ExportTransactionsXLSX(context.Background(), 100)
	require.NoError(t, err)
	require.NotEmpty(t, out)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Transactions")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Date", rows[0][0])
	assert.Equal(t, "2024-03-10", rows[1][0])
	assert.Equal(t, "Acme Corp", rows[1][2])
}
