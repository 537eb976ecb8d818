package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsight/docsight/internal/agent"
	"github.com/docsight/docsight/internal/export"
	"github.com/docsight/docsight/internal/extract"
	"github.com/docsight/docsight/internal/ingest"
	"github.com/docsight/docsight/internal/insights"
	"github.com/docsight/docsight/internal/llm"
	"github.com/docsight/docsight/internal/materialize"
	"github.com/docsight/docsight/internal/rag"
	"github.com/docsight/docsight/internal/repository"
	"github.com/docsight/docsight/internal/sqltools"
	"github.com/docsight/docsight/internal/textextract"
)

type stubGenerator struct{}

func (stubGenerator) Generate(_ context.Context, _ llm.Request) (string, error) {
	return "stub answer", nil
}

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, _ string) ([]float64, error) {
	return []float64{1, 0}, nil
}

func testServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := repository.Open(":memory:", 5*time.Second, discard)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	docs := repository.NewDocumentRepository(db)
	txs := repository.NewTransactionRepository(db)
	corrections := repository.NewCorrectionRepository(db)
	insightsSvc := insights.NewService(db, discard)
	ragSvc := rag.NewService(stubEmbedder{}, rag.NewMemoryStore(), discard)
	sqlExec := sqltools.NewExecutor(db, 50)

	_, err = db.Exec(`INSERT INTO documents (filename, file_path, document_type, extracted_data, created_at, updated_at)
		VALUES ('inv.pdf', '/inv.pdf', 'invoice', '{"document_type":"invoice","fields":{"vendor":"Acme"}}', '2024-01-01T00:00:00Z', '2024-01-01T00:00:00Z')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO transactions (document_id, date, amount, vendor, category, created_at)
		VALUES (1, '2024-03-10T00:00:00Z', 150.0, 'Acme Corp', 'Invoice Line Item', '2024-03-10T00:00:00Z')`)
	require.NoError(t, err)

	gen := stubGenerator{}
	toolbox := agent.NewToolbox(sqlExec, insightsSvc, ragSvc, 5, 5)
	ag, err := agent.New(gen, toolbox, agent.NewSQLGenerator(gen, sqlExec), 16, discard)
	require.NoError(t, err)

	pipeline := ingest.NewPipeline(
		textextract.NewExtractor(textextract.Config{}, discard),
		extract.NewEngine(discard),
		materialize.New(discard),
		docs, txs, ragSvc, discard)

	return New(Deps{
		Agent:        ag,
		Pipeline:     pipeline,
		Insights:     insightsSvc,
		Export:       export.NewService(txs, discard),
		Documents:    docs,
		Transactions: txs,
		Corrections:  corrections,
		UploadDir:    t.TempDir(),
		Logger:       discard,
	})
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	w := doJSON(t, testServer(t).Router(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestQuery_DefaultsFlagsTrue(t *testing.T) {
	w := doJSON(t, testServer(t).Router(), http.MethodPost, "/api/query", `{"query": "show me top vendors"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp agent.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Answer, "Acme Corp")
	assert.Equal(t, []string{"get_metrics"}, resp.ToolCalls)
}

func TestQuery_MissingQuery(t *testing.T) {
	w := doJSON(t, testServer(t).Router(), http.MethodPost, "/api/query", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInsightsEndpoints(t *testing.T) {
	r := testServer(t).Router()

	w := doJSON(t, r, http.MethodGet, "/api/insights/vendors", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Acme Corp")

	w = doJSON(t, r, http.MethodGet, "/api/insights/categories", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/insights/monthly?year=2024&month=3", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_spend":150`)

	w = doJSON(t, r, http.MethodGet, "/api/insights/monthly", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/insights/forecast", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetDocument(t *testing.T) {
	r := testServer(t).Router()

	w := doJSON(t, r, http.MethodGet, "/api/documents/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "inv.pdf")

	w = doJSON(t, r, http.MethodGet, "/api/documents/999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCorrectionFlow(t *testing.T) {
	srv := testServer(t)
	r := srv.Router()

	w := doJSON(t, r, http.MethodPost, "/api/documents/1/corrections",
		`{"field_name": "vendor", "original_value": "Acme", "corrected_value": "Acme Corporation"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	doc, err := srv.docs.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Contains(t, string(doc.ExtractedData), "Acme Corporation")

	w = doJSON(t, r, http.MethodGet, "/api/documents/1/corrections", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Acme Corporation")
}

func TestUpload(t *testing.T) {
	r := testServer(t).Router()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "new-invoice.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("Invoice Number: INV-77\nSeller: Globex\nTotal: 42.00"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"document_type":"invoice"`)
}

func TestExportEndpoint(t *testing.T) {
	w := doJSON(t, testServer(t).Router(), http.MethodGet, "/api/export/transactions.xlsx", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "transactions.xlsx")
	assert.NotEmpty(t, w.Body.Bytes())
}
