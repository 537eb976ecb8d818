package rag

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsight/docsight/internal/entity"
)

// stubEmbedder maps text to a fixed 3-dim vector from keyword hits, making
// similarity deterministic without a model.
type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	lower := strings.ToLower(text)
	v := make([]float64, 3)
	if strings.Contains(lower, "invoice") {
		v[0] = 1
	}
	if strings.Contains(lower, "bank") {
		v[1] = 1
	}
	if strings.Contains(lower, "receipt") {
		v[2] = 1
	}
	if v[0]+v[1]+v[2] == 0 {
		v[0], v[1], v[2] = 0.1, 0.1, 0.1
	}
	return v, nil
}

func testService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	svc := NewService(stubEmbedder{}, store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return svc, store
}

func TestIndexAndSearch(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()

	docs := []*entity.Document{
		{ID: 1, Filename: "inv.pdf", DocumentType: "invoice", RawText: "invoice from Acme Corp"},
		{ID: 2, Filename: "stmt.pdf", DocumentType: "statement", RawText: "bank statement for March"},
	}
	for _, d := range docs {
		require.NoError(t, svc.IndexDocument(ctx, d))
	}
	assert.Equal(t, 2, store.Len())

	results, err := svc.Search(ctx, "show me the invoice", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "inv.pdf", results[0].Filename)
	assert.Equal(t, "invoice", results[0].DocumentType)
}

func TestSearch_SnippetCapped(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	long := "invoice " + strings.Repeat("x", 2000)
	require.NoError(t, svc.IndexDocument(ctx, &entity.Document{ID: 1, Filename: "big.pdf", RawText: long}))

	results, err := svc.Search(ctx, "invoice", 1)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.LessOrEqual(t, len(results[0].Snippet), maxSnippetLen)
}

func TestSearchResult_JSONFieldNames(t *testing.T) {
	raw, err := json.Marshal(SearchResult{Filename: "a.pdf", Snippet: "hello"})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"text_snippet":"hello"`)
}

func TestMemoryStore_SaveLoad(t *testing.T) {
	store := NewMemoryStore()
	store.Add(DocumentChunk{DocumentID: 1, Filename: "a.pdf", Text: "hello", Vector: []float64{1, 0, 0}})
	store.Add(DocumentChunk{DocumentID: 2, Filename: "b.pdf", Text: "world", Vector: []float64{0, 1, 0}})

	path := filepath.Join(t.TempDir(), "index.gob")
	require.NoError(t, store.Save(path))

	loaded := NewMemoryStore()
	require.NoError(t, loaded.Load(path))
	assert.Equal(t, 2, loaded.Len())

	hits := loaded.Search([]float64{1, 0, 0}, 1)
	require.Len(t, hits, 1)
	assert.Equal(t, "a.pdf", hits[0].Chunk.Filename)
}

func TestSplitChunks_Overlap(t *testing.T) {
	text := strings.Repeat("a", 2500)
	chunks := splitChunks(text, 1000, 100)
	require.GreaterOrEqual(t, len(chunks), 3)
	assert.Len(t, chunks[0], 1000)
	assert.Len(t, chunks[1], 1000)
}
