package rag

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/docsight/docsight/internal/entity"
)

const (
	chunkSize      = 1000
	chunkOverlap   = 100
	maxSnippetLen  = 500
	defaultResults = 5
)

// SearchResult is the caller-facing shape of one semantic search hit.
type SearchResult struct {
	Filename     string  `json:"filename"`
	DocumentType string  `json:"document_type"`
	Snippet      string  `json:"text_snippet"`
	Score        float64 `json:"score"`
}

// Service indexes document text and answers semantic search queries.
type Service struct {
	embedder Embedder
	store    *MemoryStore
	logger   *slog.Logger
}

func NewService(embedder Embedder, store *MemoryStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{embedder: embedder, store: store, logger: logger}
}

// IndexDocument chunks and embeds one document's raw text. Chunks that fail
// to embed are skipped; indexing is best-effort.
func (s *Service) IndexDocument(ctx context.Context, doc *entity.Document) error {
	start := time.Now()
	chunks := splitChunks(doc.RawText, chunkSize, chunkOverlap)

	indexed := 0
	for _, text := range chunks {
		vec, err := s.embedder.Embed(ctx, text)
		if err != nil {
			s.logger.Warn("rag.embed_failed",
				"document_id", doc.ID, "error", err)
			continue
		}
		s.store.Add(DocumentChunk{
			DocumentID:   doc.ID,
			Filename:     doc.Filename,
			DocumentType: string(doc.DocumentType),
			Text:         text,
			Vector:       vec,
		})
		indexed++
	}

	s.logger.Info("rag.indexed",
		"document_id", doc.ID,
		"chunks", indexed,
		"elapsed_ms", time.Since(start).Milliseconds())
	return nil
}

// Search embeds the query and returns the closest snippets.
func (s *Service) Search(ctx context.Context, query string, topK int) ([]SearchResult, error) {
	if topK <= 0 {
		topK = defaultResults
	}
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	hits := s.store.Search(vec, topK)
	results := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, SearchResult{
			Filename:     h.Chunk.Filename,
			DocumentType: h.Chunk.DocumentType,
			Snippet:      snippet(h.Chunk.Text),
			Score:        h.Score,
		})
	}
	return results, nil
}

func snippet(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= maxSnippetLen {
		return text
	}
	return text[:maxSnippetLen]
}

// splitChunks slices text into overlapping windows so matches near chunk
// boundaries are not lost.
func splitChunks(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= size {
		return []string{text}
	}
	var chunks []string
	step := size - overlap
	for start := 0; start < len(text); start += step {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if end == len(text) {
			break
		}
	}
	return chunks
}
