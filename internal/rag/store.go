package rag

import (
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"
)

// DocumentChunk is one indexed snippet with its source metadata.
type DocumentChunk struct {
	DocumentID   int64
	Filename     string
	DocumentType string
	Text         string
	Vector       []float64 // stored L2-normalized
}

// Hit pairs a chunk with its similarity to a query.
type Hit struct {
	Chunk DocumentChunk
	Score float64
}

// MemoryStore is an in-memory vector index with cosine similarity search.
// Vectors are normalized on insert so search is a plain dot product.
type MemoryStore struct {
	mu     sync.RWMutex
	chunks []DocumentChunk
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Add(chunk DocumentChunk) {
	chunk.Vector = normalize(chunk.Vector)
	s.mu.Lock()
	s.chunks = append(s.chunks, chunk)
	s.mu.Unlock()
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Search returns the topK most similar chunks, best first.
func (s *MemoryStore) Search(query []float64, topK int) []Hit {
	if topK <= 0 {
		topK = 5
	}
	q := normalize(query)

	s.mu.RLock()
	hits := make([]Hit, 0, len(s.chunks))
	for _, c := range s.chunks {
		hits = append(hits, Hit{Chunk: c, Score: dot(q, c.Vector)})
	}
	s.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

// Save writes the index to path with gob.
func (s *MemoryStore) Save(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(s.chunks); err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	return nil
}

// Load replaces the index with the gob-encoded contents of path.
func (s *MemoryStore) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()

	var chunks []DocumentChunk
	if err := gob.NewDecoder(f).Decode(&chunks); err != nil {
		return fmt.Errorf("decode index: %w", err)
	}
	s.mu.Lock()
	s.chunks = chunks
	s.mu.Unlock()
	return nil
}

func normalize(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
