package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/docsight/docsight/constants"
	"github.com/docsight/docsight/internal/common"
	"github.com/docsight/docsight/internal/entity"
	"github.com/docsight/docsight/internal/extract"
	"github.com/docsight/docsight/internal/materialize"
	"github.com/docsight/docsight/internal/rag"
	"github.com/docsight/docsight/internal/repository"
	"github.com/docsight/docsight/internal/textextract"
)

// Stats summarizes one ingestion run.
type Stats struct {
	Ingested int `json:"ingested"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Pipeline ingests document files end to end: text extraction, field
// extraction, persistence, transaction materialization, and RAG indexing.
type Pipeline struct {
	extractor    *textextract.Extractor
	engine       *extract.Engine
	materializer *materialize.Materializer
	docs         *repository.DocumentRepository
	txs          *repository.TransactionRepository
	rag          *rag.Service
	logger       *slog.Logger
}

func NewPipeline(
	extractor *textextract.Extractor,
	engine *extract.Engine,
	materializer *materialize.Materializer,
	docs *repository.DocumentRepository,
	txs *repository.TransactionRepository,
	ragSvc *rag.Service,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		extractor:    extractor,
		engine:       engine,
		materializer: materializer,
		docs:         docs,
		txs:          txs,
		rag:          ragSvc,
		logger:       logger,
	}
}

// IngestFile processes a single document and reports whether it was newly
// created; already-ingested paths are returned as-is without reprocessing.
// Text extraction failures do not abort the document: it is stored with
// empty text so the failure is visible and re-ingestable later.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (*entity.Document, bool, error) {
	start := time.Now()

	ext := constants.NormalizeExt(filepath.Ext(path))
	if _, ok := constants.AllowedExtensions[ext]; !ok {
		return nil, false, common.NewAppError("INGEST_EXT", "unsupported file extension", common.ErrInvalidInput)
	}

	if existing, err := p.docs.GetByPath(ctx, path); err == nil {
		p.logger.Debug("ingest.skip_existing", "path", path, "document_id", existing.ID)
		return existing, false, nil
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, false, err
	}

	text := ""
	if res, err := p.extractor.Extract(ctx, path); err != nil {
		p.logger.Warn("ingest.text_extraction_failed", "path", path, "error", err)
	} else {
		text = res.Text
	}

	docType, fields := p.engine.Extract(text)
	encoded, err := extract.MarshalFields(fields)
	if err != nil {
		return nil, false, err
	}

	doc := &entity.Document{
		Filename:      filepath.Base(path),
		FilePath:      path,
		DocumentType:  docType,
		RawText:       text,
		ExtractedData: encoded,
	}
	if err := p.docs.Insert(ctx, doc); err != nil {
		return nil, false, err
	}

	txs := p.materializer.Transactions(doc.ID, fields)
	for i := range txs {
		txs[i].DocumentID = doc.ID
	}
	if err := p.txs.InsertBatch(ctx, txs); err != nil {
		return nil, false, err
	}

	if p.rag != nil && text != "" {
		if err := p.rag.IndexDocument(ctx, doc); err != nil {
			p.logger.Warn("ingest.rag_index_failed", "document_id", doc.ID, "error", err)
		}
	}

	p.logger.Info("ingest.document_completed",
		"path", path,
		"document_id", doc.ID,
		"document_type", docType,
		"transactions", len(txs),
		"elapsed_ms", time.Since(start).Milliseconds())
	return doc, true, nil
}

// IngestDir walks dir recursively and ingests every supported file.
// Individual failures are counted, logged, and skipped.
func (p *Pipeline) IngestDir(ctx context.Context, dir string) (Stats, error) {
	runID := uuid.NewString()
	var stats Stats
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		ext := constants.NormalizeExt(filepath.Ext(path))
		if _, ok := constants.AllowedExtensions[ext]; !ok {
			stats.Skipped++
			return nil
		}
		_, created, err := p.IngestFile(ctx, path)
		if err != nil {
			p.logger.Error("ingest.file_failed", "path", path, "error", err)
			stats.Failed++
			return nil
		}
		if created {
			stats.Ingested++
		} else {
			stats.Skipped++
		}
		return nil
	})
	p.logger.Info("ingest.run_completed",
		"run_id", runID,
		"dir", dir,
		"ingested", stats.Ingested,
		"skipped", stats.Skipped,
		"failed", stats.Failed)
	return stats, err
}
