package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/docsight/docsight/internal/common"
	"github.com/docsight/docsight/internal/extract"
	"github.com/docsight/docsight/internal/ingest"
	"github.com/docsight/docsight/internal/materialize"
	"github.com/docsight/docsight/internal/rag"
	"github.com/docsight/docsight/internal/repository"
	"github.com/docsight/docsight/internal/textextract"
)

func main() {
	dir := flag.String("dir", "./documents", "directory of documents to ingest")
	flag.Parse()

	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("config invalid", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(cfg.Database.Path, cfg.Database.DialTimeout, logger)
	if err != nil {
		logger.Error("database open failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	store := rag.NewMemoryStore()
	if _, statErr := os.Stat(cfg.Embedding.IndexPath); statErr == nil {
		if err := store.Load(cfg.Embedding.IndexPath); err != nil {
			logger.Warn("vector index load failed, starting empty", "path", cfg.Embedding.IndexPath, "error", err)
		}
	}
	embedder := rag.NewHTTPEmbedder(rag.EmbedderConfig{
		BaseURL: cfg.Embedding.BaseURL,
		APIKey:  cfg.Embedding.APIKey,
		Model:   cfg.Embedding.Model,
		Timeout: cfg.Embedding.Timeout,
	})

	pipeline := ingest.NewPipeline(
		textextract.NewExtractor(textextract.Config{
			Pdftoppm:      cfg.OCR.Pdftoppm,
			Tesseract:     cfg.OCR.Tesseract,
			TesseractLang: cfg.OCR.TesseractLang,
			DPI:           cfg.OCR.DPI,
			MaxPages:      cfg.OCR.MaxPages,
		}, logger),
		extract.NewEngine(logger),
		materialize.New(logger),
		repository.NewDocumentRepository(db),
		repository.NewTransactionRepository(db),
		rag.NewService(embedder, store, logger),
		logger)

	stats, err := pipeline.IngestDir(ctx, *dir)
	if err != nil {
		logger.Error("ingestion aborted", "error", err)
		os.Exit(1)
	}

	if err := store.Save(cfg.Embedding.IndexPath); err != nil {
		logger.Warn("vector index save failed", "path", cfg.Embedding.IndexPath, "error", err)
	}

	logger.Info("ingestion finished",
		"dir", *dir,
		"ingested", stats.Ingested,
		"skipped", stats.Skipped,
		"failed", stats.Failed)
}
