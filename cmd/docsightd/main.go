package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/docsight/docsight/internal/agent"
	"github.com/docsight/docsight/internal/common"
	"github.com/docsight/docsight/internal/export"
	"github.com/docsight/docsight/internal/extract"
	"github.com/docsight/docsight/internal/ingest"
	"github.com/docsight/docsight/internal/insights"
	"github.com/docsight/docsight/internal/llm"
	"github.com/docsight/docsight/internal/llm/ollama"
	"github.com/docsight/docsight/internal/llm/openai"
	"github.com/docsight/docsight/internal/materialize"
	"github.com/docsight/docsight/internal/rag"
	"github.com/docsight/docsight/internal/repository"
	"github.com/docsight/docsight/internal/server"
	"github.com/docsight/docsight/internal/sqltools"
	"github.com/docsight/docsight/internal/textextract"
)

func main() {
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

	generator, err := buildGenerator(cfg, logger)
	if err != nil {
		logger.Error("llm client init failed", "error", err)
		os.Exit(1)
	}

	store := rag.NewMemoryStore()
	if _, statErr := os.Stat(cfg.Embedding.IndexPath); statErr == nil {
		if err := store.Load(cfg.Embedding.IndexPath); err != nil {
			logger.Warn("vector index load failed, starting empty", "path", cfg.Embedding.IndexPath, "error", err)
		} else {
			logger.Info("vector index loaded", "path", cfg.Embedding.IndexPath, "chunks", store.Len())
		}
	}
	embedder := rag.NewHTTPEmbedder(rag.EmbedderConfig{
		BaseURL: cfg.Embedding.BaseURL,
		APIKey:  cfg.Embedding.APIKey,
		Model:   cfg.Embedding.Model,
		Timeout: cfg.Embedding.Timeout,
	})
	ragSvc := rag.NewService(embedder, store, logger)

	docs := repository.NewDocumentRepository(db)
	txs := repository.NewTransactionRepository(db)
	corrections := repository.NewCorrectionRepository(db)
	sqlExec := sqltools.NewExecutor(db, cfg.Database.DefaultLimit)
	insightsSvc := insights.NewService(db, logger)

	toolbox := agent.NewToolbox(sqlExec, insightsSvc, ragSvc, cfg.Agent.MetricsLimit, cfg.Agent.SearchTopK)
	ag, err := agent.New(generator, toolbox, agent.NewSQLGenerator(generator, sqlExec), cfg.Agent.CacheSize, logger)
	if err != nil {
		logger.Error("agent init failed", "error", err)
		os.Exit(1)
	}

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
		docs, txs, ragSvc, logger)

	if err := os.MkdirAll(cfg.Server.UploadDir, 0o755); err != nil {
		logger.Error("upload dir create failed", "error", err)
		os.Exit(1)
	}

	srv := server.New(server.Deps{
		Agent:        ag,
		Pipeline:     pipeline,
		Insights:     insightsSvc,
		Export:       export.NewService(txs, logger),
		Documents:    docs,
		Transactions: txs,
		Corrections:  corrections,
		UploadDir:    cfg.Server.UploadDir,
		Logger:       logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http serving", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	if err := store.Save(cfg.Embedding.IndexPath); err != nil {
		logger.Warn("vector index save failed", "path", cfg.Embedding.IndexPath, "error", err)
	}
}

func buildGenerator(cfg *common.Config, logger *slog.Logger) (llm.Generator, error) {
	switch cfg.LLM.Provider {
	case "openai":
		return openai.NewClient(openai.Config{
			APIKey: cfg.LLM.APIKey,
			Model:  cfg.LLM.Model,
		}, logger)
	default:
		return ollama.NewClient(ollama.Config{
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLM.Timeout,
		}, logger), nil
	}
}
