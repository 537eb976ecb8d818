package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docsight/docsight/internal/agent"
	"github.com/docsight/docsight/internal/export"
	"github.com/docsight/docsight/internal/ingest"
	"github.com/docsight/docsight/internal/insights"
	"github.com/docsight/docsight/internal/repository"
)

// Server wires the HTTP API to the application services.
type Server struct {
	agent       *agent.Agent
	pipeline    *ingest.Pipeline
	insights    *insights.Service
	export      *export.Service
	docs        *repository.DocumentRepository
	txs         *repository.TransactionRepository
	corrections *repository.CorrectionRepository
	uploadDir   string
	logger      *slog.Logger
}

type Deps struct {
	Agent        *agent.Agent
	Pipeline     *ingest.Pipeline
	Insights     *insights.Service
	Export       *export.Service
	Documents    *repository.DocumentRepository
	Transactions *repository.TransactionRepository
	Corrections  *repository.CorrectionRepository
	UploadDir    string
	Logger       *slog.Logger
}

func New(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	uploadDir := d.UploadDir
	if uploadDir == "" {
		uploadDir = "./uploads"
	}
	return &Server{
		agent:       d.Agent,
		pipeline:    d.Pipeline,
		insights:    d.Insights,
		export:      d.Export,
		docs:        d.Documents,
		txs:         d.Transactions,
		corrections: d.Corrections,
		uploadDir:   uploadDir,
		logger:      logger,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/query", s.handleQuery)
		api.POST("/documents", s.handleUpload)
		api.GET("/documents/:id", s.handleGetDocument)
		api.POST("/documents/:id/corrections", s.handleCorrection)
		api.GET("/documents/:id/corrections", s.handleListCorrections)
		api.GET("/insights/vendors", s.handleVendors)
		api.GET("/insights/categories", s.handleCategories)
		api.GET("/insights/monthly", s.handleMonthly)
		api.GET("/insights/forecast", s.handleForecast)
		api.GET("/export/transactions.xlsx", s.handleExport)
	}
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Info("http.request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status())
	}
}
