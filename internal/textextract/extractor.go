package textextract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/docsight/docsight/constants"
)

type Config struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit
}

type Result struct {
	Text       string
	Pages      int
	SourceType string // constants.PDF | constants.IMAGE | constants.TXT
	Method     string // "pdf-text" | "pdf-ocr" | "image-ocr" | "plain"
	Duration   time.Duration
	Warnings   []string
}

// Extractor turns a document file into raw text: PDFs via their embedded
// text layer with a rasterize+OCR fallback, images via OCR, plain text as-is.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// Extract picks a strategy based on file extension.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("textextract.start", "path", path, "ext", ext)

	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res, err := e.extractPDF(ctx, path)
		res.Duration = time.Since(start)
		return res, err
	case constants.IMAGE:
		res, err := e.extractImage(ctx, path)
		res.Duration = time.Since(start)
		return res, err
	case constants.TXT:
		res, err := e.extractPlain(path)
		res.Duration = time.Since(start)
		return res, err
	default:
		e.logger.Error("textextract.unsupported_extension", "extension", ext)
		return Result{}, fmt.Errorf("unsupported extension: %q", ext)
	}
}

func (e *Extractor) extractPlain(path string) (Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Result{SourceType: constants.TXT}, fmt.Errorf("read text file: %w", err)
	}
	return Result{
		Text:       Normalize(string(raw)),
		Pages:      1,
		SourceType: constants.TXT,
		Method:     "plain",
	}, nil
}
