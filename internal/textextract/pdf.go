package textextract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/docsight/docsight/constants"
)

// Below this many letters the text layer is assumed to be absent or junk
// (scanned PDFs often carry a stub layer) and we fall back to OCR.
const minTextLayerLetters = 50

func (e *Extractor) extractPDF(ctx context.Context, path string) (Result, error) {
	text, pages, err := pdfTextLayer(path)
	if err == nil && letterCount(text) >= minTextLayerLetters {
		return Result{
			Text:       Normalize(text),
			Pages:      pages,
			SourceType: constants.PDF,
			Method:     "pdf-text",
		}, nil
	}

	var warns []string
	if err != nil {
		warns = append(warns, fmt.Sprintf("pdf text layer: %v", err))
	} else {
		warns = append(warns, "pdf text layer too sparse, falling back to ocr")
	}

	text, pages, ocrWarns, err := e.pdfToOCR(ctx, path)
	warns = append(warns, ocrWarns...)
	if err != nil {
		return Result{SourceType: constants.PDF, Warnings: warns}, err
	}
	return Result{
		Text:       Normalize(text),
		Pages:      pages,
		SourceType: constants.PDF,
		Method:     "pdf-ocr",
		Warnings:   warns,
	}, nil
}

// pdfTextLayer reads the embedded text layer without shelling out.
func pdfTextLayer(path string) (string, int, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	reader, err := r.GetPlainText()
	if err != nil {
		return "", 0, fmt.Errorf("read pdf text layer: %w", err)
	}
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", 0, fmt.Errorf("read pdf text layer: %w", err)
	}
	return buf.String(), r.NumPage(), nil
}

func (e *Extractor) pdfToOCR(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	tmpDir, err := os.MkdirTemp("", "ds-pp-*")
	if err != nil {
		return "", 0, nil, err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			e.logger.Warn("textextract.tmpdir_cleanup_failed", "path", tmpDir, "error", rmErr)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", 0, []string{"pdftoppm produced no images"}, fmt.Errorf("no pages rendered")
	}

	var b strings.Builder
	var warns []string
	for _, img := range matches {
		txt, w, err := e.tesseractOCR(ctx, img)
		if err != nil {
			warns = append(warns, err.Error())
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n") // keep a clear page break marker
		}
		b.WriteString(txt)
		warns = append(warns, w...)
	}
	pages = len(matches)
	return b.String(), pages, warns, nil
}

func letterCount(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}
