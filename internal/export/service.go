package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/docsight/docsight/internal/repository"
)

// Service produces XLSX bytes for transaction exports.
type Service struct {
	txRepo *repository.TransactionRepository
	logger *slog.Logger
}

func NewService(txRepo *repository.TransactionRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{txRepo: txRepo, logger: logger}
}

// ExportTransactionsXLSX returns an XLSX workbook (as bytes) holding up to
// limit transactions, newest first.
func (s *Service) ExportTransactionsXLSX(ctx context.Context, limit int) ([]byte, error) {
	start := time.Now()
	if limit <= 0 {
		limit = 1000
	}

	txs, err := s.txRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Transactions"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Date",
		"Amount",
		"Vendor",
		"Category",
		"Description",
		"Document ID",
		"Corrected",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, t := range txs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, t.Date.Format("2006-01-02"))
		write(2, t.Amount)
		write(3, t.Vendor)
		write(4, t.Category)
		write(5, t.Description)
		write(6, t.DocumentID)
		write(7, t.IsCorrected)
		row++
	}

	// drop the default sheet excelize creates
	if sheet != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("export.completed",
		"rows", len(txs),
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds())
	return buf.Bytes(), nil
}
