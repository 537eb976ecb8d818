package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/docsight/docsight/constants"
	"github.com/docsight/docsight/internal/common"
	"github.com/docsight/docsight/internal/entity"
)

type queryRequest struct {
	Query  string `json:"query" binding:"required"`
	UseRAG *bool  `json:"use_rag"` // defaults to true when omitted
	UseSQL *bool  `json:"use_sql"` // defaults to true when omitted
}

func (s *Server) handleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}
	useRAG, useSQL := true, true
	if req.UseRAG != nil {
		useRAG = *req.UseRAG
	}
	if req.UseSQL != nil {
		useSQL = *req.UseSQL
	}

	resp := s.agent.ProcessQuery(c.Request.Context(), req.Query, useRAG, useSQL)
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}
	ext := constants.NormalizeExt(filepath.Ext(file.Filename))
	if _, ok := constants.AllowedExtensions[ext]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file type"})
		return
	}

	dst := filepath.Join(s.uploadDir, filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, dst); err != nil {
		s.logger.Error("http.upload_save_failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
		return
	}

	doc, created, err := s.pipeline.IngestFile(c.Request.Context(), dst)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if created {
		// answers cached before this upload may now be stale
		s.agent.PurgeCache()
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":            doc.ID,
		"filename":      doc.Filename,
		"document_type": doc.DocumentType,
		"created":       created,
	})
}

func (s *Server) handleGetDocument(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}
	doc, err := s.docs.GetByID(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":             doc.ID,
		"filename":       doc.Filename,
		"document_type":  doc.DocumentType,
		"extracted_data": json.RawMessage(doc.ExtractedData),
		"created_at":     doc.CreatedAt,
	})
}

type correctionRequest struct {
	FieldName      string `json:"field_name" binding:"required"`
	OriginalValue  string `json:"original_value"`
	CorrectedValue string `json:"corrected_value" binding:"required"`
}

// handleCorrection records an audit row and applies the override to the
// document's extracted fields. The audit trail is append-only; the envelope
// is what downstream readers see.
func (s *Server) handleCorrection(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}
	var req correctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "field_name and corrected_value are required"})
		return
	}

	doc, err := s.docs.GetByID(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}

	correction := &entity.DocumentCorrection{
		DocumentID:     id,
		FieldName:      req.FieldName,
		OriginalValue:  req.OriginalValue,
		CorrectedValue: req.CorrectedValue,
	}
	if err := s.corrections.Insert(c.Request.Context(), correction); err != nil {
		s.writeError(c, err)
		return
	}

	updated, err := applyFieldOverride(doc.ExtractedData, req.FieldName, req.CorrectedValue)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if err := s.docs.UpdateExtracted(c.Request.Context(), id, doc.DocumentType, updated); err != nil {
		s.writeError(c, err)
		return
	}
	s.agent.PurgeCache()

	c.JSON(http.StatusCreated, gin.H{"id": correction.ID})
}

// applyFieldOverride sets one field inside the extracted-data envelope,
// treating the fields object as loose JSON so any field name can be
// corrected.
func applyFieldOverride(envelope []byte, field, value string) ([]byte, error) {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(envelope, &env); err != nil {
		return nil, common.NewAppError("CORRECTION_APPLY", "malformed extracted data", err)
	}
	fields := map[string]any{}
	if raw, ok := env["fields"]; ok {
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, common.NewAppError("CORRECTION_APPLY", "malformed extracted fields", err)
		}
	}
	fields[field] = value
	rawFields, err := json.Marshal(fields)
	if err != nil {
		return nil, common.NewAppError("CORRECTION_APPLY", "failed to encode fields", err)
	}
	env["fields"] = rawFields
	return json.Marshal(env)
}

func (s *Server) handleListCorrections(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}
	list, err := s.corrections.ListByDocument(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"corrections": list})
}

func (s *Server) handleVendors(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	stats, err := s.insights.TopVendors(c.Request.Context(), limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vendors": stats})
}

func (s *Server) handleCategories(c *gin.Context) {
	stats, err := s.insights.CategoryBreakdown(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": stats})
}

func (s *Server) handleMonthly(c *gin.Context) {
	year, errY := strconv.Atoi(c.Query("year"))
	month, errM := strconv.Atoi(c.Query("month"))
	if errY != nil || errM != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year and month query params are required"})
		return
	}
	stat, err := s.insights.MonthlySpend(c.Request.Context(), year, month)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stat)
}

func (s *Server) handleForecast(c *gin.Context) {
	months, _ := strconv.Atoi(c.DefaultQuery("months", "12"))
	f, err := s.insights.SpendingForecast(c.Request.Context(), months)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (s *Server) handleExport(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "1000"))
	out, err := s.export.ExportTransactionsXLSX(c.Request.Context(), limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="transactions.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", out)
}

// writeError maps application errors to HTTP statuses without leaking
// internals.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.logger.Error("http.internal_error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
