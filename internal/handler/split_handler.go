package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"smartsplit/internal/domain"
	"smartsplit/internal/service"
)

// SplitHandler handles split run endpoints.
type SplitHandler struct {
	splitService service.SplitService
	maxFileSize  int64
}

// NewSplitHandler creates a new SplitHandler. maxFileSize bounds the upload
// read; zero means unbounded.
func NewSplitHandler(splitService service.SplitService, maxFileSize int64) *SplitHandler {
	return &SplitHandler{splitService: splitService, maxFileSize: maxFileSize}
}

// Create handles POST /api/v1/splits
// @Summary Split a PDF
// @Description Upload a multi-document PDF and split it into typed, named sections
// @Tags splits
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF to split"
// @Param export formData bool false "Export sections to the configured sink"
// @Success 201 {object} Response{data=service.SplitResult} "Split run"
// @Failure 400 {object} ErrorResponseBody "Missing file or unsupported type"
// @Failure 413 {object} ErrorResponseBody "File too large"
// @Failure 422 {object} ErrorResponseBody "Unreadable document"
// @Router /splits [post]
func (h *SplitHandler) Create(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			HandleError(c, domain.ErrFileTooLarge)
			return
		}
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	if h.maxFileSize > 0 && header.Size > h.maxFileSize {
		HandleError(c, domain.ErrFileTooLarge)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "UNREADABLE_FILE", "could not read uploaded file")
		return
	}
	export, _ := strconv.ParseBool(c.DefaultPostForm("export", "false"))

	result, err := h.splitService.Split(c.Request.Context(), &service.SplitInput{
		SourceName: header.Filename,
		Body:       bytes.NewReader(data),
		Size:       int64(len(data)),
		Export:     export,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, result)
}

// List handles GET /api/v1/splits
// @Summary List split runs
// @Tags splits
// @Produce json
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination (max 100)" default(20)
// @Success 200 {object} Response{data=[]domain.SplitRun,meta=PagMeta} "Run summaries"
// @Router /splits [get]
func (h *SplitHandler) List(c *gin.Context) {
	offset, limit := parsePagination(c)
	runs, total, err := h.splitService.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, runs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/splits/:id
// @Summary Get a split run
// @Tags splits
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} Response{data=domain.SplitRun} "Split run with sections"
// @Failure 400 {object} ErrorResponseBody "Invalid ID"
// @Failure 404 {object} ErrorResponseBody "Not found"
// @Router /splits/{id} [get]
func (h *SplitHandler) GetByID(c *gin.Context) {
	id, ok := parseRunID(c)
	if !ok {
		return
	}
	run, err := h.splitService.GetRun(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, run)
}

// UpdateSection handles PATCH /api/v1/splits/:id/sections/:index
// @Summary Override a section
// @Description Change a section's document type and/or filename. The filename is sanitized.
// @Tags splits
// @Accept json
// @Produce json
// @Param id path string true "Run ID"
// @Param index path int true "Section index (0-based)"
// @Param body body UpdateSectionRequest true "Override"
// @Success 200 {object} Response{data=domain.DocumentSection} "Updated section"
// @Failure 400 {object} ErrorResponseBody "Invalid request"
// @Failure 404 {object} ErrorResponseBody "Run or section not found"
// @Router /splits/{id}/sections/{index} [patch]
func (h *SplitHandler) UpdateSection(c *gin.Context) {
	id, ok := parseRunID(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_INDEX", "section index must be an integer")
		return
	}

	var req UpdateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if req.DocumentType == nil && req.Filename == nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "document_type or filename is required")
		return
	}

	var override domain.SectionOverride
	if req.DocumentType != nil {
		dt := domain.DocumentType(*req.DocumentType)
		override.DocumentType = &dt
	}
	override.Filename = req.Filename

	section, err := h.splitService.UpdateSection(c.Request.Context(), id, index, override)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, section)
}

// Manifest handles GET /api/v1/splits/:id/manifest
// @Summary Download a run manifest
// @Tags splits
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Run ID"
// @Param format query string false "csv or xlsx" default(csv)
// @Success 200 {file} file "Manifest"
// @Failure 400 {object} ErrorResponseBody "Unsupported format"
// @Failure 404 {object} ErrorResponseBody "Not found"
// @Router /splits/{id}/manifest [get]
func (h *SplitHandler) Manifest(c *gin.Context) {
	id, ok := parseRunID(c)
	if !ok {
		return
	}
	format := domain.ManifestFormat(c.DefaultQuery("format", string(domain.ManifestCSV)))

	m, err := h.splitService.Manifest(c.Request.Context(), id, format)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, m.Filename))
	c.Data(http.StatusOK, m.ContentType, m.Data)
}

// Delete handles DELETE /api/v1/splits/:id
// @Summary Delete a split run
// @Tags splits
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} Response{data=MessageResponse}
// @Failure 404 {object} ErrorResponseBody "Not found"
// @Router /splits/{id} [delete]
func (h *SplitHandler) Delete(c *gin.Context) {
	id, ok := parseRunID(c)
	if !ok {
		return
	}
	if err := h.splitService.Delete(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "split run deleted"})
}

// AccuracyReport handles GET /api/v1/corrections/report
// @Summary Correction accuracy report
// @Description Per document type: how often users relabelled sections and the resulting confidence adjustment
// @Tags corrections
// @Produce json
// @Success 200 {object} Response{data=domain.AccuracyReport}
// @Failure 500 {object} ErrorResponseBody
// @Router /corrections/report [get]
func (h *SplitHandler) AccuracyReport(c *gin.Context) {
	report, err := h.splitService.AccuracyReport(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, report)
}

func parseRunID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid run ID")
		return uuid.Nil, false
	}
	return id, true
}

// parsePagination extracts offset and limit from query params with defaults.
func parsePagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}
