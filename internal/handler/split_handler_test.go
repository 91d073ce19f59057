package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"smartsplit/internal/domain"
	"smartsplit/internal/handler"
	"smartsplit/internal/service"
	"smartsplit/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newSplitRouter(svc service.SplitService, maxSize int64) *gin.Engine {
	h := handler.NewSplitHandler(svc, maxSize)
	r := gin.New()
	g := r.Group("/api/v1/splits")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.GetByID)
	g.DELETE("/:id", h.Delete)
	g.PATCH("/:id/sections/:index", h.UpdateSection)
	g.GET("/:id/manifest", h.Manifest)
	r.GET("/api/v1/corrections/report", h.AccuracyReport)
	return r
}

func multipartBody(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func decode(t *testing.T, body io.Reader) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}

func TestCreate_Success(t *testing.T) {
	svc := new(mocks.MockSplitService)
	run := &domain.SplitRun{ID: uuid.New(), SourceName: "bundle.pdf", PageCount: 2}
	svc.On("Split", mock.Anything, mock.MatchedBy(func(in *service.SplitInput) bool {
		_, _ = in.Body.Seek(0, io.SeekStart)
		data, _ := io.ReadAll(in.Body)
		return in.SourceName == "bundle.pdf" && in.Export && string(data) == "%PDF-1.4 body" && in.Size == 13
	})).Return(&service.SplitResult{Run: run}, nil)

	body, ct := multipartBody(t, "bundle.pdf", []byte("%PDF-1.4 body"), map[string]string{"export": "true"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/splits", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	newSplitRouter(svc, 0).ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decode(t, w.Body)
	assert.True(t, resp.Success)
	svc.AssertExpectations(t)
}

func TestCreate_MissingFile(t *testing.T) {
	svc := new(mocks.MockSplitService)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/splits", strings.NewReader(""))
	w := httptest.NewRecorder()
	newSplitRouter(svc, 0).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_FILE", decode(t, w.Body).Error.Code)
	svc.AssertNotCalled(t, "Split", mock.Anything, mock.Anything)
}

func TestCreate_TooLarge(t *testing.T) {
	svc := new(mocks.MockSplitService)
	body, ct := multipartBody(t, "big.pdf", bytes.Repeat([]byte("x"), 64), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/splits", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	newSplitRouter(svc, 10).ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "FILE_TOO_LARGE", decode(t, w.Body).Error.Code)
}

func TestCreate_ServiceErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrUnsupportedFileType, http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE"},
		{domain.ErrEmptyDocument, http.StatusUnprocessableEntity, "EMPTY_DOCUMENT"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			svc := new(mocks.MockSplitService)
			svc.On("Split", mock.Anything, mock.Anything).Return(nil, tt.err)

			body, ct := multipartBody(t, "a.pdf", []byte("data"), nil)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/splits", body)
			req.Header.Set("Content-Type", ct)
			w := httptest.NewRecorder()
			newSplitRouter(svc, 0).ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decode(t, w.Body).Error.Code)
		})
	}
}

func TestGetByID(t *testing.T) {
	svc := new(mocks.MockSplitService)
	id := uuid.New()
	svc.On("GetRun", mock.Anything, id).Return(&domain.SplitRun{ID: id, PageCount: 4}, nil)
	missing := uuid.New()
	svc.On("GetRun", mock.Anything, missing).Return(nil, domain.ErrNotFound)
	r := newSplitRouter(svc, 0)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/splits/"+id.String(), http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/splits/"+missing.String(), http.NoBody))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/splits/not-a-uuid", http.NoBody))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", decode(t, w.Body).Error.Code)
}

func TestList_Pagination(t *testing.T) {
	svc := new(mocks.MockSplitService)
	svc.On("List", mock.Anything, 0, 20).Return([]domain.SplitRun{{ID: uuid.New()}}, 7, nil)

	w := httptest.NewRecorder()
	newSplitRouter(svc, 0).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/splits?limit=500&offset=-3", http.NoBody))

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w.Body)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 7, resp.Meta.Total)
	assert.Equal(t, 20, resp.Meta.Limit)
}

func TestUpdateSection(t *testing.T) {
	svc := new(mocks.MockSplitService)
	id := uuid.New()
	svc.On("UpdateSection", mock.Anything, id, 1, mock.MatchedBy(func(o domain.SectionOverride) bool {
		return o.DocumentType != nil && *o.DocumentType == domain.DocTypeRFI && o.Filename == nil
	})).Return(&domain.DocumentSection{DocumentType: domain.DocTypeRFI, Filename: "RFI_p2"}, nil)
	r := newSplitRouter(svc, 0)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/splits/"+id.String()+"/sections/1",
		strings.NewReader(`{"document_type":"rfi"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPatch, "/api/v1/splits/"+id.String()+"/sections/x", strings.NewReader(`{}`))
	r.ServeHTTP(w, req)
	assert.Equal(t, "INVALID_INDEX", decode(t, w.Body).Error.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPatch, "/api/v1/splits/"+id.String()+"/sections/0", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", decode(t, w.Body).Error.Code)
}

func TestUpdateSection_DomainErrors(t *testing.T) {
	svc := new(mocks.MockSplitService)
	id := uuid.New()
	svc.On("UpdateSection", mock.Anything, id, 9, mock.Anything).Return(nil, domain.ErrInvalidSectionIndex)
	svc.On("UpdateSection", mock.Anything, id, 0, mock.Anything).Return(nil, domain.ErrUnknownDocumentType)
	r := newSplitRouter(svc, 0)

	send := func(index string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/splits/"+id.String()+"/sections/"+index,
			strings.NewReader(`{"filename":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}
	assert.Equal(t, http.StatusNotFound, send("9").Code)
	assert.Equal(t, http.StatusBadRequest, send("0").Code)
}

func TestManifest(t *testing.T) {
	svc := new(mocks.MockSplitService)
	id := uuid.New()
	svc.On("Manifest", mock.Anything, id, domain.ManifestCSV).Return(&service.Manifest{
		Filename: "bundle_manifest_2026-01-01.csv", ContentType: "text/csv; charset=utf-8", Data: []byte("a,b\n"),
	}, nil)
	svc.On("Manifest", mock.Anything, id, domain.ManifestFormat("pdf")).Return(nil, domain.ErrUnsupportedFormat)
	r := newSplitRouter(svc, 0)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/splits/"+id.String()+"/manifest", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "bundle_manifest_2026-01-01.csv")
	assert.Equal(t, "a,b\n", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/splits/"+id.String()+"/manifest?format=pdf", http.NoBody))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNSUPPORTED_FORMAT", decode(t, w.Body).Error.Code)
}

func TestDelete(t *testing.T) {
	svc := new(mocks.MockSplitService)
	id := uuid.New()
	svc.On("Delete", mock.Anything, id).Return(nil)

	w := httptest.NewRecorder()
	newSplitRouter(svc, 0).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/splits/"+id.String(), http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAccuracyReport(t *testing.T) {
	svc := new(mocks.MockSplitService)
	svc.On("AccuracyReport", mock.Anything).Return(&domain.AccuracyReport{
		TotalCorrections: 2,
		Types: []domain.TypeAccuracy{{
			DocumentType: domain.DocTypeRFI, TotalClassifications: 8, TotalCorrections: 2,
			AccuracyRate: 0.75, CorrectionRate: 0.25, ConfidenceAdjustment: 0.875,
			MostCorrectedTo: domain.DocTypeRFIResponse, MostCorrectedToRate: 1,
		}},
	}, nil)

	w := httptest.NewRecorder()
	newSplitRouter(svc, 0).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/corrections/report", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool                  `json:"success"`
		Data    domain.AccuracyReport `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.True(t, body.Success)
	require.Len(t, body.Data.Types, 1)
	assert.Equal(t, domain.DocTypeRFIResponse, body.Data.Types[0].MostCorrectedTo)
	assert.Equal(t, 0.875, body.Data.Types[0].ConfidenceAdjustment)
}

func TestAccuracyReport_Error(t *testing.T) {
	svc := new(mocks.MockSplitService)
	svc.On("AccuracyReport", mock.Anything).Return(nil, errors.New("db down"))

	w := httptest.NewRecorder()
	newSplitRouter(svc, 0).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/corrections/report", http.NoBody))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHealth(t *testing.T) {
	r := gin.New()
	up := handler.NewHealthHandler(func(context.Context) error { return nil })
	down := handler.NewHealthHandler(func(context.Context) error { return errors.New("no db") })
	r.GET("/healthz", up.Liveness)
	r.GET("/readyz", up.Readiness)
	r.GET("/readyz-down", down.Readiness)

	for path, want := range map[string]int{
		"/healthz":     http.StatusOK,
		"/readyz":      http.StatusOK,
		"/readyz-down": http.StatusServiceUnavailable,
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
		assert.Equal(t, want, w.Code, path)
	}
}
