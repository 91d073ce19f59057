package service_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"smartsplit/internal/boundary"
	"smartsplit/internal/classifier"
	"smartsplit/internal/csvexport"
	"smartsplit/internal/domain"
	"smartsplit/internal/naming"
	"smartsplit/internal/patterns"
	"smartsplit/internal/pdfsource"
	"smartsplit/internal/pdfsource/pdftest"
	"smartsplit/internal/pipeline"
	"smartsplit/internal/port"
	"smartsplit/internal/service"
	"smartsplit/mocks"
)

func testPipeline(t *testing.T) *pipeline.Pipeline {
	t.Helper()
	lib, err := patterns.Compile(patterns.DefaultSpec())
	require.NoError(t, err)
	return pipeline.New(
		boundary.NewDetector(lib, boundary.DefaultConfig()),
		classifier.New(lib, nil, classifier.DefaultConfig()),
		naming.New(lib, naming.DefaultConfig()),
		2,
	)
}

func setupSplitService(t *testing.T, sink port.SectionSink) (service.SplitService, *mocks.MockSplitRunRepository) {
	t.Helper()
	repo := new(mocks.MockSplitRunRepository)
	svc := service.NewSplitService(testPipeline(t), service.PDFOpener(pdfsource.DefaultConfig()), repo, nil, sink, 1<<20)
	return svc, repo
}

func bundlePDF() []byte {
	return pdftest.BuildPDF(
		pdftest.TextPage("From: alice@example.com", "Subject: Pour schedule update"),
		pdftest.TextPage("thanks"),
		pdftest.TextPage("CHANGE ORDER NO. 12", "DESCRIPTION: additional rebar at grid C"),
	)
}

func storedRun() *domain.SplitRun {
	return &domain.SplitRun{
		ID:         uuid.New(),
		SourceName: "bundle.pdf",
		PageCount:  3,
		Boundaries: []int{0, 2},
		Sections: []domain.DocumentSection{
			{StartPage: 0, EndPage: 1, DocumentType: domain.DocTypeEmail, Confidence: 0.9, Method: domain.MethodRuleBased,
				Filename: "Email_x_p1-2", ExtractedFields: map[string]string{"subject": "Pour schedule update"}},
			{StartPage: 2, EndPage: 2, DocumentType: domain.DocTypeOther, Confidence: 0, Method: domain.MethodFallback,
				Filename: "Document_Unknown_p3", ExtractedFields: map[string]string{"number": "12"}},
		},
		Methods: domain.MethodCounts{RuleBased: 1, Fallback: 1},
	}
}

func TestSplit_PersistsRun(t *testing.T) {
	svc, repo := setupSplitService(t, nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.SplitRun")).Return(nil)

	data := bundlePDF()
	res, err := svc.Split(context.Background(), &service.SplitInput{
		SourceName: "bundle.pdf", Body: bytes.NewReader(data), Size: int64(len(data)), Export: true,
	})
	require.NoError(t, err)
	assert.Nil(t, res.Export)
	require.Len(t, res.Run.Sections, 2)
	assert.Equal(t, domain.DocTypeEmail, res.Run.Sections[0].DocumentType)
	assert.Equal(t, domain.DocTypeChangeOrder, res.Run.Sections[1].DocumentType)
	assert.Equal(t, "CO_12_Unknown_additional_rebar_at_grid_C_p3", res.Run.Sections[1].Filename)
	repo.AssertExpectations(t)
}

func TestSplit_ExportsWhenRequested(t *testing.T) {
	sink := new(mocks.MockSectionSink)
	svc, repo := setupSplitService(t, sink)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	exported := &port.ExportResult{Files: []port.ExportedFile{{SectionIndex: 0, Name: "a.pdf"}}}
	sink.On("Export", mock.Anything, mock.Anything, mock.AnythingOfType("*domain.SplitRun")).Return(exported, nil)

	data := bundlePDF()
	res, err := svc.Split(context.Background(), &service.SplitInput{
		SourceName: "bundle.pdf", Body: bytes.NewReader(data), Size: int64(len(data)), Export: true,
	})
	require.NoError(t, err)
	assert.Equal(t, exported, res.Export)
	sink.AssertExpectations(t)
}

func TestSplit_FailedExportStoresNothing(t *testing.T) {
	sink := new(mocks.MockSectionSink)
	svc, repo := setupSplitService(t, sink)
	sink.On("Export", mock.Anything, mock.Anything, mock.Anything).Return(nil, domain.ErrExportFailed)
	sink.On("Purge", mock.Anything, mock.Anything).Return(nil)

	data := bundlePDF()
	res, err := svc.Split(context.Background(), &service.SplitInput{
		SourceName: "bundle.pdf", Body: bytes.NewReader(data), Size: int64(len(data)), Export: true,
	})
	assert.ErrorIs(t, err, domain.ErrExportFailed)
	assert.Nil(t, res)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	sink.AssertCalled(t, "Purge", mock.Anything, mock.Anything)
}

func TestSplit_RepoFailureAfterExportPurges(t *testing.T) {
	sink := new(mocks.MockSectionSink)
	svc, repo := setupSplitService(t, sink)
	exported := &port.ExportResult{Files: []port.ExportedFile{{SectionIndex: 0, Name: "a.pdf"}}}
	sink.On("Export", mock.Anything, mock.Anything, mock.Anything).Return(exported, nil)
	sink.On("Purge", mock.Anything, mock.Anything).Return(nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	data := bundlePDF()
	_, err := svc.Split(context.Background(), &service.SplitInput{
		SourceName: "bundle.pdf", Body: bytes.NewReader(data), Size: int64(len(data)), Export: true,
	})
	require.Error(t, err)
	sink.AssertNumberOfCalls(t, "Purge", 1)
}

func TestSplit_RejectsInvalidUploads(t *testing.T) {
	svc, repo := setupSplitService(t, nil)

	_, err := svc.Split(context.Background(), &service.SplitInput{
		SourceName: "big.pdf", Body: bytes.NewReader(nil), Size: 2 << 20,
	})
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)

	_, err = svc.Split(context.Background(), &service.SplitInput{
		SourceName: "notes.txt", Body: strings.NewReader("hello world"), Size: 11,
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)

	_, err = svc.Split(context.Background(), &service.SplitInput{
		SourceName: "broken.pdf", Body: strings.NewReader("%PDF-1.4 garbage"), Size: 16,
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSplit_PipelineErrorIsNotPersisted(t *testing.T) {
	repo := new(mocks.MockSplitRunRepository)
	empty := new(mocks.MockPageSource)
	empty.On("PageCount").Return(0)
	opener := func(io.ReadSeeker) (port.PageSource, error) { return empty, nil }
	svc := service.NewSplitService(testPipeline(t), opener, repo, nil, nil, 0)

	_, err := svc.Split(context.Background(), &service.SplitInput{
		SourceName: "empty.pdf", Body: strings.NewReader("%PDF-1.7"),
	})
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSplit_RepoFailure(t *testing.T) {
	svc, repo := setupSplitService(t, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	data := bundlePDF()
	_, err := svc.Split(context.Background(), &service.SplitInput{
		SourceName: "bundle.pdf", Body: bytes.NewReader(data), Size: int64(len(data)),
	})
	assert.Error(t, err)
}

func TestUpdateSection_TypeOverrideRenames(t *testing.T) {
	svc, repo := setupSplitService(t, nil)
	run := storedRun()
	repo.On("GetByID", mock.Anything, run.ID).Return(run, nil)
	repo.On("UpdateSection", mock.Anything, run.ID, 1, mock.AnythingOfType("*domain.DocumentSection")).Return(nil)

	co := domain.DocTypeChangeOrder
	got, err := svc.UpdateSection(context.Background(), run.ID, 1, domain.SectionOverride{DocumentType: &co})
	require.NoError(t, err)
	assert.Equal(t, domain.DocTypeChangeOrder, got.DocumentType)
	assert.Equal(t, domain.MethodFallback, got.Method)
	assert.Equal(t, 0.0, got.Confidence)
	assert.Equal(t, "CO_12_Unknown_Unknown_p3", got.Filename)

	assert.Equal(t, domain.DocTypeOther, run.Sections[1].DocumentType, "stored run must not be mutated")
}

func TestUpdateSection_FilenameOverrideIsSanitized(t *testing.T) {
	svc, repo := setupSplitService(t, nil)
	run := storedRun()
	repo.On("GetByID", mock.Anything, run.ID).Return(run, nil)
	repo.On("UpdateSection", mock.Anything, run.ID, 0, mock.Anything).Return(nil)

	letter := domain.DocTypeLetter
	name := "Owner letter: re/scope?.pdf"
	got, err := svc.UpdateSection(context.Background(), run.ID, 0, domain.SectionOverride{DocumentType: &letter, Filename: &name})
	require.NoError(t, err)
	assert.Equal(t, domain.DocTypeLetter, got.DocumentType)
	assert.Equal(t, domain.MethodRuleBased, got.Method)
	assert.NotContains(t, got.Filename, "/")
	assert.NotContains(t, got.Filename, "?")
	assert.NotContains(t, got.Filename, ":")
	assert.True(t, strings.HasPrefix(got.Filename, "Owner_letter"))
}

func TestUpdateSection_Errors(t *testing.T) {
	svc, repo := setupSplitService(t, nil)
	run := storedRun()
	missing := uuid.New()
	repo.On("GetByID", mock.Anything, run.ID).Return(run, nil)
	repo.On("GetByID", mock.Anything, missing).Return(nil, domain.ErrNotFound)

	_, err := svc.UpdateSection(context.Background(), run.ID, 2, domain.SectionOverride{})
	assert.ErrorIs(t, err, domain.ErrInvalidSectionIndex)
	_, err = svc.UpdateSection(context.Background(), run.ID, -1, domain.SectionOverride{})
	assert.ErrorIs(t, err, domain.ErrInvalidSectionIndex)

	bogus := domain.DocumentType("invoice")
	_, err = svc.UpdateSection(context.Background(), run.ID, 0, domain.SectionOverride{DocumentType: &bogus})
	assert.ErrorIs(t, err, domain.ErrUnknownDocumentType)

	_, err = svc.UpdateSection(context.Background(), missing, 0, domain.SectionOverride{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	repo.AssertNotCalled(t, "UpdateSection", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestManifest(t *testing.T) {
	svc, repo := setupSplitService(t, nil)
	run := storedRun()
	repo.On("GetByID", mock.Anything, run.ID).Return(run, nil)

	m, err := svc.Manifest(context.Background(), run.ID, domain.ManifestCSV)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(m.Data, csvexport.BOM))
	assert.Contains(t, string(m.Data), "Document_Unknown_p3")
	assert.True(t, strings.HasSuffix(m.Filename, ".csv"))

	m, err = svc.Manifest(context.Background(), run.ID, domain.ManifestXLSX)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(m.Data, []byte("PK")))
	assert.True(t, strings.HasSuffix(m.Filename, ".xlsx"))

	_, err = svc.Manifest(context.Background(), run.ID, "pdf")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestDelete(t *testing.T) {
	svc, repo := setupSplitService(t, nil)
	id := uuid.New()
	repo.On("GetByID", mock.Anything, id).Return(nil, domain.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(context.Background(), id), domain.ErrNotFound)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDelete_PurgesExportedSections(t *testing.T) {
	sink := new(mocks.MockSectionSink)
	svc, repo := setupSplitService(t, sink)
	run := storedRun()
	repo.On("GetByID", mock.Anything, run.ID).Return(run, nil)
	sink.On("Purge", mock.Anything, run.ID).Return(nil).Once()
	repo.On("Delete", mock.Anything, run.ID).Return(nil).Once()

	require.NoError(t, svc.Delete(context.Background(), run.ID))
	sink.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestDelete_PurgeFailureKeepsRun(t *testing.T) {
	sink := new(mocks.MockSectionSink)
	svc, repo := setupSplitService(t, sink)
	run := storedRun()
	repo.On("GetByID", mock.Anything, run.ID).Return(run, nil)
	sink.On("Purge", mock.Anything, run.ID).Return(domain.ErrExportFailed)

	assert.ErrorIs(t, svc.Delete(context.Background(), run.ID), domain.ErrExportFailed)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func setupWithCorrections(t *testing.T) (service.SplitService, *mocks.MockSplitRunRepository, *mocks.MockCorrectionRepository) {
	t.Helper()
	repo := new(mocks.MockSplitRunRepository)
	corrections := new(mocks.MockCorrectionRepository)
	svc := service.NewSplitService(testPipeline(t), service.PDFOpener(pdfsource.DefaultConfig()), repo, corrections, nil, 1<<20)
	return svc, repo, corrections
}

func TestSplit_RecordsClassificationTotals(t *testing.T) {
	svc, repo, corrections := setupWithCorrections(t)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	corrections.On("RecordClassifications", mock.Anything, map[domain.DocumentType]int{
		domain.DocTypeEmail:       1,
		domain.DocTypeChangeOrder: 1,
	}).Return(nil)

	data := bundlePDF()
	_, err := svc.Split(context.Background(), &service.SplitInput{
		SourceName: "bundle.pdf", Body: bytes.NewReader(data), Size: int64(len(data)),
	})
	require.NoError(t, err)
	corrections.AssertExpectations(t)
}

func TestSplit_HistoryFailureKeepsRun(t *testing.T) {
	svc, repo, corrections := setupWithCorrections(t)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	corrections.On("RecordClassifications", mock.Anything, mock.Anything).Return(errors.New("db down"))

	data := bundlePDF()
	res, err := svc.Split(context.Background(), &service.SplitInput{
		SourceName: "bundle.pdf", Body: bytes.NewReader(data), Size: int64(len(data)),
	})
	require.NoError(t, err)
	assert.NotNil(t, res.Run)
}

func TestUpdateSection_TypeChangeRecordsCorrection(t *testing.T) {
	svc, repo, corrections := setupWithCorrections(t)
	run := storedRun()
	repo.On("GetByID", mock.Anything, run.ID).Return(run, nil)
	repo.On("UpdateSection", mock.Anything, run.ID, 0, mock.Anything).Return(nil)
	corrections.On("RecordCorrection", mock.Anything, mock.MatchedBy(func(c *domain.Correction) bool {
		return c.RunID == run.ID && c.SectionIndex == 0 &&
			c.OriginalType == domain.DocTypeEmail && c.CorrectedType == domain.DocTypeLetter &&
			c.Confidence == 0.9
	})).Return(nil)

	letter := domain.DocTypeLetter
	_, err := svc.UpdateSection(context.Background(), run.ID, 0, domain.SectionOverride{DocumentType: &letter})
	require.NoError(t, err)
	corrections.AssertExpectations(t)
}

func TestUpdateSection_SameTypeIsNotACorrection(t *testing.T) {
	svc, repo, corrections := setupWithCorrections(t)
	run := storedRun()
	repo.On("GetByID", mock.Anything, run.ID).Return(run, nil)
	repo.On("UpdateSection", mock.Anything, run.ID, 0, mock.Anything).Return(nil)

	email := domain.DocTypeEmail
	name := "renamed"
	_, err := svc.UpdateSection(context.Background(), run.ID, 0, domain.SectionOverride{DocumentType: &email})
	require.NoError(t, err)
	_, err = svc.UpdateSection(context.Background(), run.ID, 0, domain.SectionOverride{Filename: &name})
	require.NoError(t, err)
	corrections.AssertNotCalled(t, "RecordCorrection", mock.Anything, mock.Anything)
}

func TestUpdateSection_CorrectionFailureKeepsOverride(t *testing.T) {
	svc, repo, corrections := setupWithCorrections(t)
	run := storedRun()
	repo.On("GetByID", mock.Anything, run.ID).Return(run, nil)
	repo.On("UpdateSection", mock.Anything, run.ID, 0, mock.Anything).Return(nil)
	corrections.On("RecordCorrection", mock.Anything, mock.Anything).Return(errors.New("db down"))

	letter := domain.DocTypeLetter
	got, err := svc.UpdateSection(context.Background(), run.ID, 0, domain.SectionOverride{DocumentType: &letter})
	require.NoError(t, err)
	assert.Equal(t, domain.DocTypeLetter, got.DocumentType)
}

func TestAccuracyReport(t *testing.T) {
	svc, _, corrections := setupWithCorrections(t)
	corrections.On("Totals", mock.Anything).Return(map[domain.DocumentType]int{domain.DocTypeRFI: 10}, nil)
	corrections.On("CorrectionCounts", mock.Anything).Return([]domain.CorrectionCount{
		{Original: domain.DocTypeRFI, Corrected: domain.DocTypeRFIResponse, Count: 5},
	}, nil)

	report, err := svc.AccuracyReport(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Types, 1)
	assert.Equal(t, 5, report.TotalCorrections)
	assert.InDelta(t, 0.75, report.Types[0].ConfidenceAdjustment, 1e-9)
	assert.Equal(t, domain.DocTypeRFIResponse, report.Types[0].MostCorrectedTo)
}

func TestAccuracyReport_RepoError(t *testing.T) {
	svc, _, corrections := setupWithCorrections(t)
	corrections.On("Totals", mock.Anything).Return(nil, errors.New("db down"))

	_, err := svc.AccuracyReport(context.Background())
	assert.Error(t, err)
}

func TestAccuracyReport_WithoutHistory(t *testing.T) {
	svc, _ := setupSplitService(t, nil)

	report, err := svc.AccuracyReport(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Types)
}
