package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"slices"

	"github.com/google/uuid"

	"smartsplit/internal/csvexport"
	"smartsplit/internal/domain"
	"smartsplit/internal/pdfsource"
	"smartsplit/internal/pipeline"
	"smartsplit/internal/port"
	"smartsplit/internal/xlsxexport"
)

var pdfMagic = []byte("%PDF-")

// SourceOpener opens an uploaded PDF as a PageSource.
type SourceOpener func(r io.ReadSeeker) (port.PageSource, error)

// PDFOpener returns a SourceOpener backed by pdfsource.
func PDFOpener(cfg pdfsource.Config) SourceOpener {
	return func(r io.ReadSeeker) (port.PageSource, error) {
		return pdfsource.Open(r, cfg)
	}
}

// SplitInput is the DTO for splitting an uploaded PDF.
type SplitInput struct {
	SourceName string
	Body       io.ReadSeeker
	Size       int64
	Export     bool
}

// SplitResult is a persisted run plus the export outcome when requested.
type SplitResult struct {
	Run    *domain.SplitRun   `json:"run"`
	Export *port.ExportResult `json:"export,omitempty"`
}

// Manifest is a rendered run manifest.
type Manifest struct {
	Filename    string
	ContentType string
	Data        []byte
}

// SplitService defines the split run contract.
type SplitService interface {
	Split(ctx context.Context, input *SplitInput) (*SplitResult, error)
	GetRun(ctx context.Context, id uuid.UUID) (*domain.SplitRun, error)
	List(ctx context.Context, offset, limit int) ([]domain.SplitRun, int, error)
	UpdateSection(ctx context.Context, id uuid.UUID, index int, override domain.SectionOverride) (*domain.DocumentSection, error)
	Manifest(ctx context.Context, id uuid.UUID, format domain.ManifestFormat) (*Manifest, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AccuracyReport(ctx context.Context) (*domain.AccuracyReport, error)
}

type splitService struct {
	pipe        *pipeline.Pipeline
	open        SourceOpener
	repo        port.SplitRunRepository
	corrections port.CorrectionRepository
	sink        port.SectionSink
	maxFileSize int64
}

// NewSplitService creates a new SplitService implementation. sink may be nil,
// in which case export requests are ignored. corrections may be nil, in which
// case no classification history is kept.
func NewSplitService(
	pipe *pipeline.Pipeline,
	open SourceOpener,
	repo port.SplitRunRepository,
	corrections port.CorrectionRepository,
	sink port.SectionSink,
	maxFileSize int64,
) SplitService {
	return &splitService{pipe: pipe, open: open, repo: repo, corrections: corrections, sink: sink, maxFileSize: maxFileSize}
}

func (s *splitService) Split(ctx context.Context, input *SplitInput) (*SplitResult, error) {
	if s.maxFileSize > 0 && input.Size > s.maxFileSize {
		return nil, domain.ErrFileTooLarge
	}
	if err := checkPDF(input.Body); err != nil {
		return nil, err
	}

	src, err := s.open(input.Body)
	if err != nil {
		log.Printf("splitService.Split: failed to open %s: %v", input.SourceName, err)
		if errors.Is(err, domain.ErrEmptyDocument) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUnsupportedFileType, err)
	}

	run, err := s.pipe.Run(ctx, input.SourceName, src)
	if err != nil {
		log.Printf("splitService.Split: run failed for %s: %v", input.SourceName, err)
		return nil, err
	}

	// Export first so a failed export never leaves a stored run behind.
	result := &SplitResult{Run: run}
	if input.Export && s.sink != nil {
		exported, err := s.sink.Export(ctx, input.Body, run)
		if err != nil {
			log.Printf("splitService.Split: export failed for run %s: %v", run.ID, err)
			s.purge(ctx, run.ID)
			return nil, err
		}
		result.Export = exported
	}

	if err := s.repo.Create(ctx, run); err != nil {
		log.Printf("splitService.Split: failed to persist run %s: %v", run.ID, err)
		if result.Export != nil {
			s.purge(ctx, run.ID)
		}
		return nil, fmt.Errorf("persisting run: %w", err)
	}

	log.Printf("splitService.Split: run %s stored (%d sections)", run.ID, len(run.Sections))
	s.recordClassifications(ctx, run)
	return result, nil
}

// recordClassifications adds the run's labels to the history. The run is
// already stored, so failures are only logged.
func (s *splitService) recordClassifications(ctx context.Context, run *domain.SplitRun) {
	if s.corrections == nil || len(run.Sections) == 0 {
		return
	}
	counts := make(map[domain.DocumentType]int)
	for _, sec := range run.Sections {
		counts[sec.DocumentType]++
	}
	if err := s.corrections.RecordClassifications(ctx, counts); err != nil {
		log.Printf("splitService.Split: failed to record classifications of run %s: %v", run.ID, err)
	}
}

// purge removes whatever the sink exported for a run that will not be kept.
// Failures are logged; the caller already has an error to report.
func (s *splitService) purge(ctx context.Context, id uuid.UUID) {
	p, ok := s.sink.(port.ExportPurger)
	if !ok {
		return
	}
	if err := p.Purge(context.WithoutCancel(ctx), id); err != nil {
		log.Printf("splitService.Split: cleanup of run %s exports failed: %v", id, err)
	}
}

// checkPDF verifies the PDF header and rewinds r.
func checkPDF(r io.ReadSeeker) error {
	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(r, head); err != nil || !bytes.Equal(head, pdfMagic) {
		return domain.ErrUnsupportedFileType
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding upload: %w", err)
	}
	return nil
}

func (s *splitService) GetRun(ctx context.Context, id uuid.UUID) (*domain.SplitRun, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *splitService) List(ctx context.Context, offset, limit int) ([]domain.SplitRun, int, error) {
	return s.repo.List(ctx, offset, limit)
}

// UpdateSection applies a user override. The classification method and
// confidence are kept; a type change without a filename override renames the
// section from the new type's template.
func (s *splitService) UpdateSection(ctx context.Context, id uuid.UUID, index int, override domain.SectionOverride) (*domain.DocumentSection, error) {
	run, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(run.Sections) {
		return nil, domain.ErrInvalidSectionIndex
	}

	section := run.Sections[index].Clone()
	namer := s.pipe.Namer()
	if override.DocumentType != nil {
		if !slices.Contains(s.pipe.AllowedLabels(), string(*override.DocumentType)) {
			return nil, domain.ErrUnknownDocumentType
		}
		section.DocumentType = *override.DocumentType
		if override.Filename == nil {
			section.Filename = namer.BuildFilename(string(section.DocumentType), section.ExtractedFields,
				section.StartPage, section.EndPage)
		}
	}
	if override.Filename != nil {
		section.Filename = namer.SanitizeOverride(*override.Filename)
	}

	if err := s.repo.UpdateSection(ctx, id, index, &section); err != nil {
		log.Printf("splitService.UpdateSection: failed to update run %s section %d: %v", id, index, err)
		return nil, err
	}
	log.Printf("splitService.UpdateSection: run %s section %d now %s (%s)", id, index, section.DocumentType, section.Filename)

	if original := run.Sections[index]; s.corrections != nil && original.DocumentType != section.DocumentType {
		err := s.corrections.RecordCorrection(ctx, &domain.Correction{
			RunID:         id,
			SectionIndex:  index,
			OriginalType:  original.DocumentType,
			CorrectedType: section.DocumentType,
			Confidence:    original.Confidence,
		})
		if err != nil {
			log.Printf("splitService.UpdateSection: failed to record correction for run %s section %d: %v", id, index, err)
		}
	}
	return &section, nil
}

// AccuracyReport summarises user corrections per document type.
func (s *splitService) AccuracyReport(ctx context.Context) (*domain.AccuracyReport, error) {
	if s.corrections == nil {
		return domain.BuildAccuracyReport(nil, nil), nil
	}
	totals, err := s.corrections.Totals(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.corrections.CorrectionCounts(ctx)
	if err != nil {
		return nil, err
	}
	return domain.BuildAccuracyReport(totals, counts), nil
}

func (s *splitService) Manifest(ctx context.Context, id uuid.UUID, format domain.ManifestFormat) (*Manifest, error) {
	if format == "" {
		format = domain.ManifestCSV
	}
	if format != domain.ManifestCSV && format != domain.ManifestXLSX {
		return nil, domain.ErrUnsupportedFormat
	}

	run, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	m := &Manifest{Filename: csvexport.BuildFilename(run.SourceName, string(format))}
	switch format {
	case domain.ManifestXLSX:
		m.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		if m.Data, err = xlsxexport.Build(run); err != nil {
			return nil, fmt.Errorf("building xlsx manifest: %w", err)
		}
	default:
		m.ContentType = "text/csv; charset=utf-8"
		var buf bytes.Buffer
		if err := csvexport.WriteManifest(&buf, run); err != nil {
			return nil, fmt.Errorf("building csv manifest: %w", err)
		}
		m.Data = buf.Bytes()
	}
	return m, nil
}

// Delete removes a run and, when the sink supports it, the section files
// exported for it. The row goes last so a failed purge can be retried.
func (s *splitService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	if p, ok := s.sink.(port.ExportPurger); ok {
		if err := p.Purge(ctx, id); err != nil {
			log.Printf("splitService.Delete: failed to purge exports of run %s: %v", id, err)
			return err
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	log.Printf("splitService.Delete: run %s deleted", id)
	return nil
}
