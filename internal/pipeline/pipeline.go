// Package pipeline runs a complete split: page features, boundaries,
// classification and naming.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"smartsplit/internal/boundary"
	"smartsplit/internal/classifier"
	"smartsplit/internal/config"
	"smartsplit/internal/domain"
	"smartsplit/internal/naming"
	"smartsplit/internal/patterns"
	"smartsplit/internal/port"
)

// Pipeline is safe for concurrent use; each Run owns its own state.
type Pipeline struct {
	detector   *boundary.Detector
	classifier *classifier.Classifier
	namer      *naming.Namer
	workers    int
	now        func() time.Time
}

// New creates a Pipeline. workers bounds parallel page feature extraction.
func New(detector *boundary.Detector, cls *classifier.Classifier, namer *naming.Namer, workers int) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{detector: detector, classifier: cls, namer: namer, workers: workers, now: time.Now}
}

// NewFromConfig wires a Pipeline from application configuration. oracle may be nil.
func NewFromConfig(cfg *config.Config, lib *patterns.Library, oracle port.ClassificationOracle) *Pipeline {
	det := boundary.NewDetector(lib, boundary.Config{
		MinDocumentLength:  cfg.Processing.MinDocumentLength,
		FontSizeRatio:      cfg.Layout.FontSizeRatio,
		HeaderFooterLoss:   cfg.Layout.HeaderFooterLoss,
		NumberResetCeiling: cfg.Layout.NumberResetCeiling,
		TailLines:          cfg.Layout.TailLines,
	})
	cls := classifier.New(lib, oracle, classifier.Config{
		ConfidenceThreshold: cfg.Processing.ConfidenceThreshold,
		MaxInputChars:       cfg.Processing.MaxInputChars,
		RuleConfidence:      cfg.Processing.RuleConfidence,
		OracleConfidence:    cfg.Processing.OracleConfidence,
		OracleTimeout:       cfg.Oracle.Budget(),
		Concurrency:         cfg.Processing.OracleConcurrency,
	})
	namer := naming.New(lib, naming.Config{
		FilenameMaxLength: cfg.Naming.FilenameMaxLength,
		Placeholder:       cfg.Naming.Placeholder,
		UseUnderscores:    cfg.Naming.UseUnderscores,
	})
	return New(det, cls, namer, cfg.Processing.Workers)
}

// Namer returns the namer used for generated and overridden filenames.
func (p *Pipeline) Namer() *naming.Namer {
	return p.namer
}

// AllowedLabels returns every document type a section may carry.
func (p *Pipeline) AllowedLabels() []string {
	return p.classifier.AllowedLabels()
}

// Run splits the document behind src. Input problems fail the run before any
// section is produced; classification problems never do.
func (p *Pipeline) Run(ctx context.Context, name string, src port.PageSource) (*domain.SplitRun, error) {
	pages, err := p.features(ctx, src)
	if err != nil {
		return nil, err
	}

	boundaries := p.detector.Detect(pages)
	ranges := boundary.Sections(boundaries, len(pages))

	texts := make([]string, len(ranges))
	for i, r := range ranges {
		texts[i] = sectionText(pages, r[0], r[1])
	}
	results := p.classifier.ClassifyAll(ctx, texts)

	run := &domain.SplitRun{
		ID:         uuid.New(),
		SourceName: name,
		PageCount:  len(pages),
		Boundaries: boundaries,
		Sections:   make([]domain.DocumentSection, len(ranges)),
		CreatedAt:  p.now().UTC(),
	}
	for i, r := range ranges {
		res := results[i]
		docType := string(res.DocumentType)
		fields := p.namer.Extract(texts[i], docType)
		run.Sections[i] = domain.DocumentSection{
			StartPage:       r[0],
			EndPage:         r[1],
			DocumentType:    res.DocumentType,
			Confidence:      res.Confidence,
			Method:          res.Method,
			ExtractedFields: fields,
			Filename:        p.namer.BuildFilename(docType, fields, r[0], r[1]),
		}
		switch res.Method {
		case domain.MethodRuleBased:
			run.Methods.RuleBased++
		case domain.MethodAPI:
			run.Methods.API++
		default:
			run.Methods.Fallback++
		}
	}

	if err := CheckCoverage(run.Sections, run.PageCount); err != nil {
		return nil, err
	}

	log.Printf("pipeline.Run: %s: %d pages, %d sections (rule_based=%d api=%d fallback=%d)",
		name, run.PageCount, len(run.Sections), run.Methods.RuleBased, run.Methods.API, run.Methods.Fallback)
	return run, nil
}

// features extracts every page in parallel and returns them in page order.
func (p *Pipeline) features(ctx context.Context, src port.PageSource) ([]domain.PageFeatures, error) {
	n := src.PageCount()
	if n <= 0 {
		return nil, domain.ErrEmptyDocument
	}

	pages := make([]domain.PageFeatures, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			f, err := src.Features(gctx, i)
			if err != nil {
				return fmt.Errorf("%w: page %d: %v", domain.ErrInvalidPage, i, err)
			}
			if f.Index != i {
				return fmt.Errorf("%w: page %d reported index %d", domain.ErrInvalidPage, i, f.Index)
			}
			pages[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return pages, nil
}

func sectionText(pages []domain.PageFeatures, start, end int) string {
	parts := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		parts = append(parts, pages[i].Text)
	}
	return strings.Join(parts, "\n")
}

// CheckCoverage verifies that sections are contiguous and cover every page
// of a pageCount-page document exactly once.
func CheckCoverage(sections []domain.DocumentSection, pageCount int) error {
	if len(sections) == 0 {
		return fmt.Errorf("%w: no sections for %d pages", domain.ErrCoverageViolation, pageCount)
	}
	next := 0
	for i, s := range sections {
		if s.StartPage != next || s.EndPage < s.StartPage {
			return fmt.Errorf("%w: section %d spans %d-%d, expected start %d",
				domain.ErrCoverageViolation, i, s.StartPage, s.EndPage, next)
		}
		next = s.EndPage + 1
	}
	if next != pageCount {
		return fmt.Errorf("%w: sections end at page %d of %d", domain.ErrCoverageViolation, next-1, pageCount)
	}
	return nil
}
