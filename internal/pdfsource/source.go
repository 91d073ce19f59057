// Package pdfsource opens PDF files and extracts per-page text and layout
// features. pdfcpu validates the file and renders previews; tabula decodes the
// text, fonts included, and finds running headers and footers.
package pdfsource

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/tsawler/tabula/layout"
	"github.com/tsawler/tabula/reader"

	"smartsplit/internal/domain"
)

// Config controls feature extraction.
type Config struct {
	FirstLines int // non-empty lines kept in PageFeatures.FirstLines
	// Running configures header and footer detection. Text counts as a running
	// header or footer when it repeats in the same band on at least
	// Running.MinPages pages.
	Running layout.HeaderFooterConfig
}

// DefaultConfig returns the extraction defaults.
func DefaultConfig() Config {
	running := layout.DefaultHeaderFooterConfig()
	// A bundle holds several documents, so a footer only needs to repeat within
	// one of them rather than across half the file.
	running.MinOccurrenceRatio = 0
	return Config{FirstLines: 5, Running: running}
}

// Source is an opened PDF. It is safe for concurrent use.
type Source struct {
	cfg     Config
	pages   []layout.PageFragments
	running *layout.HeaderFooterResult

	mu  sync.Mutex // guards ctx
	ctx *model.Context
}

// Open reads and validates a PDF, then extracts the text of every page.
func Open(r io.ReadSeeker, cfg Config) (*Source, error) {
	if cfg.FirstLines <= 0 {
		cfg.FirstLines = DefaultConfig().FirstLines
	}
	if cfg.Running.MinPages <= 0 {
		cfg.Running = DefaultConfig().Running
	}

	ctx, err := api.ReadValidateAndOptimize(r, model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	if ctx.PageCount == 0 {
		return nil, domain.ErrEmptyDocument
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewinding pdf: %w", err)
	}
	pages, err := extractPages(r, ctx.PageCount)
	if err != nil {
		return nil, err
	}

	running := layout.NewHeaderFooterDetectorWithConfig(cfg.Running).Detect(pages)
	return &Source{cfg: cfg, pages: pages, running: running, ctx: ctx}, nil
}

// extractPages spools r to a temporary file for tabula and collects the text
// fragments of each of the n pages. A page whose text cannot be decoded keeps
// no fragments.
func extractPages(r io.Reader, n int) ([]layout.PageFragments, error) {
	f, err := os.CreateTemp("", "smartsplit-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("spooling pdf: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return nil, fmt.Errorf("spooling pdf: %w", err)
	}

	rd, err := reader.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("tabula read: %w", err)
	}
	defer rd.Close()

	pages := make([]layout.PageFragments, n)
	for i := range pages {
		pages[i].PageIndex = i

		page, err := rd.GetPage(i)
		if err != nil {
			log.Printf("pdfsource.Open: page %d unavailable: %v", i+1, err)
			continue
		}
		if w, err := page.Width(); err == nil {
			pages[i].PageWidth = w
		}
		if h, err := page.Height(); err == nil {
			pages[i].PageHeight = h
		}

		frags, err := rd.ExtractTextFragments(page)
		if err != nil {
			log.Printf("pdfsource.Open: page %d text unreadable: %v", i+1, err)
			continue
		}
		pages[i].Fragments = frags
	}
	return pages, nil
}

// PageCount returns the number of pages.
func (s *Source) PageCount() int {
	return len(s.pages)
}

func (s *Source) checkIndex(i int) error {
	if i < 0 || i >= len(s.pages) {
		return fmt.Errorf("%w: index %d of %d", domain.ErrInvalidPage, i, len(s.pages))
	}
	return nil
}

// Features returns the text and layout of page i (0-based). A page whose
// content could not be decoded yields empty features rather than an error.
func (s *Source) Features(ctx context.Context, i int) (domain.PageFeatures, error) {
	if err := ctx.Err(); err != nil {
		return domain.PageFeatures{}, err
	}
	if err := s.checkIndex(i); err != nil {
		return domain.PageFeatures{}, err
	}
	return buildFeatures(s.pages[i], s.cfg.FirstLines, s.running), nil
}

// Preview returns page i as a standalone single-page PDF.
func (s *Source) Preview(ctx context.Context, i int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.checkIndex(i); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := api.ExtractPage(s.ctx, i+1)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPreviewUnavailable, err)
	}
	return io.ReadAll(r)
}
