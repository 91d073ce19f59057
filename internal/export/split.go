// Package export writes each section of a run as a standalone PDF.
package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"smartsplit/internal/config"
	"smartsplit/internal/domain"
	"smartsplit/internal/port"
)

const maxRenameAttempts = 999

// ExtractRange returns the 0-based inclusive page range [start, end] of the
// PDF in rs as a new PDF.
func ExtractRange(rs io.ReadSeeker, start, end int) ([]byte, error) {
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: range %d-%d", domain.ErrInvalidPage, start, end)
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewinding source: %w", err)
	}
	sel := fmt.Sprintf("%d-%d", start+1, end+1)
	if start == end {
		sel = fmt.Sprintf("%d", start+1)
	}
	var buf bytes.Buffer
	if err := api.Trim(rs, &buf, []string{sel}, model.NewDefaultConfiguration()); err != nil {
		return nil, fmt.Errorf("%w: pages %s: %v", domain.ErrExportFailed, sel, err)
	}
	return buf.Bytes(), nil
}

// fileName returns the section's filename with a .pdf extension.
func fileName(s domain.DocumentSection) string {
	name := strings.TrimSuffix(s.Filename, ".pdf")
	if name == "" {
		name = "document"
	}
	return name + ".pdf"
}

// resolveName applies the collision strategy to name. taken holds names
// already used by this run; exists reports names present at the destination.
// A skip result means the section must not be written. Names repeated within
// one run are always renamed.
func resolveName(name string, strategy domain.CollisionStrategy, taken map[string]bool, exists func(string) (bool, error)) (string, bool, error) {
	if !taken[name] {
		hit, err := exists(name)
		if err != nil {
			return "", false, err
		}
		switch {
		case !hit, strategy == domain.CollisionOverwrite:
			return name, false, nil
		case strategy == domain.CollisionSkip:
			return name, true, nil
		}
	}

	stem := strings.TrimSuffix(name, ".pdf")
	for i := 1; i <= maxRenameAttempts; i++ {
		candidate := fmt.Sprintf("%s_%03d.pdf", stem, i)
		if taken[candidate] {
			continue
		}
		hit, err := exists(candidate)
		if err != nil {
			return "", false, err
		}
		if !hit {
			return candidate, false, nil
		}
	}
	return "", false, fmt.Errorf("%w: no free name for %s", domain.ErrExportFailed, name)
}

// FromConfig builds the sink selected by cfg.Export.Provider. It returns nil
// when export is disabled.
func FromConfig(cfg *config.Config, storage port.ObjectStorage) (port.SectionSink, error) {
	strategy := domain.CollisionStrategy(cfg.Export.CollisionStrategy)
	switch cfg.Export.Provider {
	case "", "none":
		return nil, nil
	case "local":
		return NewLocalSink(cfg.Export.OutputDir, strategy), nil
	case "s3":
		if storage == nil {
			return nil, fmt.Errorf("%w: s3 export needs object storage", domain.ErrInvalidConfig)
		}
		return NewObjectSink(storage, cfg.S3.Bucket, cfg.Export.Prefix, strategy, cfg.Export.URLExpirySecs), nil
	default:
		return nil, fmt.Errorf("%w: unknown export provider %q", domain.ErrInvalidConfig, cfg.Export.Provider)
	}
}

func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("export cancelled: %w", err)
	}
	return nil
}
