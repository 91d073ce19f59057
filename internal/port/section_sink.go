package port

import (
	"context"
	"io"

	"github.com/google/uuid"

	"smartsplit/internal/domain"
)

// ExportedFile describes the outcome for one section.
type ExportedFile struct {
	SectionIndex int    `json:"section_index"`
	Name         string `json:"name"`
	Location     string `json:"location"`
	Skipped      bool   `json:"skipped"`
}

// ExportResult lists exported sections in section order.
type ExportResult struct {
	Files []ExportedFile `json:"files"`
}

// SectionSink turns each section of a run into a standalone PDF and resolves
// name collisions at its destination.
type SectionSink interface {
	Export(ctx context.Context, source io.ReadSeeker, run *domain.SplitRun) (*ExportResult, error)
}

// ExportPurger is implemented by sinks that can remove everything they
// exported for a run.
type ExportPurger interface {
	Purge(ctx context.Context, runID uuid.UUID) error
}
