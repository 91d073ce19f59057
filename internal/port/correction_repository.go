package port

import (
	"context"

	"smartsplit/internal/domain"
)

// CorrectionRepository keeps the classification history that accuracy
// reports are built from.
type CorrectionRepository interface {
	// RecordClassifications adds counts to the per-type classification totals.
	RecordClassifications(ctx context.Context, counts map[domain.DocumentType]int) error
	RecordCorrection(ctx context.Context, c *domain.Correction) error
	Totals(ctx context.Context) (map[domain.DocumentType]int, error)
	// CorrectionCounts groups all corrections by original and corrected type.
	CorrectionCounts(ctx context.Context) ([]domain.CorrectionCount, error)
}
