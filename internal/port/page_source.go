package port

import (
	"context"

	"smartsplit/internal/domain"
)

// PageSource exposes the pages of one opened PDF.
type PageSource interface {
	PageCount() int
	Features(ctx context.Context, pageIndex int) (domain.PageFeatures, error)
	// Preview returns an opaque rendering of a single page for display.
	Preview(ctx context.Context, pageIndex int) ([]byte, error)
}
