package port

import (
	"context"

	"github.com/google/uuid"

	"smartsplit/internal/domain"
)

// SplitRunRepository persists split runs and their sections.
type SplitRunRepository interface {
	Create(ctx context.Context, run *domain.SplitRun) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SplitRun, error)
	List(ctx context.Context, offset, limit int) ([]domain.SplitRun, int, error)
	UpdateSection(ctx context.Context, runID uuid.UUID, index int, section *domain.DocumentSection) error
	Delete(ctx context.Context, id uuid.UUID) error
}
