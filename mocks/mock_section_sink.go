package mocks

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"smartsplit/internal/domain"
	"smartsplit/internal/port"
)

// MockSectionSink is a mock implementation of port.SectionSink and
// port.ExportPurger.
type MockSectionSink struct {
	mock.Mock
}

func (m *MockSectionSink) Export(ctx context.Context, source io.ReadSeeker, run *domain.SplitRun) (*port.ExportResult, error) {
	args := m.Called(ctx, source, run)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.ExportResult), args.Error(1)
}

func (m *MockSectionSink) Purge(ctx context.Context, runID uuid.UUID) error {
	args := m.Called(ctx, runID)
	return args.Error(0)
}
