package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"smartsplit/internal/domain"
)

// MockCorrectionRepository is a mock implementation of port.CorrectionRepository.
type MockCorrectionRepository struct {
	mock.Mock
}

func (m *MockCorrectionRepository) RecordClassifications(ctx context.Context, counts map[domain.DocumentType]int) error {
	args := m.Called(ctx, counts)
	return args.Error(0)
}

func (m *MockCorrectionRepository) RecordCorrection(ctx context.Context, c *domain.Correction) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCorrectionRepository) Totals(ctx context.Context) (map[domain.DocumentType]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.DocumentType]int), args.Error(1)
}

func (m *MockCorrectionRepository) CorrectionCounts(ctx context.Context) ([]domain.CorrectionCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CorrectionCount), args.Error(1)
}
