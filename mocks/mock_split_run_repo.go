package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"smartsplit/internal/domain"
)

// MockSplitRunRepository is a mock implementation of port.SplitRunRepository.
type MockSplitRunRepository struct {
	mock.Mock
}

func (m *MockSplitRunRepository) Create(ctx context.Context, run *domain.SplitRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockSplitRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.SplitRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SplitRun), args.Error(1)
}

func (m *MockSplitRunRepository) List(ctx context.Context, offset, limit int) ([]domain.SplitRun, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.SplitRun), args.Int(1), args.Error(2)
}

func (m *MockSplitRunRepository) UpdateSection(ctx context.Context, runID uuid.UUID, index int, section *domain.DocumentSection) error {
	args := m.Called(ctx, runID, index, section)
	return args.Error(0)
}

func (m *MockSplitRunRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
