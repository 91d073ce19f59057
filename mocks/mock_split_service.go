package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"smartsplit/internal/domain"
	"smartsplit/internal/service"
)

// MockSplitService is a mock implementation of service.SplitService.
type MockSplitService struct {
	mock.Mock
}

func (m *MockSplitService) Split(ctx context.Context, input *service.SplitInput) (*service.SplitResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SplitResult), args.Error(1)
}

func (m *MockSplitService) GetRun(ctx context.Context, id uuid.UUID) (*domain.SplitRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SplitRun), args.Error(1)
}

func (m *MockSplitService) List(ctx context.Context, offset, limit int) ([]domain.SplitRun, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.SplitRun), args.Int(1), args.Error(2)
}

func (m *MockSplitService) UpdateSection(ctx context.Context, id uuid.UUID, index int, override domain.SectionOverride) (*domain.DocumentSection, error) {
	args := m.Called(ctx, id, index, override)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentSection), args.Error(1)
}

func (m *MockSplitService) Manifest(ctx context.Context, id uuid.UUID, format domain.ManifestFormat) (*service.Manifest, error) {
	args := m.Called(ctx, id, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Manifest), args.Error(1)
}

func (m *MockSplitService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSplitService) AccuracyReport(ctx context.Context) (*domain.AccuracyReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccuracyReport), args.Error(1)
}
