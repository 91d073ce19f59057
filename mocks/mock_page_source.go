package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"smartsplit/internal/domain"
)

// MockPageSource is a mock implementation of port.PageSource.
type MockPageSource struct {
	mock.Mock
}

func (m *MockPageSource) PageCount() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockPageSource) Features(ctx context.Context, pageIndex int) (domain.PageFeatures, error) {
	args := m.Called(ctx, pageIndex)
	return args.Get(0).(domain.PageFeatures), args.Error(1)
}

func (m *MockPageSource) Preview(ctx context.Context, pageIndex int) ([]byte, error) {
	args := m.Called(ctx, pageIndex)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
