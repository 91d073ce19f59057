package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockClassificationOracle is a mock implementation of port.ClassificationOracle.
type MockClassificationOracle struct {
	mock.Mock
}

func (m *MockClassificationOracle) Classify(ctx context.Context, text string, allowedLabels []string) (string, error) {
	args := m.Called(ctx, text, allowedLabels)
	return args.String(0), args.Error(1)
}
