// Package mocks provides mock implementations of the key operation use case.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	kmsDomain "github.com/allisson/webkms/internal/kms/domain"
)

// MockOperationUseCase is a mock implementation of OperationUseCase for testing.
type MockOperationUseCase struct {
	mock.Mock
}

// Run mocks the Run method of OperationUseCase.
func (m *MockOperationUseCase) Run(ctx context.Context, op *kmsDomain.Operation) (kmsDomain.Result, error) {
	args := m.Called(ctx, op)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(kmsDomain.Result), args.Error(1)
}
