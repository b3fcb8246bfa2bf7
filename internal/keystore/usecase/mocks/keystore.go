// Package mocks provides mock implementations of the keystore use case and its repository.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	keystoreDomain "github.com/allisson/webkms/internal/keystore/domain"
)

// MockKeystoreRepository is a mock implementation of KeystoreRepository for testing.
type MockKeystoreRepository struct {
	mock.Mock
}

// Create mocks the Create method of KeystoreRepository.
func (m *MockKeystoreRepository) Create(ctx context.Context, record *keystoreDomain.KeystoreRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// Get mocks the Get method of KeystoreRepository.
func (m *MockKeystoreRepository) Get(ctx context.Context, id string) (*keystoreDomain.KeystoreRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*keystoreDomain.KeystoreRecord), args.Error(1)
}

// Find mocks the Find method of KeystoreRepository.
func (m *MockKeystoreRepository) Find(
	ctx context.Context,
	controller string,
	query keystoreDomain.FindQuery,
	opts keystoreDomain.FindOptions,
) ([]*keystoreDomain.KeystoreRecord, error) {
	args := m.Called(ctx, controller, query, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*keystoreDomain.KeystoreRecord), args.Error(1)
}

// UpdateIfNextSequence mocks the UpdateIfNextSequence method of KeystoreRepository.
func (m *MockKeystoreRepository) UpdateIfNextSequence(
	ctx context.Context,
	config *keystoreDomain.KeystoreConfig,
	updated time.Time,
) (bool, error) {
	args := m.Called(ctx, config, updated)
	return args.Bool(0), args.Error(1)
}

// ListByMeterID mocks the ListByMeterID method of KeystoreRepository.
func (m *MockKeystoreRepository) ListByMeterID(
	ctx context.Context,
	meterID, afterID string,
	limit int,
) ([]*keystoreDomain.KeystoreConfig, error) {
	args := m.Called(ctx, meterID, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*keystoreDomain.KeystoreConfig), args.Error(1)
}

// MockKeystoreUseCase is a mock implementation of KeystoreUseCase for testing.
type MockKeystoreUseCase struct {
	mock.Mock
}

// Insert mocks the Insert method of KeystoreUseCase.
func (m *MockKeystoreUseCase) Insert(
	ctx context.Context,
	config *keystoreDomain.KeystoreConfig,
) (*keystoreDomain.KeystoreRecord, error) {
	args := m.Called(ctx, config)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*keystoreDomain.KeystoreRecord), args.Error(1)
}

// Update mocks the Update method of KeystoreUseCase.
func (m *MockKeystoreUseCase) Update(ctx context.Context, config *keystoreDomain.KeystoreConfig) error {
	args := m.Called(ctx, config)
	return args.Error(0)
}

// Get mocks the Get method of KeystoreUseCase.
func (m *MockKeystoreUseCase) Get(ctx context.Context, id string) (*keystoreDomain.KeystoreRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*keystoreDomain.KeystoreRecord), args.Error(1)
}

// Find mocks the Find method of KeystoreUseCase.
func (m *MockKeystoreUseCase) Find(
	ctx context.Context,
	controller string,
	query keystoreDomain.FindQuery,
	opts keystoreDomain.FindOptions,
) ([]*keystoreDomain.KeystoreRecord, error) {
	args := m.Called(ctx, controller, query, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*keystoreDomain.KeystoreRecord), args.Error(1)
}

// GetStorageUsage mocks the GetStorageUsage method of KeystoreUseCase.
func (m *MockKeystoreUseCase) GetStorageUsage(
	ctx context.Context,
	meterID string,
) (*keystoreDomain.StorageUsage, error) {
	args := m.Called(ctx, meterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*keystoreDomain.StorageUsage), args.Error(1)
}
