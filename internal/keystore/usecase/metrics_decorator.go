package usecase

import (
	"context"
	"time"

	keystoreDomain "github.com/allisson/webkms/internal/keystore/domain"
	"github.com/allisson/webkms/internal/metrics"
)

// keystoreUseCaseWithMetrics decorates KeystoreUseCase with metrics instrumentation.
type keystoreUseCaseWithMetrics struct {
	next    KeystoreUseCase
	metrics metrics.BusinessMetrics
}

// NewKeystoreUseCaseWithMetrics wraps a KeystoreUseCase with metrics recording.
func NewKeystoreUseCaseWithMetrics(useCase KeystoreUseCase, m metrics.BusinessMetrics) KeystoreUseCase {
	return &keystoreUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (k *keystoreUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	k.metrics.RecordOperation(ctx, "keystore", operation, status)
	k.metrics.RecordDuration(ctx, "keystore", operation, time.Since(start), status)
}

// Insert records metrics for keystore creation.
func (k *keystoreUseCaseWithMetrics) Insert(
	ctx context.Context,
	config *keystoreDomain.KeystoreConfig,
) (*keystoreDomain.KeystoreRecord, error) {
	start := time.Now()
	record, err := k.next.Insert(ctx, config)
	k.record(ctx, "keystore_insert", start, err)
	return record, err
}

// Update records metrics for keystore updates.
func (k *keystoreUseCaseWithMetrics) Update(ctx context.Context, config *keystoreDomain.KeystoreConfig) error {
	start := time.Now()
	err := k.next.Update(ctx, config)
	k.record(ctx, "keystore_update", start, err)
	return err
}

// Get records metrics for keystore retrieval.
func (k *keystoreUseCaseWithMetrics) Get(ctx context.Context, id string) (*keystoreDomain.KeystoreRecord, error) {
	start := time.Now()
	record, err := k.next.Get(ctx, id)
	k.record(ctx, "keystore_get", start, err)
	return record, err
}

// Find records metrics for keystore listing.
func (k *keystoreUseCaseWithMetrics) Find(
	ctx context.Context,
	controller string,
	query keystoreDomain.FindQuery,
	opts keystoreDomain.FindOptions,
) ([]*keystoreDomain.KeystoreRecord, error) {
	start := time.Now()
	records, err := k.next.Find(ctx, controller, query, opts)
	k.record(ctx, "keystore_find", start, err)
	return records, err
}

// GetStorageUsage records metrics for storage usage computation.
func (k *keystoreUseCaseWithMetrics) GetStorageUsage(
	ctx context.Context,
	meterID string,
) (*keystoreDomain.StorageUsage, error) {
	start := time.Now()
	usage, err := k.next.GetStorageUsage(ctx, meterID)
	k.record(ctx, "storage_usage", start, err)
	return usage, err
}
