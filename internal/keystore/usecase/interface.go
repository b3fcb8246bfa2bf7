// Package usecase implements the keystore configuration store: sequence-gated
// updates, uniqueness, read-through caching and metered storage usage.
package usecase

import (
	"context"
	"time"

	keystoreDomain "github.com/allisson/webkms/internal/keystore/domain"
)

// KeystoreRepository defines the interface for keystore config persistence.
type KeystoreRepository interface {
	Create(ctx context.Context, record *keystoreDomain.KeystoreRecord) error
	Get(ctx context.Context, id string) (*keystoreDomain.KeystoreRecord, error)
	Find(
		ctx context.Context,
		controller string,
		query keystoreDomain.FindQuery,
		opts keystoreDomain.FindOptions,
	) ([]*keystoreDomain.KeystoreRecord, error)
	UpdateIfNextSequence(ctx context.Context, config *keystoreDomain.KeystoreConfig, updated time.Time) (bool, error)
	ListByMeterID(ctx context.Context, meterID, afterID string, limit int) ([]*keystoreDomain.KeystoreConfig, error)
}

// KeystoreUseCase defines the keystore configuration store operations.
type KeystoreUseCase interface {
	// Insert stores a new config. The sequence must be 0.
	Insert(ctx context.Context, config *keystoreDomain.KeystoreConfig) (*keystoreDomain.KeystoreRecord, error)

	// Update replaces a config if config.Sequence is exactly one more than the stored
	// sequence and the kms module is unchanged. Otherwise it fails with ErrStaleSequence
	// and the caller must re-read and retry.
	Update(ctx context.Context, config *keystoreDomain.KeystoreConfig) error

	// Get returns a config by id through the cache.
	Get(ctx context.Context, id string) (*keystoreDomain.KeystoreRecord, error)

	// Find lists the configs of a controller.
	Find(
		ctx context.Context,
		controller string,
		query keystoreDomain.FindQuery,
		opts keystoreDomain.FindOptions,
	) ([]*keystoreDomain.KeystoreRecord, error)

	// GetStorageUsage sums the storage consumed by every keystore with the given meter id.
	GetStorageUsage(ctx context.Context, meterID string) (*keystoreDomain.StorageUsage, error)
}
