// Package usecase implements the key operation pipeline: authorization against
// the owning keystore, crash-safe key generation and dispatch to key modules.
package usecase

import (
	"context"
	"time"

	keystoreDomain "github.com/allisson/webkms/internal/keystore/domain"
	kmsDomain "github.com/allisson/webkms/internal/kms/domain"
)

// KeyRecordRepository defines the interface for key record persistence.
type KeyRecordRepository interface {
	Create(ctx context.Context, record *kmsDomain.KeyRecord) error
	Get(ctx context.Context, id string) (*kmsDomain.KeyRecord, error)
	// Confirm stores the record's description and clears its pending flag. It
	// reports false when the stored record is missing or no longer pending.
	Confirm(ctx context.Context, record *kmsDomain.KeyRecord, updated time.Time) (bool, error)
}

// KeystoreGetter reads keystore configs. The keystore use case satisfies it.
type KeystoreGetter interface {
	Get(ctx context.Context, id string) (*keystoreDomain.KeystoreRecord, error)
}

// OperationUseCase runs key operations.
type OperationUseCase interface {
	// Run authorizes op against the controller of the key's keystore and executes it
	// with the keystore's module, returning the module's result.
	Run(ctx context.Context, op *kmsDomain.Operation) (kmsDomain.Result, error)
}
