// Package domain defines key operations, key records and the key id grammar.
package domain

import (
	"github.com/allisson/webkms/internal/errors"
)

// Key operation error definitions.
var (
	// ErrInvalidKeyID indicates a key id does not match "<keystoreId>/keys/<localId>".
	ErrInvalidKeyID = errors.Wrap(errors.ErrInvalidInput, "invalid key id")

	// ErrKeyNotFound indicates no key record exists for the id, or the record is
	// still pending and must appear absent.
	ErrKeyNotFound = errors.Wrap(errors.ErrNotFound, "key not found")

	// ErrDuplicateKey indicates a key with the same id has already been generated.
	ErrDuplicateKey = errors.Wrap(errors.ErrConflict, "duplicate key")

	// ErrNotAllowed indicates the invoker is not the controller of the key's keystore.
	ErrNotAllowed = errors.Wrap(errors.ErrForbidden, "permission denied")

	// ErrOperationNotSupported indicates the keystore's module lacks the operation's method.
	ErrOperationNotSupported = errors.Wrap(errors.ErrNotSupported, "operation not supported")

	// ErrUnknownOperationType indicates the operation type is not recognized.
	ErrUnknownOperationType = errors.Wrap(errors.ErrInvalidInput, "unknown operation type")

	// ErrMissingVerificationMethod indicates the operation carries no asserted controller.
	ErrMissingVerificationMethod = errors.Wrap(errors.ErrInvalidInput, "proof verification method is required")
)
