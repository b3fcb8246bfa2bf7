// Package domain defines keystore configuration models, validation rules and errors.
package domain

import (
	"github.com/allisson/webkms/internal/errors"
)

// Keystore configuration error definitions.
var (
	// ErrKeystoreNotFound indicates no keystore config matches the requested id.
	ErrKeystoreNotFound = errors.Wrap(errors.ErrNotFound, "keystore config not found")

	// ErrKeystoreAlreadyExists indicates the id or the (controller, referenceId) pair is taken.
	ErrKeystoreAlreadyExists = errors.Wrap(errors.ErrConflict, "duplicate keystore config")

	// ErrInitialSequence indicates a config was inserted with a sequence other than 0.
	ErrInitialSequence = errors.Wrap(errors.ErrInvalidInput, `keystore config sequence must be "0"`)

	// ErrUpdateSequence indicates an update was submitted with a sequence below 1.
	ErrUpdateSequence = errors.Wrap(errors.ErrInvalidInput, "keystore config sequence must be a positive integer")

	// ErrStaleSequence indicates the conditional update matched no stored config.
	ErrStaleSequence = errors.Wrap(
		errors.ErrInvalidState,
		"could not update keystore config; record sequence does not match or keystore config does not exist",
	)

	// ErrKeyCountNotSupported indicates a keystore module cannot report its key count.
	ErrKeyCountNotSupported = errors.Wrap(errors.ErrNotFound, "key count not supported by kms module")

	// ErrStorageUsageAborted indicates the storage usage scan observed cancellation.
	ErrStorageUsageAborted = errors.Wrap(errors.ErrAborted, "computing storage aborted")
)
