package domain

import (
	stderrors "errors"

	"github.com/allisson/webkms/internal/errors"
)

// Sealing error definitions.
var (
	// ErrUnsupportedAlgorithm indicates the requested sealing algorithm is not supported.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates a data key is not exactly 32 bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrDecryptionFailed indicates a sealed secret could not be opened.
	//
	// Sealed secrets are only read back from storage, so a failure is an internal
	// error and its cause (wrong key, tampered ciphertext, wrong AAD) is not disclosed.
	ErrDecryptionFailed = stderrors.New("decryption failed")
)
