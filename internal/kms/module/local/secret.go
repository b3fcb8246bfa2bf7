// Package local implements the built-in "local-v1" key module.
//
// Key secrets never leave the process in plaintext: each one is sealed with
// envelope encryption (see crypto/service) bound to its key id and stored in the
// local_module_keys table. Public material is stored alongside so verification
// with asymmetric keys does not need to open the secret.
package local

import (
	"context"
	"time"

	cryptoDomain "github.com/allisson/webkms/internal/crypto/domain"
	"github.com/allisson/webkms/internal/errors"
)

// ModuleName is the kmsModule value keystores use to select this module.
const ModuleName = "local-v1"

// Local module error definitions.
var (
	// ErrUnsupportedKeyType indicates a generate request names a key type the module cannot create.
	ErrUnsupportedKeyType = errors.Wrap(errors.ErrNotSupported, "unsupported key type")

	// ErrKeyTypeOperation indicates the key's type does not support the requested operation.
	ErrKeyTypeOperation = errors.Wrap(errors.ErrNotSupported, "key type does not support operation")

	// ErrInvalidPayload indicates a missing or malformed base64url operation payload.
	ErrInvalidPayload = errors.Wrap(errors.ErrInvalidInput, "invalid operation payload")

	// ErrUnwrapFailed indicates a wrapped key failed its integrity check.
	ErrUnwrapFailed = errors.Wrap(errors.ErrInvalidInput, "failed to unwrap key")
)

// KeySecret is the stored form of a key held by the local module.
type KeySecret struct {
	ID         string
	KeystoreID string
	Type       string
	PublicKey  []byte
	Sealed     cryptoDomain.SealedSecret
	CreatedAt  time.Time
}

// SecretRepository persists key secrets.
type SecretRepository interface {
	// Create inserts a secret; a secret with the same id yields kmsDomain.ErrDuplicateKey.
	Create(ctx context.Context, secret *KeySecret) error

	// Get returns the secret with the given id or kmsDomain.ErrKeyNotFound.
	Get(ctx context.Context, id string) (*KeySecret, error)

	// CountByKeystoreID returns the number of secrets held for a keystore.
	CountByKeystoreID(ctx context.Context, keystoreID string) (int64, error)
}
