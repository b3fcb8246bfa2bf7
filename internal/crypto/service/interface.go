// Package service seals key secrets at rest using envelope encryption.
// A per-secret data key encrypts the secret with an AEAD (AES-256-GCM or
// ChaCha20-Poly1305) and a KMS keeper encrypts the data key.
package service

import (
	"context"

	cryptoDomain "github.com/allisson/webkms/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// Keeper encrypts and decrypts small payloads (data keys) with a KMS-held key.
// *secrets.Keeper from gocloud.dev satisfies this interface.
type Keeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// Sealer protects secrets with envelope encryption.
type Sealer interface {
	// Seal encrypts secret, binding it to aad.
	Seal(ctx context.Context, secret, aad []byte) (*cryptoDomain.SealedSecret, error)

	// Open decrypts a sealed secret. The same aad used by Seal must be provided.
	Open(ctx context.Context, sealed *cryptoDomain.SealedSecret, aad []byte) ([]byte, error)
}
