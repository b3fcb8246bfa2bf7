package service

import (
	"context"
	"crypto/rand"
	"fmt"

	cryptoDomain "github.com/allisson/webkms/internal/crypto/domain"
)

// EnvelopeSealer implements Sealer with a fresh data key per secret.
type EnvelopeSealer struct {
	keeper      Keeper
	aeadManager AEADManager
	algorithm   cryptoDomain.Algorithm
}

// NewEnvelopeSealer creates a sealer that encrypts secrets with alg and protects
// the data keys with keeper.
func NewEnvelopeSealer(keeper Keeper, aeadManager AEADManager, alg cryptoDomain.Algorithm) *EnvelopeSealer {
	return &EnvelopeSealer{
		keeper:      keeper,
		aeadManager: aeadManager,
		algorithm:   alg,
	}
}

// Seal encrypts secret with a random 32-byte data key and encrypts the data key with the keeper.
func (s *EnvelopeSealer) Seal(
	ctx context.Context,
	secret, aad []byte,
) (*cryptoDomain.SealedSecret, error) {
	dataKey := make([]byte, 32)
	if _, err := rand.Read(dataKey); err != nil {
		return nil, fmt.Errorf("failed to generate data key: %w", err)
	}
	defer cryptoDomain.Zero(dataKey)

	cipher, err := s.aeadManager.CreateCipher(dataKey, s.algorithm)
	if err != nil {
		return nil, err
	}

	ciphertext, nonce, err := cipher.Encrypt(secret, aad)
	if err != nil {
		return nil, err
	}

	encryptedDataKey, err := s.keeper.Encrypt(ctx, dataKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt data key: %w", err)
	}

	return &cryptoDomain.SealedSecret{
		Algorithm:        s.algorithm,
		EncryptedDataKey: encryptedDataKey,
		Ciphertext:       ciphertext,
		Nonce:            nonce,
	}, nil
}

// Open decrypts the data key with the keeper and then the secret.
// Returns ErrDecryptionFailed when either step fails authentication.
func (s *EnvelopeSealer) Open(
	ctx context.Context,
	sealed *cryptoDomain.SealedSecret,
	aad []byte,
) ([]byte, error) {
	dataKey, err := s.keeper.Decrypt(ctx, sealed.EncryptedDataKey)
	if err != nil {
		return nil, fmt.Errorf("%w: data key: %v", cryptoDomain.ErrDecryptionFailed, err)
	}
	defer cryptoDomain.Zero(dataKey)

	cipher, err := s.aeadManager.CreateCipher(dataKey, sealed.Algorithm)
	if err != nil {
		return nil, err
	}

	secret, err := cipher.Decrypt(sealed.Ciphertext, sealed.Nonce, aad)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return secret, nil
}
