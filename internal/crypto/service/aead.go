package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	cryptoDomain "github.com/allisson/webkms/internal/crypto/domain"
)

// nonceCipher seals with a fresh random nonce per call. The nonce is returned
// next to the ciphertext and must be stored with it.
type nonceCipher struct {
	alg  cryptoDomain.Algorithm
	aead cipher.AEAD
}

func (n *nonceCipher) Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error) {
	nonce = make([]byte, n.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return n.aead.Seal(nil, nonce, plaintext, aad), nonce, nil
}

func (n *nonceCipher) Decrypt(ciphertext, nonce, aad []byte) ([]byte, error) {
	if len(nonce) != n.aead.NonceSize() {
		return nil, fmt.Errorf("%s nonce must be %d bytes, got %d", n.alg, n.aead.NonceSize(), len(nonce))
	}
	plaintext, err := n.aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}

// AEADManagerService creates the AEAD used to seal one secret with its data key.
type AEADManagerService struct{}

// NewAEADManager creates a new AEADManagerService.
func NewAEADManager() *AEADManagerService {
	return &AEADManagerService{}
}

// CreateCipher returns an AES-256-GCM or ChaCha20-Poly1305 cipher keyed with a 32-byte data key.
// Returns ErrInvalidKeySize or ErrUnsupportedAlgorithm.
func (am *AEADManagerService) CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error) {
	if len(key) != 32 {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	var (
		aead cipher.AEAD
		err  error
	)
	switch alg {
	case cryptoDomain.AESGCM:
		var block cipher.Block
		block, err = aes.NewCipher(key)
		if err == nil {
			aead, err = cipher.NewGCM(block)
		}
	case cryptoDomain.ChaCha20:
		aead, err = chacha20poly1305.New(key)
	default:
		return nil, cryptoDomain.ErrUnsupportedAlgorithm
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s cipher: %w", alg, err)
	}

	return &nonceCipher{alg: alg, aead: aead}, nil
}
