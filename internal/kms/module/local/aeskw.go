package local

import (
	"crypto/aes"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
)

// aesKWIV is the RFC 3394 default initial value.
var aesKWIV = []byte{0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6}

var errIntegrityCheck = errors.New("aes key unwrap integrity check failed")

// aesKeyWrap wraps plaintext (a multiple of 8 bytes, at least 16) under kek
// following RFC 3394.
func aesKeyWrap(kek, plaintext []byte) ([]byte, error) {
	if len(plaintext) < 16 || len(plaintext)%8 != 0 {
		return nil, fmt.Errorf("key to wrap must be a multiple of 8 bytes and at least 16 bytes, got %d", len(plaintext))
	}

	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	n := len(plaintext) / 8
	out := make([]byte, 8+len(plaintext))
	copy(out[8:], plaintext)

	a := make([]byte, 8)
	copy(a, aesKWIV)
	b := make([]byte, 16)

	for j := 0; j <= 5; j++ {
		for i := 1; i <= n; i++ {
			// B = AES(K, A | R[i])
			copy(b[:8], a)
			copy(b[8:], out[i*8:(i+1)*8])
			block.Encrypt(b, b)

			// A = MSB(64, B) ^ t
			t := uint64(n*j + i)
			binary.BigEndian.PutUint64(a, binary.BigEndian.Uint64(b[:8])^t)

			copy(out[i*8:(i+1)*8], b[8:])
		}
	}
	copy(out[:8], a)

	return out, nil
}

// aesKeyUnwrap reverses aesKeyWrap and checks the integrity value.
func aesKeyUnwrap(kek, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < 24 || len(ciphertext)%8 != 0 {
		return nil, fmt.Errorf("wrapped key must be a multiple of 8 bytes and at least 24 bytes, got %d", len(ciphertext))
	}

	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	n := len(ciphertext)/8 - 1
	r := make([]byte, len(ciphertext)-8)
	copy(r, ciphertext[8:])

	a := make([]byte, 8)
	copy(a, ciphertext[:8])
	b := make([]byte, 16)

	for j := 5; j >= 0; j-- {
		for i := n; i >= 1; i-- {
			// B = AES-1(K, (A ^ t) | R[i])
			t := uint64(n*j + i)
			binary.BigEndian.PutUint64(b[:8], binary.BigEndian.Uint64(a)^t)
			copy(b[8:], r[(i-1)*8:i*8])
			block.Decrypt(b, b)

			copy(a, b[:8])
			copy(r[(i-1)*8:i*8], b[8:])
		}
	}

	if subtle.ConstantTimeCompare(a, aesKWIV) != 1 {
		return nil, errIntegrityCheck
	}
	return r, nil
}
