package domain

// SealedSecret is a secret protected with envelope encryption.
//
// The secret is encrypted with a random 32-byte data key using Algorithm. The data key
// itself is encrypted by the configured KMS keeper and stored in EncryptedDataKey.
// The plaintext data key is never persisted.
type SealedSecret struct {
	Algorithm        Algorithm
	EncryptedDataKey []byte
	Ciphertext       []byte
	Nonce            []byte
}

// Zero overwrites key material once it is no longer needed. Safe on nil.
func Zero(b []byte) {
	clear(b)
}
