package local

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"

	kmsDomain "github.com/allisson/webkms/internal/kms/domain"
)

// Supported key types.
const (
	Ed25519VerificationKey2018 = "Ed25519VerificationKey2018"
	Ed25519VerificationKey2020 = "Ed25519VerificationKey2020"
	Sha256HmacKey2019          = "Sha256HmacKey2019"
	AesKeyWrappingKey2019      = "AesKeyWrappingKey2019"
)

const (
	securityContextV2 = "https://w3id.org/security/v2"
	ed25519Context    = "https://w3id.org/security/suites/ed25519-2020/v1"
)

// ed25519MulticodecPrefix is the multicodec header of an Ed25519 public key.
var ed25519MulticodecPrefix = []byte{0xed, 0x01}

// keyType describes how a key type is generated, described and used.
// A nil function means the type does not support that operation.
type keyType struct {
	context  string
	generate func() (secret, public []byte, err error)
	describe func(result kmsDomain.Result, public []byte)
	sign     func(secret, data []byte) []byte
	verify   func(secret, public, data, signature []byte) bool
	wrap     func(secret, key []byte) ([]byte, error)
	unwrap   func(secret, wrapped []byte) ([]byte, error)
}

var keyTypes = map[string]*keyType{
	Ed25519VerificationKey2018: {
		context:  securityContextV2,
		generate: generateEd25519,
		describe: func(result kmsDomain.Result, public []byte) {
			result["publicKeyBase58"] = base58.Encode(public)
		},
		sign:   signEd25519,
		verify: verifyEd25519,
	},
	Ed25519VerificationKey2020: {
		context:  ed25519Context,
		generate: generateEd25519,
		describe: func(result kmsDomain.Result, public []byte) {
			result["publicKeyMultibase"] = encodeMultibaseKey(public)
		},
		sign:   signEd25519,
		verify: verifyEd25519,
	},
	Sha256HmacKey2019: {
		context:  securityContextV2,
		generate: generateSymmetric,
		sign:     signHMAC,
		verify: func(secret, _, data, signature []byte) bool {
			return hmac.Equal(signHMAC(secret, data), signature)
		},
	},
	AesKeyWrappingKey2019: {
		context:  securityContextV2,
		generate: generateSymmetric,
		wrap:     aesKeyWrap,
		unwrap:   aesKeyUnwrap,
	},
}

// description returns the public description of a key of this type.
func (k *keyType) description(id, typ string, public []byte) kmsDomain.Result {
	result := kmsDomain.Result{
		"@context": k.context,
		"id":       id,
		"type":     typ,
	}
	if k.describe != nil {
		k.describe(result, public)
	}
	return result
}

func generateEd25519() ([]byte, []byte, error) {
	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate ed25519 key: %w", err)
	}
	return private.Seed(), public, nil
}

func signEd25519(seed, data []byte) []byte {
	return ed25519.Sign(ed25519.NewKeyFromSeed(seed), data)
}

func verifyEd25519(_, public, data, signature []byte) bool {
	if len(public) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(public), data, signature)
}

func generateSymmetric() ([]byte, []byte, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, nil, fmt.Errorf("failed to generate symmetric key: %w", err)
	}
	return secret, nil, nil
}

func signHMAC(secret, data []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(data)
	return mac.Sum(nil)
}

// encodeMultibaseKey encodes an Ed25519 public key as base58btc multibase ("z" prefix)
// over the multicodec-prefixed bytes.
func encodeMultibaseKey(public []byte) string {
	buf := make([]byte, 0, len(ed25519MulticodecPrefix)+len(public))
	buf = append(buf, ed25519MulticodecPrefix...)
	buf = append(buf, public...)
	return "z" + base58.Encode(buf)
}
