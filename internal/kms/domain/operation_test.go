package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperationType_MethodName(t *testing.T) {
	tests := []struct {
		opType   OperationType
		expected string
	}{
		{opType: GenerateKeyOperation, expected: "generateKey"},
		{opType: SignOperation, expected: "sign"},
		{opType: VerifyOperation, expected: "verify"},
		{opType: WrapKeyOperation, expected: "wrapKey"},
		{opType: UnwrapKeyOperation, expected: "unwrapKey"},
		{opType: OperationType("DeriveSecretOperation"), expected: ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.opType), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.opType.MethodName())
		})
	}
}

func TestOperation_Accessors(t *testing.T) {
	op := &Operation{
		Type:  GenerateKeyOperation,
		Proof: Proof{VerificationMethod: "did:key:controller"},
	}
	assert.True(t, op.IsGenerate())
	assert.Equal(t, "did:key:controller", op.Controller())

	op.Type = SignOperation
	assert.False(t, op.IsGenerate())
}

func TestKeyRecord_Clone(t *testing.T) {
	record := &KeyRecord{
		ID:  "ks/keys/k1",
		Key: KeyDescription{"id": "ks/keys/k1", "type": "Sha256HmacKey2019"},
	}

	clone := record.Clone()
	clone.Key["controller"] = "did:key:other"

	assert.NotContains(t, record.Key, "controller")
	assert.Equal(t, "ks/keys/k1", clone.Key.ID())
	assert.Equal(t, "Sha256HmacKey2019", clone.Key.Type())
}
