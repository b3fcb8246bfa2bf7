package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/webkms/internal/errors"
)

func TestCreateKeystoreRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		request CreateKeystoreRequest
		wantErr bool
	}{
		{
			name:    "valid request",
			request: CreateKeystoreRequest{Controller: "did:key:z6Mk", KMSModule: "local-v1"},
		},
		{
			name:    "missing controller",
			request: CreateKeystoreRequest{KMSModule: "local-v1"},
			wantErr: true,
		},
		{
			name:    "blank kms module",
			request: CreateKeystoreRequest{Controller: "did:key:z6Mk", KMSModule: "   "},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateKeystoreRequest_ToDomain(t *testing.T) {
	seq := uint64(0)
	req := CreateKeystoreRequest{
		Controller:  "did:key:z6Mk",
		KMSModule:   "local-v1",
		Sequence:    &seq,
		ReferenceID: "primary",
		MeterID:     "meter-1",
	}

	config := req.ToDomain("https://kms.example.com/kms/keystores/abc")

	assert.Equal(t, "https://kms.example.com/kms/keystores/abc", config.ID)
	assert.Equal(t, "did:key:z6Mk", config.Controller)
	assert.Equal(t, "local-v1", config.KMSModule)
	assert.Equal(t, uint64(0), config.Sequence)
	assert.Equal(t, "primary", config.ReferenceID)
	assert.Equal(t, "meter-1", config.MeterID)

	seq = 4
	assert.Equal(t, uint64(4), req.ToDomain("x").Sequence)
}

func TestUpdateKeystoreRequest_Validate(t *testing.T) {
	valid := UpdateKeystoreRequest{
		ID:         "https://kms.example.com/kms/keystores/abc",
		Controller: "did:key:z6Mk",
		KMSModule:  "local-v1",
		Sequence:   1,
	}
	assert.NoError(t, valid.Validate())

	missingSequence := valid
	missingSequence.Sequence = 0
	assert.ErrorIs(t, missingSequence.Validate(), apperrors.ErrInvalidInput)

	relativeID := valid
	relativeID.ID = "/kms/keystores/abc"
	assert.ErrorIs(t, relativeID.Validate(), apperrors.ErrInvalidInput)
}
