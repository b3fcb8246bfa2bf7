// Package dto provides data transfer objects for keystore HTTP requests and responses.
package dto

import (
	validation "github.com/jellydator/validation"

	keystoreDomain "github.com/allisson/webkms/internal/keystore/domain"
	customValidation "github.com/allisson/webkms/internal/validation"
)

// CreateKeystoreRequest contains the parameters for creating a keystore.
// The keystore id is minted by the server.
type CreateKeystoreRequest struct {
	Controller  string  `json:"controller"`
	KMSModule   string  `json:"kmsModule"`
	Sequence    *uint64 `json:"sequence,omitempty"`
	ReferenceID string  `json:"referenceId,omitempty"`
	MeterID     string  `json:"meterId,omitempty"`
}

// Validate checks if the create keystore request is valid.
func (r *CreateKeystoreRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Controller, validation.Required, customValidation.NotBlank),
		validation.Field(&r.KMSModule, validation.Required, customValidation.NotBlank),
	)
	return customValidation.WrapValidationError(err)
}

// ToDomain converts the request into a keystore config with the given id.
func (r *CreateKeystoreRequest) ToDomain(id string) *keystoreDomain.KeystoreConfig {
	config := &keystoreDomain.KeystoreConfig{
		ID:          id,
		Controller:  r.Controller,
		KMSModule:   r.KMSModule,
		ReferenceID: r.ReferenceID,
		MeterID:     r.MeterID,
	}
	if r.Sequence != nil {
		config.Sequence = *r.Sequence
	}
	return config
}

// UpdateKeystoreRequest contains a full keystore config carrying the next sequence.
type UpdateKeystoreRequest struct {
	ID          string `json:"id"`
	Controller  string `json:"controller"`
	KMSModule   string `json:"kmsModule"`
	Sequence    uint64 `json:"sequence"`
	ReferenceID string `json:"referenceId,omitempty"`
	MeterID     string `json:"meterId,omitempty"`
}

// Validate checks if the update keystore request is valid.
func (r *UpdateKeystoreRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.ID, validation.Required, customValidation.URI),
		validation.Field(&r.Controller, validation.Required, customValidation.NotBlank),
		validation.Field(&r.KMSModule, validation.Required, customValidation.NotBlank),
		validation.Field(&r.Sequence, validation.Required),
	)
	return customValidation.WrapValidationError(err)
}

// ToDomain converts the request into a keystore config.
func (r *UpdateKeystoreRequest) ToDomain() *keystoreDomain.KeystoreConfig {
	return &keystoreDomain.KeystoreConfig{
		ID:          r.ID,
		Controller:  r.Controller,
		KMSModule:   r.KMSModule,
		Sequence:    r.Sequence,
		ReferenceID: r.ReferenceID,
		MeterID:     r.MeterID,
	}
}
