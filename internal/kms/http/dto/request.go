// Package dto provides data transfer objects for key operation HTTP requests.
package dto

import (
	"bytes"
	"encoding/json"
	"fmt"

	validation "github.com/jellydator/validation"

	kmsDomain "github.com/allisson/webkms/internal/kms/domain"
	customValidation "github.com/allisson/webkms/internal/validation"
)

// InvocationTarget is either a bare key id string or a {id, type, controller} object.
type InvocationTarget struct {
	ID         string `json:"id,omitempty"`
	Type       string `json:"type,omitempty"`
	Controller string `json:"controller,omitempty"`
}

// UnmarshalJSON accepts both the string and the object form.
func (t *InvocationTarget) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*t = InvocationTarget{ID: id}
		return nil
	}

	type target InvocationTarget
	var obj target
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&obj); err != nil {
		return fmt.Errorf("invocationTarget must be a key id or an object: %w", err)
	}
	*t = InvocationTarget(obj)
	return nil
}

// Proof carries the already verified capability invocation proof.
type Proof struct {
	Type               string `json:"type,omitempty"`
	Created            string `json:"created,omitempty"`
	Capability         string `json:"capability,omitempty"`
	CapabilityAction   string `json:"capabilityAction,omitempty"`
	ProofPurpose       string `json:"proofPurpose,omitempty"`
	ProofValue         string `json:"proofValue,omitempty"`
	JWS                string `json:"jws,omitempty"`
	VerificationMethod string `json:"verificationMethod"`
}

// OperationRequest is a key operation as posted by a client.
type OperationRequest struct {
	Context          any              `json:"@context,omitempty"`
	Type             string           `json:"type"`
	InvocationTarget InvocationTarget `json:"invocationTarget"`
	Proof            Proof            `json:"proof"`

	VerifyData     string `json:"verifyData,omitempty"`
	SignatureValue string `json:"signatureValue,omitempty"`
	UnwrappedKey   string `json:"unwrappedKey,omitempty"`
	WrappedKey     string `json:"wrappedKey,omitempty"`
}

// Validate checks the fields required by the operation type.
func (r *OperationRequest) Validate() error {
	typ := kmsDomain.OperationType(r.Type)
	if typ.MethodName() == "" {
		return fmt.Errorf("%w: %q", kmsDomain.ErrUnknownOperationType, r.Type)
	}
	generate := typ == kmsDomain.GenerateKeyOperation

	err := validation.Errors{
		"invocationTarget": validation.ValidateStruct(&r.InvocationTarget,
			validation.Field(&r.InvocationTarget.ID, validation.When(!generate, validation.Required)),
			validation.Field(&r.InvocationTarget.Type, validation.When(generate, validation.Required)),
		),
		"proof": validation.ValidateStruct(&r.Proof,
			validation.Field(&r.Proof.VerificationMethod, validation.Required, customValidation.NotBlank),
		),
		"verifyData": validation.Validate(r.VerifyData,
			validation.When(typ == kmsDomain.SignOperation || typ == kmsDomain.VerifyOperation, validation.Required),
		),
		"signatureValue": validation.Validate(r.SignatureValue,
			validation.When(typ == kmsDomain.VerifyOperation, validation.Required),
		),
		"unwrappedKey": validation.Validate(r.UnwrappedKey,
			validation.When(typ == kmsDomain.WrapKeyOperation, validation.Required),
			customValidation.Base64URL,
		),
		"wrappedKey": validation.Validate(r.WrappedKey,
			validation.When(typ == kmsDomain.UnwrapKeyOperation, validation.Required),
			customValidation.Base64URL,
		),
	}.Filter()
	return customValidation.WrapValidationError(err)
}

// ToDomain converts the request into a domain operation.
func (r *OperationRequest) ToDomain() *kmsDomain.Operation {
	return &kmsDomain.Operation{
		Type: kmsDomain.OperationType(r.Type),
		InvocationTarget: kmsDomain.InvocationTarget{
			ID:         r.InvocationTarget.ID,
			Type:       r.InvocationTarget.Type,
			Controller: r.InvocationTarget.Controller,
		},
		Proof:          kmsDomain.Proof{VerificationMethod: r.Proof.VerificationMethod},
		VerifyData:     r.VerifyData,
		SignatureValue: r.SignatureValue,
		UnwrappedKey:   r.UnwrappedKey,
		WrappedKey:     r.WrappedKey,
	}
}
