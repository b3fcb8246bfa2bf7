// Package module defines the capability interfaces of key modules and the
// registry that resolves a keystore's declared module name to an implementation.
//
// A module implements Module plus any subset of the capability interfaces.
// Callers check for a capability with a type assertion before invoking it.
package module

import (
	"context"

	kmsDomain "github.com/allisson/webkms/internal/kms/domain"
)

// Module is a named key module.
type Module interface {
	Name() string
}

// Request is the input of a key operation method.
type Request struct {
	KeyID      string
	KeystoreID string
	Controller string
	Operation  *kmsDomain.Operation
}

// KeyGenerator generates keys. The result is the public key description.
type KeyGenerator interface {
	GenerateKey(ctx context.Context, req Request) (kmsDomain.Result, error)
}

// Signer signs data with an existing key.
type Signer interface {
	Sign(ctx context.Context, req Request) (kmsDomain.Result, error)
}

// Verifier verifies signatures made with an existing key.
type Verifier interface {
	Verify(ctx context.Context, req Request) (kmsDomain.Result, error)
}

// KeyWrapper wraps key material with an existing key.
type KeyWrapper interface {
	WrapKey(ctx context.Context, req Request) (kmsDomain.Result, error)
}

// KeyUnwrapper unwraps key material with an existing key.
type KeyUnwrapper interface {
	UnwrapKey(ctx context.Context, req Request) (kmsDomain.Result, error)
}

// KeyDescriber returns the public description of a key the module already
// generated.
type KeyDescriber interface {
	DescribeKey(ctx context.Context, req Request) (kmsDomain.Result, error)
}

// KeyCounter reports how many keys a keystore holds in the module.
type KeyCounter interface {
	GetKeyCount(ctx context.Context, keystoreID string) (int64, error)
}

// Method returns the function implementing opType on m, or false when m lacks
// the capability or the type is unknown.
func Method(
	m Module,
	opType kmsDomain.OperationType,
) (func(ctx context.Context, req Request) (kmsDomain.Result, error), bool) {
	switch opType {
	case kmsDomain.GenerateKeyOperation:
		if c, ok := m.(KeyGenerator); ok {
			return c.GenerateKey, true
		}
	case kmsDomain.SignOperation:
		if c, ok := m.(Signer); ok {
			return c.Sign, true
		}
	case kmsDomain.VerifyOperation:
		if c, ok := m.(Verifier); ok {
			return c.Verify, true
		}
	case kmsDomain.WrapKeyOperation:
		if c, ok := m.(KeyWrapper); ok {
			return c.WrapKey, true
		}
	case kmsDomain.UnwrapKeyOperation:
		if c, ok := m.(KeyUnwrapper); ok {
			return c.UnwrapKey, true
		}
	}
	return nil, false
}
