package local

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	cryptoDomain "github.com/allisson/webkms/internal/crypto/domain"
	cryptoService "github.com/allisson/webkms/internal/crypto/service"
	kmsDomain "github.com/allisson/webkms/internal/kms/domain"
	"github.com/allisson/webkms/internal/kms/module"
)

// Module is the local key module. It implements every capability interface of
// the module package.
type Module struct {
	repo   SecretRepository
	sealer cryptoService.Sealer
	now    func() time.Time
}

var (
	_ module.KeyGenerator = (*Module)(nil)
	_ module.Signer       = (*Module)(nil)
	_ module.Verifier     = (*Module)(nil)
	_ module.KeyWrapper   = (*Module)(nil)
	_ module.KeyUnwrapper = (*Module)(nil)
	_ module.KeyCounter   = (*Module)(nil)
	_ module.KeyDescriber = (*Module)(nil)
)

// NewModule creates the local key module.
func NewModule(repo SecretRepository, sealer cryptoService.Sealer) *Module {
	return &Module{
		repo:   repo,
		sealer: sealer,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Name returns ModuleName.
func (m *Module) Name() string {
	return ModuleName
}

// GenerateKey creates a key of the requested type and returns its public description.
// Generating an id that already exists fails with kmsDomain.ErrDuplicateKey.
func (m *Module) GenerateKey(ctx context.Context, req module.Request) (kmsDomain.Result, error) {
	typ := req.Operation.InvocationTarget.Type
	kt, ok := keyTypes[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKeyType, typ)
	}

	secret, public, err := kt.generate()
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(secret)

	sealed, err := m.sealer.Seal(ctx, secret, []byte(req.KeyID))
	if err != nil {
		return nil, err
	}

	keySecret := &KeySecret{
		ID:         req.KeyID,
		KeystoreID: req.KeystoreID,
		Type:       typ,
		PublicKey:  public,
		Sealed:     *sealed,
		CreatedAt:  m.now(),
	}
	if err := m.repo.Create(ctx, keySecret); err != nil {
		return nil, err
	}

	return kt.description(req.KeyID, typ, public), nil
}

// Sign signs verifyData and returns the base64url signatureValue.
func (m *Module) Sign(ctx context.Context, req module.Request) (kmsDomain.Result, error) {
	data, err := decodePayload("verifyData", req.Operation.VerifyData)
	if err != nil {
		return nil, err
	}

	keySecret, kt, err := m.load(ctx, req, func(kt *keyType) bool { return kt.sign != nil })
	if err != nil {
		return nil, err
	}

	secret, err := m.open(ctx, keySecret)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(secret)

	signature := kt.sign(secret, data)
	return kmsDomain.Result{"signatureValue": base64.RawURLEncoding.EncodeToString(signature)}, nil
}

// Verify checks signatureValue over verifyData.
func (m *Module) Verify(ctx context.Context, req module.Request) (kmsDomain.Result, error) {
	data, err := decodePayload("verifyData", req.Operation.VerifyData)
	if err != nil {
		return nil, err
	}
	signature, err := decodePayload("signatureValue", req.Operation.SignatureValue)
	if err != nil {
		return nil, err
	}

	keySecret, kt, err := m.load(ctx, req, func(kt *keyType) bool { return kt.verify != nil })
	if err != nil {
		return nil, err
	}

	var secret []byte
	if len(keySecret.PublicKey) == 0 {
		secret, err = m.open(ctx, keySecret)
		if err != nil {
			return nil, err
		}
		defer cryptoDomain.Zero(secret)
	}

	verified := kt.verify(secret, keySecret.PublicKey, data, signature)
	return kmsDomain.Result{"verified": verified}, nil
}

// WrapKey wraps unwrappedKey and returns the base64url wrappedKey.
func (m *Module) WrapKey(ctx context.Context, req module.Request) (kmsDomain.Result, error) {
	key, err := decodePayload("unwrappedKey", req.Operation.UnwrappedKey)
	if err != nil {
		return nil, err
	}

	keySecret, kt, err := m.load(ctx, req, func(kt *keyType) bool { return kt.wrap != nil })
	if err != nil {
		return nil, err
	}

	secret, err := m.open(ctx, keySecret)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(secret)

	wrapped, err := kt.wrap(secret, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return kmsDomain.Result{"wrappedKey": base64.RawURLEncoding.EncodeToString(wrapped)}, nil
}

// UnwrapKey unwraps wrappedKey and returns the base64url unwrappedKey.
func (m *Module) UnwrapKey(ctx context.Context, req module.Request) (kmsDomain.Result, error) {
	wrapped, err := decodePayload("wrappedKey", req.Operation.WrappedKey)
	if err != nil {
		return nil, err
	}

	keySecret, kt, err := m.load(ctx, req, func(kt *keyType) bool { return kt.unwrap != nil })
	if err != nil {
		return nil, err
	}

	secret, err := m.open(ctx, keySecret)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(secret)

	key, err := kt.unwrap(secret, wrapped)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnwrapFailed, err)
	}
	return kmsDomain.Result{"unwrappedKey": base64.RawURLEncoding.EncodeToString(key)}, nil
}

// DescribeKey returns the public description of the stored key req.KeyID.
func (m *Module) DescribeKey(ctx context.Context, req module.Request) (kmsDomain.Result, error) {
	keySecret, kt, err := m.load(ctx, req, func(*keyType) bool { return true })
	if err != nil {
		return nil, err
	}
	return kt.description(keySecret.ID, keySecret.Type, keySecret.PublicKey), nil
}

// GetKeyCount returns the number of keys the module holds for keystoreID.
func (m *Module) GetKeyCount(ctx context.Context, keystoreID string) (int64, error) {
	return m.repo.CountByKeystoreID(ctx, keystoreID)
}

// load fetches the secret of req.KeyID and checks its type supports the operation.
func (m *Module) load(
	ctx context.Context,
	req module.Request,
	supports func(*keyType) bool,
) (*KeySecret, *keyType, error) {
	keySecret, err := m.repo.Get(ctx, req.KeyID)
	if err != nil {
		return nil, nil, err
	}

	kt, ok := keyTypes[keySecret.Type]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnsupportedKeyType, keySecret.Type)
	}
	if !supports(kt) {
		return nil, nil, fmt.Errorf(
			"%w: %s does not support %s",
			ErrKeyTypeOperation,
			keySecret.Type,
			req.Operation.Type,
		)
	}
	return keySecret, kt, nil
}

func (m *Module) open(ctx context.Context, keySecret *KeySecret) ([]byte, error) {
	return m.sealer.Open(ctx, &keySecret.Sealed, []byte(keySecret.ID))
}

// decodePayload decodes a required base64url field, accepting padded input.
func decodePayload(field, value string) ([]byte, error) {
	if value == "" {
		return nil, fmt.Errorf("%w: %s is required", ErrInvalidPayload, field)
	}
	data, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		data, err = base64.URLEncoding.DecodeString(value)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be base64url encoded", ErrInvalidPayload, field)
	}
	return data, nil
}
