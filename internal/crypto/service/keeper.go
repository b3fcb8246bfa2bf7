package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/url"

	"gocloud.dev/secrets"
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	"gocloud.dev/secrets/localsecrets"
)

var keeperProbe = []byte("webkms keeper probe")

// OpenKeeper opens the keeper that wraps local module data keys.
// keyURI selects the provider: gcpkms://, awskms://, azurekeyvault://, hashivault:// or base64key://.
func OpenKeeper(ctx context.Context, keyURI string) (Keeper, error) {
	u, err := url.Parse(keyURI)
	if err != nil || u.Scheme == "" {
		return nil, fmt.Errorf("failed to open KMS keeper: invalid keeper uri")
	}

	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	return keeper, nil
}

// NewLocalKeeperURI returns a base64key:// URI holding a fresh random 32-byte key.
func NewLocalKeeperURI() (string, error) {
	key, err := localsecrets.NewRandomKey()
	if err != nil {
		return "", fmt.Errorf("failed to generate keeper key: %w", err)
	}
	defer clear(key[:])
	return localsecrets.Scheme + "://" + base64.URLEncoding.EncodeToString(key[:]), nil
}

// ProbeKeeper checks that keeper can decrypt what it encrypts.
func ProbeKeeper(ctx context.Context, keeper Keeper) error {
	ciphertext, err := keeper.Encrypt(ctx, keeperProbe)
	if err != nil {
		return fmt.Errorf("failed to encrypt with keeper: %w", err)
	}
	plaintext, err := keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return fmt.Errorf("failed to decrypt with keeper: %w", err)
	}
	if !bytes.Equal(keeperProbe, plaintext) {
		return fmt.Errorf("keeper round trip mismatch")
	}
	return nil
}
