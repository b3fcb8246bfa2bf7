package domain

import (
	"strings"
)

const keysSegment = "/keys/"

// ParseKeyID splits a key id of the form "<keystoreId>/keys/<localId>" into its
// keystore id and local id. The last "/keys/" segment is used as the separator.
//
// Returns ErrInvalidKeyID when the segment is absent, either side is empty, or the
// local id contains a "/".
func ParseKeyID(keyID string) (keystoreID string, localID string, err error) {
	idx := strings.LastIndex(keyID, keysSegment)
	if idx <= 0 {
		return "", "", ErrInvalidKeyID
	}

	keystoreID = keyID[:idx]
	localID = keyID[idx+len(keysSegment):]
	if localID == "" || strings.Contains(localID, "/") {
		return "", "", ErrInvalidKeyID
	}

	return keystoreID, localID, nil
}

// KeyID joins a keystore id and a local id.
func KeyID(keystoreID, localID string) string {
	return keystoreID + keysSegment + localID
}
