package domain

import (
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/webkms/internal/validation"
)

// KeystorePathPrefix is the path under which keystore ids are minted.
const KeystorePathPrefix = "/kms/keystores/"

// KeystoreConfig is the configuration of a keystore: who controls it, which
// module performs its key operations and its optimistic concurrency sequence.
//
// KMSModule never changes after creation. Sequence starts at 0 and grows by
// exactly one per accepted update.
type KeystoreConfig struct {
	ID          string
	Controller  string
	KMSModule   string
	Sequence    uint64
	ReferenceID string
	MeterID     string
}

// Meta holds the bookkeeping timestamps of a stored document.
type Meta struct {
	Created time.Time
	Updated time.Time
}

// KeystoreRecord is a stored keystore config together with its metadata.
type KeystoreRecord struct {
	Config KeystoreConfig
	Meta   Meta
}

// FindQuery narrows a controller's keystore listing. Empty fields are ignored.
type FindQuery struct {
	ReferenceID string
	MeterID     string
	KMSModule   string
}

// FindOptions controls ordering and paging of a keystore listing.
// A zero Limit returns every match.
type FindOptions struct {
	Limit      int
	Offset     int
	Descending bool
}

// StorageUsage is the metered storage consumed by the keystores of one meter.
type StorageUsage struct {
	MeterID   string
	Keystores int
	Keys      int64
	Storage   int64
}

// NewKeystoreID mints a keystore id rooted at host, for example
// "https://kms.example.com/kms/keystores/0192c1a8-...".
func NewKeystoreID(host string) string {
	return KeystoreID(host, uuid.Must(uuid.NewV7()).String())
}

// KeystoreID returns the id of the keystore with the given local id under host.
func KeystoreID(host, localID string) string {
	return "https://" + host + KeystorePathPrefix + localID
}

// ValidateForInsert checks a config before it is inserted.
// The sequence must be 0 and id, controller and kmsModule must be present.
func (c *KeystoreConfig) ValidateForInsert() error {
	if c.Sequence != 0 {
		return ErrInitialSequence
	}
	return c.validateFields()
}

// ValidateForUpdate checks a config before a conditional update.
// The sequence must be a positive integer.
func (c *KeystoreConfig) ValidateForUpdate() error {
	if c.Sequence < 1 {
		return ErrUpdateSequence
	}
	return c.validateFields()
}

func (c *KeystoreConfig) validateFields() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.ID, validation.Required, customValidation.URI),
		validation.Field(&c.Controller, validation.Required, customValidation.NotBlank),
		validation.Field(&c.KMSModule, validation.Required, customValidation.NotBlank, customValidation.NoWhitespace),
		validation.Field(&c.ReferenceID, customValidation.NotBlank),
		validation.Field(&c.MeterID, customValidation.NotBlank),
	)
	return customValidation.WrapValidationError(err)
}
