package domain

import (
	"time"
)

// KeyDescription is the public description of a key: id, type, controller and any
// public material returned by the module. It never holds private key bytes.
type KeyDescription map[string]any

// ID returns the "id" entry of the description.
func (d KeyDescription) ID() string {
	id, _ := d["id"].(string)
	return id
}

// Type returns the "type" entry of the description.
func (d KeyDescription) Type() string {
	typ, _ := d["type"].(string)
	return typ
}

// RecordMeta holds the bookkeeping of a key record. Pending is true only while
// a generate operation is in flight.
type RecordMeta struct {
	Created time.Time
	Updated time.Time
	Pending bool
}

// KeyRecord is a stored key description.
//
// The controller stored in Key is not authoritative: readers override it with the
// current controller of the owning keystore.
type KeyRecord struct {
	ID         string
	KeystoreID string
	Key        KeyDescription
	Meta       RecordMeta
}

// Clone returns a copy of the record whose description can be modified freely.
func (r *KeyRecord) Clone() *KeyRecord {
	c := *r
	c.Key = make(KeyDescription, len(r.Key))
	for k, v := range r.Key {
		c.Key[k] = v
	}
	return &c
}
