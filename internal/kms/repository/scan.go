package repository

import (
	"encoding/json"

	apperrors "github.com/allisson/webkms/internal/errors"
	kmsDomain "github.com/allisson/webkms/internal/kms/domain"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanKeyRecord(row rowScanner) (*kmsDomain.KeyRecord, error) {
	var (
		record kmsDomain.KeyRecord
		key    []byte
	)
	err := row.Scan(
		&record.ID,
		&record.KeystoreID,
		&key,
		&record.Meta.Pending,
		&record.Meta.Created,
		&record.Meta.Updated,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(key, &record.Key); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode key description")
	}
	return &record, nil
}

func encodeKeyDescription(key kmsDomain.KeyDescription) (string, error) {
	data, err := json.Marshal(key)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to encode key description")
	}
	return string(data), nil
}
