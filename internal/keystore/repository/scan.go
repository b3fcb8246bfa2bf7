package repository

import (
	"database/sql"

	keystoreDomain "github.com/allisson/webkms/internal/keystore/domain"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanKeystoreRecord(row rowScanner) (*keystoreDomain.KeystoreRecord, error) {
	var (
		record      keystoreDomain.KeystoreRecord
		referenceID sql.NullString
		meterID     sql.NullString
	)
	err := row.Scan(
		&record.Config.ID,
		&record.Config.Controller,
		&record.Config.KMSModule,
		&record.Config.Sequence,
		&referenceID,
		&meterID,
		&record.Meta.Created,
		&record.Meta.Updated,
	)
	if err != nil {
		return nil, err
	}
	record.Config.ReferenceID = referenceID.String
	record.Config.MeterID = meterID.String
	return &record, nil
}

// nullString stores empty optional fields as NULL so the
// (controller, reference_id) unique index ignores them.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func orderDirection(opts keystoreDomain.FindOptions) string {
	if opts.Descending {
		return "DESC"
	}
	return "ASC"
}
