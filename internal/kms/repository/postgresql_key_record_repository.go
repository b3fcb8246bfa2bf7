// Package repository implements data persistence for key records.
//
// Key records live in the key_records table:
//   - id: primary key, the full key id
//   - keystore_id: owning keystore
//   - key_description: public key description as JSON text
//   - pending: true while a generate operation is in flight
//   - created_at, updated_at
//
// The primary key is the only coordination point of key generation: the first
// insert of a pending record wins and every later insert of the same id fails
// with kmsDomain.ErrDuplicateKey.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/allisson/webkms/internal/database"
	apperrors "github.com/allisson/webkms/internal/errors"
	kmsDomain "github.com/allisson/webkms/internal/kms/domain"
)

// PostgreSQLKeyRecordRepository implements key record persistence for PostgreSQL databases.
type PostgreSQLKeyRecordRepository struct {
	db *sql.DB
}

// Create inserts a key record.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - record: The record to insert, with meta timestamps populated
//
// Returns:
//   - kmsDomain.ErrDuplicateKey if a record with the same id exists
//   - An error if the insert fails for any other reason
func (p *PostgreSQLKeyRecordRepository) Create(ctx context.Context, record *kmsDomain.KeyRecord) error {
	key, err := encodeKeyDescription(record.Key)
	if err != nil {
		return err
	}

	query := `INSERT INTO key_records (id, keystore_id, key_description, pending, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = p.db.ExecContext(
		ctx,
		query,
		record.ID,
		record.KeystoreID,
		key,
		record.Meta.Pending,
		record.Meta.Created,
		record.Meta.Updated,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return kmsDomain.ErrDuplicateKey
		}
		return apperrors.Wrap(err, "failed to create key record")
	}
	return nil
}

// Get retrieves a key record by id, including pending records.
//
// Returns:
//   - kmsDomain.ErrKeyNotFound if no record has the given id
//   - An error if the query fails
func (p *PostgreSQLKeyRecordRepository) Get(ctx context.Context, id string) (*kmsDomain.KeyRecord, error) {
	query := `SELECT id, keystore_id, key_description, pending, created_at, updated_at
			  FROM key_records
			  WHERE id = $1`

	record, err := scanKeyRecord(p.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, kmsDomain.ErrKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get key record")
	}
	return record, nil
}

// Confirm stores the description of a pending record, clears its pending flag and
// sets its updated timestamp. It reports false when no pending record has the id.
func (p *PostgreSQLKeyRecordRepository) Confirm(
	ctx context.Context,
	record *kmsDomain.KeyRecord,
	updated time.Time,
) (bool, error) {
	key, err := encodeKeyDescription(record.Key)
	if err != nil {
		return false, err
	}

	query := `UPDATE key_records
			  SET key_description = $1, pending = FALSE, updated_at = $2
			  WHERE id = $3 AND pending = TRUE`

	result, err := p.db.ExecContext(ctx, query, key, updated, record.ID)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to confirm key record")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to get rows affected")
	}
	return rowsAffected > 0, nil
}

// NewPostgreSQLKeyRecordRepository creates a new PostgreSQL key record repository instance.
func NewPostgreSQLKeyRecordRepository(db *sql.DB) *PostgreSQLKeyRecordRepository {
	return &PostgreSQLKeyRecordRepository{db: db}
}
