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

// MySQLKeyRecordRepository implements key record persistence for MySQL databases.
type MySQLKeyRecordRepository struct {
	db *sql.DB
}

// Create inserts a key record into the MySQL database.
func (m *MySQLKeyRecordRepository) Create(ctx context.Context, record *kmsDomain.KeyRecord) error {
	key, err := encodeKeyDescription(record.Key)
	if err != nil {
		return err
	}

	query := `INSERT INTO key_records (id, keystore_id, key_description, pending, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	_, err = m.db.ExecContext(
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
func (m *MySQLKeyRecordRepository) Get(ctx context.Context, id string) (*kmsDomain.KeyRecord, error) {
	query := `SELECT id, keystore_id, key_description, pending, created_at, updated_at
			  FROM key_records
			  WHERE id = ?`

	record, err := scanKeyRecord(m.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, kmsDomain.ErrKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get key record")
	}
	return record, nil
}

// Confirm stores the description of a pending record and clears its pending flag.
// Clearing the flag always changes the row, so MySQL counts a matched row as affected.
func (m *MySQLKeyRecordRepository) Confirm(
	ctx context.Context,
	record *kmsDomain.KeyRecord,
	updated time.Time,
) (bool, error) {
	key, err := encodeKeyDescription(record.Key)
	if err != nil {
		return false, err
	}

	query := `UPDATE key_records
			  SET key_description = ?, pending = FALSE, updated_at = ?
			  WHERE id = ? AND pending = TRUE`

	result, err := m.db.ExecContext(ctx, query, key, updated, record.ID)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to confirm key record")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to get rows affected")
	}
	return rowsAffected > 0, nil
}

// NewMySQLKeyRecordRepository creates a new MySQL key record repository instance.
func NewMySQLKeyRecordRepository(db *sql.DB) *MySQLKeyRecordRepository {
	return &MySQLKeyRecordRepository{db: db}
}
