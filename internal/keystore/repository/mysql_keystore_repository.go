package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/allisson/webkms/internal/database"
	apperrors "github.com/allisson/webkms/internal/errors"
	keystoreDomain "github.com/allisson/webkms/internal/keystore/domain"
)

// mysqlMaxLimit is used when an offset is requested without a limit,
// since MySQL does not accept OFFSET on its own.
const mysqlMaxLimit = "18446744073709551615"

// MySQLKeystoreRepository implements keystore config persistence for MySQL databases.
//
// Timestamps are stored as DATETIME(6); the connection string must enable parseTime.
type MySQLKeystoreRepository struct {
	db *sql.DB
}

// Create inserts a new keystore config.
// Returns keystoreDomain.ErrKeystoreAlreadyExists on a duplicate id or (controller, referenceId).
func (m *MySQLKeystoreRepository) Create(
	ctx context.Context,
	record *keystoreDomain.KeystoreRecord,
) error {
	query := `INSERT INTO keystore_configs
			  (id, controller, kms_module, sequence, reference_id, meter_id, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := m.db.ExecContext(
		ctx,
		query,
		record.Config.ID,
		record.Config.Controller,
		record.Config.KMSModule,
		record.Config.Sequence,
		nullString(record.Config.ReferenceID),
		nullString(record.Config.MeterID),
		record.Meta.Created,
		record.Meta.Updated,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return keystoreDomain.ErrKeystoreAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create keystore config")
	}
	return nil
}

// Get retrieves a keystore config by id.
// Returns keystoreDomain.ErrKeystoreNotFound if no config has the given id.
func (m *MySQLKeystoreRepository) Get(
	ctx context.Context,
	id string,
) (*keystoreDomain.KeystoreRecord, error) {
	query := `SELECT id, controller, kms_module, sequence, reference_id, meter_id, created_at, updated_at
			  FROM keystore_configs
			  WHERE id = ?`

	record, err := scanKeystoreRecord(m.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, keystoreDomain.ErrKeystoreNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get keystore config")
	}
	return record, nil
}

// Find lists the keystore configs of a controller narrowed by query, ordered by
// creation time. Returns an empty slice when nothing matches.
func (m *MySQLKeystoreRepository) Find(
	ctx context.Context,
	controller string,
	q keystoreDomain.FindQuery,
	opts keystoreDomain.FindOptions,
) ([]*keystoreDomain.KeystoreRecord, error) {
	conditions := []string{"controller = ?"}
	args := []any{controller}

	addCondition := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conditions = append(conditions, column+" = ?")
	}
	addCondition("reference_id", q.ReferenceID)
	addCondition("meter_id", q.MeterID)
	addCondition("kms_module", q.KMSModule)

	query := `SELECT id, controller, kms_module, sequence, reference_id, meter_id, created_at, updated_at
			  FROM keystore_configs
			  WHERE ` + strings.Join(conditions, " AND ") + ` ORDER BY created_at ` + orderDirection(opts) + `, id`

	switch {
	case opts.Limit > 0:
		args = append(args, opts.Limit)
		query += " LIMIT ?"
	case opts.Offset > 0:
		query += " LIMIT " + mysqlMaxLimit
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += " OFFSET ?"
	}

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to find keystore configs")
	}
	defer func() { _ = rows.Close() }()

	records := make([]*keystoreDomain.KeystoreRecord, 0)
	for rows.Next() {
		record, err := scanKeystoreRecord(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan keystore config")
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate keystore configs")
	}

	return records, nil
}

// UpdateIfNextSequence replaces a stored config only if its sequence equals
// config.Sequence-1 and its kms module equals config.KMSModule.
//
// The new sequence always differs from the matched one, so MySQL reports the
// row as changed whenever it matched.
func (m *MySQLKeystoreRepository) UpdateIfNextSequence(
	ctx context.Context,
	config *keystoreDomain.KeystoreConfig,
	updated time.Time,
) (bool, error) {
	query := `UPDATE keystore_configs
			  SET controller = ?, sequence = ?, reference_id = ?, meter_id = ?, updated_at = ?
			  WHERE id = ? AND sequence = ? AND kms_module = ?`

	result, err := m.db.ExecContext(
		ctx,
		query,
		config.Controller,
		config.Sequence,
		nullString(config.ReferenceID),
		nullString(config.MeterID),
		updated,
		config.ID,
		config.Sequence-1,
		config.KMSModule,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return false, keystoreDomain.ErrKeystoreAlreadyExists
		}
		return false, apperrors.Wrap(err, "failed to update keystore config")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to get rows affected")
	}
	return rowsAffected > 0, nil
}

// ListByMeterID returns up to limit keystore configs with the given meter id
// whose id sorts after afterID, ordered by id.
func (m *MySQLKeystoreRepository) ListByMeterID(
	ctx context.Context,
	meterID string,
	afterID string,
	limit int,
) ([]*keystoreDomain.KeystoreConfig, error) {
	query := `SELECT id, controller, kms_module, sequence, reference_id, meter_id, created_at, updated_at
			  FROM keystore_configs
			  WHERE meter_id = ? AND id > ?
			  ORDER BY id
			  LIMIT ?`

	rows, err := m.db.QueryContext(ctx, query, meterID, afterID, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list keystore configs by meter id")
	}
	defer func() { _ = rows.Close() }()

	configs := make([]*keystoreDomain.KeystoreConfig, 0, limit)
	for rows.Next() {
		record, err := scanKeystoreRecord(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan keystore config")
		}
		configs = append(configs, &record.Config)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate keystore configs")
	}

	return configs, nil
}

// NewMySQLKeystoreRepository creates a new MySQL keystore repository instance.
func NewMySQLKeystoreRepository(db *sql.DB) *MySQLKeystoreRepository {
	return &MySQLKeystoreRepository{db: db}
}
