// Package repository implements data persistence for keystore configurations.
//
// Each repository has a PostgreSQL and a MySQL implementation over the
// keystore_configs table:
//   - id: primary key, the keystore URI
//   - controller, kms_module, sequence
//   - reference_id: nullable, UNIQUE (controller, reference_id)
//   - meter_id: nullable, indexed for storage usage scans
//   - created_at, updated_at
//
// # Optimistic Concurrency
//
// Updates are a single conditional UPDATE matching the id, the previous sequence
// and the kms module. The database applies it atomically, so exactly one of many
// concurrent updaters presenting the same sequence wins.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/allisson/webkms/internal/database"
	apperrors "github.com/allisson/webkms/internal/errors"
	keystoreDomain "github.com/allisson/webkms/internal/keystore/domain"
)

// PostgreSQLKeystoreRepository implements keystore config persistence for PostgreSQL databases.
type PostgreSQLKeystoreRepository struct {
	db *sql.DB
}

// Create inserts a new keystore config.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - record: The keystore record to insert, with meta timestamps populated
//
// Returns:
//   - keystoreDomain.ErrKeystoreAlreadyExists if the id or (controller, referenceId) is taken
//   - An error if the insert fails for any other reason
func (p *PostgreSQLKeystoreRepository) Create(
	ctx context.Context,
	record *keystoreDomain.KeystoreRecord,
) error {
	query := `INSERT INTO keystore_configs
			  (id, controller, kms_module, sequence, reference_id, meter_id, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := p.db.ExecContext(
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
//
// Returns:
//   - keystoreDomain.ErrKeystoreNotFound if no config has the given id
//   - An error if the query fails
func (p *PostgreSQLKeystoreRepository) Get(
	ctx context.Context,
	id string,
) (*keystoreDomain.KeystoreRecord, error) {
	query := `SELECT id, controller, kms_module, sequence, reference_id, meter_id, created_at, updated_at
			  FROM keystore_configs
			  WHERE id = $1`

	record, err := scanKeystoreRecord(p.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, keystoreDomain.ErrKeystoreNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get keystore config")
	}
	return record, nil
}

// Find lists the keystore configs of a controller narrowed by query, ordered by
// creation time. The controller is always part of the filter.
//
// Returns an empty slice when nothing matches.
func (p *PostgreSQLKeystoreRepository) Find(
	ctx context.Context,
	controller string,
	q keystoreDomain.FindQuery,
	opts keystoreDomain.FindOptions,
) ([]*keystoreDomain.KeystoreRecord, error) {
	conditions := []string{"controller = $1"}
	args := []any{controller}

	addCondition := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	addCondition("reference_id", q.ReferenceID)
	addCondition("meter_id", q.MeterID)
	addCondition("kms_module", q.KMSModule)

	query := `SELECT id, controller, kms_module, sequence, reference_id, meter_id, created_at, updated_at
			  FROM keystore_configs
			  WHERE ` + strings.Join(conditions, " AND ") + ` ORDER BY created_at ` + orderDirection(opts) + `, id`

	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
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
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - config: The new config; Sequence must be at least 1
//   - updated: The new meta.updated timestamp
//
// Returns:
//   - true if a stored config matched and was replaced, false otherwise
//   - keystoreDomain.ErrKeystoreAlreadyExists if the new referenceId collides
//   - An error if the update fails
func (p *PostgreSQLKeystoreRepository) UpdateIfNextSequence(
	ctx context.Context,
	config *keystoreDomain.KeystoreConfig,
	updated time.Time,
) (bool, error) {
	query := `UPDATE keystore_configs
			  SET controller = $1, sequence = $2, reference_id = $3, meter_id = $4, updated_at = $5
			  WHERE id = $6 AND sequence = $7 AND kms_module = $8`

	result, err := p.db.ExecContext(
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
// whose id sorts after afterID, ordered by id. Pass an empty afterID to start
// from the beginning.
func (p *PostgreSQLKeystoreRepository) ListByMeterID(
	ctx context.Context,
	meterID string,
	afterID string,
	limit int,
) ([]*keystoreDomain.KeystoreConfig, error) {
	query := `SELECT id, controller, kms_module, sequence, reference_id, meter_id, created_at, updated_at
			  FROM keystore_configs
			  WHERE meter_id = $1 AND id > $2
			  ORDER BY id
			  LIMIT $3`

	rows, err := p.db.QueryContext(ctx, query, meterID, afterID, limit)
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

// NewPostgreSQLKeystoreRepository creates a new PostgreSQL keystore repository instance.
func NewPostgreSQLKeystoreRepository(db *sql.DB) *PostgreSQLKeystoreRepository {
	return &PostgreSQLKeystoreRepository{db: db}
}
