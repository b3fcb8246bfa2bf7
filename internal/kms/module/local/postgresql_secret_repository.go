package local

import (
	"context"
	"database/sql"
	"errors"

	cryptoDomain "github.com/allisson/webkms/internal/crypto/domain"
	"github.com/allisson/webkms/internal/database"
	apperrors "github.com/allisson/webkms/internal/errors"
	kmsDomain "github.com/allisson/webkms/internal/kms/domain"
)

// PostgreSQLSecretRepository implements key secret persistence for PostgreSQL databases.
//
// Secrets are stored in local_module_keys:
//   - id: primary key, the full key id
//   - keystore_id: indexed for key counts
//   - key_type, public_key
//   - algorithm, encrypted_data_key, ciphertext, nonce: the sealed secret
//   - created_at
type PostgreSQLSecretRepository struct {
	db *sql.DB
}

// Create inserts a key secret.
//
// Returns:
//   - kmsDomain.ErrDuplicateKey if a secret with the same id exists
//   - An error if the insert fails for any other reason
func (p *PostgreSQLSecretRepository) Create(ctx context.Context, secret *KeySecret) error {
	query := `INSERT INTO local_module_keys
			  (id, keystore_id, key_type, public_key, algorithm, encrypted_data_key, ciphertext, nonce, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := p.db.ExecContext(
		ctx,
		query,
		secret.ID,
		secret.KeystoreID,
		secret.Type,
		secret.PublicKey,
		string(secret.Sealed.Algorithm),
		secret.Sealed.EncryptedDataKey,
		secret.Sealed.Ciphertext,
		secret.Sealed.Nonce,
		secret.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return kmsDomain.ErrDuplicateKey
		}
		return apperrors.Wrap(err, "failed to create key secret")
	}
	return nil
}

// Get retrieves a key secret by id.
//
// Returns:
//   - kmsDomain.ErrKeyNotFound if no secret has the given id
//   - An error if the query fails
func (p *PostgreSQLSecretRepository) Get(ctx context.Context, id string) (*KeySecret, error) {
	query := `SELECT id, keystore_id, key_type, public_key, algorithm, encrypted_data_key, ciphertext, nonce, created_at
			  FROM local_module_keys
			  WHERE id = $1`

	secret, err := scanKeySecret(p.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, kmsDomain.ErrKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get key secret")
	}
	return secret, nil
}

// CountByKeystoreID returns the number of secrets held for a keystore.
func (p *PostgreSQLSecretRepository) CountByKeystoreID(ctx context.Context, keystoreID string) (int64, error) {
	query := `SELECT COUNT(*) FROM local_module_keys WHERE keystore_id = $1`

	var count int64
	if err := p.db.QueryRowContext(ctx, query, keystoreID).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count key secrets")
	}
	return count, nil
}

// NewPostgreSQLSecretRepository creates a new PostgreSQL key secret repository instance.
func NewPostgreSQLSecretRepository(db *sql.DB) *PostgreSQLSecretRepository {
	return &PostgreSQLSecretRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanKeySecret(row rowScanner) (*KeySecret, error) {
	var (
		secret    KeySecret
		algorithm string
	)
	err := row.Scan(
		&secret.ID,
		&secret.KeystoreID,
		&secret.Type,
		&secret.PublicKey,
		&algorithm,
		&secret.Sealed.EncryptedDataKey,
		&secret.Sealed.Ciphertext,
		&secret.Sealed.Nonce,
		&secret.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	secret.Sealed.Algorithm = cryptoDomain.Algorithm(algorithm)
	return &secret, nil
}
