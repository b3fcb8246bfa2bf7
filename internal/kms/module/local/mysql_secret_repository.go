package local

import (
	"context"
	"database/sql"
	"errors"

	"github.com/allisson/webkms/internal/database"
	apperrors "github.com/allisson/webkms/internal/errors"
	kmsDomain "github.com/allisson/webkms/internal/kms/domain"
)

// MySQLSecretRepository implements key secret persistence for MySQL databases.
type MySQLSecretRepository struct {
	db *sql.DB
}

// Create inserts a key secret into the MySQL database.
func (m *MySQLSecretRepository) Create(ctx context.Context, secret *KeySecret) error {
	query := `INSERT INTO local_module_keys
			  (id, keystore_id, key_type, public_key, algorithm, encrypted_data_key, ciphertext, nonce, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := m.db.ExecContext(
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
func (m *MySQLSecretRepository) Get(ctx context.Context, id string) (*KeySecret, error) {
	query := `SELECT id, keystore_id, key_type, public_key, algorithm, encrypted_data_key, ciphertext, nonce, created_at
			  FROM local_module_keys
			  WHERE id = ?`

	secret, err := scanKeySecret(m.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, kmsDomain.ErrKeyNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get key secret")
	}
	return secret, nil
}

// CountByKeystoreID returns the number of secrets held for a keystore.
func (m *MySQLSecretRepository) CountByKeystoreID(ctx context.Context, keystoreID string) (int64, error) {
	var count int64
	err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM local_module_keys WHERE keystore_id = ?`, keystoreID).
		Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count key secrets")
	}
	return count, nil
}

// NewMySQLSecretRepository creates a new MySQL key secret repository instance.
func NewMySQLSecretRepository(db *sql.DB) *MySQLSecretRepository {
	return &MySQLSecretRepository{db: db}
}
