package local

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/webkms/internal/crypto/domain"
	kmsDomain "github.com/allisson/webkms/internal/kms/domain"
)

var secretColumns = []string{
	"id", "keystore_id", "key_type", "public_key", "algorithm", "encrypted_data_key", "ciphertext", "nonce", "created_at",
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func newTestSecret() *KeySecret {
	return &KeySecret{
		ID:         kmsDomain.KeyID(testKeystoreID, "k1"),
		KeystoreID: testKeystoreID,
		Type:       Ed25519VerificationKey2020,
		PublicKey:  []byte("public"),
		Sealed: cryptoDomain.SealedSecret{
			Algorithm:        cryptoDomain.ChaCha20,
			EncryptedDataKey: []byte("edk"),
			Ciphertext:       []byte("ciphertext"),
			Nonce:            []byte("nonce"),
		},
		CreatedAt: time.Now().UTC(),
	}
}

func secretRow(s *KeySecret) *sqlmock.Rows {
	return sqlmock.NewRows(secretColumns).AddRow(
		s.ID,
		s.KeystoreID,
		s.Type,
		s.PublicKey,
		string(s.Sealed.Algorithm),
		s.Sealed.EncryptedDataKey,
		s.Sealed.Ciphertext,
		s.Sealed.Nonce,
		s.CreatedAt,
	)
}

func TestPostgreSQLSecretRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_Create", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLSecretRepository(db)
		secret := newTestSecret()

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO local_module_keys")).
			WithArgs(
				secret.ID,
				secret.KeystoreID,
				secret.Type,
				secret.PublicKey,
				"chacha20-poly1305",
				secret.Sealed.EncryptedDataKey,
				secret.Sealed.Ciphertext,
				secret.Sealed.Nonce,
				secret.CreatedAt,
			).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Create(ctx, secret))
	})

	t.Run("Error_CreateDuplicate", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLSecretRepository(db)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO local_module_keys")).
			WillReturnError(&pq.Error{Code: "23505"})

		assert.ErrorIs(t, repo.Create(ctx, newTestSecret()), kmsDomain.ErrDuplicateKey)
	})

	t.Run("Success_Get", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLSecretRepository(db)
		secret := newTestSecret()

		mock.ExpectQuery(regexp.QuoteMeta("FROM local_module_keys")).
			WithArgs(secret.ID).
			WillReturnRows(secretRow(secret))

		got, err := repo.Get(ctx, secret.ID)

		require.NoError(t, err)
		assert.Equal(t, secret, got)
	})

	t.Run("Error_GetNotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLSecretRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("FROM local_module_keys")).WillReturnError(sql.ErrNoRows)

		_, err := repo.Get(ctx, "missing")

		assert.ErrorIs(t, err, kmsDomain.ErrKeyNotFound)
	})

	t.Run("Success_CountByKeystoreID", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLSecretRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM local_module_keys WHERE keystore_id = $1")).
			WithArgs(testKeystoreID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

		count, err := repo.CountByKeystoreID(ctx, testKeystoreID)

		require.NoError(t, err)
		assert.Equal(t, int64(7), count)
	})
}

func TestMySQLSecretRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Error_CreateDuplicate", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLSecretRepository(db)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO local_module_keys")).
			WillReturnError(&mysql.MySQLError{Number: 1062})

		assert.ErrorIs(t, repo.Create(ctx, newTestSecret()), kmsDomain.ErrDuplicateKey)
	})

	t.Run("Success_Get", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLSecretRepository(db)
		secret := newTestSecret()

		mock.ExpectQuery(regexp.QuoteMeta("WHERE id = ?")).
			WithArgs(secret.ID).
			WillReturnRows(secretRow(secret))

		got, err := repo.Get(ctx, secret.ID)

		require.NoError(t, err)
		assert.Equal(t, secret, got)
	})

	t.Run("Success_CountByKeystoreID", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLSecretRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("WHERE keystore_id = ?")).
			WithArgs(testKeystoreID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

		count, err := repo.CountByKeystoreID(ctx, testKeystoreID)

		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})
}
