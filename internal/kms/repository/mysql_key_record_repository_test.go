package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kmsDomain "github.com/allisson/webkms/internal/kms/domain"
)

func TestMySQLKeyRecordRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLKeyRecordRepository(db)
		record := newTestKeyRecord(true)
		key, err := encodeKeyDescription(record.Key)
		require.NoError(t, err)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO key_records")).
			WithArgs(record.ID, record.KeystoreID, key, true, record.Meta.Created, record.Meta.Updated).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Create(ctx, record))
	})

	t.Run("Error_Duplicate", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLKeyRecordRepository(db)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO key_records")).
			WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

		err := repo.Create(ctx, newTestKeyRecord(true))

		assert.ErrorIs(t, err, kmsDomain.ErrDuplicateKey)
	})
}

func TestMySQLKeyRecordRepository_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_Pending", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLKeyRecordRepository(db)
		record := newTestKeyRecord(true)
		key, err := encodeKeyDescription(record.Key)
		require.NoError(t, err)

		rows := sqlmock.NewRows(keyRecordColumns).
			AddRow(record.ID, record.KeystoreID, []byte(key), true, record.Meta.Created, record.Meta.Updated)
		mock.ExpectQuery(regexp.QuoteMeta("WHERE id = ?")).
			WithArgs(record.ID).
			WillReturnRows(rows)

		got, err := repo.Get(ctx, record.ID)

		require.NoError(t, err)
		assert.True(t, got.Meta.Pending)
		assert.Equal(t, record.Key, got.Key)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLKeyRecordRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("FROM key_records")).
			WithArgs(testKeyID).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.Get(ctx, testKeyID)

		assert.ErrorIs(t, err, kmsDomain.ErrKeyNotFound)
	})
}

func TestMySQLKeyRecordRepository_Confirm(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLKeyRecordRepository(db)
		record := newTestKeyRecord(false)
		updated := time.Now().UTC()

		mock.ExpectExec(regexp.QuoteMeta("WHERE id = ? AND pending = TRUE")).
			WithArgs(sqlmock.AnyArg(), updated, record.ID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		confirmed, err := repo.Confirm(ctx, record, updated)

		require.NoError(t, err)
		assert.True(t, confirmed)
	})

	t.Run("Success_AlreadyConfirmed", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLKeyRecordRepository(db)

		mock.ExpectExec(regexp.QuoteMeta("UPDATE key_records")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		confirmed, err := repo.Confirm(ctx, newTestKeyRecord(false), time.Now())

		require.NoError(t, err)
		assert.False(t, confirmed)
	})
}
