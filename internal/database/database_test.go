package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useSQLMock routes sqlOpen to a sqlmock connection registered under dsn.
func useSQLMock(t *testing.T, dsn string) sqlmock.Sqlmock {
	t.Helper()

	_, mock, err := sqlmock.NewWithDSN(dsn, sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	original := sqlOpen
	sqlOpen = func(_, dataSourceName string) (*sql.DB, error) {
		return sql.Open("sqlmock", dataSourceName)
	}
	t.Cleanup(func() { sqlOpen = original })

	return mock
}

func TestConnect(t *testing.T) {
	ctx := context.Background()

	t.Run("unsupported driver", func(t *testing.T) {
		db, err := Connect(ctx, Config{Driver: "invalid", ConnectionString: "invalid"})
		assert.Error(t, err)
		assert.Nil(t, db)
		assert.Contains(t, err.Error(), `unsupported database driver "invalid"`)
	})

	t.Run("success", func(t *testing.T) {
		mock := useSQLMock(t, "connect_success")
		mock.ExpectPing()

		db, err := Connect(ctx, Config{
			Driver:             DriverPostgres,
			ConnectionString:   "connect_success",
			MaxOpenConnections: 7,
			MaxIdleConnections: 3,
			ConnMaxLifetime:    time.Minute,
		})
		require.NoError(t, err)
		assert.Equal(t, 7, db.Stats().MaxOpenConnections)
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})

	t.Run("ping failure", func(t *testing.T) {
		mock := useSQLMock(t, "connect_ping_failure")
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		db, err := Connect(ctx, Config{Driver: DriverMySQL, ConnectionString: "connect_ping_failure"})
		assert.Nil(t, db)
		assert.ErrorContains(t, err, "failed to ping database: connection refused")
	})
}
