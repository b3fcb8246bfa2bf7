package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/allisson/webkms/internal/database"
)

const migrationsDir = "migrations"

func migrationsSource(dbDriver string) (string, error) {
	switch dbDriver {
	case database.DriverPostgres:
		return "file://" + migrationsDir + "/postgresql", nil
	case database.DriverMySQL:
		return "file://" + migrationsDir + "/mysql", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", dbDriver)
	}
}

// RunMigrations applies the pending keystore, key record and local module migrations.
// Having nothing to apply is not an error.
func RunMigrations(logger *slog.Logger, dbDriver, dbConnectionString string) error {
	source, err := migrationsSource(dbDriver)
	if err != nil {
		return err
	}
	logger.Info("running database migrations", slog.String("driver", dbDriver), slog.String("source", source))

	m, err := migrate.New(source, dbConnectionString)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer closeMigrate(m, logger)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	logger.Info("migrations completed successfully", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
	return nil
}
