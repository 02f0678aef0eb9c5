package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/aanand-mishra/student-management-api/internal/config"
	"github.com/aanand-mishra/student-management-api/internal/storage"
	"github.com/aanand-mishra/student-management-api/internal/storage/migrate"
	"github.com/aanand-mishra/student-management-api/internal/storage/postgres"
	"github.com/aanand-mishra/student-management-api/internal/storage/sqlite"
)

// openStorage returns the backend named by storage.driver, migrated to the
// latest schema. Callers only see the storage.Storage interface.
func openStorage(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		pg, err := postgres.New(ctx, cfg.Storage.PostgresDSN, log)
		if err != nil {
			return nil, err
		}
		return pg, nil
	case config.DriverSQLite:
		lite, err := sqlite.New(ctx, cfg.Storage.SQLitePath, log)
		if err != nil {
			return nil, err
		}
		return lite, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// openMigrationDB opens a plain *sql.DB for goose, without migrating.
func openMigrationDB(cfg *config.Config) (*sql.DB, migrate.Dialect, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		db, err := postgres.OpenDB(cfg.Storage.PostgresDSN)
		return db, migrate.DialectPostgres, err
	case config.DriverSQLite:
		db, err := sqlite.OpenDB(cfg.Storage.SQLitePath)
		return db, migrate.DialectSQLite, err
	default:
		return nil, "", fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
