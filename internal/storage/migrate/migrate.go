// Package migrate applies the embedded schema migrations with goose.
// Each storage backend runs Up on startup; the migrate command exposes
// Up, Down and Status for operators.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// Dialect selects the SQL flavour and the migration directory.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

func (d Dialect) dir() (string, error) {
	switch d {
	case DialectSQLite:
		return "migrations/sqlite", nil
	case DialectPostgres:
		return "migrations/postgres", nil
	default:
		return "", fmt.Errorf("unsupported migration dialect %q", string(d))
	}
}

// goose keeps its dialect, filesystem and logger in package globals.
var gooseMu sync.Mutex

// Runner wraps migration commands for one database.
type Runner struct {
	db      *sql.DB
	dialect Dialect
	dir     string
	log     *slog.Logger
}

// New returns a Runner for db.
func New(db *sql.DB, dialect Dialect, log *slog.Logger) (*Runner, error) {
	if db == nil {
		return nil, errors.New("nil db provided")
	}
	dir, err := dialect.dir()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Runner{db: db, dialect: dialect, dir: dir, log: log}, nil
}

// Up applies all pending migrations.
func (r *Runner) Up(ctx context.Context) error {
	return r.withGoose(func() error {
		runCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		r.log.Debug("applying migrations", slog.String("dialect", string(r.dialect)))
		if err := goose.UpContext(runCtx, r.db, r.dir); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		return nil
	})
}

// Down rolls back the most recent migration.
func (r *Runner) Down(ctx context.Context) error {
	return r.withGoose(func() error {
		runCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		r.log.Info("rolling back latest migration", slog.String("dialect", string(r.dialect)))
		if err := goose.DownContext(runCtx, r.db, r.dir); err != nil {
			return fmt.Errorf("rollback latest migration: %w", err)
		}
		return nil
	})
}

// Status logs applied and pending migrations.
func (r *Runner) Status(ctx context.Context) error {
	return r.withGoose(func() error {
		if err := goose.StatusContext(ctx, r.db, r.dir); err != nil {
			return fmt.Errorf("migration status: %w", err)
		}
		return nil
	})
}

// Version returns the current schema version.
func (r *Runner) Version(ctx context.Context) (int64, error) {
	var version int64
	err := r.withGoose(func() error {
		v, err := goose.GetDBVersionContext(ctx, r.db)
		if err != nil {
			return fmt.Errorf("schema version: %w", err)
		}
		version = v
		return nil
	})
	return version, err
}

func (r *Runner) withGoose(fn func() error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{log: r.log})
	if err := goose.SetDialect(string(r.dialect)); err != nil {
		return fmt.Errorf("configure goose: %w", err)
	}
	return fn()
}

// gooseLogger routes goose output through slog.
type gooseLogger struct {
	log *slog.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.log.Info(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "goose"))
}

// Fatalf logs instead of exiting.
func (l gooseLogger) Fatalf(format string, v ...any) {
	l.log.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "goose"))
}
