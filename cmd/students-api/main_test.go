package main

import (
	"context"
	"log/slog"
	"net"
	"strings"
	"testing"

	"github.com/aanand-mishra/student-management-api/internal/config"
	"github.com/aanand-mishra/student-management-api/internal/storage"
	"github.com/aanand-mishra/student-management-api/internal/storage/migrate"
	"github.com/aanand-mishra/student-management-api/internal/testutil"
)

func TestOpenStorage_SQLite(t *testing.T) {
	cfg := &config.Config{Storage: config.Storage{
		Driver:     config.DriverSQLite,
		SQLitePath: "file:cmd_open_storage?mode=memory&cache=shared",
	}}
	store, err := openStorage(context.Background(), cfg, testutil.Logger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestOpenStorage_UnknownDriver(t *testing.T) {
	cfg := &config.Config{Storage: config.Storage{Driver: "mysql"}}
	if _, err := openStorage(context.Background(), cfg, testutil.Logger()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
	if _, _, err := openMigrationDB(cfg); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestOpenMigrationDB_SQLite(t *testing.T) {
	cfg := &config.Config{Storage: config.Storage{
		Driver:     config.DriverSQLite,
		SQLitePath: "file:cmd_migration_db?mode=memory&cache=shared",
	}}
	db, dialect, err := openMigrationDB(cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	if dialect != migrate.DialectSQLite {
		t.Fatalf("dialect = %q", dialect)
	}
}

func TestSetupLogger(t *testing.T) {
	for _, env := range []string{config.EnvDev, config.EnvStaging, config.EnvProd, "unknown"} {
		if setupLogger(env) == nil {
			t.Fatalf("nil logger for %q", env)
		}
	}
}

// closeTracker records whether serve closed the store it opened.
type closeTracker struct {
	storage.Storage
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return c.Storage.Close()
}

func trackStore(t *testing.T) *closeTracker {
	t.Helper()
	tracker := &closeTracker{}
	orig := openStore
	openStore = func(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.Storage, error) {
		s, err := orig(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		tracker.Storage = s
		return tracker, nil
	}
	t.Cleanup(func() { openStore = orig })
	return tracker
}

func TestServe_ClosesStoreOnStartupFailure(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer busy.Close()

	cases := map[string]func(cfg *config.Config){
		"empty jwt key":     func(cfg *config.Config) { cfg.JWT.Key = "" },
		"bad password mode": func(cfg *config.Config) { cfg.Auth.PasswordMode = "rot13" },
		"address in use":    func(cfg *config.Config) { cfg.HTTPServer.Addr = busy.Addr().String() },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			tracker := trackStore(t)
			cfg := &config.Config{
				Env: config.EnvDev,
				Storage: config.Storage{
					Driver:     config.DriverSQLite,
					SQLitePath: "file:cmd_serve_" + strings.ReplaceAll(name, " ", "_") + "?mode=memory&cache=shared",
				},
				JWT:        config.JWT{Key: "test-key"},
				HTTPServer: config.HTTPServer{Addr: "127.0.0.1:0"},
			}
			cfg.Auth.PasswordMode = "plaintext"
			mutate(cfg)

			if code := serve(cfg); code != 1 {
				t.Fatalf("exit code = %d", code)
			}
			if tracker.Storage == nil || !tracker.closed {
				t.Fatal("store must be closed before serve returns")
			}
		})
	}
}
