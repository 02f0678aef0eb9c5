package migrate

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func openMemory(t *testing.T, name string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunner_UpDownSQLite(t *testing.T) {
	db := openMemory(t, "migrate_updown")
	r, err := New(db, DialectSQLite, quietLogger())
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	ctx := context.Background()

	if err := r.Up(ctx); err != nil {
		t.Fatalf("up: %v", err)
	}
	v, err := r.Version(ctx)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if v != 2 {
		t.Fatalf("expected schema version 2, got %d", v)
	}
	if _, err := db.Exec(`INSERT INTO students (name, email, course, address, age) VALUES ('a','b','c','d',1)`); err != nil {
		t.Fatalf("students table missing: %v", err)
	}

	// Up is idempotent.
	if err := r.Up(ctx); err != nil {
		t.Fatalf("second up: %v", err)
	}

	if err := r.Down(ctx); err != nil {
		t.Fatalf("down: %v", err)
	}
	v, err = r.Version(ctx)
	if err != nil {
		t.Fatalf("version after down: %v", err)
	}
	if v != 1 {
		t.Fatalf("expected schema version 1 after down, got %d", v)
	}
	if err := r.Status(ctx); err != nil {
		t.Fatalf("status: %v", err)
	}
}

func TestNew_RejectsUnknownDialect(t *testing.T) {
	db := openMemory(t, "migrate_dialect")
	if _, err := New(db, Dialect("oracle"), nil); err == nil {
		t.Fatalf("expected error for unknown dialect")
	}
	if _, err := New(nil, DialectSQLite, nil); err == nil {
		t.Fatalf("expected error for nil db")
	}
}
