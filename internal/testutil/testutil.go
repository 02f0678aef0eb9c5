// Package testutil provides helpers shared by package tests.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/aanand-mishra/student-management-api/internal/storage/sqlite"
)

// Logger discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OpenSQLite returns a migrated in-memory database private to t. It is
// closed when the test ends.
func OpenSQLite(t *testing.T) *sqlite.SQLite {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	s, err := sqlite.New(context.Background(), "file:"+name+"?mode=memory&cache=shared", Logger())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}
