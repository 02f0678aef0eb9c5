// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using database/sql and go-sqlite3.
//
// Connections are opened through DriverName, which overrides SQLite's
// ASCII-only lower() with a Unicode-aware one so course filtering and
// search ignore case for every letter.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aanand-mishra/student-management-api/internal/storage"
	"github.com/aanand-mishra/student-management-api/internal/storage/migrate"
	"github.com/aanand-mishra/student-management-api/internal/types"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// DriverName is the database/sql driver registered by this package.
const DriverName = "sqlite3_students"

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(c *sqlite3.SQLiteConn) error {
			return c.RegisterFunc("lower", strings.ToLower, true)
		},
	})
}

const (
	readTimeout  = 3 * time.Second
	listTimeout  = 5 * time.Second
	writeTimeout = 3 * time.Second
)

// SQLite is the concrete implementation of storage.Storage.
// Db is a connection pool managed by database/sql.
type SQLite struct {
	Db *sql.DB
}

var _ storage.Storage = (*SQLite)(nil)

// OpenDB opens (or creates) the database at path and applies connection
// pragmas. It does not run migrations.
func OpenDB(path string) (*sql.DB, error) {
	if path == "" {
		path = "storage/storage.db"
	}
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.OpenDB: open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.OpenDB: ping: %w", err)
	}
	// journal_mode is not supported for in-memory databases; ignore errors.
	_, _ = db.Exec(`PRAGMA journal_mode=WAL`)
	if _, err := db.Exec(`PRAGMA busy_timeout=5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.OpenDB: busy_timeout: %w", err)
	}
	return db, nil
}

// New opens the database at path, brings the schema up to date and
// returns a ready-to-use *SQLite.
func New(ctx context.Context, path string, log *slog.Logger) (*SQLite, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	runner, err := migrate.New(db, migrate.DialectSQLite, log)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.New: %w", err)
	}
	if err := runner.Up(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.New: %w", err)
	}
	// SQLite serialises writers anyway; a single connection avoids
	// "database is locked" under concurrent requests.
	db.SetMaxOpenConns(1)
	return &SQLite{Db: db}, nil
}

// CreateUser inserts a user row.
func (s *SQLite) CreateUser(ctx context.Context, username, password string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	res, err := s.Db.ExecContext(ctx,
		`INSERT INTO users (username, password) VALUES (?, ?)`, username, password)
	if err != nil {
		return 0, fmt.Errorf("CreateUser: exec: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("CreateUser: last insert id: %w", err)
	}
	return id, nil
}

// GetUserByUsername fetches a user by exact username. SQLite's = on TEXT
// is case sensitive under the default BINARY collation.
func (s *SQLite) GetUserByUsername(ctx context.Context, username string) (*types.User, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	var u types.User
	err := s.Db.QueryRowContext(ctx,
		`SELECT id, username, password FROM users WHERE username = ? LIMIT 1`, username).
		Scan(&u.ID, &u.Username, &u.Password)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("GetUserByUsername: scan: %w", err)
	}
	return &u, nil
}

// CreateStudent inserts a new row and reads it back so the caller gets
// exactly what is stored.
func (s *SQLite) CreateStudent(ctx context.Context, student types.Student) (*types.Student, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	res, err := s.Db.ExecContext(ctx,
		`INSERT INTO students (name, email, course, address, age) VALUES (?, ?, ?, ?, ?)`,
		student.Name, student.Email, student.Course, student.Address, student.Age)
	if err != nil {
		return nil, fmt.Errorf("CreateStudent: exec: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("CreateStudent: last insert id: %w", err)
	}
	created, err := s.GetStudentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("CreateStudent: read back id=%d: %w", id, err)
	}
	return created, nil
}

// GetStudentByID fetches exactly one student by primary key.
func (s *SQLite) GetStudentByID(ctx context.Context, id int64) (*types.Student, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	var st types.Student
	err := s.Db.QueryRowContext(ctx,
		`SELECT id, name, email, course, address, age FROM students WHERE id = ? LIMIT 1`, id).
		Scan(&st.ID, &st.Name, &st.Email, &st.Course, &st.Address, &st.Age)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("GetStudentByID: scan: %w", err)
	}
	return &st, nil
}

// ListStudents runs the composed page query, then the count query.
func (s *SQLite) ListStudents(ctx context.Context, p storage.ListParams) ([]types.Student, int, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	q := storage.BuildListQuery(p, storage.Question)

	students, err := s.queryStudents(ctx, q.Select, q.SelectArgs)
	if err != nil {
		return nil, 0, fmt.Errorf("ListStudents: %w", err)
	}

	var total int
	if err := s.Db.QueryRowContext(ctx, q.Count, q.CountArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ListStudents: count: %w", err)
	}
	return students, total, nil
}

// queryStudents scans every row before returning so the single pooled
// connection is free for the next statement.
func (s *SQLite) queryStudents(ctx context.Context, query string, args []any) ([]types.Student, error) {
	rows, err := s.Db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	// Non-nil so an empty page encodes as [] rather than null.
	students := make([]types.Student, 0)
	for rows.Next() {
		var st types.Student
		if err := rows.Scan(&st.ID, &st.Name, &st.Email, &st.Course, &st.Address, &st.Age); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		students = append(students, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return students, nil
}

// UpdateStudent replaces every mutable column. The id column is only
// used in the WHERE clause.
func (s *SQLite) UpdateStudent(ctx context.Context, id int64, student types.Student) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	res, err := s.Db.ExecContext(ctx,
		`UPDATE students SET name = ?, email = ?, course = ?, address = ?, age = ? WHERE id = ?`,
		student.Name, student.Email, student.Course, student.Address, student.Age, id)
	if err != nil {
		return fmt.Errorf("UpdateStudent: exec: %w", err)
	}
	return requireAffected(res, "UpdateStudent")
}

// DeleteStudent removes a student row by primary key.
func (s *SQLite) DeleteStudent(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	res, err := s.Db.ExecContext(ctx, `DELETE FROM students WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("DeleteStudent: exec: %w", err)
	}
	return requireAffected(res, "DeleteStudent")
}

// Ping checks the database handle.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.Db.PingContext(ctx)
}

// Close closes the pool.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
