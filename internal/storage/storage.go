// Package storage defines the Storage interface, the contract any database
// backend must satisfy to work with this application, together with the
// list query model shared by the SQLite and PostgreSQL backends.
//
// Handlers and services never know which database they are talking to;
// main.go picks a backend from configuration and injects it.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/student-management-api/internal/types"
)

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("storage: not found")

// Storage is the database contract.
type Storage interface {
	// CreateUser inserts a user and returns the generated id. Used by the
	// seed-user command; there is no registration endpoint.
	CreateUser(ctx context.Context, username, password string) (int64, error)

	// GetUserByUsername looks a user up by exact, case-sensitive username.
	// Returns ErrNotFound when no user matches.
	GetUserByUsername(ctx context.Context, username string) (*types.User, error)

	// CreateStudent inserts a student, ignoring student.ID, and returns the
	// stored record with its generated id.
	CreateStudent(ctx context.Context, student types.Student) (*types.Student, error)

	// GetStudentByID returns ErrNotFound when no row has the given id.
	GetStudentByID(ctx context.Context, id int64) (*types.Student, error)

	// ListStudents returns one page of students matching p and the total
	// number of matches across all pages.
	ListStudents(ctx context.Context, p ListParams) ([]types.Student, int, error)

	// UpdateStudent overwrites every mutable column of the row with the
	// given id. Returns ErrNotFound when no row has that id.
	UpdateStudent(ctx context.Context, id int64, student types.Student) error

	// DeleteStudent removes the row permanently. Returns ErrNotFound when
	// no row has that id.
	DeleteStudent(ctx context.Context, id int64) error

	// Ping checks the database is reachable.
	Ping(ctx context.Context) error

	// Close releases the connection pool.
	Close() error
}
