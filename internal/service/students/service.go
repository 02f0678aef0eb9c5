// Package students implements the student record operations on top of a
// storage backend. Every failure comes back as an error wrapping one of
// ErrBadRequest or ErrNotFound; anything else is an internal error and the
// HTTP layer turns it into a 500.
package students

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/student-management-api/internal/storage"
	"github.com/aanand-mishra/student-management-api/internal/types"
)

var (
	ErrBadRequest = errors.New("bad request")
	ErrNotFound   = errors.New("student not found")
)

// Store is the slice of storage.Storage the service uses.
type Store interface {
	CreateStudent(ctx context.Context, student types.Student) (*types.Student, error)
	GetStudentByID(ctx context.Context, id int64) (*types.Student, error)
	ListStudents(ctx context.Context, p storage.ListParams) ([]types.Student, int, error)
	UpdateStudent(ctx context.Context, id int64, student types.Student) error
	DeleteStudent(ctx context.Context, id int64) error
}

// Service performs student CRUD and listing.
type Service struct {
	store    Store
	logger   *slog.Logger
	validate *validator.Validate
}

// New constructs a Service.
func New(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger, validate: validator.New()}
}

// List returns one page of students. Course filter and text search are
// ANDed, sorting happens before pagination.
func (s *Service) List(ctx context.Context, p storage.ListParams) (*types.StudentList, error) {
	if err := s.validate.Struct(p); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadRequest, listParamsMessage(err))
	}
	if p.OffsetOverflows() {
		return nil, fmt.Errorf("%w: page %d is out of range", ErrBadRequest, p.Page)
	}

	items, total, err := s.store.ListStudents(ctx, p)
	if err != nil {
		return nil, s.internal("list students", err)
	}
	return &types.StudentList{
		Page:       p.Page,
		PerPage:    p.PageSize,
		Total:      total,
		TotalPages: storage.TotalPages(total, p.PageSize),
		Students:   items,
	}, nil
}

// Get returns a single student.
func (s *Service) Get(ctx context.Context, id int64) (*types.Student, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	st, err := s.store.GetStudentByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		return nil, s.internal("get student", err, slog.Int64("id", id))
	}
	return st, nil
}

// Create stores payload under a new id. Fields are not validated beyond
// the payload being present; payload.ID is ignored.
func (s *Service) Create(ctx context.Context, payload *types.Student) (*types.Student, error) {
	if payload == nil {
		return nil, fmt.Errorf("%w: request body is empty", ErrBadRequest)
	}
	in := *payload
	in.ID = 0
	created, err := s.store.CreateStudent(ctx, in)
	if err != nil {
		return nil, s.internal("create student", err)
	}
	s.logger.Info("student created", slog.Int64("id", created.ID))
	return created, nil
}

// Update fully replaces the mutable fields of student id. The payload must
// carry the same id as the path.
func (s *Service) Update(ctx context.Context, id int64, payload *types.Student) error {
	if payload == nil {
		return fmt.Errorf("%w: request body is empty", ErrBadRequest)
	}
	if payload.ID != id {
		return fmt.Errorf("%w: id in body (%d) does not match id in path (%d)", ErrBadRequest, payload.ID, id)
	}
	if err := checkID(id); err != nil {
		return err
	}
	if err := s.store.UpdateStudent(ctx, id, *payload); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		return s.internal("update student", err, slog.Int64("id", id))
	}
	s.logger.Info("student updated", slog.Int64("id", id))
	return nil
}

// Delete removes student id permanently.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := s.store.DeleteStudent(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		return s.internal("delete student", err, slog.Int64("id", id))
	}
	s.logger.Info("student deleted", slog.Int64("id", id))
	return nil
}

func checkID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: id must be a positive integer", ErrBadRequest)
	}
	return nil
}

// internal logs a persistence failure once and wraps it. There is no retry.
func (s *Service) internal(op string, err error, attrs ...any) error {
	args := append([]any{slog.String("op", op), slog.String("error", err.Error())}, attrs...)
	s.logger.Error("storage operation failed", args...)
	return fmt.Errorf("students: %s: %w", op, err)
}

func listParamsMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	switch verrs[0].Field() {
	case "Page":
		return "page must be at least 1"
	case "PageSize":
		return "pageSize must be at least 1"
	default:
		return storage.ErrInvalidSort.Error()
	}
}
