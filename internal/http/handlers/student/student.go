// Package student contains the HTTP handlers for the Student resource.
//
// Handlers are built with the closure/factory pattern: a factory takes the
// dependencies once at startup and returns the func the router calls on
// every request.
//
//	mux.HandleFunc("POST /api/students", student.New(svc, log))
//
// Handlers only translate HTTP to service calls. Every rule about ids,
// paging and sorting lives in the service; errors coming back are mapped
// to status codes by writeError.
package student

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aanand-mishra/student-management-api/internal/service/students"
	"github.com/aanand-mishra/student-management-api/internal/storage"
	"github.com/aanand-mishra/student-management-api/internal/types"
	"github.com/aanand-mishra/student-management-api/internal/utils/response"
)

const (
	defaultPage     = 1
	defaultPageSize = 10
)

// Service is what the handlers need from the student service.
// *students.Service satisfies it.
type Service interface {
	List(ctx context.Context, p storage.ListParams) (*types.StudentList, error)
	Get(ctx context.Context, id int64) (*types.Student, error)
	Create(ctx context.Context, payload *types.Student) (*types.Student, error)
	Update(ctx context.Context, id int64, payload *types.Student) error
	Delete(ctx context.Context, id int64) error
}

var _ Service = (*students.Service)(nil)

// New handles POST /api/students.
//
// Request body is a StudentDto; any id in it is ignored.
// Success: 201 with the stored student and a Location header.
func New(svc Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info("creating a student")

		payload, ok := decodeStudent(w, r)
		if !ok {
			return
		}

		created, err := svc.Create(r.Context(), payload)
		if err != nil {
			writeError(w, err)
			return
		}

		w.Header().Set("Location", fmt.Sprintf("/api/students/%d", created.ID))
		response.WriteJSON(w, http.StatusCreated, created)
	}
}

// GetByID handles GET /api/students/{id}.
func GetByID(svc Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		log.Info("getting a student", slog.Int64("id", id))

		st, err := svc.Get(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, st)
	}
}

// GetList handles GET /api/students.
//
// Query parameters: page, pageSize, course, q, sortBy ("age:desc").
// Absent page and pageSize default to 1 and 10.
func GetList(svc Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := listParams(r)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}
		log.Info("listing students",
			slog.Int("page", params.Page),
			slog.Int("page_size", params.PageSize),
		)

		list, err := svc.List(r.Context(), params)
		if err != nil {
			writeError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, list)
	}
}

// Update handles PUT /api/students/{id}. The body must carry the same id
// as the path. Success: 204 with no body.
func Update(svc Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		log.Info("updating a student", slog.Int64("id", id))

		payload, ok := decodeStudent(w, r)
		if !ok {
			return
		}
		if err := svc.Update(r.Context(), id, payload); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Delete handles DELETE /api/students/{id}. Success: 204 with no body.
func Delete(svc Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		log.Info("deleting a student", slog.Int64("id", id))

		if err := svc.Delete(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// decodeStudent reads the JSON body. A literal null decodes to a nil
// payload, which the service rejects. On failure the 400 has already been
// written.
func decodeStudent(w http.ResponseWriter, r *http.Request) (*types.Student, bool) {
	var payload *types.Student
	err := json.NewDecoder(r.Body).Decode(&payload)
	if errors.Is(err, io.EOF) {
		response.WriteJSON(w, http.StatusBadRequest,
			response.Error("request body is empty"))
		return nil, false
	}
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return nil, false
	}
	return payload, true
}

// pathID parses {id}. Range checks are left to the service so that 0 and
// negative ids produce the same 400 everywhere.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest,
			response.Error(fmt.Sprintf("invalid id %q", raw)))
		return 0, false
	}
	return id, true
}

func listParams(r *http.Request) (storage.ListParams, error) {
	q := r.URL.Query()

	page, err := intParam(q.Get("page"), "page", defaultPage)
	if err != nil {
		return storage.ListParams{}, err
	}
	pageSize, err := intParam(q.Get("pageSize"), "pageSize", defaultPageSize)
	if err != nil {
		return storage.ListParams{}, err
	}
	sort, err := storage.ParseSort(q.Get("sortBy"))
	if err != nil {
		return storage.ListParams{}, err
	}

	return storage.ListParams{
		Page:     page,
		PageSize: pageSize,
		Course:   q.Get("course"),
		Query:    q.Get("q"),
		Sort:     sort,
	}, nil
}

func intParam(raw, name string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}

// writeError maps service errors to status codes. Internal errors were
// already logged by the service and never leak detail to the client.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, students.ErrBadRequest):
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
	case errors.Is(err, students.ErrNotFound):
		response.WriteJSON(w, http.StatusNotFound, response.GeneralError(err))
	default:
		response.WriteJSON(w, http.StatusInternalServerError, response.InternalError())
	}
}
