// Package router wires handlers and middleware into one http.Handler.
package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aanand-mishra/student-management-api/internal/http/handlers/login"
	"github.com/aanand-mishra/student-management-api/internal/http/handlers/student"
	"github.com/aanand-mishra/student-management-api/internal/http/middleware"
	"github.com/aanand-mishra/student-management-api/internal/utils/response"
)

const (
	loginRateWindow    = time.Minute
	healthCheckTimeout = 2 * time.Second
)

// AuthService is the login and token verification surface.
// *auth.Service satisfies it.
type AuthService interface {
	login.Authenticator
	middleware.TokenVerifier
}

// Deps are everything the routes need. Limiter and Metrics may be nil.
type Deps struct {
	Logger   *slog.Logger
	Students student.Service
	Auth     AuthService
	// Health reports whether the database is reachable.
	Health func(ctx context.Context) error

	Limiter        middleware.RateLimiter
	LoginPerMinute int
	// ProtectStudents puts the /api/students routes behind a bearer token.
	ProtectStudents bool
	Metrics         *middleware.Metrics
}

// New builds the route table:
//
//	POST   /api/auth/login      → log in, returns a session token
//	GET    /api/students        → list students (paging, filter, search, sort)
//	POST   /api/students        → create a student
//	GET    /api/students/{id}   → get one student
//	PUT    /api/students/{id}   → replace a student
//	DELETE /api/students/{id}   → delete a student
//	GET    /healthz             → database reachability
//	GET    /metrics             → Prometheus metrics
//
// Every request goes through request id → access log → metrics → recovery.
// Recovery sits innermost so a recovered panic is still logged and counted.
func New(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}

	mux := http.NewServeMux()

	var onLimit func(*http.Request)
	if d.Metrics != nil {
		onLimit = func(r *http.Request) { d.Metrics.RateLimited("POST /api/auth/login") }
	}
	loginHandler := middleware.RateLimit(d.Limiter, d.LoginPerMinute, loginRateWindow, onLimit)(
		login.New(d.Auth, log))
	mux.Handle("POST /api/auth/login", loginHandler)

	guard := func(h http.HandlerFunc) http.Handler {
		if !d.ProtectStudents {
			return h
		}
		return middleware.RequireBearer(d.Auth, log)(h)
	}
	mux.Handle("POST /api/students", guard(student.New(d.Students, log)))
	mux.Handle("GET /api/students", guard(student.GetList(d.Students, log)))
	mux.Handle("GET /api/students/{id}", guard(student.GetByID(d.Students, log)))
	mux.Handle("PUT /api/students/{id}", guard(student.Update(d.Students, log)))
	mux.Handle("DELETE /api/students/{id}", guard(student.Delete(d.Students, log)))

	mux.HandleFunc("GET /healthz", healthz(d.Health))

	mws := []middleware.Middleware{
		middleware.RequestID,
		middleware.Logger(log),
	}
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics.Handler())
		mws = append(mws, d.Metrics.Instrument)
	}
	mws = append(mws, middleware.Recover(log))
	return middleware.Chain(mux, mws...)
}

func healthz(check func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		}
		if check == nil {
			response.WriteJSON(w, http.StatusOK, payload)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if err := check(ctx); err != nil {
			payload["status"] = "degraded"
			payload["database"] = map[string]any{"status": "down", "error": err.Error()}
			response.WriteJSON(w, http.StatusServiceUnavailable, payload)
			return
		}
		payload["database"] = map[string]any{"status": "up"}
		response.WriteJSON(w, http.StatusOK, payload)
	}
}
