// Package login holds the POST /api/auth/login handler.
package login

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/student-management-api/internal/auth"
	"github.com/aanand-mishra/student-management-api/internal/types"
	"github.com/aanand-mishra/student-management-api/internal/utils/response"
)

// InvalidCredentialsMessage is returned for every failed login, whether the
// user is unknown or the password is wrong.
const InvalidCredentialsMessage = "Invalid Credentials"

// Authenticator is what the handler needs from auth.Service.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*types.LoginResponse, error)
}

var _ Authenticator = (*auth.Service)(nil)

// New returns the login handler.
//
// Request body: { "username": "alice", "password": "..." }
// Success (200): { "user": { "id": 1, "username": "alice" }, "utoken": "<jwt>" }
func New(svc Authenticator, log *slog.Logger) http.HandlerFunc {
	validate := validator.New()

	return func(w http.ResponseWriter, r *http.Request) {
		var req types.LoginRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		if errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusBadRequest,
				response.Error("request body is empty"))
			return
		}
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		// Blank credentials can never match a user, so they fail like a wrong password.
		if err := validate.Struct(req); err != nil {
			log.Warn("login rejected", slog.String("username", req.Username), slog.String("reason", "missing credentials"))
			response.WriteJSON(w, http.StatusUnauthorized, response.Error(InvalidCredentialsMessage))
			return
		}

		res, err := svc.Login(r.Context(), req.Username, req.Password)
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			log.Warn("login rejected", slog.String("username", req.Username))
			response.WriteJSON(w, http.StatusUnauthorized, response.Error(InvalidCredentialsMessage))
			return
		case err != nil:
			response.WriteJSON(w, http.StatusInternalServerError, response.InternalError())
			return
		}

		response.WriteJSON(w, http.StatusOK, res)
	}
}
