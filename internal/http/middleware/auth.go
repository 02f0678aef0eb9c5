package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aanand-mishra/student-management-api/internal/auth"
	"github.com/aanand-mishra/student-management-api/internal/utils/response"
)

// TokenVerifier checks a bearer token. *auth.Service satisfies it.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// RequireBearer rejects requests without a valid session token with 401
// and stores the caller in the request context otherwise.
func RequireBearer(verifier TokenVerifier, log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r.Header.Get("Authorization"))
			if err != nil {
				log.Warn("authorization header invalid", slog.String("error", err.Error()), slog.String("path", r.URL.Path))
				response.WriteJSON(w, http.StatusUnauthorized, response.Error("authentication required"))
				return
			}
			claims, err := verifier.Verify(token)
			if err != nil {
				log.Warn("token validation failed", slog.String("error", err.Error()), slog.String("path", r.URL.Path))
				response.WriteJSON(w, http.StatusUnauthorized, response.Error("authentication failed"))
				return
			}
			id, _ := claims.UserID()
			ctx := context.WithValue(r.Context(), userKey, AuthUser{ID: id, Username: claims.Name})
			if setter, ok := w.(contextSetter); ok {
				setter.SetContext(ctx)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header format")
	}
	return parts[1], nil
}
