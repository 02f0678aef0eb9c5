// Package auth checks user credentials and issues signed session tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aanand-mishra/student-management-api/internal/storage"
	"github.com/aanand-mishra/student-management-api/internal/types"
)

// ErrInvalidCredentials covers both an unknown username and a wrong
// password so callers cannot tell which one failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserStore is the slice of storage the service needs.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*types.User, error)
}

// Service handles the login workflow.
type Service struct {
	users     UserStore
	tokens    *TokenManager
	passwords PasswordMode
	logger    *slog.Logger
}

// New constructs a Service.
func New(users UserStore, tokens *TokenManager, passwords PasswordMode, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{users: users, tokens: tokens, passwords: passwords, logger: logger}
}

// Authenticate returns the user when username and password match.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*types.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("user lookup failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("auth: lookup user: %w", err)
	}
	if !s.passwords.Match(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// IssueToken signs a session token for user.
func (s *Service) IssueToken(user types.User) (string, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		s.logger.Error("token signing failed", slog.String("error", err.Error()))
		return "", fmt.Errorf("auth: issue token: %w", err)
	}
	return token, nil
}

// Login authenticates and, on success, returns the public user and a
// token. On failure nothing about the user is returned.
func (s *Service) Login(ctx context.Context, username, password string) (*types.LoginResponse, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	token, err := s.IssueToken(*user)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user logged in", slog.Int64("user_id", user.ID))
	return &types.LoginResponse{
		User:  types.LoginUser{ID: user.ID, Username: user.Username},
		Token: token,
	}, nil
}

// Verify parses a bearer token issued by this service.
func (s *Service) Verify(token string) (*Claims, error) {
	return s.tokens.Parse(token)
}
