package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aanand-mishra/student-management-api/internal/storage"
	"github.com/aanand-mishra/student-management-api/internal/types"
)

type stubUserStore struct {
	users map[string]types.User
	err   error
}

func (s *stubUserStore) GetUserByUsername(ctx context.Context, username string) (*types.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[username]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &u, nil
}

func newTestService(t *testing.T, store UserStore) *Service {
	t.Helper()
	tokens, err := NewTokenManager(testKey, "students-api", "students-clients", 15*time.Minute)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, tokens, PasswordPlaintext, log)
}

func TestService_Login(t *testing.T) {
	store := &stubUserStore{users: map[string]types.User{
		"alice": {ID: 3, Username: "alice", Password: "pa55"},
	}}
	svc := newTestService(t, store)

	res, err := svc.Login(context.Background(), "alice", "pa55")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.User.ID != 3 || res.User.Username != "alice" || res.Token == "" {
		t.Fatalf("unexpected login result: %+v", res)
	}
	claims, err := svc.Verify(res.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "3" || claims.Name != "alice" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestService_LoginInvalidCredentials(t *testing.T) {
	store := &stubUserStore{users: map[string]types.User{
		"alice": {ID: 3, Username: "alice", Password: "pa55"},
	}}
	svc := newTestService(t, store)

	cases := []struct{ user, pass string }{
		{"alice", "wrong"},
		{"Alice", "pa55"},
		{"nobody", "pa55"},
	}
	for _, tc := range cases {
		res, err := svc.Login(context.Background(), tc.user, tc.pass)
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("%s/%s: expected ErrInvalidCredentials, got %v", tc.user, tc.pass, err)
		}
		if res != nil {
			t.Fatalf("%s/%s: no payload expected on failure, got %+v", tc.user, tc.pass, res)
		}
	}
}

func TestService_StoreFailureIsNotInvalidCredentials(t *testing.T) {
	svc := newTestService(t, &stubUserStore{err: errors.New("disk I/O error")})

	_, err := svc.Authenticate(context.Background(), "alice", "pa55")
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected internal error, got %v", err)
	}
}
