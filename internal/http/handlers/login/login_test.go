package login

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aanand-mishra/student-management-api/internal/auth"
	"github.com/aanand-mishra/student-management-api/internal/types"
	"github.com/aanand-mishra/student-management-api/internal/utils/response"
)

type fakeAuth struct {
	calls int
	err   error
}

func (f *fakeAuth) Login(ctx context.Context, username, password string) (*types.LoginResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if username != "alice" || password != "pa55" {
		return nil, auth.ErrInvalidCredentials
	}
	return &types.LoginResponse{User: types.LoginUser{ID: 1, Username: "alice"}, Token: "tok"}, nil
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestLogin_Success(t *testing.T) {
	rec := post(New(&fakeAuth{}, quiet()), `{"username":"alice","password":"pa55"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["utoken"] != "tok" {
		t.Fatalf("missing utoken: %v", got)
	}
	user, ok := got["user"].(map[string]any)
	if !ok || user["username"] != "alice" || user["id"] != float64(1) {
		t.Fatalf("unexpected user: %v", got["user"])
	}
	if _, leaked := user["password"]; leaked {
		t.Fatal("password must not be returned")
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	rec := post(New(&fakeAuth{}, quiet()), `{"username":"alice","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	var body response.Response
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != InvalidCredentialsMessage {
		t.Fatalf("error = %q", body.Error)
	}
	if strings.Contains(rec.Body.String(), "utoken") {
		t.Fatal("no token on failure")
	}
}

func TestLogin_BadRequests(t *testing.T) {
	for name, body := range map[string]string{
		"empty":     "",
		"malformed": `{"username":`,
	} {
		t.Run(name, func(t *testing.T) {
			f := &fakeAuth{}
			rec := post(New(f, quiet()), body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", rec.Code)
			}
			if f.calls != 0 {
				t.Fatal("service must not be called")
			}
		})
	}
}

func TestLogin_BlankCredentialsAreUnauthorized(t *testing.T) {
	for name, body := range map[string]string{
		"missing password": `{"username":"alice"}`,
		"missing username": `{"password":"pa55"}`,
		"both empty":       `{"username":"","password":""}`,
		"empty object":     `{}`,
	} {
		t.Run(name, func(t *testing.T) {
			f := &fakeAuth{}
			rec := post(New(f, quiet()), body)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d", rec.Code)
			}
			var got response.Response
			if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Error != InvalidCredentialsMessage {
				t.Fatalf("error = %q", got.Error)
			}
			if f.calls != 0 {
				t.Fatal("service must not be called")
			}
		})
	}
}

func TestLogin_InternalError(t *testing.T) {
	rec := post(New(&fakeAuth{err: errors.New("auth: lookup user: db down")}, quiet()), `{"username":"alice","password":"pa55"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "db down") {
		t.Fatal("internal detail leaked")
	}
}
