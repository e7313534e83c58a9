package auth_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aegis-life/aegis-api/internal/auth"
	"github.com/aegis-life/aegis-api/internal/shared"
	_ "github.com/aegis-life/aegis-api/testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubRepo struct {
	user *auth.User
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func newTokenRouter(t *testing.T, repo auth.Repository) http.Handler {
	t.Helper()
	codec := auth.NewCodec("handler-secret", time.Hour)
	handler := auth.NewHandler(testLogger(), auth.NewService(repo, codec))
	r := chi.NewRouter()
	r.Route("/auth", handler.MountRoutes)
	return r
}

func postToken(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestIssueToken(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.DefaultCost)
	require.NoError(t, err)
	router := newTokenRouter(t, &stubRepo{user: &auth.User{
		ID: 1, Email: "user@test.local", Role: auth.RoleCustomer, PasswordHash: string(hashed),
	}})

	res := postToken(t, router, `{"email":"user@test.local","password":"correct-horse"}`)
	require.Equal(t, http.StatusOK, res.Code)

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)
}

func TestIssueTokenWrongPassword(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.DefaultCost)
	require.NoError(t, err)
	router := newTokenRouter(t, &stubRepo{user: &auth.User{
		ID: 1, Email: "user@test.local", Role: auth.RoleCustomer, PasswordHash: string(hashed),
	}})

	res := postToken(t, router, `{"email":"user@test.local","password":"wrong-password"}`)
	require.Equal(t, http.StatusUnauthorized, res.Code)
	require.Contains(t, res.Body.String(), `"error":true`)
}

func TestIssueTokenUnknownAccount(t *testing.T) {
	router := newTokenRouter(t, &stubRepo{})
	res := postToken(t, router, `{"email":"ghost@test.local","password":"whatever-long"}`)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestIssueTokenPasswordlessAccount(t *testing.T) {
	router := newTokenRouter(t, &stubRepo{user: &auth.User{
		ID: 2, Email: "fed@test.local", Role: auth.RoleCustomer,
	}})
	res := postToken(t, router, `{"email":"fed@test.local","password":"irrelevant1"}`)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestIssueTokenValidation(t *testing.T) {
	router := newTokenRouter(t, &stubRepo{})
	res := postToken(t, router, `{"email":"not-an-email","password":"short"}`)
	require.Equal(t, http.StatusBadRequest, res.Code)
}
