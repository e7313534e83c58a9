package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/aegis-life/aegis-api/internal/shared"
)

type stubPrincipals struct {
	roles map[string]Role
}

func (s *stubPrincipals) Resolve(ctx context.Context, email string) (*Principal, error) {
	role, ok := s.roles[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &Principal{Email: email, Role: role}, nil
}

func newTestGate(roles map[string]Role) (*Gate, *Codec) {
	codec := NewCodec("gate-secret", time.Hour)
	return NewGate(codec, &stubPrincipals{roles: roles}, nil), codec
}

func markerHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuthenticatedMissingHeader(t *testing.T) {
	gate, _ := newTestGate(nil)
	called := false

	req := httptest.NewRequest(http.MethodGet, "/secret", nil)
	res := httptest.NewRecorder()
	gate.RequireAuthenticated(markerHandler(&called)).ServeHTTP(res, req)

	require.Equal(t, http.StatusUnauthorized, res.Code)
	require.False(t, called, "handler must not run after a gate denial")
	require.Contains(t, res.Body.String(), `"error":true`)
}

func TestRequireAuthenticatedInvalidToken(t *testing.T) {
	gate, _ := newTestGate(nil)
	called := false

	req := httptest.NewRequest(http.MethodGet, "/secret", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	res := httptest.NewRecorder()
	gate.RequireAuthenticated(markerHandler(&called)).ServeHTTP(res, req)

	require.Equal(t, http.StatusForbidden, res.Code)
	require.False(t, called)
}

func TestRequireAuthenticatedExpiredToken(t *testing.T) {
	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	now := issued
	codec := NewCodec("gate-secret", time.Hour).WithClock(func() time.Time { return now })
	gate := NewGate(codec, &stubPrincipals{}, nil)

	token, err := codec.Issue("a@x.com")
	require.NoError(t, err)

	run := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/secret", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		res := httptest.NewRecorder()
		called := false
		gate.RequireAuthenticated(markerHandler(&called)).ServeHTTP(res, req)
		return res
	}

	now = issued.Add(59 * time.Minute)
	require.Equal(t, http.StatusOK, run().Code)

	now = issued.Add(61 * time.Minute)
	require.Equal(t, http.StatusForbidden, run().Code)
}

func TestRequireAuthenticatedAttachesClaims(t *testing.T) {
	gate, codec := newTestGate(nil)
	token, err := codec.Issue("a@x.com")
	require.NoError(t, err)

	var got *Claims
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ClaimsFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/secret", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	gate.RequireAuthenticated(handler).ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, got)
	require.Equal(t, "a@x.com", got.Email)
}

func TestRequireRoleUsesStoredRole(t *testing.T) {
	// Token was issued while b@x.com was an agent; the stored role has
	// since been downgraded, and the very next request must observe that.
	principals := &stubPrincipals{roles: map[string]Role{"b@x.com": RoleAgent}}
	codec := NewCodec("gate-secret", time.Hour)
	gate := NewGate(codec, principals, nil)

	token, err := codec.Issue("b@x.com")
	require.NoError(t, err)

	run := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/agent-only", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		res := httptest.NewRecorder()
		called := false
		gate.RequireAuthenticated(gate.RequireRole(RoleAgent)(markerHandler(&called))).ServeHTTP(res, req)
		return res
	}

	require.Equal(t, http.StatusOK, run().Code)

	principals.roles["b@x.com"] = RoleCustomer
	require.Equal(t, http.StatusForbidden, run().Code, "downgrade must apply without token reissue")
}

func TestRequireRoleUnknownPrincipalFailsClosed(t *testing.T) {
	gate, codec := newTestGate(map[string]Role{})
	token, err := codec.Issue("ghost@x.com")
	require.NoError(t, err)

	called := false
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	gate.RequireAuthenticated(gate.RequireRole(RoleAdmin)(markerHandler(&called))).ServeHTTP(res, req)

	require.Equal(t, http.StatusForbidden, res.Code)
	require.False(t, called)
}

func TestRequireRoleVariadic(t *testing.T) {
	gate, codec := newTestGate(map[string]Role{"agent@x.com": RoleAgent})
	token, err := codec.Issue("agent@x.com")
	require.NoError(t, err)

	called := false
	req := httptest.NewRequest(http.MethodPatch, "/applications/1/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	gate.RequireAuthenticated(gate.RequireRole(RoleAdmin, RoleAgent)(markerHandler(&called))).ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	require.True(t, called)
}

func TestRequireOwnerOrRole(t *testing.T) {
	gate, codec := newTestGate(map[string]Role{"admin@x.com": RoleAdmin, "u@x.com": RoleCustomer})

	mount := func(called *bool) http.Handler {
		r := chi.NewRouter()
		r.Group(func(r chi.Router) {
			r.Use(gate.RequireAuthenticated)
			r.Use(gate.RequireOwnerOrRole(func(r *http.Request) string {
				return chi.URLParam(r, "email")
			}, RoleAdmin))
			r.Get("/payments/{email}", func(w http.ResponseWriter, req *http.Request) {
				*called = true
				w.WriteHeader(http.StatusOK)
			})
		})
		return r
	}

	run := func(email, path string) (*httptest.ResponseRecorder, bool) {
		token, err := codec.Issue(email)
		require.NoError(t, err)
		called := false
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		res := httptest.NewRecorder()
		mount(&called).ServeHTTP(res, req)
		return res, called
	}

	// Owner fetching their own resource.
	res, called := run("u@x.com", "/payments/u@x.com")
	require.Equal(t, http.StatusOK, res.Code)
	require.True(t, called)

	// Admin fetching anyone's resource.
	res, called = run("admin@x.com", "/payments/u@x.com")
	require.Equal(t, http.StatusOK, res.Code)
	require.True(t, called)

	// Non-owner non-admin always denied, whatever parameter they supply.
	res, called = run("u@x.com", "/payments/other@x.com")
	require.Equal(t, http.StatusForbidden, res.Code)
	require.False(t, called)
}

func TestRequireRoleWithoutAuthentication(t *testing.T) {
	gate, _ := newTestGate(map[string]Role{"a@x.com": RoleAdmin})
	called := false

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	res := httptest.NewRecorder()
	gate.RequireRole(RoleAdmin)(markerHandler(&called)).ServeHTTP(res, req)

	require.Equal(t, http.StatusUnauthorized, res.Code)
	require.False(t, called)
}
