package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aegis-life/aegis-api/internal/platform/httpx"
)

// PrincipalSource resolves the current stored principal for an email.
type PrincipalSource interface {
	Resolve(ctx context.Context, email string) (*Principal, error)
}

// Gate wires the composable authorization checks applied before route
// handlers. Each check short-circuits the request on failure; handler
// bodies never run after a denial and never re-check authorization.
type Gate struct {
	codec      *Codec
	principals PrincipalSource
	logger     *slog.Logger
}

// NewGate constructs a Gate.
func NewGate(codec *Codec, principals PrincipalSource, logger *slog.Logger) *Gate {
	return &Gate{codec: codec, principals: principals, logger: logger}
}

// RequireAuthenticated verifies the Authorization bearer token and stores
// its claims in the request context. A missing or malformed header is 401;
// a present token that fails verification is 403.
func (g *Gate) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			httpx.Error(w, http.StatusUnauthorized, "unauthorized access: no token provided")
			return
		}
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			httpx.Error(w, http.StatusUnauthorized, "unauthorized access: malformed authorization header")
			return
		}
		claims, err := g.codec.Verify(token)
		if err != nil {
			httpx.Error(w, http.StatusForbidden, "forbidden access: invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
	})
}

// RequireRole passes only when the stored role of the authenticated email
// is one of roles. The role is re-read from the store on every request, so
// a downgrade takes effect on the affected user's very next call even
// while their token is still valid. A principal that no longer exists
// fails closed.
func (g *Gate) RequireRole(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := g.checkRole(w, r, roles)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireOwnerOrRole passes when the authenticated email equals the value
// extracted from the request (the resource owner), or when the stored role
// check passes. The client-supplied parameter is only ever compared
// against the token identity, never trusted on its own.
func (g *Gate) RequireOwnerOrRole(extract func(*http.Request) string, roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				httpx.Error(w, http.StatusUnauthorized, "unauthorized access: no token provided")
				return
			}
			if owner := extract(r); owner != "" && owner == claims.Email {
				next.ServeHTTP(w, r)
				return
			}
			principal, ok := g.checkRole(w, r, roles)
			if !ok {
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

func (g *Gate) checkRole(w http.ResponseWriter, r *http.Request, roles []Role) (*Principal, bool) {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		httpx.Error(w, http.StatusUnauthorized, "unauthorized access: no token provided")
		return nil, false
	}
	principal, err := g.principals.Resolve(r.Context(), claims.Email)
	if err != nil {
		// Unknown principals and lookup failures both deny; never fail open.
		if g.logger != nil {
			g.logger.Warn("principal lookup failed", slog.String("email", claims.Email), slog.Any("error", err))
		}
		httpx.Error(w, http.StatusForbidden, "forbidden access: insufficient privileges")
		return nil, false
	}
	for _, role := range roles {
		if principal.Role == role {
			return principal, true
		}
	}
	httpx.Error(w, http.StatusForbidden, "forbidden access: insufficient privileges")
	return nil, false
}
