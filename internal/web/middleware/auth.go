package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/sheetinspect/internal/auth"
)

// ErrMissingBearer is reported when a protected route gets no bearer token.
var ErrMissingBearer = errors.New("missing bearer token")

// Authenticator resolves a bearer token to a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, bearer string) (*auth.Principal, error)
}

// ErrorResponder writes an error response. The web server passes its
// respondError so auth failures share the JSON error body of every other route.
type ErrorResponder func(w http.ResponseWriter, r *http.Request, err error, status int)

// RequireAuth returns middleware that validates "Authorization: Bearer <jwt>"
// and stores the principal in the request context.
func RequireAuth(a Authenticator, fail ErrorResponder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", "Bearer")
				fail(w, r, ErrMissingBearer, http.StatusUnauthorized)
				return
			}

			p, err := a.Authenticate(r.Context(), token)
			if err != nil {
				slog.Warn("auth: rejected bearer token",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				status := http.StatusUnauthorized
				if !errors.Is(err, auth.ErrInvalidToken) {
					status = http.StatusInternalServerError
				}
				fail(w, r, err, status)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireRole returns middleware that admits only principals holding role.
// It must run after RequireAuth.
func RequireRole(role string, fail ErrorResponder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := auth.PrincipalFromContext(r.Context())
			if p == nil {
				fail(w, r, ErrMissingBearer, http.StatusUnauthorized)
				return
			}
			if p.Role != role {
				fail(w, r, auth.ErrForbidden, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the credential from an Authorization header.
// The scheme is matched case-insensitively.
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
