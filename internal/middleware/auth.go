// Package middleware provides the HTTP middleware chain: session
// authentication, role checks, CORS, rate limiting, request logging and
// metrics.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fitchallenge/backend/internal/app/domain/user"
	"github.com/fitchallenge/backend/pkg/logger"
)

type contextKey string

const userContextKey contextKey = "authenticated-user"

// Authenticator resolves a bearer session ID to its active user.
type Authenticator interface {
	Authenticate(ctx context.Context, sessionID string) (user.User, error)
}

// UserFromContext returns the authenticated user injected by SessionAuth.
func UserFromContext(ctx context.Context) (user.User, bool) {
	u, ok := ctx.Value(userContextKey).(user.User)
	return u, ok
}

// WithUser returns a context carrying the user. Exposed for handler tests.
func WithUser(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// SessionAuth authenticates requests via "Authorization: Bearer <sessionID>"
// and injects the resolved user into the request context.
type SessionAuth struct {
	auth Authenticator
	log  *logger.Logger
}

// NewSessionAuth creates the session authentication middleware.
func NewSessionAuth(auth Authenticator, log *logger.Logger) *SessionAuth {
	if log == nil {
		log = logger.NewDefault("middleware")
	}
	return &SessionAuth{auth: auth, log: log}
}

// Handler returns the middleware handler.
func (m *SessionAuth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			unauthorized(w, "missing Authorization header")
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			unauthorized(w, "invalid Authorization header format")
			return
		}

		u, err := m.auth.Authenticate(r.Context(), parts[1])
		if err != nil {
			m.log.WithError(err).Debug("session authentication failed")
			unauthorized(w, "invalid or expired session")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

// RequireRoles rejects authenticated users whose role is not in the allowed
// set. Must run after SessionAuth.
func RequireRoles(roles ...user.Role) func(http.Handler) http.Handler {
	allowed := make(map[user.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				unauthorized(w, "authentication required")
				return
			}
			if _, ok := allowed[u.Role]; !ok {
				forbidden(w, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	writeJSONError(w, http.StatusUnauthorized, msg)
}

func forbidden(w http.ResponseWriter, msg string) {
	writeJSONError(w, http.StatusForbidden, msg)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
