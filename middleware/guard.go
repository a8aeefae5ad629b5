package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/MrEthical07/slashAuth/jwt"
)

// SessionChecker reports whether a session id is still live, for example
// because it has not been revoked.
type SessionChecker interface {
	SessionActive(ctx context.Context, sid string) (bool, error)
}

type sessionContextKey struct{}

// SessionFromContext returns the claims injected by a guard.
func SessionFromContext(ctx context.Context) (*jwt.SessionClaims, bool) {
	claims, ok := ctx.Value(sessionContextKey{}).(*jwt.SessionClaims)
	return claims, ok
}

// Guard verifies the bearer session token with manager. When checker is
// non-nil the session must also be active.
func Guard(manager *jwt.Manager, checker SessionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := manager.ParseSession(token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if checker != nil {
				active, err := checker.SessionActive(r.Context(), claims.SID)
				if err != nil {
					http.Error(w, "session check failed", http.StatusServiceUnavailable)
					return
				}
				if !active {
					http.Error(w, "unauthorized", http.StatusUnauthorized)
					return
				}
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
