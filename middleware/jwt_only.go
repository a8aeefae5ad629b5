package middleware

import (
	"net/http"

	"github.com/MrEthical07/slashAuth/jwt"
)

// RequireJWTOnly verifies the session token signature and expiry only.
func RequireJWTOnly(manager *jwt.Manager) func(http.Handler) http.Handler {
	return Guard(manager, nil)
}
