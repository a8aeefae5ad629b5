package middleware

import (
	"net/http"

	"github.com/MrEthical07/slashAuth/jwt"
)

// RequireStrict verifies the token and requires checker to report the session
// active. A nil checker rejects every request.
func RequireStrict(manager *jwt.Manager, checker SessionChecker) func(http.Handler) http.Handler {
	if checker == nil {
		return func(http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
			})
		}
	}
	return Guard(manager, checker)
}
