package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/hack4change/moncton/internal/api/response"
	"github.com/hack4change/moncton/internal/auth"
)

// RequireAdmin returns middleware that rejects non-admin identities with 403.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			identity := GetIdentity(r.Context())
			if identity == nil {
				WriteAuthError(w, auth.ErrMissingCredentials, requestID)
				return
			}

			if !identity.IsAdmin() {
				WriteAuthError(w, auth.ErrForbidden, requestID)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// BearerSecret returns middleware that requires "Authorization: Bearer
// <secret>" on machine-to-machine endpoints. An empty secret disables the
// check.
func BearerSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret != "" {
				token := bearerToken(r)
				if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
					slog.Warn("rejected request with invalid bearer secret", "path", r.URL.Path)
					response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", GetRequestID(r.Context()))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
