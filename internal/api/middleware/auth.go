package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hack4change/moncton/internal/api/response"
	"github.com/hack4change/moncton/internal/auth"
)

const identityKey contextKey = "identity"

// Authenticator resolves a bearer token to an Identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Identity, error)
}

type kindResponse struct {
	status  int
	code    string
	message string
}

var kindResponses = map[auth.Kind]kindResponse{
	auth.KindMissingCredentials: {http.StatusUnauthorized, "UNAUTHORIZED", "Authentication is required"},
	auth.KindInvalidCredentials: {http.StatusUnauthorized, "INVALID_SESSION", "Session is invalid"},
	auth.KindSessionExpired:     {http.StatusUnauthorized, "SESSION_EXPIRED", "Session has expired"},
	auth.KindEmailNotConfirmed:  {http.StatusForbidden, "EMAIL_NOT_CONFIRMED", "Email address is not confirmed"},
	auth.KindUserNotFound:       {http.StatusUnauthorized, "USER_NOT_FOUND", "No profile exists for this session"},
	auth.KindForbidden:          {http.StatusForbidden, "FORBIDDEN", "Insufficient permissions"},
}

// WriteAuthError writes the response for an authentication failure,
// classified with auth.Classify.
func WriteAuthError(w http.ResponseWriter, err error, requestID string) {
	kind := auth.Classify(err)
	if resp, ok := kindResponses[kind]; ok {
		response.Err(w, resp.status, resp.code, resp.message, requestID)
		return
	}
	slog.Error("failed to authenticate request", "error", err, "requestId", requestID)
	response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Authentication failed", requestID)
}

// Auth is middleware that extracts the bearer token from the Authorization
// header and resolves it to an Identity.
func Auth(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			identity, err := authenticator.Authenticate(r.Context(), bearerToken(r))
			if err != nil {
				WriteAuthError(w, err, requestID)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity retrieves the authenticated Identity from the request context.
func GetIdentity(ctx context.Context) *auth.Identity {
	if id, ok := ctx.Value(identityKey).(*auth.Identity); ok {
		return id
	}
	return nil
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) < len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}
