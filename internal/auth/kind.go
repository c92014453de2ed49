package auth

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hack4change/moncton/internal/profile"
)

// Kind classifies authentication and authorization failures.
type Kind int

// Error kinds. The set is closed; everything unrecognised is KindUnknown.
const (
	KindUnknown Kind = iota
	KindMissingCredentials
	KindInvalidCredentials
	KindSessionExpired
	KindEmailNotConfirmed
	KindUserNotFound
	KindForbidden
)

var kindNames = map[Kind]string{
	KindUnknown:            "unknown",
	KindMissingCredentials: "missing_credentials",
	KindInvalidCredentials: "invalid_credentials",
	KindSessionExpired:     "session_expired",
	KindEmailNotConfirmed:  "email_not_confirmed",
	KindUserNotFound:       "user_not_found",
	KindForbidden:          "forbidden",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return kindNames[KindUnknown]
}

var (
	// ErrMissingCredentials is returned when no bearer token is presented.
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrForbidden is returned when an authenticated identity lacks a role.
	ErrForbidden = errors.New("forbidden")
	// ErrNotConfigured is returned when no signing secret is configured.
	ErrNotConfigured = errors.New("session verification is not configured")
)

// providerMessages maps fragments of the hosted auth provider's error
// messages to kinds. Matching is case-insensitive and happens only here.
var providerMessages = []struct {
	fragment string
	kind     Kind
}{
	{"invalid login credentials", KindInvalidCredentials},
	{"email not confirmed", KindEmailNotConfirmed},
	{"user not found", KindUserNotFound},
	{"jwt expired", KindSessionExpired},
	{"refresh token not found", KindSessionExpired},
	{"invalid refresh token", KindSessionExpired},
}

// Classify maps err to a Kind.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrMissingCredentials):
		return KindMissingCredentials
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, profile.ErrProfileNotFound):
		return KindUserNotFound
	case errors.Is(err, jwt.ErrTokenExpired):
		return KindSessionExpired
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenInvalidClaims),
		errors.Is(err, jwt.ErrTokenInvalidSubject),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return KindInvalidCredentials
	}

	msg := strings.ToLower(err.Error())
	for _, pm := range providerMessages {
		if strings.Contains(msg, pm.fragment) {
			return pm.kind
		}
	}
	return KindUnknown
}
