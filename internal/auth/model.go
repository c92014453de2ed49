package auth

import (
	"github.com/google/uuid"

	"github.com/hack4change/moncton/internal/profile"
)

// Identity is stored in the request context after authentication.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Role   string
	Name   string
}

// IsAdmin reports whether the identity has the admin role.
func (i *Identity) IsAdmin() bool {
	return i.Role == profile.RoleAdmin
}
