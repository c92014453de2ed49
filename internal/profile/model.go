package profile

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// RSVP statuses. Any status may move to any other; none is terminal.
const (
	RSVPPending   = "pending"
	RSVPConfirmed = "confirmed"
	RSVPDeclined  = "declined"
	RSVPWaitlist  = "waitlist"
)

// RSVPStatuses lists every valid RSVP status.
var RSVPStatuses = []string{RSVPPending, RSVPConfirmed, RSVPDeclined, RSVPWaitlist}

// TShirtSizes lists every valid t-shirt size.
var TShirtSizes = []string{"XS", "S", "M", "L", "XL", "XXL"}

// ValidRSVPStatus reports whether s is one of RSVPStatuses.
func ValidRSVPStatus(s string) bool {
	for _, v := range RSVPStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// ValidRole reports whether s is RoleUser or RoleAdmin.
func ValidRole(s string) bool {
	return s == RoleUser || s == RoleAdmin
}

// Profile represents a row in the profiles table, keyed 1:1 to the auth
// provider's account.
type Profile struct {
	ID                  uuid.UUID
	Email               string
	FirstName           *string
	LastName            *string
	AvatarURL           *string
	Role                string
	RSVPStatus          string
	DietaryRestrictions *string
	TShirtSize          *string
	RegistrationNotes   *string
	CreatedAt           time.Time
	UpdatedAt           time.Time

	// TeamName is populated by queries that join the caller's team.
	TeamName *string
}

// FullName joins first and last name, trimmed.
func (p *Profile) FullName() string {
	return strings.TrimSpace(deref(p.FirstName) + " " + deref(p.LastName))
}

// DisplayName returns the full name, falling back to the email address.
func (p *Profile) DisplayName() string {
	if n := p.FullName(); n != "" {
		return n
	}
	return p.Email
}

// IsAdmin reports whether the profile has the admin role.
func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// UpdateFields holds profile fields editable by the owner or an admin.
// Nil fields are not updated.
type UpdateFields struct {
	FirstName           *string
	LastName            *string
	AvatarURL           *string
	DietaryRestrictions *string
	TShirtSize          *string
	RegistrationNotes   *string

	// Admin-only.
	Role       *string
	RSVPStatus *string
}

// IsEmpty reports whether no field is set.
func (u UpdateFields) IsEmpty() bool {
	return u.FirstName == nil && u.LastName == nil && u.AvatarURL == nil &&
		u.DietaryRestrictions == nil && u.TShirtSize == nil && u.RegistrationNotes == nil &&
		u.Role == nil && u.RSVPStatus == nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
