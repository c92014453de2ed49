package team

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxMembers is the capacity given to every new team.
const DefaultMaxMembers = 4

// Member roles.
const (
	RoleLeader = "leader"
	RoleMember = "member"
)

// Field limits for team creation.
const (
	MaxNameLength        = 100
	MaxDescriptionLength = 500
)

// Team represents a row in the teams table along with its member count and
// the creator's name columns.
type Team struct {
	ID          uuid.UUID
	Name        string
	Description *string
	MaxMembers  int
	CreatedBy   *uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time

	MemberCount      int
	CreatorFirstName *string
	CreatorLastName  *string
	CreatorEmail     *string
}

// IsFull reports whether the team has reached its capacity.
func (t *Team) IsFull() bool {
	return t.MemberCount >= t.MaxMembers
}

// CreatorName returns the creator's full name, else email, else "Unknown".
func (t *Team) CreatorName() string {
	name := strings.TrimSpace(deref(t.CreatorFirstName) + " " + deref(t.CreatorLastName))
	if name != "" {
		return name
	}
	if e := deref(t.CreatorEmail); e != "" {
		return e
	}
	return "Unknown"
}

// Member is a team_members row joined with the member's profile.
type Member struct {
	ID        uuid.UUID
	TeamID    uuid.UUID
	UserID    uuid.UUID
	Role      string
	JoinedAt  time.Time
	FirstName *string
	LastName  *string
	Email     string
}

// DisplayName returns the member's full name, falling back to email.
func (m *Member) DisplayName() string {
	name := strings.TrimSpace(deref(m.FirstName) + " " + deref(m.LastName))
	if name != "" {
		return name
	}
	return m.Email
}

// TeamWithMembers is a team, its roster and the requesting user's role in it.
type TeamWithMembers struct {
	Team
	Members  []Member
	UserRole string
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
