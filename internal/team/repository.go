package team

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hack4change/moncton/internal/listing"
)

// ErrTeamNotFound is returned when a team record is not found.
var ErrTeamNotFound = errors.New("team not found")

// ErrAlreadyInTeam is returned when a user who already belongs to a team
// tries to create or join another.
var ErrAlreadyInTeam = errors.New("user already belongs to a team")

// ErrTeamFull is returned when a join would exceed the team's max_members.
var ErrTeamFull = errors.New("team is full")

// ErrNotInTeam is returned when a user has no team membership.
var ErrNotInTeam = errors.New("user is not in a team")

// SearchLimit caps the number of teams returned by Search before full teams
// are filtered out.
const SearchLimit = 10

// ListFilter narrows an admin team listing.
type ListFilter struct {
	listing.Params
}

// ListResult holds one page of teams.
type ListResult struct {
	Teams []Team
	Total int
	Page  int
	Limit int
}

// Repository provides operations on the teams and team_members tables.
type Repository interface {
	// CreateWithLeader inserts t and a leader membership for leaderID in one
	// transaction.
	CreateWithLeader(ctx context.Context, t *Team, leaderID uuid.UUID) error
	// Join adds userID to the team as a member, enforcing capacity.
	Join(ctx context.Context, teamID, userID uuid.UUID) (*Member, error)
	// Leave removes userID's membership and returns the team left, or
	// uuid.Nil when the user had none.
	Leave(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	GetUserTeam(ctx context.Context, userID uuid.UUID) (*TeamWithMembers, error)
	Search(ctx context.Context, query string, limit int) ([]Team, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Team, error)
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	ListAll(ctx context.Context, filter ListFilter) ([]Team, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
