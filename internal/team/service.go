package team

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hack4change/moncton/internal/events"
)

// ErrInvalidName is returned when a team name is blank or too long.
var ErrInvalidName = errors.New("team name must be 1-100 characters")

// ErrInvalidDescription is returned when a team description is too long.
var ErrInvalidDescription = errors.New("team description must be at most 500 characters")

// Service implements team membership on top of a Repository and publishes a
// change event after every successful mutation.
type Service struct {
	repo      Repository
	publisher events.Publisher
}

// NewService creates a new Service. A nil publisher disables change events.
func NewService(repo Repository, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{repo: repo, publisher: publisher}
}

// GetUserTeam returns the caller's team, or nil when they have none.
func (s *Service) GetUserTeam(ctx context.Context, userID uuid.UUID) (*TeamWithMembers, error) {
	t, err := s.repo.GetUserTeam(ctx, userID)
	if errors.Is(err, ErrNotInTeam) {
		return nil, nil
	}
	return t, err
}

// SearchTeams returns up to SearchLimit teams matching query, minus the
// ones that are already full.
func (s *Service) SearchTeams(ctx context.Context, query string) ([]Team, error) {
	teams, err := s.repo.Search(ctx, strings.TrimSpace(query), SearchLimit)
	if err != nil {
		return nil, err
	}

	open := make([]Team, 0, len(teams))
	for _, t := range teams {
		if !t.IsFull() {
			open = append(open, t)
		}
	}
	return open, nil
}

// CreateTeam creates a team led by userID.
func (s *Service) CreateTeam(ctx context.Context, userID uuid.UUID, name string, description *string) (*Team, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return nil, ErrInvalidName
	}
	description = trimmedOrNil(description)
	if description != nil && utf8.RuneCountInString(*description) > MaxDescriptionLength {
		return nil, ErrInvalidDescription
	}

	t := &Team{Name: name, Description: description, MaxMembers: DefaultMaxMembers}
	if err := s.repo.CreateWithLeader(ctx, t, userID); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeInsert, t.ID)
	s.publishMember(ctx, userID)
	return t, nil
}

// JoinTeam adds userID to teamID as a member.
func (s *Service) JoinTeam(ctx context.Context, userID, teamID uuid.UUID) (*Member, error) {
	m, err := s.repo.Join(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeUpdate, teamID)
	s.publishMember(ctx, userID)
	return m, nil
}

// LeaveTeam removes the caller from their team. Leaving without a team is a
// no-op. A leader who leaves leaves the team without a leader.
func (s *Service) LeaveTeam(ctx context.Context, userID uuid.UUID) error {
	teamID, err := s.repo.Leave(ctx, userID)
	if err != nil {
		return err
	}
	if teamID != uuid.Nil {
		s.publish(ctx, events.TypeUpdate, teamID)
		s.publishMember(ctx, userID)
	}
	return nil
}

// GetByID returns a single team.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Team, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns one page of teams for the admin panel.
func (s *Service) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	return s.repo.List(ctx, filter)
}

// ListAll returns every team matching filter, for export.
func (s *Service) ListAll(ctx context.Context, filter ListFilter) ([]Team, error) {
	return s.repo.ListAll(ctx, filter)
}

// All returns every team in store order.
func (s *Service) All(ctx context.Context) ([]Team, error) {
	return s.repo.ListAll(ctx, ListFilter{})
}

// Delete removes a team and its memberships.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, events.TypeDelete, id)
	return nil
}

func (s *Service) publish(ctx context.Context, changeType string, id uuid.UUID) {
	events.PublishQuietly(ctx, s.publisher, events.Change{
		Table:    events.TableTeams,
		Type:     changeType,
		RecordID: id.String(),
	})
}

// publishMember signals that a user's team assignment changed, so the mirrored
// profile picks up its new team.
func (s *Service) publishMember(ctx context.Context, userID uuid.UUID) {
	events.PublishQuietly(ctx, s.publisher, events.Change{
		Table:    events.TableProfiles,
		Type:     events.TypeUpdate,
		RecordID: userID.String(),
	})
}

// trimmedOrNil returns nil for a nil or blank string.
func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
