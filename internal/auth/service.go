package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hack4change/moncton/internal/profile"
)

// ProfileGetter loads the profile behind a session.
type ProfileGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
}

// Service resolves bearer tokens to identities.
type Service struct {
	verifier *Verifier
	profiles ProfileGetter
}

// NewService creates a new auth Service.
func NewService(verifier *Verifier, profiles ProfileGetter) *Service {
	return &Service{verifier: verifier, profiles: profiles}
}

// Authenticate verifies tokenString and loads the caller's profile. Errors
// are meant to be passed to Classify.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, ErrMissingCredentials
	}

	claims, err := s.verifier.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading profile for session: %w", err)
	}

	return &Identity{
		UserID: p.ID,
		Email:  p.Email,
		Role:   p.Role,
		Name:   p.DisplayName(),
	}, nil
}
