// Package rsvp manages a participant's attendance status, gated on
// completion of the registration form.
package rsvp

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hack4change/moncton/internal/events"
	"github.com/hack4change/moncton/internal/profile"
	"github.com/hack4change/moncton/internal/submission"
)

// ErrInvalidStatus is returned for a status outside profile.RSVPStatuses.
var ErrInvalidStatus = errors.New("invalid rsvp status")

// ErrFormRequired is returned when the registration form must be completed
// before the requested transition.
var ErrFormRequired = profile.ErrFormRequired

// ProfileUpdater writes RSVP statuses.
type ProfileUpdater interface {
	UpdateRSVP(ctx context.Context, id uuid.UUID, status string) error
}

// SubmissionReader reads form submissions.
type SubmissionReader interface {
	Get(ctx context.Context, userID uuid.UUID, eventID string) (*submission.Submission, error)
}

// FormStatus reports whether a user completed the registration form.
type FormStatus struct {
	EventID     string
	Completed   bool
	CompletedAt *time.Time
	FormURL     string
}

// Service updates RSVP statuses through a Gate.
type Service struct {
	profiles    ProfileUpdater
	submissions SubmissionReader
	gate        Gate
	eventID     string
	formURL     string
	publisher   events.Publisher
}

// NewService creates a new Service. A nil gate allows every transition and a
// nil publisher disables change events.
func NewService(profiles ProfileUpdater, submissions SubmissionReader, gate Gate, eventID, formURL string, publisher events.Publisher) *Service {
	if gate == nil {
		gate = OpenGate{}
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		profiles:    profiles,
		submissions: submissions,
		gate:        gate,
		eventID:     eventID,
		formURL:     formURL,
		publisher:   publisher,
	}
}

// FormURL returns the registration form users are sent to when gated.
func (s *Service) FormURL() string {
	return s.formURL
}

// UpdateRSVP moves the user to status. Any status may follow any other.
func (s *Service) UpdateRSVP(ctx context.Context, userID uuid.UUID, status string) error {
	if !profile.ValidRSVPStatus(status) {
		return ErrInvalidStatus
	}
	if err := s.gate.Check(ctx, userID, status); err != nil {
		return err
	}
	if err := s.profiles.UpdateRSVP(ctx, userID, status); err != nil {
		return err
	}

	events.PublishQuietly(ctx, s.publisher, events.Change{
		Table:    events.TableProfiles,
		Type:     events.TypeUpdate,
		RecordID: userID.String(),
	})
	return nil
}

// GetFormStatus reports whether the user completed the form for the
// configured event.
func (s *Service) GetFormStatus(ctx context.Context, userID uuid.UUID) (*FormStatus, error) {
	st := &FormStatus{EventID: s.eventID, FormURL: s.formURL}

	sub, err := s.submissions.Get(ctx, userID, s.eventID)
	if err != nil {
		if errors.Is(err, submission.ErrSubmissionNotFound) {
			return st, nil
		}
		return nil, err
	}

	st.Completed = true
	st.CompletedAt = &sub.CompletedAt
	return st, nil
}
