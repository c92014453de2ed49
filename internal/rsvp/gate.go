package rsvp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hack4change/moncton/internal/config"
	"github.com/hack4change/moncton/internal/profile"
	"github.com/hack4change/moncton/internal/submission"
)

// DevSubmissionPrefix prefixes the submission id of rows inserted by DevBypassGate.
const DevSubmissionPrefix = "dev-"

// Gate decides whether a user may move to an RSVP status. It returns
// profile.ErrFormRequired when the registration form must be completed first.
type Gate interface {
	Check(ctx context.Context, userID uuid.UUID, status string) error
}

// OpenGate allows every transition.
type OpenGate struct{}

// Check always succeeds.
func (OpenGate) Check(context.Context, uuid.UUID, string) error { return nil }

// SubmissionChecker reports whether a user completed the form for an event.
type SubmissionChecker interface {
	Exists(ctx context.Context, userID uuid.UUID, eventID string) (bool, error)
}

// FormSubmissionGate requires a form submission for EventID before a user
// may confirm. Declining, waitlisting and resetting to pending are never gated.
type FormSubmissionGate struct {
	Submissions SubmissionChecker
	EventID     string
}

// Check implements Gate.
func (g FormSubmissionGate) Check(ctx context.Context, userID uuid.UUID, status string) error {
	if status != profile.RSVPConfirmed {
		return nil
	}

	ok, err := g.Submissions.Exists(ctx, userID, g.EventID)
	if err != nil {
		return fmt.Errorf("checking form completion: %w", err)
	}
	if !ok {
		return profile.ErrFormRequired
	}
	return nil
}

// SubmissionRecorder stores form submissions.
type SubmissionRecorder interface {
	Insert(ctx context.Context, s *submission.Submission) error
}

// DevBypassGate wraps a gate for local development. When the inner gate
// requires the form, a synthetic submission is recorded and the transition
// is allowed, so that store-level checks pass as well.
type DevBypassGate struct {
	Inner       Gate
	Submissions SubmissionRecorder
	EventID     string
}

// Check implements Gate.
func (g DevBypassGate) Check(ctx context.Context, userID uuid.UUID, status string) error {
	err := g.Inner.Check(ctx, userID, status)
	if !errors.Is(err, profile.ErrFormRequired) {
		return err
	}

	s := &submission.Submission{
		UserID:            userID,
		EventID:           g.EventID,
		TallySubmissionID: DevSubmissionPrefix + uuid.NewString(),
	}
	if err := g.Submissions.Insert(ctx, s); err != nil && !errors.Is(err, submission.ErrDuplicateSubmission) {
		return fmt.Errorf("recording dev submission: %w", err)
	}

	slog.Warn("rsvp form gate bypassed", "userId", userID, "eventId", g.EventID, "submissionId", s.TallySubmissionID)
	return nil
}

// GateConfig selects the gate returned by NewGate.
type GateConfig struct {
	Enabled    bool
	DevBypass  bool
	Production bool
	EventID    string
}

// SubmissionStore is the subset of submission.Repository the gates need.
type SubmissionStore interface {
	SubmissionChecker
	SubmissionRecorder
}

// NewGate builds the gate for cfg: OpenGate when disabled, otherwise a
// FormSubmissionGate, wrapped in a DevBypassGate when the bypass is on.
func NewGate(cfg GateConfig, store SubmissionStore) (Gate, error) {
	if !cfg.Enabled {
		return OpenGate{}, nil
	}

	var g Gate = FormSubmissionGate{Submissions: store, EventID: cfg.EventID}
	if !cfg.DevBypass {
		return g, nil
	}
	if cfg.Production {
		return nil, config.ErrDevBypassInProduction
	}
	return DevBypassGate{Inner: g, Submissions: store, EventID: cfg.EventID}, nil
}
