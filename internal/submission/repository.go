package submission

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrDuplicateSubmission is returned when a submission already exists for
// the (user, event) pair.
var ErrDuplicateSubmission = errors.New("form submission already recorded")

// ErrUnknownUser is returned when the submission references a user with no
// profile.
var ErrUnknownUser = errors.New("user does not exist")

// ErrSubmissionNotFound is returned when no submission exists for the
// (user, event) pair.
var ErrSubmissionNotFound = errors.New("form submission not found")

// Repository provides operations on the event_form_submissions table.
type Repository interface {
	Insert(ctx context.Context, s *Submission) error
	Get(ctx context.Context, userID uuid.UUID, eventID string) (*Submission, error)
	Exists(ctx context.Context, userID uuid.UUID, eventID string) (bool, error)
}
