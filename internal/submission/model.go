// Package submission records completions of the external registration form.
package submission

import (
	"time"

	"github.com/google/uuid"
)

// Submission represents a row in event_form_submissions.
type Submission struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	EventID           string
	TallySubmissionID string
	CompletedAt       time.Time
}
