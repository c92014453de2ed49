package submission

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/hack4change/moncton/internal/database"
)

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool  *pgxpool.Pool
	clock clockwork.Clock
}

// NewRepository creates a new Repository backed by the given connection pool.
// completed_at is stamped from clock; a nil clock uses the real one.
func NewRepository(pool *pgxpool.Pool, clock clockwork.Clock) Repository {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &PostgresRepository{pool: pool, clock: clock}
}

// Insert records a submission. A second submission for the same user and
// event returns ErrDuplicateSubmission.
func (r *PostgresRepository) Insert(ctx context.Context, s *Submission) error {
	if s.CompletedAt.IsZero() {
		s.CompletedAt = r.clock.Now().UTC()
	}

	query := `
		INSERT INTO event_form_submissions (user_id, event_id, tally_submission_id, completed_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := r.pool.QueryRow(ctx, query, s.UserID, s.EventID, s.TallySubmissionID, s.CompletedAt).Scan(&s.ID)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return ErrDuplicateSubmission
		}
		if database.IsForeignKeyViolation(err) {
			return ErrUnknownUser
		}
		return fmt.Errorf("inserting form submission: %w", err)
	}
	return nil
}

// Get returns the submission for a user and event.
func (r *PostgresRepository) Get(ctx context.Context, userID uuid.UUID, eventID string) (*Submission, error) {
	query := `
		SELECT id, user_id, event_id, tally_submission_id, completed_at
		FROM event_form_submissions
		WHERE user_id = $1 AND event_id = $2`

	var s Submission
	err := r.pool.QueryRow(ctx, query, userID, eventID).
		Scan(&s.ID, &s.UserID, &s.EventID, &s.TallySubmissionID, &s.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("querying form submission: %w", err)
	}
	return &s, nil
}

// Exists reports whether the user has completed the form for the event.
func (r *PostgresRepository) Exists(ctx context.Context, userID uuid.UUID, eventID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM event_form_submissions WHERE user_id = $1 AND event_id = $2)`,
		userID, eventID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking form submission: %w", err)
	}
	return exists, nil
}
