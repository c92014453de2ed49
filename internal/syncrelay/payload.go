package syncrelay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hack4change/moncton/internal/profile"
	"github.com/hack4change/moncton/internal/team"
)

// profileRecord is a profiles row as delivered by the store's webhooks.
type profileRecord struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	FirstName  *string   `json:"first_name"`
	LastName   *string   `json:"last_name"`
	RSVPStatus string    `json:"rsvp_status"`
	CreatedAt  time.Time `json:"created_at"`
}

// teamRecord is a teams row as delivered by the store's webhooks.
type teamRecord struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	MaxMembers  int       `json:"max_members"`
	CreatedAt   time.Time `json:"created_at"`
}

// SyncPayload syncs a single row delivered by a record-change webhook. The
// row is reloaded from the store so that joined fields (team name, leader)
// are current; when it no longer exists the delivered row is used as is.
func (r *Relay) SyncPayload(ctx context.Context, table string, record json.RawMessage) (string, error) {
	if !r.Enabled() {
		return "", ErrNotConfigured
	}

	switch table {
	case "profiles":
		var rec profileRecord
		if err := json.Unmarshal(record, &rec); err != nil {
			return "", fmt.Errorf("decoding profile record: %w", err)
		}
		action, err := r.SyncRecord(ctx, table, rec.ID)
		if !errors.Is(err, profile.ErrProfileNotFound) {
			return action, err
		}
		return r.SyncProfile(ctx, &profile.Profile{
			ID:         rec.ID,
			Email:      rec.Email,
			FirstName:  rec.FirstName,
			LastName:   rec.LastName,
			RSVPStatus: rec.RSVPStatus,
			CreatedAt:  rec.CreatedAt,
		})
	case "teams":
		var rec teamRecord
		if err := json.Unmarshal(record, &rec); err != nil {
			return "", fmt.Errorf("decoding team record: %w", err)
		}
		action, err := r.SyncRecord(ctx, table, rec.ID)
		if !errors.Is(err, team.ErrTeamNotFound) {
			return action, err
		}
		return r.SyncTeam(ctx, &team.Team{
			ID:          rec.ID,
			Name:        rec.Name,
			Description: rec.Description,
			MaxMembers:  rec.MaxMembers,
			CreatedAt:   rec.CreatedAt,
		})
	default:
		return "", ErrUnknownTable
	}
}
