package syncrelay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hack4change/moncton/internal/events"
	"github.com/hack4change/moncton/internal/profile"
	"github.com/hack4change/moncton/internal/team"
)

// HandleChange mirrors the row named by a change event. Deletes and tables
// without a target database are skipped. A row that no longer exists by the
// time the event arrives is logged and skipped.
func (r *Relay) HandleChange(ctx context.Context, c events.Change) error {
	if c.Type == events.TypeDelete {
		slog.Debug("skipping delete event", "table", c.Table, "recordId", c.RecordID)
		return nil
	}
	if !r.HasTable(c.Table) {
		return nil
	}

	id, err := uuid.Parse(c.RecordID)
	if err != nil {
		return fmt.Errorf("parsing record id %q: %w", c.RecordID, err)
	}

	action, err := r.SyncRecord(ctx, c.Table, id)
	if errors.Is(err, profile.ErrProfileNotFound) || errors.Is(err, team.ErrTeamNotFound) {
		slog.Warn("changed record no longer exists", "table", c.Table, "recordId", c.RecordID)
		return nil
	}
	if err != nil {
		return err
	}

	slog.Info("record synced", "table", c.Table, "recordId", c.RecordID, "action", action)
	return nil
}
