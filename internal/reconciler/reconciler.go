// Package reconciler periodically runs a full workspace sync so that pages
// missed by change events converge back to the store's state.
package reconciler

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/hack4change/moncton/internal/syncrelay"
)

// FullSyncer runs one full sync pass.
type FullSyncer interface {
	FullSync(ctx context.Context) (*syncrelay.FullSyncResult, error)
}

// Reconciler runs FullSync on a fixed interval.
type Reconciler struct {
	syncer   FullSyncer
	interval time.Duration
	clock    clockwork.Clock
}

// New creates a new Reconciler. A nil clock uses the real one.
func New(syncer FullSyncer, interval time.Duration, clock clockwork.Clock) *Reconciler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Reconciler{
		syncer:   syncer,
		interval: interval,
		clock:    clock,
	}
}

// Start begins the reconciliation loop. It blocks until ctx is cancelled.
func (r *Reconciler) Start(ctx context.Context) {
	slog.Info("reconciler started", "interval", r.interval.String())
	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("reconciler stopped")
			return
		case <-ticker.Chan():
			r.reconcile(ctx)
		}
	}
}

func (r *Reconciler) reconcile(ctx context.Context) {
	started := r.clock.Now()
	result, err := r.syncer.FullSync(ctx)
	if err != nil {
		slog.Error("reconciler: full sync failed", "error", err)
		return
	}

	attrs := []any{"duration", r.clock.Since(started).String()}
	if result.Profiles != nil {
		attrs = append(attrs, "profilesSynced", result.Profiles.Success, "profileErrors", result.Profiles.Errors)
	}
	if result.Teams != nil {
		attrs = append(attrs, "teamsSynced", result.Teams.Success, "teamErrors", result.Teams.Errors)
	}
	slog.Info("reconciler: full sync completed", attrs...)
}
