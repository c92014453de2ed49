// Package syncrelay mirrors profiles and teams into external workspace
// databases, one page per record, matched by email or team name.
package syncrelay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hack4change/moncton/internal/notion"
	"github.com/hack4change/moncton/internal/profile"
	"github.com/hack4change/moncton/internal/team"
)

// Actions reported for a single-record sync.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
)

// NoTeam is written to the Team property of profiles without a team.
const NoTeam = "No Team"

// ErrNotConfigured is returned when no workspace API key is configured.
var ErrNotConfigured = errors.New("workspace sync is not configured")

// ErrUnknownTable is returned for a record of a table that is not synced.
var ErrUnknownTable = errors.New("table is not synced")

// Workspace is the subset of the Notion client used by the relay.
type Workspace interface {
	QueryDatabase(ctx context.Context, databaseID string, filter notion.Filter) ([]notion.Page, error)
	CreatePage(ctx context.Context, databaseID string, props notion.Properties) (*notion.Page, error)
	UpdatePage(ctx context.Context, pageID string, props notion.Properties) (*notion.Page, error)
}

// ProfileSource loads profiles to sync.
type ProfileSource interface {
	Get(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
	Participants(ctx context.Context) ([]profile.Profile, error)
}

// TeamSource loads teams to sync.
type TeamSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*team.Team, error)
	All(ctx context.Context) ([]team.Team, error)
}

// Config names the target databases. An empty id skips that table.
type Config struct {
	ProfilesDatabaseID string
	TeamsDatabaseID    string
}

// Tally counts per-record outcomes of a full sync.
type Tally struct {
	Success int `json:"success"`
	Errors  int `json:"errors"`
}

// FullSyncResult holds per-table tallies. Nil entries were skipped.
type FullSyncResult struct {
	Profiles *Tally `json:"profiles,omitempty"`
	Teams    *Tally `json:"teams,omitempty"`
}

// Relay upserts records into the workspace.
type Relay struct {
	workspace Workspace
	profiles  ProfileSource
	teams     TeamSource
	locker    Locker
	cfg       Config
}

// NewRelay creates a Relay. A nil workspace makes every call return
// ErrNotConfigured; a nil locker uses a LocalLocker.
func NewRelay(workspace Workspace, profiles ProfileSource, teams TeamSource, locker Locker, cfg Config) *Relay {
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &Relay{workspace: workspace, profiles: profiles, teams: teams, locker: locker, cfg: cfg}
}

// Enabled reports whether a workspace is configured.
func (r *Relay) Enabled() bool {
	return r.workspace != nil
}

// HasTable reports whether records of table have a target database.
func (r *Relay) HasTable(table string) bool {
	switch table {
	case "profiles":
		return r.cfg.ProfilesDatabaseID != ""
	case "teams":
		return r.cfg.TeamsDatabaseID != ""
	default:
		return false
	}
}

// SyncProfile upserts one profile.
func (r *Relay) SyncProfile(ctx context.Context, p *profile.Profile) (string, error) {
	if !r.Enabled() {
		return "", ErrNotConfigured
	}
	teamName := NoTeam
	if p.TeamName != nil && *p.TeamName != "" {
		teamName = *p.TeamName
	}

	props := notion.Properties{
		"First Name":  notion.Title(deref(p.FirstName)),
		"Last Name":   notion.RichText(deref(p.LastName)),
		"Email":       notion.Email(p.Email),
		"RSVP Status": notion.Status(orDefault(p.RSVPStatus, profile.RSVPPending)),
		"Team":        notion.RichText(teamName),
	}
	if !p.CreatedAt.IsZero() {
		props["Created at"] = notion.Date(p.CreatedAt)
	}

	return r.upsert(ctx, r.cfg.ProfilesDatabaseID, "profile:"+p.Email,
		notion.EmailEquals("Email", p.Email), props)
}

// SyncTeam upserts one team.
func (r *Relay) SyncTeam(ctx context.Context, t *team.Team) (string, error) {
	if !r.Enabled() {
		return "", ErrNotConfigured
	}

	props := notion.Properties{
		"Team Name":   notion.Title(t.Name),
		"Description": notion.RichText(deref(t.Description)),
		"Leader":      notion.RichText(t.CreatorName()),
		"Max Members": notion.Number(t.MaxMembers),
	}
	if !t.CreatedAt.IsZero() {
		props["Created at"] = notion.Date(t.CreatedAt)
	}

	return r.upsert(ctx, r.cfg.TeamsDatabaseID, "team:"+t.Name,
		notion.TitleEquals("Team Name", t.Name), props)
}

// SyncRecord syncs the current state of one row of table, reloaded from
// the store.
func (r *Relay) SyncRecord(ctx context.Context, table string, id uuid.UUID) (string, error) {
	switch table {
	case "profiles":
		if r.cfg.ProfilesDatabaseID == "" {
			return "", ErrNotConfigured
		}
		p, err := r.profiles.Get(ctx, id)
		if err != nil {
			return "", err
		}
		return r.SyncProfile(ctx, p)
	case "teams":
		if r.cfg.TeamsDatabaseID == "" {
			return "", ErrNotConfigured
		}
		t, err := r.teams.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return r.SyncTeam(ctx, t)
	default:
		return "", ErrUnknownTable
	}
}

// FullSync syncs every participant profile and every team. Per-record
// failures are logged and counted; they never stop the run.
func (r *Relay) FullSync(ctx context.Context) (*FullSyncResult, error) {
	if !r.Enabled() {
		return nil, ErrNotConfigured
	}
	result := &FullSyncResult{}

	if r.cfg.ProfilesDatabaseID != "" {
		profiles, err := r.profiles.Participants(ctx)
		if err != nil {
			slog.Error("failed to load profiles for sync", "error", err)
		} else {
			result.Profiles = &Tally{}
			for i := range profiles {
				if _, err := r.SyncProfile(ctx, &profiles[i]); err != nil {
					slog.Warn("failed to sync profile", "email", profiles[i].Email, "error", err)
					result.Profiles.Errors++
					continue
				}
				result.Profiles.Success++
			}
		}
	}

	if r.cfg.TeamsDatabaseID != "" {
		teams, err := r.teams.All(ctx)
		if err != nil {
			slog.Error("failed to load teams for sync", "error", err)
		} else {
			result.Teams = &Tally{}
			for i := range teams {
				if _, err := r.SyncTeam(ctx, &teams[i]); err != nil {
					slog.Warn("failed to sync team", "name", teams[i].Name, "error", err)
					result.Teams.Errors++
					continue
				}
				result.Teams.Success++
			}
		}
	}

	return result, nil
}

// upsert runs the query-then-write for one record key under the lock.
func (r *Relay) upsert(ctx context.Context, databaseID, key string, filter notion.Filter, props notion.Properties) (string, error) {
	if databaseID == "" {
		return "", ErrNotConfigured
	}

	unlock, err := r.locker.Lock(ctx, key)
	if err != nil {
		return "", err
	}
	defer unlock()

	pages, err := r.workspace.QueryDatabase(ctx, databaseID, filter)
	if err != nil {
		return "", fmt.Errorf("querying %s: %w", key, err)
	}

	if len(pages) > 0 {
		if _, err := r.workspace.UpdatePage(ctx, pages[0].ID, props); err != nil {
			return "", fmt.Errorf("updating %s: %w", key, err)
		}
		return ActionUpdated, nil
	}

	if _, err := r.workspace.CreatePage(ctx, databaseID, props); err != nil {
		return "", fmt.Errorf("creating %s: %w", key, err)
	}
	return ActionCreated, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
