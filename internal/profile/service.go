package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/hack4change/moncton/internal/events"
	"github.com/hack4change/moncton/internal/storage"
)

// MaxAvatarSize is the largest accepted avatar upload, in bytes.
const MaxAvatarSize = 5 << 20

// AvatarContentTypes lists the accepted avatar image types.
var AvatarContentTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

var (
	// ErrNothingToUpdate is returned when an update sets no field.
	ErrNothingToUpdate = errors.New("no fields to update")
	// ErrInvalidTShirtSize is returned for a size outside TShirtSizes.
	ErrInvalidTShirtSize = errors.New("invalid t-shirt size")
	// ErrInvalidRole is returned for a role other than user or admin.
	ErrInvalidRole = errors.New("invalid role")
	// ErrInvalidRSVPStatus is returned for a status outside RSVPStatuses.
	ErrInvalidRSVPStatus = errors.New("invalid rsvp status")
	// ErrAvatarTooLarge is returned when an upload exceeds MaxAvatarSize.
	ErrAvatarTooLarge = errors.New("avatar exceeds 5 MiB")
	// ErrAvatarType is returned when an upload is not an accepted image type.
	ErrAvatarType = errors.New("avatar must be a jpeg, png, gif or webp image")
	// ErrStorageDisabled is returned when no object store is configured.
	ErrStorageDisabled = errors.New("avatar storage is not configured")
)

// Avatar is an uploaded avatar image.
type Avatar struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Service implements self-service and admin profile operations.
type Service struct {
	repo      Repository
	store     storage.Store
	publisher events.Publisher
}

// NewService creates a new Service. store may be nil when uploads are
// disabled; a nil publisher disables change events.
func NewService(repo Repository, store storage.Store, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{repo: repo, store: store, publisher: publisher}
}

// Get returns a profile with its team name.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateSelf applies the owner-editable fields of u. Role and RSVP status
// are ignored; RSVP changes go through the rsvp service.
func (s *Service) UpdateSelf(ctx context.Context, id uuid.UUID, u UpdateFields) (*Profile, error) {
	u.Role = nil
	u.RSVPStatus = nil
	return s.update(ctx, id, u)
}

// AdminUpdate applies every field of u, including role and RSVP status.
// The form-completion gate does not apply to admins.
func (s *Service) AdminUpdate(ctx context.Context, id uuid.UUID, u UpdateFields) (*Profile, error) {
	if u.Role != nil && !ValidRole(*u.Role) {
		return nil, ErrInvalidRole
	}
	if u.RSVPStatus != nil && !ValidRSVPStatus(*u.RSVPStatus) {
		return nil, ErrInvalidRSVPStatus
	}
	return s.update(ctx, id, u)
}

func (s *Service) update(ctx context.Context, id uuid.UUID, u UpdateFields) (*Profile, error) {
	if u.IsEmpty() {
		return nil, ErrNothingToUpdate
	}
	if u.TShirtSize != nil {
		size := strings.ToUpper(strings.TrimSpace(*u.TShirtSize))
		if !slices.Contains(TShirtSizes, size) {
			return nil, ErrInvalidTShirtSize
		}
		u.TShirtSize = &size
	}

	p, err := s.repo.Update(ctx, id, u)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeUpdate, id)
	return p, nil
}

// UploadAvatar stores a new avatar image and points the profile at it.
func (s *Service) UploadAvatar(ctx context.Context, id uuid.UUID, a Avatar) (*Profile, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	if a.Size > MaxAvatarSize {
		return nil, ErrAvatarTooLarge
	}
	if !slices.Contains(AvatarContentTypes, a.ContentType) {
		return nil, ErrAvatarType
	}

	key, err := storage.NewObjectKey(a.Filename)
	if err != nil {
		return nil, err
	}
	url, err := s.store.Put(ctx, key, a.Body, a.Size, a.ContentType)
	if err != nil {
		return nil, fmt.Errorf("storing avatar: %w", err)
	}

	return s.update(ctx, id, UpdateFields{AvatarURL: &url})
}

// List returns one page of profiles for the admin panel.
func (s *Service) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	return s.repo.List(ctx, filter)
}

// ListAll returns every profile matching filter, for export.
func (s *Service) ListAll(ctx context.Context, filter ListFilter) ([]Profile, error) {
	return s.repo.ListAll(ctx, filter)
}

// Participants returns every profile with the user role.
func (s *Service) Participants(ctx context.Context) ([]Profile, error) {
	return s.repo.ListAll(ctx, ListFilter{Roles: []string{RoleUser}})
}

// Delete removes a user's account and profile.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, events.TypeDelete, id)
	return nil
}

func (s *Service) publish(ctx context.Context, changeType string, id uuid.UUID) {
	events.PublishQuietly(ctx, s.publisher, events.Change{
		Table:    events.TableProfiles,
		Type:     changeType,
		RecordID: id.String(),
	})
}
