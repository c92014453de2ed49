package profile

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hack4change/moncton/internal/listing"
)

// ErrProfileNotFound is returned when a profile record is not found.
var ErrProfileNotFound = errors.New("profile not found")

// ErrFormRequired is returned when an RSVP change is rejected because the
// user has not completed the registration form.
var ErrFormRequired = errors.New("registration form required")

// FormRequiredMarker is the message marker raised by the store's RSVP trigger.
const FormRequiredMarker = "RSVP_FORM_REQUIRED"

// ListFilter narrows an admin profile listing.
type ListFilter struct {
	listing.Params
	Roles        []string
	RSVPStatuses []string
}

// ListResult holds one page of profiles.
type ListResult struct {
	Profiles []Profile
	Total    int
	Page     int
	Limit    int
}

// Repository provides operations on the profiles table.
type Repository interface {
	Create(ctx context.Context, p *Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (*Profile, error)
	UpdateRSVP(ctx context.Context, id uuid.UUID, status string) error
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	ListAll(ctx context.Context, filter ListFilter) ([]Profile, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
