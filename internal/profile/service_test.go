package profile_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hack4change/moncton/internal/events"
	"github.com/hack4change/moncton/internal/profile"
)

// --- Mocks ---

type mockProfileRepo struct {
	updateFn  func(ctx context.Context, id uuid.UUID, fields profile.UpdateFields) (*profile.Profile, error)
	listAllFn func(ctx context.Context, filter profile.ListFilter) ([]profile.Profile, error)
	deleteFn  func(ctx context.Context, id uuid.UUID) error
}

func (m *mockProfileRepo) Create(context.Context, *profile.Profile) error { return nil }

func (m *mockProfileRepo) GetByID(_ context.Context, id uuid.UUID) (*profile.Profile, error) {
	return &profile.Profile{ID: id, Email: "u@example.com", Role: profile.RoleUser}, nil
}

func (m *mockProfileRepo) Update(ctx context.Context, id uuid.UUID, fields profile.UpdateFields) (*profile.Profile, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, fields)
	}
	return &profile.Profile{ID: id}, nil
}

func (m *mockProfileRepo) UpdateRSVP(context.Context, uuid.UUID, string) error { return nil }

func (m *mockProfileRepo) List(context.Context, profile.ListFilter) (*profile.ListResult, error) {
	return &profile.ListResult{Profiles: []profile.Profile{}}, nil
}

func (m *mockProfileRepo) ListAll(ctx context.Context, filter profile.ListFilter) ([]profile.Profile, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx, filter)
	}
	return []profile.Profile{}, nil
}

func (m *mockProfileRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockStore struct {
	key, contentType string
	err              error
}

func (m *mockStore) Put(_ context.Context, key string, body io.Reader, _ int64, contentType string) (string, error) {
	m.key, m.contentType = key, contentType
	_, _ = io.Copy(io.Discard, body)
	if m.err != nil {
		return "", m.err
	}
	return "https://cdn.example/avatars/" + key, nil
}

type recordingPublisher struct {
	changes []events.Change
}

func (p *recordingPublisher) Publish(_ context.Context, c events.Change) error {
	p.changes = append(p.changes, c)
	return nil
}

// --- UpdateSelf ---

func TestUpdateSelf_DropsAdminFields(t *testing.T) {
	t.Parallel()

	var got profile.UpdateFields
	repo := &mockProfileRepo{
		updateFn: func(_ context.Context, id uuid.UUID, f profile.UpdateFields) (*profile.Profile, error) {
			got = f
			return &profile.Profile{ID: id}, nil
		},
	}
	pub := &recordingPublisher{}
	svc := profile.NewService(repo, nil, pub)

	_, err := svc.UpdateSelf(context.Background(), uuid.New(), profile.UpdateFields{
		FirstName:  strPtr("Ada"),
		Role:       strPtr(profile.RoleAdmin),
		RSVPStatus: strPtr(profile.RSVPConfirmed),
		TShirtSize: strPtr(" xl "),
	})
	require.NoError(t, err)

	assert.Nil(t, got.Role)
	assert.Nil(t, got.RSVPStatus)
	assert.Equal(t, "XL", *got.TShirtSize)
	require.Len(t, pub.changes, 1)
	assert.Equal(t, events.TableProfiles, pub.changes[0].Table)
}

func TestUpdateSelf_Errors(t *testing.T) {
	t.Parallel()

	svc := profile.NewService(&mockProfileRepo{}, nil, nil)

	_, err := svc.UpdateSelf(context.Background(), uuid.New(), profile.UpdateFields{Role: strPtr(profile.RoleAdmin)})
	assert.ErrorIs(t, err, profile.ErrNothingToUpdate)

	_, err = svc.UpdateSelf(context.Background(), uuid.New(), profile.UpdateFields{TShirtSize: strPtr("XXXL")})
	assert.ErrorIs(t, err, profile.ErrInvalidTShirtSize)
}

// --- AdminUpdate ---

func TestAdminUpdate_Validation(t *testing.T) {
	t.Parallel()

	svc := profile.NewService(&mockProfileRepo{}, nil, nil)

	_, err := svc.AdminUpdate(context.Background(), uuid.New(), profile.UpdateFields{Role: strPtr("root")})
	assert.ErrorIs(t, err, profile.ErrInvalidRole)

	_, err = svc.AdminUpdate(context.Background(), uuid.New(), profile.UpdateFields{RSVPStatus: strPtr("maybe")})
	assert.ErrorIs(t, err, profile.ErrInvalidRSVPStatus)

	_, err = svc.AdminUpdate(context.Background(), uuid.New(), profile.UpdateFields{
		Role:       strPtr(profile.RoleAdmin),
		RSVPStatus: strPtr(profile.RSVPWaitlist),
	})
	assert.NoError(t, err)
}

// --- UploadAvatar ---

func TestUploadAvatar_Success(t *testing.T) {
	t.Parallel()

	var got profile.UpdateFields
	repo := &mockProfileRepo{
		updateFn: func(_ context.Context, id uuid.UUID, f profile.UpdateFields) (*profile.Profile, error) {
			got = f
			return &profile.Profile{ID: id, AvatarURL: f.AvatarURL}, nil
		},
	}
	store := &mockStore{}
	svc := profile.NewService(repo, store, nil)

	p, err := svc.UploadAvatar(context.Background(), uuid.New(), profile.Avatar{
		Filename: "me.PNG", ContentType: "image/png", Size: 3, Body: strings.NewReader("png"),
	})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(store.key, ".png"))
	assert.Equal(t, "https://cdn.example/avatars/"+store.key, *got.AvatarURL)
	assert.Equal(t, *got.AvatarURL, *p.AvatarURL)
}

func TestUploadAvatar_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		store   *mockStore
		avatar  profile.Avatar
		wantErr error
	}{
		{
			name:    "storage disabled",
			avatar:  profile.Avatar{ContentType: "image/png", Size: 1},
			wantErr: profile.ErrStorageDisabled,
		},
		{
			name:    "too large",
			store:   &mockStore{},
			avatar:  profile.Avatar{ContentType: "image/png", Size: profile.MaxAvatarSize + 1},
			wantErr: profile.ErrAvatarTooLarge,
		},
		{
			name:    "not an image",
			store:   &mockStore{},
			avatar:  profile.Avatar{ContentType: "application/pdf", Size: 1},
			wantErr: profile.ErrAvatarType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var svc *profile.Service
			if tt.store == nil {
				svc = profile.NewService(&mockProfileRepo{}, nil, nil)
			} else {
				svc = profile.NewService(&mockProfileRepo{}, tt.store, nil)
			}
			tt.avatar.Body = strings.NewReader("x")

			_, err := svc.UploadAvatar(context.Background(), uuid.New(), tt.avatar)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUploadAvatar_StoreError(t *testing.T) {
	t.Parallel()

	svc := profile.NewService(&mockProfileRepo{}, &mockStore{err: errors.New("denied")}, nil)

	_, err := svc.UploadAvatar(context.Background(), uuid.New(), profile.Avatar{
		Filename: "a.jpg", ContentType: "image/jpeg", Size: 1, Body: strings.NewReader("x"),
	})
	assert.ErrorContains(t, err, "denied")
}

// --- Participants / Delete ---

func TestParticipants_FiltersUserRole(t *testing.T) {
	t.Parallel()

	var got profile.ListFilter
	repo := &mockProfileRepo{
		listAllFn: func(_ context.Context, f profile.ListFilter) ([]profile.Profile, error) {
			got = f
			return []profile.Profile{}, nil
		},
	}

	_, err := profile.NewService(repo, nil, nil).Participants(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{profile.RoleUser}, got.Roles)
}

func TestDelete_PublishesOnlyOnSuccess(t *testing.T) {
	t.Parallel()

	pub := &recordingPublisher{}
	repo := &mockProfileRepo{
		deleteFn: func(context.Context, uuid.UUID) error { return profile.ErrProfileNotFound },
	}

	err := profile.NewService(repo, nil, pub).Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, profile.ErrProfileNotFound)
	assert.Empty(t, pub.changes)
}

// --- Model ---

func TestDisplayName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Ada Lovelace", (&profile.Profile{FirstName: strPtr("Ada"), LastName: strPtr("Lovelace")}).DisplayName())
	assert.Equal(t, "Ada", (&profile.Profile{FirstName: strPtr("Ada")}).DisplayName())
	assert.Equal(t, "x@example.com", (&profile.Profile{Email: "x@example.com"}).DisplayName())
}
