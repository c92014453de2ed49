package validation_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hack4change/moncton/internal/api/validation"
)

func strPtr(s string) *string { return &s }

func TestValidateCreateTeamRequest(t *testing.T) {
	tests := []struct {
		name      string
		req       validation.CreateTeamRequest
		wantField string
	}{
		{name: "valid", req: validation.CreateTeamRequest{Name: "Tidal", Description: strPtr("Ocean data")}},
		{name: "blank name", req: validation.CreateTeamRequest{Name: "   "}, wantField: "name"},
		{name: "long name", req: validation.CreateTeamRequest{Name: strings.Repeat("a", 101)}, wantField: "name"},
		{name: "long description", req: validation.CreateTeamRequest{Name: "Tidal", Description: strPtr(strings.Repeat("d", 501))}, wantField: "description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validation.ValidateCreateTeamRequest(tt.req)
			if tt.wantField == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Equal(t, tt.wantField, errs[0].Field)
		})
	}
}

func TestValidateCreateTeamRequest_Messages(t *testing.T) {
	errs := validation.ValidateCreateTeamRequest(validation.CreateTeamRequest{Name: ""})
	require.Len(t, errs, 1)
	assert.Equal(t, "name is required", errs[0].Message)

	errs = validation.ValidateCreateTeamRequest(validation.CreateTeamRequest{Name: strings.Repeat("x", 101)})
	require.Len(t, errs, 1)
	assert.Equal(t, "name must be at most 100 characters", errs[0].Message)
}

func TestValidateUpdateProfileRequest(t *testing.T) {
	assert.Empty(t, validation.ValidateUpdateProfileRequest(validation.UpdateProfileRequest{TShirtSize: strPtr("xl")}))
	assert.Empty(t, validation.ValidateUpdateProfileRequest(validation.UpdateProfileRequest{}))

	errs := validation.ValidateUpdateProfileRequest(validation.UpdateProfileRequest{TShirtSize: strPtr("XXXL")})
	require.Len(t, errs, 1)
	assert.Equal(t, "tshirtSize", errs[0].Field)
	assert.Contains(t, errs[0].Message, "XS, S, M, L, XL, XXL")
}

func TestValidateAdminUpdateUserRequest(t *testing.T) {
	assert.Empty(t, validation.ValidateAdminUpdateUserRequest(validation.AdminUpdateUserRequest{Role: strPtr("admin"), RSVPStatus: strPtr("waitlist")}))

	errs := validation.ValidateAdminUpdateUserRequest(validation.AdminUpdateUserRequest{Role: strPtr("owner"), RSVPStatus: strPtr("maybe")})
	require.Len(t, errs, 2)
	assert.Equal(t, "role", errs[0].Field)
	assert.Equal(t, "role must be one of: user, admin", errs[0].Message)
	assert.Equal(t, "rsvpStatus", errs[1].Field)
}

func TestValidateUpdateRSVPRequest(t *testing.T) {
	assert.Empty(t, validation.ValidateUpdateRSVPRequest(validation.UpdateRSVPRequest{Status: "confirmed"}))

	errs := validation.ValidateUpdateRSVPRequest(validation.UpdateRSVPRequest{})
	require.Len(t, errs, 1)
	assert.Equal(t, "status", errs[0].Field)

	errs = validation.ValidateUpdateRSVPRequest(validation.UpdateRSVPRequest{Status: "maybe"})
	require.Len(t, errs, 1)
	assert.Equal(t, "status must be one of: pending, confirmed, declined, waitlist", errs[0].Message)
}
