package validation

// CreateTeamRequest mirrors the fields needed for create team validation.
type CreateTeamRequest struct {
	Name        string  `json:"name" validate:"notblank,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// ValidateCreateTeamRequest validates the fields of a create team request.
func ValidateCreateTeamRequest(req CreateTeamRequest) []FieldError {
	return Struct(req)
}

// UpdateProfileRequest holds the profile fields a participant may edit.
type UpdateProfileRequest struct {
	FirstName           *string `json:"firstName" validate:"omitempty,max=100"`
	LastName            *string `json:"lastName" validate:"omitempty,max=100"`
	DietaryRestrictions *string `json:"dietaryRestrictions" validate:"omitempty,max=500"`
	TShirtSize          *string `json:"tshirtSize" validate:"omitempty,tshirt"`
	RegistrationNotes   *string `json:"registrationNotes" validate:"omitempty,max=2000"`
}

// ValidateUpdateProfileRequest validates a self-service profile patch.
func ValidateUpdateProfileRequest(req UpdateProfileRequest) []FieldError {
	return Struct(req)
}

// AdminUpdateUserRequest holds the profile fields an admin may edit.
type AdminUpdateUserRequest struct {
	FirstName  *string `json:"firstName" validate:"omitempty,max=100"`
	LastName   *string `json:"lastName" validate:"omitempty,max=100"`
	AvatarURL  *string `json:"avatarUrl" validate:"omitempty,max=2048"`
	Role       *string `json:"role" validate:"omitempty,oneof=user admin"`
	RSVPStatus *string `json:"rsvpStatus" validate:"omitempty,oneof=pending confirmed declined waitlist"`
}

// ValidateAdminUpdateUserRequest validates an admin profile patch.
func ValidateAdminUpdateUserRequest(req AdminUpdateUserRequest) []FieldError {
	return Struct(req)
}

// UpdateRSVPRequest is the body of PUT /me/rsvp.
type UpdateRSVPRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed declined waitlist"`
}

// ValidateUpdateRSVPRequest validates an RSVP change.
func ValidateUpdateRSVPRequest(req UpdateRSVPRequest) []FieldError {
	return Struct(req)
}
