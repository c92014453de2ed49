package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/hack4change/moncton/internal/api/middleware"
	"github.com/hack4change/moncton/internal/api/response"
	"github.com/hack4change/moncton/internal/api/validation"
	"github.com/hack4change/moncton/internal/profile"
)

// ProfileService is the self-service subset of profile.Service.
type ProfileService interface {
	Get(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
	UpdateSelf(ctx context.Context, id uuid.UUID, u profile.UpdateFields) (*profile.Profile, error)
	UploadAvatar(ctx context.Context, id uuid.UUID, a profile.Avatar) (*profile.Profile, error)
}

type profileResponse struct {
	ID                  string  `json:"id"`
	Email               string  `json:"email"`
	FirstName           *string `json:"firstName"`
	LastName            *string `json:"lastName"`
	AvatarURL           *string `json:"avatarUrl"`
	Role                string  `json:"role"`
	RSVPStatus          string  `json:"rsvpStatus"`
	DietaryRestrictions *string `json:"dietaryRestrictions"`
	TShirtSize          *string `json:"tshirtSize"`
	RegistrationNotes   *string `json:"registrationNotes"`
	TeamName            *string `json:"teamName"`
	CreatedAt           string  `json:"createdAt"`
	UpdatedAt           string  `json:"updatedAt"`
}

func toProfileResponse(p *profile.Profile) profileResponse {
	return profileResponse{
		ID:                  p.ID.String(),
		Email:               p.Email,
		FirstName:           p.FirstName,
		LastName:            p.LastName,
		AvatarURL:           p.AvatarURL,
		Role:                p.Role,
		RSVPStatus:          p.RSVPStatus,
		DietaryRestrictions: p.DietaryRestrictions,
		TShirtSize:          p.TShirtSize,
		RegistrationNotes:   p.RegistrationNotes,
		TeamName:            p.TeamName,
		CreatedAt:           formatTime(p.CreatedAt),
		UpdatedAt:           formatTime(p.UpdatedAt),
	}
}

// ProfileHandler handles the caller's own profile.
type ProfileHandler struct {
	svc ProfileService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(svc ProfileService) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

// Get handles GET /me.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	p, err := h.svc.Get(r.Context(), identity.UserID)
	if err != nil {
		writeProfileError(w, err, "failed to get profile", requestID)
		return
	}

	response.Success(w, http.StatusOK, toProfileResponse(p), requestID)
}

// Update handles PATCH /me.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	var req validation.UpdateProfileRequest
	if !decodeJSON(w, r, &req, requestID) {
		return
	}

	if fieldErrors := validation.ValidateUpdateProfileRequest(req); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	p, err := h.svc.UpdateSelf(r.Context(), identity.UserID, profile.UpdateFields{
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		DietaryRestrictions: req.DietaryRestrictions,
		TShirtSize:          req.TShirtSize,
		RegistrationNotes:   req.RegistrationNotes,
	})
	if err != nil {
		writeProfileError(w, err, "failed to update profile", requestID)
		return
	}

	response.Success(w, http.StatusOK, toProfileResponse(p), requestID)
}

// UploadAvatar handles POST /me/avatar with a multipart "avatar" file.
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, profile.MaxAvatarSize+maxBodyBytes)
	if err := r.ParseMultipartForm(profile.MaxAvatarSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Err(w, http.StatusRequestEntityTooLarge, "AVATAR_TOO_LARGE", "Avatar must be at most 5 MiB", requestID)
			return
		}
		response.Err(w, http.StatusBadRequest, "INVALID_FORM", "Request body must be multipart/form-data", requestID)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("avatar")
	if err != nil {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed",
			[]validation.FieldError{{Field: "avatar", Message: "avatar is required"}}, requestID)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		sniff := make([]byte, 512)
		n, _ := file.Read(sniff)
		contentType = http.DetectContentType(sniff[:n])
		if _, err := file.Seek(0, 0); err != nil {
			slog.Error("failed to rewind avatar upload", "error", err)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to read avatar", requestID)
			return
		}
	}

	p, err := h.svc.UploadAvatar(r.Context(), identity.UserID, profile.Avatar{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		writeProfileError(w, err, "failed to upload avatar", requestID)
		return
	}

	response.Success(w, http.StatusOK, toProfileResponse(p), requestID)
}

func writeProfileError(w http.ResponseWriter, err error, logMsg, requestID string) {
	switch {
	case errors.Is(err, profile.ErrProfileNotFound):
		response.Err(w, http.StatusNotFound, "NOT_FOUND", "Profile not found", requestID)
	case errors.Is(err, profile.ErrNothingToUpdate):
		response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", "At least one field must be provided", requestID)
	case errors.Is(err, profile.ErrInvalidTShirtSize):
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed",
			[]validation.FieldError{{Field: "tshirtSize", Message: err.Error()}}, requestID)
	case errors.Is(err, profile.ErrInvalidRole):
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed",
			[]validation.FieldError{{Field: "role", Message: err.Error()}}, requestID)
	case errors.Is(err, profile.ErrInvalidRSVPStatus):
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed",
			[]validation.FieldError{{Field: "rsvpStatus", Message: err.Error()}}, requestID)
	case errors.Is(err, profile.ErrAvatarTooLarge):
		response.Err(w, http.StatusRequestEntityTooLarge, "AVATAR_TOO_LARGE", "Avatar must be at most 5 MiB", requestID)
	case errors.Is(err, profile.ErrAvatarType):
		response.Err(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", err.Error(), requestID)
	case errors.Is(err, profile.ErrStorageDisabled):
		response.Err(w, http.StatusServiceUnavailable, "STORAGE_DISABLED", "Avatar uploads are not available", requestID)
	default:
		slog.Error(logMsg, "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", requestID)
	}
}
