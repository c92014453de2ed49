package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hack4change/moncton/internal/api/middleware"
	"github.com/hack4change/moncton/internal/api/response"
	"github.com/hack4change/moncton/internal/api/validation"
	"github.com/hack4change/moncton/internal/profile"
	"github.com/hack4change/moncton/internal/rsvp"
)

// RSVPService is the subset of rsvp.Service used by RSVPHandler.
type RSVPService interface {
	FormURL() string
	UpdateRSVP(ctx context.Context, userID uuid.UUID, status string) error
	GetFormStatus(ctx context.Context, userID uuid.UUID) (*rsvp.FormStatus, error)
}

type rsvpResponse struct {
	Status string `json:"status"`
}

type formStatusResponse struct {
	EventID     string  `json:"eventId"`
	Completed   bool    `json:"completed"`
	CompletedAt *string `json:"completedAt"`
	FormURL     string  `json:"formUrl"`
}

type formRequiredDetails struct {
	FormURL string `json:"formUrl"`
}

// RSVPHandler handles attendance updates.
type RSVPHandler struct {
	svc RSVPService
}

// NewRSVPHandler creates a new RSVPHandler.
func NewRSVPHandler(svc RSVPService) *RSVPHandler {
	return &RSVPHandler{svc: svc}
}

// Update handles PUT /me/rsvp.
func (h *RSVPHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	var req validation.UpdateRSVPRequest
	if !decodeJSON(w, r, &req, requestID) {
		return
	}

	if fieldErrors := validation.ValidateUpdateRSVPRequest(req); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	if err := h.svc.UpdateRSVP(r.Context(), identity.UserID, req.Status); err != nil {
		switch {
		case errors.Is(err, rsvp.ErrFormRequired):
			response.ErrWithDetails(w, http.StatusConflict, "FORM_REQUIRED",
				"The registration form must be completed before confirming attendance",
				formRequiredDetails{FormURL: h.svc.FormURL()}, requestID)
		case errors.Is(err, rsvp.ErrInvalidStatus):
			response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed",
				[]validation.FieldError{{Field: "status", Message: err.Error()}}, requestID)
		case errors.Is(err, profile.ErrProfileNotFound):
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Profile not found", requestID)
		default:
			slog.Error("failed to update rsvp", "error", err, "userId", identity.UserID)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update RSVP", requestID)
		}
		return
	}

	response.Success(w, http.StatusOK, rsvpResponse{Status: req.Status}, requestID)
}

// FormStatus handles GET /me/form-status.
func (h *RSVPHandler) FormStatus(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	st, err := h.svc.GetFormStatus(r.Context(), identity.UserID)
	if err != nil {
		slog.Error("failed to get form status", "error", err, "userId", identity.UserID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get form status", requestID)
		return
	}

	resp := formStatusResponse{EventID: st.EventID, Completed: st.Completed, FormURL: st.FormURL}
	if st.CompletedAt != nil {
		s := st.CompletedAt.UTC().Format(time.RFC3339)
		resp.CompletedAt = &s
	}
	response.Success(w, http.StatusOK, resp, requestID)
}
