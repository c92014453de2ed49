package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/hack4change/moncton/internal/api/middleware"
	"github.com/hack4change/moncton/internal/api/response"
	"github.com/hack4change/moncton/internal/api/validation"
	"github.com/hack4change/moncton/internal/export"
	"github.com/hack4change/moncton/internal/profile"
	"github.com/hack4change/moncton/internal/team"
)

// AdminUserService is the admin subset of profile.Service.
type AdminUserService interface {
	List(ctx context.Context, filter profile.ListFilter) (*profile.ListResult, error)
	ListAll(ctx context.Context, filter profile.ListFilter) ([]profile.Profile, error)
	Get(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
	AdminUpdate(ctx context.Context, id uuid.UUID, u profile.UpdateFields) (*profile.Profile, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AdminTeamService is the admin subset of team.Service.
type AdminTeamService interface {
	List(ctx context.Context, filter team.ListFilter) (*team.ListResult, error)
	ListAll(ctx context.Context, filter team.ListFilter) ([]team.Team, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AdminHandler handles the admin panel's listing, export and moderation
// endpoints.
type AdminHandler struct {
	users AdminUserService
	teams AdminTeamService
	clock clockwork.Clock
}

// NewAdminHandler creates a new AdminHandler. A nil clock uses the real one.
func NewAdminHandler(users AdminUserService, teams AdminTeamService, clock clockwork.Clock) *AdminHandler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &AdminHandler{users: users, teams: teams, clock: clock}
}

func userFilter(r *http.Request) (profile.ListFilter, []validation.FieldError) {
	f := profile.ListFilter{
		Params:       listParams(r),
		Roles:        csvQuery(r, "role"),
		RSVPStatuses: csvQuery(r, "rsvp"),
	}

	var errs []validation.FieldError
	for _, role := range f.Roles {
		if !profile.ValidRole(role) {
			errs = append(errs, validation.FieldError{Field: "role", Message: fmt.Sprintf("unknown role %q", role)})
		}
	}
	for _, st := range f.RSVPStatuses {
		if !profile.ValidRSVPStatus(st) {
			errs = append(errs, validation.FieldError{Field: "rsvp", Message: fmt.Sprintf("unknown rsvp status %q", st)})
		}
	}
	return f, errs
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	filter, fieldErrors := userFilter(r)
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters", fieldErrors, requestID)
		return
	}

	result, err := h.users.List(r.Context(), filter)
	if err != nil {
		slog.Error("failed to list users", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list users", requestID)
		return
	}

	items := make([]profileResponse, 0, len(result.Profiles))
	for i := range result.Profiles {
		items = append(items, toProfileResponse(&result.Profiles[i]))
	}

	response.SuccessList(w, http.StatusOK, items, result.Total, result.Page, result.Limit, requestID)
}

// ExportUsers handles GET /admin/users/export. The whole filtered set is
// exported, ignoring pagination.
func (h *AdminHandler) ExportUsers(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	filter, fieldErrors := userFilter(r)
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters", fieldErrors, requestID)
		return
	}

	profiles, err := h.users.ListAll(r.Context(), filter)
	if err != nil {
		slog.Error("failed to list users for export", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to export users", requestID)
		return
	}

	var buf bytes.Buffer
	if err := export.Users(&buf, profiles); err != nil {
		slog.Error("failed to render users workbook", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to export users", requestID)
		return
	}

	response.Attachment(w, export.ContentType, export.Filename("users", h.clock.Now()), buf.Bytes())
}

// GetUser handles GET /admin/users/{id}.
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := pathUUID(w, r, requestID)
	if !ok {
		return
	}

	p, err := h.users.Get(r.Context(), id)
	if err != nil {
		writeProfileError(w, err, "failed to get user", requestID)
		return
	}

	response.Success(w, http.StatusOK, toProfileResponse(p), requestID)
}

// UpdateUser handles PATCH /admin/users/{id}.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := pathUUID(w, r, requestID)
	if !ok {
		return
	}

	var req validation.AdminUpdateUserRequest
	if !decodeJSON(w, r, &req, requestID) {
		return
	}

	if fieldErrors := validation.ValidateAdminUpdateUserRequest(req); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	p, err := h.users.AdminUpdate(r.Context(), id, profile.UpdateFields{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		AvatarURL:  req.AvatarURL,
		Role:       req.Role,
		RSVPStatus: req.RSVPStatus,
	})
	if err != nil {
		writeProfileError(w, err, "failed to update user", requestID)
		return
	}

	response.Success(w, http.StatusOK, toProfileResponse(p), requestID)
}

// DeleteUser handles DELETE /admin/users/{id}.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := pathUUID(w, r, requestID)
	if !ok {
		return
	}

	if identity := middleware.GetIdentity(r.Context()); identity != nil && identity.UserID == id {
		response.Err(w, http.StatusConflict, "SELF_DELETE", "Admins cannot delete their own account", requestID)
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		writeProfileError(w, err, "failed to delete user", requestID)
		return
	}

	response.NoContent(w)
}

// ListTeams handles GET /admin/teams.
func (h *AdminHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	result, err := h.teams.List(r.Context(), team.ListFilter{Params: listParams(r)})
	if err != nil {
		slog.Error("failed to list teams", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list teams", requestID)
		return
	}

	items := make([]teamResponse, 0, len(result.Teams))
	for i := range result.Teams {
		items = append(items, toTeamResponse(&result.Teams[i]))
	}

	response.SuccessList(w, http.StatusOK, items, result.Total, result.Page, result.Limit, requestID)
}

// ExportTeams handles GET /admin/teams/export.
func (h *AdminHandler) ExportTeams(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	teams, err := h.teams.ListAll(r.Context(), team.ListFilter{Params: listParams(r)})
	if err != nil {
		slog.Error("failed to list teams for export", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to export teams", requestID)
		return
	}

	var buf bytes.Buffer
	if err := export.Teams(&buf, teams); err != nil {
		slog.Error("failed to render teams workbook", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to export teams", requestID)
		return
	}

	response.Attachment(w, export.ContentType, export.Filename("teams", h.clock.Now()), buf.Bytes())
}

// DeleteTeam handles DELETE /admin/teams/{id}.
func (h *AdminHandler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, ok := pathUUID(w, r, requestID)
	if !ok {
		return
	}

	if err := h.teams.Delete(r.Context(), id); err != nil {
		if errors.Is(err, team.ErrTeamNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Team not found", requestID)
			return
		}
		slog.Error("failed to delete team", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete team", requestID)
		return
	}

	response.NoContent(w)
}
