package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/hack4change/moncton/internal/api/middleware"
	"github.com/hack4change/moncton/internal/api/response"
	"github.com/hack4change/moncton/internal/api/validation"
	"github.com/hack4change/moncton/internal/team"
)

// TeamService is the participant-facing subset of team.Service.
type TeamService interface {
	GetUserTeam(ctx context.Context, userID uuid.UUID) (*team.TeamWithMembers, error)
	SearchTeams(ctx context.Context, query string) ([]team.Team, error)
	CreateTeam(ctx context.Context, userID uuid.UUID, name string, description *string) (*team.Team, error)
	JoinTeam(ctx context.Context, userID, teamID uuid.UUID) (*team.Member, error)
	LeaveTeam(ctx context.Context, userID uuid.UUID) error
}

type teamResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	MaxMembers  int     `json:"maxMembers"`
	MemberCount int     `json:"memberCount"`
	CreatorName string  `json:"creatorName"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

func toTeamResponse(t *team.Team) teamResponse {
	return teamResponse{
		ID:          t.ID.String(),
		Name:        t.Name,
		Description: t.Description,
		MaxMembers:  t.MaxMembers,
		MemberCount: t.MemberCount,
		CreatorName: t.CreatorName(),
		CreatedAt:   formatTime(t.CreatedAt),
		UpdatedAt:   formatTime(t.UpdatedAt),
	}
}

type memberResponse struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	JoinedAt string `json:"joinedAt"`
}

func toMemberResponse(m *team.Member) memberResponse {
	return memberResponse{
		UserID:   m.UserID.String(),
		Name:     m.DisplayName(),
		Email:    m.Email,
		Role:     m.Role,
		JoinedAt: formatTime(m.JoinedAt),
	}
}

type myTeamResponse struct {
	teamResponse
	Members  []memberResponse `json:"members"`
	UserRole string           `json:"userRole"`
}

type createTeamRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// TeamHandler handles team membership endpoints.
type TeamHandler struct {
	svc TeamService
}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler(svc TeamService) *TeamHandler {
	return &TeamHandler{svc: svc}
}

// Mine handles GET /me/team. A caller without a team gets null data.
func (h *TeamHandler) Mine(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	t, err := h.svc.GetUserTeam(r.Context(), identity.UserID)
	if err != nil {
		slog.Error("failed to get user team", "error", err, "userId", identity.UserID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get team", requestID)
		return
	}
	if t == nil {
		response.Success(w, http.StatusOK, nil, requestID)
		return
	}

	members := make([]memberResponse, 0, len(t.Members))
	for i := range t.Members {
		members = append(members, toMemberResponse(&t.Members[i]))
	}

	response.Success(w, http.StatusOK, myTeamResponse{
		teamResponse: toTeamResponse(&t.Team),
		Members:      members,
		UserRole:     t.UserRole,
	}, requestID)
}

// Leave handles DELETE /me/team.
func (h *TeamHandler) Leave(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	if err := h.svc.LeaveTeam(r.Context(), identity.UserID); err != nil {
		slog.Error("failed to leave team", "error", err, "userId", identity.UserID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to leave team", requestID)
		return
	}

	response.NoContent(w)
}

// Search handles GET /teams?q=.
func (h *TeamHandler) Search(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	teams, err := h.svc.SearchTeams(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		slog.Error("failed to search teams", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to search teams", requestID)
		return
	}

	items := make([]teamResponse, 0, len(teams))
	for i := range teams {
		items = append(items, toTeamResponse(&teams[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), 1, team.SearchLimit, requestID)
}

// Create handles POST /teams.
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	var req createTeamRequest
	if !decodeJSON(w, r, &req, requestID) {
		return
	}

	fieldErrors := validation.ValidateCreateTeamRequest(validation.CreateTeamRequest{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	t, err := h.svc.CreateTeam(r.Context(), identity.UserID, req.Name, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, team.ErrAlreadyInTeam):
			response.Err(w, http.StatusConflict, "ALREADY_IN_TEAM", "You already belong to a team", requestID)
		case errors.Is(err, team.ErrInvalidName):
			response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed",
				[]validation.FieldError{{Field: "name", Message: err.Error()}}, requestID)
		case errors.Is(err, team.ErrInvalidDescription):
			response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed",
				[]validation.FieldError{{Field: "description", Message: err.Error()}}, requestID)
		default:
			slog.Error("failed to create team", "error", err, "userId", identity.UserID)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create team", requestID)
		}
		return
	}

	response.Success(w, http.StatusCreated, toTeamResponse(t), requestID)
}

// Join handles POST /teams/{id}/join.
func (h *TeamHandler) Join(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity := middleware.GetIdentity(r.Context())

	teamID, ok := pathUUID(w, r, requestID)
	if !ok {
		return
	}

	m, err := h.svc.JoinTeam(r.Context(), identity.UserID, teamID)
	if err != nil {
		switch {
		case errors.Is(err, team.ErrTeamNotFound):
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Team not found", requestID)
		case errors.Is(err, team.ErrAlreadyInTeam):
			response.Err(w, http.StatusConflict, "ALREADY_IN_TEAM", "You already belong to a team", requestID)
		case errors.Is(err, team.ErrTeamFull):
			response.Err(w, http.StatusConflict, "TEAM_FULL", "This team is full", requestID)
		default:
			slog.Error("failed to join team", "error", err, "teamId", teamID, "userId", identity.UserID)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to join team", requestID)
		}
		return
	}

	response.Success(w, http.StatusCreated, toMemberResponse(m), requestID)
}
