package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/hack4change/moncton/internal/api/handler"
	"github.com/hack4change/moncton/internal/api/middleware"
)

// RouterDeps holds all dependencies needed by the router. Nil services leave
// their routes unregistered.
type RouterDeps struct {
	DBPinger    handler.DBPinger
	Version     string
	OpenAPISpec []byte

	CORSAllowedOrigins []string

	Authenticator middleware.Authenticator
	Profiles      handler.ProfileService
	RSVP          handler.RSVPService
	Teams         handler.TeamService
	AdminUsers    handler.AdminUserService
	AdminTeams    handler.AdminTeamService

	FormWebhookSecret string
	Submissions       handler.SubmissionRecorder
	Mailer            handler.WelcomeMailer
	SyncSecret        string
	Relay             handler.SyncRelay
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: deps.CORSAllowedOrigins,
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
	}).Handler)

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	if len(deps.OpenAPISpec) > 0 {
		openapiHandler := handler.NewOpenAPIHandler(deps.OpenAPISpec)
		r.Get("/openapi.json", openapiHandler.ServeHTTP)
	}

	if deps.Submissions != nil {
		r.Post("/webhooks/tally", handler.NewFormWebhookHandler(deps.FormWebhookSecret, deps.Submissions).ServeHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerSecret(deps.SyncSecret))
		r.Post("/webhooks/auth", handler.NewAuthWebhookHandler(deps.Mailer).ServeHTTP)
		if deps.Relay != nil {
			r.Post("/sync/notion", handler.NewSyncHandler(deps.Relay).ServeHTTP)
		}
	})

	if deps.Authenticator == nil {
		return r
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(deps.Authenticator))

		if deps.Profiles != nil {
			profileHandler := handler.NewProfileHandler(deps.Profiles)
			r.Get("/me", profileHandler.Get)
			r.Patch("/me", profileHandler.Update)
			r.Post("/me/avatar", profileHandler.UploadAvatar)
		}

		if deps.RSVP != nil {
			rsvpHandler := handler.NewRSVPHandler(deps.RSVP)
			r.Put("/me/rsvp", rsvpHandler.Update)
			r.Get("/me/form-status", rsvpHandler.FormStatus)
		}

		if deps.Teams != nil {
			teamHandler := handler.NewTeamHandler(deps.Teams)
			r.Get("/me/team", teamHandler.Mine)
			r.Delete("/me/team", teamHandler.Leave)
			r.Route("/teams", func(r chi.Router) {
				r.Get("/", teamHandler.Search)
				r.Post("/", teamHandler.Create)
				r.Post("/{id}/join", teamHandler.Join)
			})
		}

		if deps.AdminUsers != nil && deps.AdminTeams != nil {
			adminHandler := handler.NewAdminHandler(deps.AdminUsers, deps.AdminTeams, nil)
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin())
				r.Get("/users", adminHandler.ListUsers)
				r.Get("/users/export", adminHandler.ExportUsers)
				r.Get("/users/{id}", adminHandler.GetUser)
				r.Patch("/users/{id}", adminHandler.UpdateUser)
				r.Delete("/users/{id}", adminHandler.DeleteUser)
				r.Get("/teams", adminHandler.ListTeams)
				r.Get("/teams/export", adminHandler.ExportTeams)
				r.Delete("/teams/{id}", adminHandler.DeleteTeam)
			})
		}
	})

	return r
}
