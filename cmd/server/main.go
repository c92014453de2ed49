package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"

	specpkg "github.com/hack4change/moncton/api"
	"github.com/hack4change/moncton/internal/api"
	"github.com/hack4change/moncton/internal/api/handler"
	"github.com/hack4change/moncton/internal/auth"
	"github.com/hack4change/moncton/internal/config"
	"github.com/hack4change/moncton/internal/database"
	"github.com/hack4change/moncton/internal/events"
	"github.com/hack4change/moncton/internal/logging"
	"github.com/hack4change/moncton/internal/mail"
	"github.com/hack4change/moncton/internal/notion"
	"github.com/hack4change/moncton/internal/profile"
	"github.com/hack4change/moncton/internal/rsvp"
	"github.com/hack4change/moncton/internal/storage"
	"github.com/hack4change/moncton/internal/submission"
	"github.com/hack4change/moncton/internal/syncrelay"
	"github.com/hack4change/moncton/internal/team"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.LogLevel)

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL,
		database.WithMaxConns(cfg.DBMaxConns),
		database.WithApplicationName("hack4change-server"),
	)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			slog.Error("failed to apply schema", "error", err)
			os.Exit(1)
		}
	}

	publisher, nc := initPublisher(cfg)
	if nc != nil {
		defer nc.Drain()
	}

	deps, err := buildDeps(ctx, cfg, db, publisher)
	if err != nil {
		slog.Error("failed to initialize services", "error", err)
		os.Exit(1)
	}

	router := api.NewRouter(deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting hack4change server", "port", cfg.Port, "version", cfg.Version, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

// initPublisher connects to NATS when configured. Change events are dropped
// otherwise.
func initPublisher(cfg *config.Config) (events.Publisher, *nats.Conn) {
	if cfg.NATSURL == "" {
		return events.NopPublisher{}, nil
	}
	nc, err := events.Connect(cfg.NATSURL, "hack4change-server")
	if err != nil {
		slog.Warn("nats unavailable; change events disabled", "error", err)
		return events.NopPublisher{}, nil
	}
	return events.NewNATSPublisher(nc), nc
}

func buildDeps(ctx context.Context, cfg *config.Config, db *database.DB, publisher events.Publisher) (api.RouterDeps, error) {
	clock := clockwork.NewRealClock()
	pool := db.Pool()

	profileRepo := profile.NewRepository(pool)
	teamRepo := team.NewRepository(pool)
	submissionRepo := submission.NewRepository(pool, clock)

	var store storage.Store
	if cfg.StorageEnabled() {
		client, err := storage.NewS3Client(ctx, storage.S3Config{
			Endpoint:  cfg.StorageEndpoint,
			Region:    cfg.StorageRegion,
			AccessKey: cfg.StorageAccessKey,
			SecretKey: cfg.StorageSecretKey,
		})
		if err != nil {
			return api.RouterDeps{}, fmt.Errorf("creating storage client: %w", err)
		}
		store = storage.NewS3Store(client, cfg.StorageBucket, cfg.StoragePublicURL)
	} else {
		slog.Warn("storage is not configured; avatar uploads disabled")
	}

	profileSvc := profile.NewService(profileRepo, store, publisher)
	teamSvc := team.NewService(teamRepo, publisher)

	gate, err := rsvp.NewGate(rsvp.GateConfig{
		Enabled:    cfg.RSVPGateEnabled,
		DevBypass:  cfg.RSVPDevBypass,
		Production: cfg.IsProduction(),
		EventID:    cfg.EventID,
	}, submissionRepo)
	if err != nil {
		return api.RouterDeps{}, fmt.Errorf("creating rsvp gate: %w", err)
	}
	rsvpSvc := rsvp.NewService(profileRepo, submissionRepo, gate, cfg.EventID, cfg.FormURL, publisher)

	var authenticator *auth.Service
	if cfg.AuthJWTSecret != "" {
		authenticator = auth.NewService(auth.NewVerifier(cfg.AuthJWTSecret, clock), profileRepo)
	} else {
		slog.Warn("AUTH_JWT_SECRET is not set; authenticated routes disabled")
	}

	var mailer handler.WelcomeMailer
	if cfg.MailEnabled() {
		mailer = mail.NewMailer(mail.Config{
			Host:        cfg.SMTPHost,
			Port:        cfg.SMTPPort,
			Username:    cfg.SMTPUser,
			Password:    cfg.SMTPPass,
			SenderEmail: cfg.SMTPSenderEmail,
			SenderName:  cfg.SMTPSenderName,
		})
	}

	relay, err := buildRelay(ctx, cfg, profileSvc, teamSvc)
	if err != nil {
		return api.RouterDeps{}, err
	}

	deps := api.RouterDeps{
		DBPinger:           db,
		Version:            cfg.Version,
		OpenAPISpec:        specpkg.OpenAPISpec,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Profiles:           profileSvc,
		RSVP:               rsvpSvc,
		Teams:              teamSvc,
		AdminUsers:         profileSvc,
		AdminTeams:         teamSvc,
		FormWebhookSecret:  cfg.TallyWebhookSecret,
		Submissions:        submissionRepo,
		Mailer:             mailer,
		SyncSecret:         cfg.SyncSecret,
		Relay:              relay,
	}
	if authenticator != nil {
		deps.Authenticator = authenticator
	}
	return deps, nil
}

// buildRelay wires the workspace relay. Without an API key the relay is
// still registered and reports a configuration error.
func buildRelay(ctx context.Context, cfg *config.Config, profiles syncrelay.ProfileSource, teams syncrelay.TeamSource) (*syncrelay.Relay, error) {
	var workspace syncrelay.Workspace
	if cfg.NotionEnabled() {
		workspace = notion.NewClient(cfg.NotionBaseURL, cfg.NotionAPIKey, cfg.NotionTimeout)
	}

	var locker syncrelay.Locker
	if cfg.RedisURL != "" {
		client, err := syncrelay.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		locker = syncrelay.NewRedisLocker(client, syncrelay.LockTTL(cfg.NotionTimeout), 100*time.Millisecond)
	}

	return syncrelay.NewRelay(workspace, profiles, teams, locker, syncrelay.Config{
		ProfilesDatabaseID: cfg.NotionDatabaseID,
		TeamsDatabaseID:    cfg.NotionTeamsDatabaseID,
	}), nil
}
