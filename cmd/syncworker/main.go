// Command syncworker consumes row-change events from NATS and mirrors the
// changed profile or team into the workspace databases.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hack4change/moncton/internal/config"
	"github.com/hack4change/moncton/internal/database"
	"github.com/hack4change/moncton/internal/events"
	"github.com/hack4change/moncton/internal/logging"
	"github.com/hack4change/moncton/internal/notion"
	"github.com/hack4change/moncton/internal/profile"
	"github.com/hack4change/moncton/internal/reconciler"
	"github.com/hack4change/moncton/internal/syncrelay"
	"github.com/hack4change/moncton/internal/team"
)

const queueGroup = "hack4change-syncworker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.LogLevel)

	if cfg.NATSURL == "" || !cfg.NotionEnabled() {
		slog.Error("syncworker requires NATS_URL and NOTION_API_KEY")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.DatabaseURL,
		database.WithMaxConns(cfg.DBMaxConns),
		database.WithApplicationName("hack4change-syncworker"),
	)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var locker syncrelay.Locker
	if cfg.RedisURL != "" {
		client, err := syncrelay.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		locker = syncrelay.NewRedisLocker(client, syncrelay.LockTTL(cfg.NotionTimeout), 100*time.Millisecond)
	}

	profiles := profile.NewService(profile.NewRepository(db.Pool()), nil, nil)
	teams := team.NewService(team.NewRepository(db.Pool()), nil)
	relay := syncrelay.NewRelay(
		notion.NewClient(cfg.NotionBaseURL, cfg.NotionAPIKey, cfg.NotionTimeout),
		profiles, teams, locker,
		syncrelay.Config{
			ProfilesDatabaseID: cfg.NotionDatabaseID,
			TeamsDatabaseID:    cfg.NotionTeamsDatabaseID,
		},
	)

	nc, err := events.Connect(cfg.NATSURL, queueGroup)
	if err != nil {
		slog.Error("failed to connect to nats", "error", err)
		os.Exit(1)
	}
	defer nc.Drain()

	sub, err := events.Subscribe(ctx, nc, queueGroup, relay.HandleChange)
	if err != nil {
		slog.Error("failed to subscribe", "error", err)
		os.Exit(1)
	}

	if cfg.NotionSyncInterval > 0 {
		go reconciler.New(relay, cfg.NotionSyncInterval, nil).Start(ctx)
	}

	slog.Info("syncworker started", "subject", events.SubjectPrefix+".>", "queue", queueGroup)
	<-ctx.Done()

	if err := sub.Unsubscribe(); err != nil {
		slog.Warn("failed to unsubscribe", "error", err)
	}
	slog.Info("syncworker stopped")
}
