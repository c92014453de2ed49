package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port        int    `envconfig:"PORT" default:"8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	Version     string `envconfig:"VERSION" default:"dev"`
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	AutoMigrate bool   `envconfig:"AUTO_MIGRATE" default:"false"`
	DBMaxConns  int32  `envconfig:"DATABASE_MAX_CONNS" default:"10"`

	AuthJWTSecret      string   `envconfig:"AUTH_JWT_SECRET" default:""`
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`

	TallyWebhookSecret string `envconfig:"TALLY_WEBHOOK_SECRET" default:""`
	EventID            string `envconfig:"EVENT_ID" default:"hack4change-2026"`
	FormURL            string `envconfig:"FORM_URL" default:""`
	RSVPGateEnabled    bool   `envconfig:"RSVP_GATE_ENABLED" default:"true"`
	RSVPDevBypass      bool   `envconfig:"RSVP_DEV_BYPASS" default:"false"`

	SyncSecret            string        `envconfig:"SYNC_SECRET" default:""`
	NotionAPIKey          string        `envconfig:"NOTION_API_KEY" default:""`
	NotionDatabaseID      string        `envconfig:"NOTION_DATABASE_ID" default:""`
	NotionTeamsDatabaseID string        `envconfig:"NOTION_TEAMS_DATABASE_ID" default:""`
	NotionBaseURL         string        `envconfig:"NOTION_BASE_URL" default:"https://api.notion.com/v1"`
	NotionTimeout         time.Duration `envconfig:"NOTION_TIMEOUT" default:"15s"`
	NotionSyncInterval    time.Duration `envconfig:"NOTION_SYNC_INTERVAL" default:"0s"`

	RedisURL string `envconfig:"REDIS_URL" default:""`
	NATSURL  string `envconfig:"NATS_URL" default:""`

	SMTPHost        string `envconfig:"SMTP_HOST" default:"smtp.resend.com"`
	SMTPPort        int    `envconfig:"SMTP_PORT" default:"465"`
	SMTPUser        string `envconfig:"SMTP_USER" default:"resend"`
	SMTPPass        string `envconfig:"SMTP_PASS" default:""`
	SMTPSenderEmail string `envconfig:"SMTP_SENDER_EMAIL" default:"noreply@hack4change.ca"`
	SMTPSenderName  string `envconfig:"SMTP_SENDER_NAME" default:"Hack4Change Moncton"`

	StorageEndpoint  string `envconfig:"STORAGE_ENDPOINT" default:""`
	StorageRegion    string `envconfig:"STORAGE_REGION" default:"us-east-1"`
	StorageAccessKey string `envconfig:"STORAGE_ACCESS_KEY" default:""`
	StorageSecretKey string `envconfig:"STORAGE_SECRET_KEY" default:""`
	StorageBucket    string `envconfig:"STORAGE_BUCKET" default:"avatars"`
	StoragePublicURL string `envconfig:"STORAGE_PUBLIC_URL" default:""`
}

// ErrDevBypassInProduction is returned when the RSVP dev bypass is enabled in production.
var ErrDevBypassInProduction = errors.New("RSVP_DEV_BYPASS must not be enabled when APP_ENV=production")

// Load reads an optional .env file and then configuration from environment
// variables into a Config struct.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not load .env file", "error", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.RSVPDevBypass && c.IsProduction() {
		return ErrDevBypassInProduction
	}
	if c.NotionSyncInterval < 0 {
		return fmt.Errorf("NOTION_SYNC_INTERVAL must not be negative, got %s", c.NotionSyncInterval)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	return nil
}

// IsProduction reports whether the service runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// NotionEnabled reports whether the workspace sync relay has an API key.
func (c *Config) NotionEnabled() bool {
	return c.NotionAPIKey != ""
}

// StorageEnabled reports whether avatar uploads are configured.
func (c *Config) StorageEnabled() bool {
	return c.StorageEndpoint != "" && c.StorageAccessKey != "" && c.StorageSecretKey != ""
}

// MailEnabled reports whether the welcome mailer has SMTP credentials.
func (c *Config) MailEnabled() bool {
	return c.SMTPPass != ""
}
