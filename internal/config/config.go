// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on.
	Port string `env:"PORT" envDefault:"8080"`

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// LogLevel controls the minimum log level.
	// Valid values: debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"http://localhost:5173"`

	// AppMode is "dev" or "prod". Production locks payment terms close to
	// their deadline.
	AppMode string `env:"APP_MODE" envDefault:"dev"`

	// JWTSecret verifies the HS256 access tokens issued by the identity service. Required.
	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`

	// TelegramBotToken enables the Telegram notification channel when set.
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`

	// SchedulerInterval is how often reminders and deadline enforcement run.
	SchedulerInterval time.Duration `env:"SCHEDULER_INTERVAL" envDefault:"60s"`

	// NotificationBuffer is the capacity of the in-memory notification queue.
	NotificationBuffer int `env:"NOTIFICATION_BUFFER" envDefault:"256"`

	// MigrateOnStart applies pending migrations before serving.
	MigrateOnStart bool `env:"MIGRATE_ON_START" envDefault:"true"`

	// MaxBodyBytes caps request body size.
	MaxBodyBytes int64 `env:"MAX_BODY_BYTES" envDefault:"1048576"`
}

// IsProd reports whether the server runs in production mode.
func (c Config) IsProd() bool {
	return c.AppMode == "prod"
}

// Load reads configuration from the environment, after loading a .env file
// from the working directory if one exists. Variables already set in the
// environment take precedence over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.AppMode = strings.TrimSpace(cfg.AppMode)
	cfg.CORSOrigins = splitCSV(strings.Join(cfg.CORSOrigins, ","))

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.AppMode != "dev" && c.AppMode != "prod" {
		return fmt.Errorf("invalid APP_MODE %q: must be dev or prod", c.AppMode)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel)
	}
	if c.SchedulerInterval < time.Second {
		return fmt.Errorf("SCHEDULER_INTERVAL must be at least 1s, got %s", c.SchedulerInterval)
	}
	// cron schedules whole seconds; the interval doubles as the reminder band.
	if c.SchedulerInterval%time.Second != 0 {
		return fmt.Errorf("SCHEDULER_INTERVAL must be a whole number of seconds, got %s", c.SchedulerInterval)
	}
	if c.NotificationBuffer < 1 {
		return fmt.Errorf("NOTIFICATION_BUFFER must be positive, got %d", c.NotificationBuffer)
	}
	if c.MaxBodyBytes < 1 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes)
	}
	return nil
}

// splitCSV trims each entry and drops empty ones.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
