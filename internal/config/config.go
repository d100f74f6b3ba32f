package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all process configuration, populated from environment
// variables (optionally via a .env file).
type Config struct {
	TelegramToken string `env:"TELEGRAM_BOT_TOKEN"`

	// DataDir holds the ledger snapshot, the per-user event logs and
	// the sqlite user directory.
	DataDir      string `env:"DATA_DIR" envDefault:"data"`
	SnapshotName string `env:"SNAPSHOT_NAME" envDefault:"progress_data.json"`

	// Modules overrides the built-in course catalog.
	Modules []string `env:"COURSE_MODULES" envSeparator:","`

	// SaveInterval is how often the background job persists the ledger
	// and pushes it to the remote mirror.
	SaveInterval time.Duration `env:"SAVE_INTERVAL" envDefault:"10m"`

	// Dropbox mirror credentials. The mirror is disabled when the app
	// key is empty.
	DropboxAppKey       string `env:"DROPBOX_APP_KEY"`
	DropboxAppSecret    string `env:"DROPBOX_APP_SECRET"`
	DropboxRefreshToken string `env:"DROPBOX_REFRESH_TOKEN"`
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	// Missing .env is fine, real deployments set variables directly.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if cfg.SaveInterval <= 0 {
		return nil, fmt.Errorf("SAVE_INTERVAL must be positive, got %s", cfg.SaveInterval)
	}
	return &cfg, nil
}

// MirrorEnabled reports whether remote mirror credentials are set.
func (c *Config) MirrorEnabled() bool {
	return c.DropboxAppKey != "" && c.DropboxAppSecret != "" && c.DropboxRefreshToken != ""
}
