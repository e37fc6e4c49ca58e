package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
// One value is constructed in main and passed into every component; there is
// no global configuration state.
type Config struct {
	BotToken string `envconfig:"BOT_TOKEN" required:"true"`
	DBPath   string `envconfig:"DB_PATH" default:"./data/readlater.db"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	Debug    bool   `envconfig:"DEBUG" default:"false"` // raw error text in replies

	// Reminder scheduling.
	DefaultReminderHour int           `envconfig:"DEFAULT_REMINDER_HOUR" default:"9"`
	SweepInterval       time.Duration `envconfig:"REMINDER_CHECK_INTERVAL" default:"5m"`
	MissedThreshold     time.Duration `envconfig:"MISSED_REMINDER_THRESHOLD" default:"24h"`
	SendTimeout         time.Duration `envconfig:"SEND_TIMEOUT" default:"10s"`

	// Rate limiting, per user per 60s window.
	RateLimitMessages int `envconfig:"RATE_LIMIT_MESSAGES" default:"10"`
	RateLimitLinks    int `envconfig:"RATE_LIMIT_LINKS" default:"5"`
}

// Load reads a .env file when present, then the environment.
func Load() (Config, error) {
	// Missing .env is fine; real deployments set variables directly.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
