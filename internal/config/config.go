// Package config provides centralized configuration management for the
// inventory tools. It loads configuration from environment variables with
// sensible defaults and validates all settings on startup to fail fast on
// misconfiguration.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Database DatabaseConfig
	Bot      BotConfig
	Ops      OpsConfig
	Export   ExportConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// BotConfig holds Telegram bot settings.
//
// The token is resolved in two steps: TELEGRAM_BOT_TOKEN first, then the
// contents of TokenFile. Resolution happens in the bot entrypoint so the
// interactive CLI never requires a token.
type BotConfig struct {
	// Token is the Telegram bot token (optional here; the bot daemon requires it)
	Token string `env:"TELEGRAM_BOT_TOKEN"`

	// TokenFile is a fallback file containing the token (default: bot_token.txt)
	TokenFile string `env:"BOT_TOKEN_FILE" default:"bot_token.txt"`

	// Debug enables token resolution diagnostics and verbose API logging
	Debug bool `env:"BOT_DEBUG" default:"false"`

	// PollTimeout is the long-poll timeout for getUpdates (default: 30s)
	PollTimeout time.Duration `env:"BOT_POLL_TIMEOUT" default:"30s"`
}

// OpsConfig holds settings for the operational HTTP listener
// (health and metrics).
type OpsConfig struct {
	// Enabled controls whether the ops listener is started (default: true)
	Enabled bool `env:"OPS_ENABLED" default:"true"`

	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"OPS_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8081)
	Port int `env:"OPS_PORT" default:"8081"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 10s)
	ShutdownTimeout time.Duration `env:"OPS_SHUTDOWN_TIMEOUT" default:"10s"`
}

// ExportConfig holds export formatting settings.
type ExportConfig struct {
	// MaxRows is the ceiling applied to export and search limits (default: 2000)
	MaxRows int `env:"EXPORT_MAX_ROWS" default:"2000"`

	// InlineThreshold is the rendered size in bytes above which a text
	// export is demoted from an inline message to a file attachment
	// (default: 3500)
	InlineThreshold int `env:"EXPORT_INLINE_THRESHOLD" default:"3500"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.URL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if c.Database.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if c.Database.MinConns < 0 {
		errs = append(errs, "DB_MIN_CONNS must be non-negative")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
			c.Database.MaxConns, c.Database.MinConns))
	}

	if c.Ops.Port <= 0 || c.Ops.Port > 65535 {
		errs = append(errs, fmt.Sprintf("OPS_PORT (%d) must be 1-65535", c.Ops.Port))
	}
	if c.Ops.ShutdownTimeout <= 0 {
		errs = append(errs, "OPS_SHUTDOWN_TIMEOUT must be positive")
	}

	if c.Bot.PollTimeout <= 0 {
		errs = append(errs, "BOT_POLL_TIMEOUT must be positive")
	}

	if c.Export.MaxRows <= 0 {
		errs = append(errs, "EXPORT_MAX_ROWS must be positive")
	}
	if c.Export.InlineThreshold <= 0 {
		errs = append(errs, "EXPORT_INLINE_THRESHOLD must be positive")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of debug, info, warn, error", c.Logging.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
