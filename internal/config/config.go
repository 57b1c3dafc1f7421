// Package config defines the service configuration and how it is loaded.
package config

import (
	"fmt"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DataPath is the location of the persisted game document.
	DataPath string `koanf:"data_path"`

	// ChannelID is the only channel whose messages take part in the game.
	ChannelID int64 `koanf:"channel_id"`

	// BotUserID is the service's own chat identity; its messages are ignored.
	BotUserID int64 `koanf:"bot_user_id"`

	// IgnoreRepeatedUsers overrides the persisted turn-order setting when set.
	IgnoreRepeatedUsers *bool `koanf:"ignore_repeated_users"`

	// ResetBaseline is the count a mistake returns to.
	ResetBaseline int64 `koanf:"reset_baseline"`

	// QueueSize bounds the asynchronous message queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of queue workers. One keeps delivery order.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the redelivery cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// LeaderboardSize is the default number of rows shown.
	LeaderboardSize int `koanf:"leaderboard_size"`

	// PersistRetryInterval is how often unsaved state is retried.
	PersistRetryInterval time.Duration `koanf:"persist_retry_interval"`

	// WebhookURL receives reactions and replies; empty logs them instead.
	WebhookURL string `koanf:"webhook_url"`

	// AdminToken guards the admin routes when non-empty.
	AdminToken string `koanf:"admin_token"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		DataPath:             "data/count.json",
		QueueSize:            10_000,
		WorkerCount:          1,
		DedupeSize:           50_000,
		MaxLeaderboardLimit:  100,
		LeaderboardSize:      10,
		PersistRetryInterval: 5 * time.Second,
	}
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DataPath == "":
		return fmt.Errorf("%w: data_path must not be empty", ErrInvalidConfig)
	case c.ChannelID <= 0:
		return fmt.Errorf("%w: channel_id must be set", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	case c.ResetBaseline < 0:
		return fmt.Errorf("%w: reset_baseline must not be negative", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.DedupeSize <= 0:
		return fmt.Errorf("%w: dedupe_size must be positive", ErrInvalidConfig)
	case c.MaxLeaderboardLimit <= 0:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	case c.LeaderboardSize <= 0 || c.LeaderboardSize > c.MaxLeaderboardLimit:
		return fmt.Errorf("%w: leaderboard_size must be between 1 and %d", ErrInvalidConfig, c.MaxLeaderboardLimit)
	case c.PersistRetryInterval <= 0:
		return fmt.Errorf("%w: persist_retry_interval must be positive", ErrInvalidConfig)
	}
	return nil
}
