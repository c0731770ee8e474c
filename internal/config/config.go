package config

import (
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Sweeper  SweeperConfig  `mapstructure:"sweeper"`
	Engine   EngineConfig   `mapstructure:"engine"   validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                int    `mapstructure:"port"                  validate:"required,gt=0,lt=65536"`
	LogLevel            string `mapstructure:"log_level"             validate:"required,oneof=debug info warn error"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"  validate:"gte=1"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds" validate:"gte=1"`
}

// ReadTimeout returns the HTTP read timeout.
func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the HTTP write timeout.
func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url"            validate:"required,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// AuthConfig contains identity token settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"gte=1"`
}

// TokenLifetime returns the lifetime of tokens minted by the dev tool.
func (a AuthConfig) TokenLifetime() time.Duration {
	return time.Duration(a.TokenLifetimeMinutes) * time.Minute
}

// RedisConfig configures the optional catalog cache. An empty URL disables it.
type RedisConfig struct {
	URL               string `mapstructure:"url"                 validate:"omitempty,url"`
	CatalogTTLSeconds int    `mapstructure:"catalog_ttl_seconds" validate:"gte=1"`
}

// CatalogTTL returns how long cached catalog listings live.
func (r RedisConfig) CatalogTTL() time.Duration {
	return time.Duration(r.CatalogTTLSeconds) * time.Second
}

// SweeperConfig configures the background finalizer for abandoned sessions.
type SweeperConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	IntervalMinutes   int  `mapstructure:"interval_minutes"    validate:"gte=1"`
	StaleAfterMinutes int  `mapstructure:"stale_after_minutes" validate:"gte=1"`
	WorkerCount       int  `mapstructure:"worker_count"        validate:"gte=1,lte=64"`
	QueueSize         int  `mapstructure:"queue_size"          validate:"gte=1"`
	BatchSize         int  `mapstructure:"batch_size"          validate:"gte=1"`
}

// Interval returns the time between sweeps.
func (s SweeperConfig) Interval() time.Duration {
	return time.Duration(s.IntervalMinutes) * time.Minute
}

// StaleAfter returns how long an open session may sit idle before it is
// finalized.
func (s SweeperConfig) StaleAfter() time.Duration {
	return time.Duration(s.StaleAfterMinutes) * time.Minute
}

// EngineConfig overrides adaptive engine constants.
type EngineConfig struct {
	HistoryCap     int     `mapstructure:"history_cap"     validate:"gte=1"`
	EWMAAlpha      float64 `mapstructure:"ewma_alpha"      validate:"gt=0,lte=1"`
	StreakTimezone string  `mapstructure:"streak_timezone" validate:"required,timezone"`
	PlayPromptCap  int     `mapstructure:"play_prompt_cap" validate:"gte=1"`
}

// Location returns the time zone daily streaks are computed in.
func (e EngineConfig) Location() *time.Location {
	loc, err := time.LoadLocation(e.StreakTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
