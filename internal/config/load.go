package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. EXPLORER_SERVER_PORT.
const EnvPrefix = "EXPLORER"

var defaults = map[string]any{
	"server.port":                  8080,
	"server.log_level":             "info",
	"server.read_timeout_seconds":  15,
	"server.write_timeout_seconds": 15,

	"database.url":            "",
	"database.max_open_conns": 25,
	"database.max_idle_conns": 5,

	"auth.jwt_secret":             "",
	"auth.token_lifetime_minutes": 60,

	"redis.url":                 "",
	"redis.catalog_ttl_seconds": 300,

	"sweeper.enabled":             true,
	"sweeper.interval_minutes":    5,
	"sweeper.stale_after_minutes": 60,
	"sweeper.worker_count":        2,
	"sweeper.queue_size":          100,
	"sweeper.batch_size":          100,

	"engine.history_cap":     50,
	"engine.ewma_alpha":      0.3,
	"engine.streak_timezone": "UTC",
	"engine.play_prompt_cap": 10,
}

// Load reads configuration from defaults, an optional config.yaml in the
// working directory or /etc/smart-explorer, and the environment. Environment
// variables take precedence over the file.
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/smart-explorer")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFile is Load with an explicit config file path.
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
