// Package config loads routesync settings from defaults, an optional TOML
// file and ROUTESYNC_ environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g.
// ROUTESYNC_ROUTING_STATE_KEY.
const EnvPrefix = "ROUTESYNC"

// Config holds application configuration.
type Config struct {
	Routing RoutingConfig `mapstructure:"routing"`
	Journal JournalConfig `mapstructure:"journal"`
	Log     LogConfig     `mapstructure:"log"`
}

// RoutingConfig holds sync engine settings.
type RoutingConfig struct {
	StateKey          string `mapstructure:"state_key"`
	AdjustURLOnReplay bool   `mapstructure:"adjust_url_on_replay"`
}

// JournalConfig holds action journal settings.
type JournalConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig holds logging settings. When File is set, logs go to that
// file, rotated once it reaches MaxSizeMB, instead of stderr.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// Load reads configuration. path names a TOML file and must exist when
// set; otherwise $ROUTESYNC_CONFIG is used, then
// ~/.config/routesync/config.toml if present.
func Load(path string) (Config, error) {
	v := viper.New()

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	v.SetDefault("routing.state_key", "routing")
	v.SetDefault("routing.adjust_url_on_replay", true)
	v.SetDefault("journal.path", filepath.Join(home, ".local", "share", "routesync", "journal.db"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)

	v.SetConfigType("toml")

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvPrefix + "_CONFIG")
		explicit = path != ""
	}
	if explicit {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(filepath.Join(home, ".config", "routesync"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks values Load cannot type-check.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Routing.StateKey) == "" {
		return fmt.Errorf("config: routing.state_key must not be empty")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.File != "" && c.Log.MaxSizeMB <= 0 {
		return fmt.Errorf("config: log.max_size_mb must be positive, got %d", c.Log.MaxSizeMB)
	}
	if c.Log.MaxBackups < 0 {
		return fmt.Errorf("config: log.max_backups must not be negative, got %d", c.Log.MaxBackups)
	}
	return nil
}

// SlogLevel returns the configured log level. Invalid levels were rejected
// by Load, so this falls back to Info only for hand-built configs.
func (c Config) SlogLevel() slog.Level {
	level, err := ParseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: log.level %q: %w", s, err)
	}
	return level, nil
}
