// Corsarr - Discord request bot for Radarr, Sonarr, and Jellyfin
// Copyright 2026 Corsarr contributors
// SPDX-License-Identifier: MIT
// https://github.com/corsarr/corsarr

// Package config loads and validates the Corsarr configuration.
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (DISCORD_TOKEN, RADARR_URL, ...)
//   - Config file (config.yaml)
//   - Built-in defaults
//
// The resulting Config value is constructed once in main() and passed
// explicitly into each component's constructor; nothing reads it from
// package-level state.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for the bot.
type Config struct {
	Discord  DiscordConfig  `koanf:"discord"`
	Radarr   ArrConfig      `koanf:"radarr"`
	Sonarr   ArrConfig      `koanf:"sonarr"`
	Jellyfin JellyfinConfig `koanf:"jellyfin"`
	Database DatabaseConfig `koanf:"database"`
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// DiscordConfig holds the Discord bot settings.
type DiscordConfig struct {
	// Token is the bot token from the Discord developer portal.
	Token string `koanf:"token" validate:"required"`

	// GuildID optionally scopes slash-command registration to a single
	// guild. Empty registers commands globally (slower to propagate).
	GuildID string `koanf:"guild_id"`
}

// ArrConfig holds the connection settings for one media manager
// (Radarr for movies, Sonarr for shows).
type ArrConfig struct {
	Enabled bool   `koanf:"enabled"`
	URL     string `koanf:"url"`
	APIKey  string `koanf:"api_key"`

	// RootFolder is the library path new content is downloaded into.
	RootFolder string `koanf:"root_folder"`

	// QualityProfileID references a quality profile defined on the
	// remote service.
	QualityProfileID int `koanf:"quality_profile_id"`

	// Timeout bounds every API call to the service.
	Timeout time.Duration `koanf:"timeout"`
}

// JellyfinConfig holds the media server settings for temporary accounts.
type JellyfinConfig struct {
	Enabled bool   `koanf:"enabled"`
	URL     string `koanf:"url"`
	APIKey  string `koanf:"api_key"`

	// AccountLifetime is how long a provisioned account lives before the
	// sweeper deletes it.
	AccountLifetime time.Duration `koanf:"account_lifetime"`

	// SweepInterval is the period of the expiry sweep.
	SweepInterval time.Duration `koanf:"sweep_interval"`

	// Timeout bounds every API call to the server.
	Timeout time.Duration `koanf:"timeout"`
}

// DatabaseConfig holds the embedded database settings.
type DatabaseConfig struct {
	// Path is the database file location. The parent directory is
	// created if missing.
	Path string `koanf:"path" validate:"required"`
}

// ServerConfig holds the ops HTTP endpoint settings (health + metrics).
type ServerConfig struct {
	Enabled bool          `koanf:"enabled"`
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port" validate:"gte=0,lte=65535"`
	Timeout time.Duration `koanf:"timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for structural and cross-field
// consistency. It is called by Load; call it directly when building
// fixture configurations in tests.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if !c.Radarr.Enabled && !c.Sonarr.Enabled && !c.Jellyfin.Enabled {
		return fmt.Errorf("no services enabled: enable at least one of radarr, sonarr, jellyfin")
	}

	if err := c.validateArr("radarr", &c.Radarr); err != nil {
		return err
	}
	if err := c.validateArr("sonarr", &c.Sonarr); err != nil {
		return err
	}

	if c.Jellyfin.Enabled {
		if c.Jellyfin.URL == "" || c.Jellyfin.APIKey == "" {
			return fmt.Errorf("jellyfin enabled but url or api_key missing")
		}
		if c.Jellyfin.AccountLifetime <= 0 {
			return fmt.Errorf("jellyfin.account_lifetime must be positive, got %s", c.Jellyfin.AccountLifetime)
		}
		if c.Jellyfin.SweepInterval <= 0 {
			return fmt.Errorf("jellyfin.sweep_interval must be positive, got %s", c.Jellyfin.SweepInterval)
		}
	}

	return nil
}

func (c *Config) validateArr(name string, arr *ArrConfig) error {
	if !arr.Enabled {
		return nil
	}
	if arr.URL == "" || arr.APIKey == "" {
		return fmt.Errorf("%s enabled but url or api_key missing", name)
	}
	if arr.RootFolder == "" {
		return fmt.Errorf("%s enabled but root_folder missing", name)
	}
	if arr.QualityProfileID <= 0 {
		return fmt.Errorf("%s.quality_profile_id must be positive, got %d", name, arr.QualityProfileID)
	}
	return nil
}
