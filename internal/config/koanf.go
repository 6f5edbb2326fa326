// Corsarr - Discord request bot for Radarr, Sonarr, and Jellyfin
// Copyright 2026 Corsarr contributors
// SPDX-License-Identifier: MIT
// https://github.com/corsarr/corsarr

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/corsarr/config.yaml",
	"/etc/corsarr/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all defaults applied. Defaults are
// loaded first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Discord: DiscordConfig{
			Token:   "",
			GuildID: "",
		},
		Radarr: ArrConfig{
			Enabled:          false,
			URL:              "",
			APIKey:           "",
			RootFolder:       "",
			QualityProfileID: 0,
			Timeout:          30 * time.Second,
		},
		Sonarr: ArrConfig{
			Enabled:          false,
			URL:              "",
			APIKey:           "",
			RootFolder:       "",
			QualityProfileID: 0,
			Timeout:          30 * time.Second,
		},
		Jellyfin: JellyfinConfig{
			Enabled:         false,
			URL:             "",
			APIKey:          "",
			AccountLifetime: 24 * time.Hour,
			SweepInterval:   time.Minute,
			Timeout:         30 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "/data/corsarr.duckdb",
		},
		Server: ServerConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    9310,
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file (if one exists)
//  3. Environment variables: override any setting
//
// The returned Config has already passed Validate.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// DISCORD_TOKEN -> discord.token, RADARR_QUALITY_PROFILE_ID -> radarr.quality_profile_id
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envTransformFunc maps environment variable names to koanf config paths.
// Only recognized variables are mapped; everything else is ignored so
// unrelated environment noise never lands in the config tree.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		"discord_token":    "discord.token",
		"discord_guild_id": "discord.guild_id",

		"radarr_enabled":            "radarr.enabled",
		"radarr_url":                "radarr.url",
		"radarr_api_key":            "radarr.api_key",
		"radarr_root_folder":        "radarr.root_folder",
		"radarr_quality_profile_id": "radarr.quality_profile_id",
		"radarr_timeout":            "radarr.timeout",

		"sonarr_enabled":            "sonarr.enabled",
		"sonarr_url":                "sonarr.url",
		"sonarr_api_key":            "sonarr.api_key",
		"sonarr_root_folder":        "sonarr.root_folder",
		"sonarr_quality_profile_id": "sonarr.quality_profile_id",
		"sonarr_timeout":            "sonarr.timeout",

		"jellyfin_enabled":          "jellyfin.enabled",
		"jellyfin_url":              "jellyfin.url",
		"jellyfin_api_key":          "jellyfin.api_key",
		"jellyfin_account_lifetime": "jellyfin.account_lifetime",
		"jellyfin_sweep_interval":   "jellyfin.sweep_interval",
		"jellyfin_timeout":          "jellyfin.timeout",

		"database_path": "database.path",

		"server_enabled": "server.enabled",
		"server_host":    "server.host",
		"server_port":    "server.port",
		"server_timeout": "server.timeout",

		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
