// Corsarr - Discord request bot for Radarr, Sonarr, and Jellyfin
// Copyright 2026 Corsarr contributors
// SPDX-License-Identifier: MIT
// https://github.com/corsarr/corsarr

package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Discord.Token = "bot-token"
	cfg.Radarr = ArrConfig{
		Enabled:          true,
		URL:              "http://radarr:7878",
		APIKey:           "key",
		RootFolder:       "/movies",
		QualityProfileID: 4,
		Timeout:          30 * time.Second,
	}
	return cfg
}

func TestValidate(t *testing.T) {
	t.Run("valid config passes", func(t *testing.T) {
		if err := validConfig().Validate(); err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
	})

	t.Run("missing discord token fails", func(t *testing.T) {
		cfg := validConfig()
		cfg.Discord.Token = ""
		if err := cfg.Validate(); err == nil {
			t.Fatal("Validate() error = nil, want token error")
		}
	})

	t.Run("no enabled services fails", func(t *testing.T) {
		cfg := validConfig()
		cfg.Radarr.Enabled = false
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "no services enabled") {
			t.Fatalf("Validate() error = %v, want no-services error", err)
		}
	})

	t.Run("enabled arr without quality profile fails", func(t *testing.T) {
		cfg := validConfig()
		cfg.Radarr.QualityProfileID = 0
		if err := cfg.Validate(); err == nil {
			t.Fatal("Validate() error = nil, want quality profile error")
		}
	})

	t.Run("enabled arr without root folder fails", func(t *testing.T) {
		cfg := validConfig()
		cfg.Radarr.RootFolder = ""
		if err := cfg.Validate(); err == nil {
			t.Fatal("Validate() error = nil, want root folder error")
		}
	})

	t.Run("enabled jellyfin needs positive lifetime", func(t *testing.T) {
		cfg := validConfig()
		cfg.Jellyfin = JellyfinConfig{
			Enabled:       true,
			URL:           "http://jellyfin:8096",
			APIKey:        "key",
			SweepInterval: time.Minute,
		}
		if err := cfg.Validate(); err == nil {
			t.Fatal("Validate() error = nil, want lifetime error")
		}
		cfg.Jellyfin.AccountLifetime = 24 * time.Hour
		if err := cfg.Validate(); err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
	})

	t.Run("bad log level fails", func(t *testing.T) {
		cfg := validConfig()
		cfg.Logging.Level = "verbose"
		if err := cfg.Validate(); err == nil {
			t.Fatal("Validate() error = nil, want log level error")
		}
	})
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"DISCORD_TOKEN", "discord.token"},
		{"RADARR_QUALITY_PROFILE_ID", "radarr.quality_profile_id"},
		{"JELLYFIN_ACCOUNT_LIFETIME", "jellyfin.account_lifetime"},
		{"LOG_LEVEL", "logging.level"},
		{"PATH", ""},
		{"HOME", ""},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			if got := envTransformFunc(tt.env); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "env-token")
	t.Setenv("SONARR_ENABLED", "true")
	t.Setenv("SONARR_URL", "http://sonarr:8989")
	t.Setenv("SONARR_API_KEY", "sonarr-key")
	t.Setenv("SONARR_ROOT_FOLDER", "/tv")
	t.Setenv("SONARR_QUALITY_PROFILE_ID", "6")
	t.Setenv(ConfigPathEnvVar, "/nonexistent/config.yaml")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Discord.Token != "env-token" {
		t.Errorf("token = %q", cfg.Discord.Token)
	}
	if !cfg.Sonarr.Enabled || cfg.Sonarr.QualityProfileID != 6 {
		t.Errorf("sonarr = %+v", cfg.Sonarr)
	}
	// Untouched sections keep their defaults.
	if cfg.Server.Port != 9310 {
		t.Errorf("server port = %d, want default", cfg.Server.Port)
	}
	if cfg.Jellyfin.AccountLifetime != 24*time.Hour {
		t.Errorf("account lifetime = %s, want default", cfg.Jellyfin.AccountLifetime)
	}
}
