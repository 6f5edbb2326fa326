// Corsarr - Discord request bot for Radarr, Sonarr, and Jellyfin
// Copyright 2026 Corsarr contributors
// SPDX-License-Identifier: MIT
// https://github.com/corsarr/corsarr

// Command corsarr runs the Discord request bot: slash commands for
// requesting movies and shows through Radarr and Sonarr, plus temporary
// auto-expiring Jellyfin accounts.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/corsarr/corsarr/internal/account"
	"github.com/corsarr/corsarr/internal/api"
	"github.com/corsarr/corsarr/internal/arr"
	"github.com/corsarr/corsarr/internal/bot"
	"github.com/corsarr/corsarr/internal/config"
	"github.com/corsarr/corsarr/internal/jellyfin"
	"github.com/corsarr/corsarr/internal/logging"
	"github.com/corsarr/corsarr/internal/request"
	"github.com/corsarr/corsarr/internal/store"
	"github.com/corsarr/corsarr/internal/supervisor"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("Corsarr exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Bool("radarr", cfg.Radarr.Enabled).
		Bool("sonarr", cfg.Sonarr.Enabled).
		Bool("jellyfin", cfg.Jellyfin.Enabled).
		Msg("Starting Corsarr")

	st, err := store.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close store")
		}
	}()

	var radarr, sonarr arr.API
	if cfg.Radarr.Enabled {
		radarr = arr.NewCircuitBreakerClient(arr.NewClient(arr.ServiceRadarr, &cfg.Radarr))
	}
	if cfg.Sonarr.Enabled {
		sonarr = arr.NewCircuitBreakerClient(arr.NewClient(arr.ServiceSonarr, &cfg.Sonarr))
	}

	tracker := request.NewTracker(st)
	reconciler := request.NewReconciler(st, radarr, sonarr)

	var provisioner *account.Provisioner
	var sweeper *account.Sweeper
	if cfg.Jellyfin.Enabled {
		jf := jellyfin.NewClient(&cfg.Jellyfin)
		provisioner = account.NewProvisioner(jf, st, cfg.Jellyfin.AccountLifetime)
		sweeper = account.NewSweeper(jf, st, cfg.Jellyfin.SweepInterval)
	}

	discord, err := bot.New(cfg, provisioner, tracker, reconciler, radarr, sonarr)
	if err != nil {
		return err
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if sweeper != nil {
		tree.AddBackgroundService(sweeper)
	}
	tree.AddFrontendService(discord)
	if cfg.Server.Enabled {
		tree.AddFrontendService(api.NewServer(&cfg.Server, st))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = tree.Serve(ctx)
	if errors.Is(err, context.Canceled) {
		logging.Info().Msg("Shutdown complete")
		return nil
	}
	return err
}
