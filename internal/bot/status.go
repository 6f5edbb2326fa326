// Corsarr - Discord request bot for Radarr, Sonarr, and Jellyfin
// Copyright 2026 Corsarr contributors
// SPDX-License-Identifier: MIT
// https://github.com/corsarr/corsarr

package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/corsarr/corsarr/internal/logging"
	"github.com/corsarr/corsarr/internal/request"
)

// handleStatus renders the user's reconciled request report as one
// embed.
func (b *Bot) handleStatus(ctx context.Context, i *discordgo.InteractionCreate) {
	userID, err := interactionUserID(i)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to identify user for status")
		return
	}

	report, err := b.reconciler.Reconcile(ctx, userID)
	if err != nil {
		logging.Error().Err(err).Int64("user", userID).Msg("Status reconciliation failed")
		b.respondEmbed(i, errorEmbed("Status Unavailable",
			"Could not fetch your download status. Please try again later."))
		return
	}

	if len(report.Entries) == 0 {
		b.respondEmbed(i, errorEmbed("No Content Requested",
			"You have no requests in flight. Use `/request` to add something."))
		return
	}

	var sb strings.Builder
	for _, e := range report.Entries {
		fmt.Fprintf(&sb, "**%s (%d)** - %s\n", e.Title, e.Year, renderEntry(e))
	}

	b.respondEmbed(i, &discordgo.MessageEmbed{
		Title:       "Download Status",
		Description: sb.String(),
		Color:       embedColor,
	})
}

// renderEntry formats one reconciled entry's status column.
func renderEntry(e request.Entry) string {
	switch e.Status {
	case request.StatusDownloading:
		return fmt.Sprintf("Time Left: `%s`", e.TimeLeft)
	default:
		if e.EpisodePercent > 0 {
			return fmt.Sprintf("`NOT FOUND (%d%% of eps. downloaded)`", e.EpisodePercent)
		}
		return "`NOT FOUND`"
	}
}
