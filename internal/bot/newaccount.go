// Corsarr - Discord request bot for Radarr, Sonarr, and Jellyfin
// Copyright 2026 Corsarr contributors
// SPDX-License-Identifier: MIT
// https://github.com/corsarr/corsarr

package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/corsarr/corsarr/internal/account"
	"github.com/corsarr/corsarr/internal/logging"
)

// handleNewAccount provisions a temporary Jellyfin account and sends the
// credentials by DM, with an ephemeral channel acknowledgement.
func (b *Bot) handleNewAccount(ctx context.Context, i *discordgo.InteractionCreate) {
	userID, err := interactionUserID(i)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to identify user for account creation")
		return
	}

	creds, err := b.provisioner.Provision(ctx, userID)
	if errors.Is(err, account.ErrAlreadyExists) {
		b.respondEmbed(i, errorEmbed("Account Exists",
			"You already have an active temporary account. Wait for it to expire before requesting another."))
		return
	}
	if err != nil {
		logging.Error().Err(err).Int64("user", userID).Msg("Account provisioning failed")
		b.respondEmbed(i, errorEmbed("Account Creation Failed",
			"The account could not be created. Please try again later."))
		return
	}

	lifetime := b.cfg.Jellyfin.AccountLifetime
	dm := &discordgo.MessageEmbed{
		Title: "Your Temporary Jellyfin Account",
		Description: fmt.Sprintf(
			"Server: %s\nUsername: `%s`\nPassword: `%s`\n\nThe account is deleted automatically after %s.",
			b.cfg.Jellyfin.URL, creds.Username, creds.Password, lifetime,
		),
		Color: embedColor,
	}

	if err := b.sendDM(i, dm); err != nil {
		// Credentials could not be delivered; the sweeper removes the
		// orphaned account at expiry, and the user can ask an admin.
		logging.Error().Err(err).Int64("user", userID).Msg("Failed to DM account credentials")
		b.respondEmbed(i, errorEmbed("Delivery Failed",
			"Your account was created but the credentials could not be sent. Enable DMs from server members and contact an admin."))
		return
	}

	b.respondEmbed(i, &discordgo.MessageEmbed{
		Title:       "Account Created",
		Description: "Check your DMs for the login credentials.",
		Color:       embedColor,
	})
}

// sendDM opens (or reuses) the DM channel with the interacting user and
// sends the embed there.
func (b *Bot) sendDM(i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	var raw string
	if i.Member != nil && i.Member.User != nil {
		raw = i.Member.User.ID
	} else if i.User != nil {
		raw = i.User.ID
	}

	channel, err := b.session.UserChannelCreate(raw)
	if err != nil {
		return fmt.Errorf("failed to open dm channel: %w", err)
	}
	if _, err := b.session.ChannelMessageSendEmbed(channel.ID, embed); err != nil {
		return fmt.Errorf("failed to send dm: %w", err)
	}
	return nil
}
