// Corsarr - Discord request bot for Radarr, Sonarr, and Jellyfin
// Copyright 2026 Corsarr contributors
// SPDX-License-Identifier: MIT
// https://github.com/corsarr/corsarr

package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/corsarr/corsarr/internal/arr"
	"github.com/corsarr/corsarr/internal/logging"
	"github.com/corsarr/corsarr/internal/store"
)

// Component custom ID prefixes for the request flow.
const (
	componentPick   = "pick"
	componentAdd    = "add"
	componentCancel = "cancel"
)

// handleRequest runs the lookup step of /request movie|show and offers
// the candidates in a select menu.
func (b *Bot) handleRequest(ctx context.Context, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if len(data.Options) == 0 || len(data.Options[0].Options) == 0 {
		return
	}
	sub := data.Options[0]
	term := sub.Options[0].StringValue()

	service := arr.ServiceSonarr
	if sub.Name == "movie" {
		service = arr.ServiceRadarr
	}
	client := b.clientFor(service)
	if client == nil {
		return
	}

	result, err := client.Lookup(ctx, term)
	if err != nil {
		logging.Error().Err(err).Str("term", term).Msg("Lookup failed")
		b.respondEmbed(i, errorEmbed("Lookup Failed",
			"Something went wrong searching for your content. Please try again later."))
		return
	}

	switch result.Outcome {
	case arr.LookupNoResults:
		b.respondEmbed(i, errorEmbed("No Results",
			fmt.Sprintf("No results found for **%s**. Check the spelling and try again.", term)))
		return
	case arr.LookupAlreadyAdded:
		b.respondEmbed(i, errorEmbed("Already Available",
			fmt.Sprintf("**%s** has already been added to the library.", term)))
		return
	}

	nonce := uuid.NewString()
	b.storePick(nonce, pendingPick{service: service, candidates: result.Candidates})

	options := make([]discordgo.SelectMenuOption, 0, len(result.Candidates))
	for idx, c := range result.Candidates {
		label := c.Title
		if c.Year > 0 {
			label = fmt.Sprintf("%s (%d)", c.Title, c.Year)
		}
		if len(label) > 100 {
			label = label[:100]
		}
		options = append(options, discordgo.SelectMenuOption{
			Label: label,
			Value: strconv.Itoa(idx),
		})
	}

	err = b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{{
				Title:       "Select Content",
				Description: fmt.Sprintf("Pick the %s you want from the results below.", sub.Name),
				Color:       embedColor,
			}},
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.SelectMenu{
						CustomID:    componentPick + ":" + nonce,
						Placeholder: "Search results",
						Options:     options,
					},
				}},
			},
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		logging.Error().Err(err).Msg("Failed to send candidate menu")
	}
}

// handleComponent routes select-menu and button clicks by custom ID.
func (b *Bot) handleComponent(ctx context.Context, i *discordgo.InteractionCreate) {
	data := i.MessageComponentData()
	parts := strings.Split(data.CustomID, ":")

	switch parts[0] {
	case componentPick:
		if len(parts) == 2 && len(data.Values) == 1 {
			b.handlePick(i, parts[1], data.Values[0])
		}
	case componentAdd:
		if len(parts) == 3 {
			b.handleAdd(ctx, i, parts[1], parts[2])
		}
	case componentCancel:
		if len(parts) == 2 {
			b.dropPick(parts[1])
			b.editEmbed(i, errorEmbed("Canceled", "Nothing was requested."), nil)
		}
	}
}

// handlePick shows the confirmation step for the selected candidate.
func (b *Bot) handlePick(i *discordgo.InteractionCreate, nonce, rawIdx string) {
	pick, ok := b.takePick(nonce)
	idx, err := strconv.Atoi(rawIdx)
	if !ok || err != nil || idx < 0 || idx >= len(pick.candidates) {
		b.editEmbed(i, errorEmbed("Selection Expired",
			"This selection is no longer valid. Run the command again."), nil)
		return
	}
	c := pick.candidates[idx]

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s (%d)", c.Title, c.Year),
		Description: c.Overview,
		Color:       embedColor,
	}
	if c.PosterURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: c.PosterURL}
	}

	b.editEmbed(i, embed, []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "Request",
				Style:    discordgo.SuccessButton,
				CustomID: fmt.Sprintf("%s:%s:%d", componentAdd, nonce, idx),
			},
			discordgo.Button{
				Label:    "Cancel",
				Style:    discordgo.DangerButton,
				CustomID: componentCancel + ":" + nonce,
			},
		}},
	})
}

// handleAdd confirms the request: adds the content to the remote library
// and tracks it for status reporting.
func (b *Bot) handleAdd(ctx context.Context, i *discordgo.InteractionCreate, nonce, rawIdx string) {
	pick, ok := b.takePick(nonce)
	idx, err := strconv.Atoi(rawIdx)
	if !ok || err != nil || idx < 0 || idx >= len(pick.candidates) {
		b.editEmbed(i, errorEmbed("Selection Expired",
			"This selection is no longer valid. Run the command again."), nil)
		return
	}
	c := pick.candidates[idx]

	userID, err := interactionUserID(i)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to identify requesting user")
		return
	}

	client := b.clientFor(pick.service)
	if client == nil {
		return
	}

	added, err := client.Add(ctx, c.ContentID)
	if err != nil {
		logging.Error().Err(err).Str("title", c.Title).Msg("Failed to add content")
		b.editEmbed(i, errorEmbed("Request Failed",
			"The content could not be added. Please try again later."), nil)
		return
	}

	req := store.ContentRequest{
		UserID:      userID,
		Title:       added.Title,
		ReleaseYear: c.Year,
		LocalID:     added.LocalID,
	}
	if pick.service == arr.ServiceRadarr {
		req.TMDBID = c.ContentID
	} else {
		req.TVDBID = c.ContentID
	}
	if err := b.tracker.Track(ctx, req); err != nil {
		// The content is on its way regardless; it just won't show up in
		// /status. Report success and log the tracking gap.
		logging.Error().Err(err).Str("title", added.Title).Msg("Failed to track request")
	}

	b.dropPick(nonce)
	b.editEmbed(i, &discordgo.MessageEmbed{
		Title:       "Request Sent",
		Description: fmt.Sprintf("**%s (%d)** has been added to the library. Use `/status` to follow the download.", added.Title, c.Year),
		Color:       embedColor,
	}, nil)
}

// clientFor maps a service tag to its configured client, nil when the
// service is disabled.
func (b *Bot) clientFor(service arr.Service) arr.API {
	if service == arr.ServiceRadarr {
		return b.radarr
	}
	return b.sonarr
}
