// Corsarr - Discord request bot for Radarr, Sonarr, and Jellyfin
// Copyright 2026 Corsarr contributors
// SPDX-License-Identifier: MIT
// https://github.com/corsarr/corsarr

// Package bot implements the Discord slash-command surface: /request,
// /status, and /newaccount. It renders the core's plain results as
// embeds and feeds user input back as scalars; no business logic lives
// here.
package bot

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/corsarr/corsarr/internal/account"
	"github.com/corsarr/corsarr/internal/arr"
	"github.com/corsarr/corsarr/internal/config"
	"github.com/corsarr/corsarr/internal/logging"
	"github.com/corsarr/corsarr/internal/request"
)

// embedColor is the accent color for all bot embeds.
const embedColor = 0xD01B86

// actionTimeout bounds the remote work behind one user interaction.
const actionTimeout = 30 * time.Second

// pickTTL is how long a pending candidate selection stays valid.
const pickTTL = 15 * time.Minute

// pendingPick holds lookup candidates between the select menu and the
// confirm button.
type pendingPick struct {
	service    arr.Service
	candidates []arr.Candidate
	createdAt  time.Time
}

// Bot wires the Discord session to the core components.
type Bot struct {
	session *discordgo.Session
	cfg     *config.Config

	provisioner *account.Provisioner
	tracker     *request.Tracker
	reconciler  *request.Reconciler
	radarr      arr.API
	sonarr      arr.API

	mu    sync.Mutex
	picks map[string]pendingPick
}

// New creates the bot. provisioner may be nil when Jellyfin is disabled;
// radarr/sonarr may be nil when the respective service is disabled.
func New(cfg *config.Config, provisioner *account.Provisioner, tracker *request.Tracker, reconciler *request.Reconciler, radarr, sonarr arr.API) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsNone

	b := &Bot{
		session:     session,
		cfg:         cfg,
		provisioner: provisioner,
		tracker:     tracker,
		reconciler:  reconciler,
		radarr:      radarr,
		sonarr:      sonarr,
		picks:       make(map[string]pendingPick),
	}

	session.AddHandler(b.handleInteraction)
	session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		logging.Info().Str("user", r.User.Username).Msg("Connected to Discord")
	})

	return b, nil
}

// Serve implements suture.Service: opens the gateway connection,
// registers the slash commands, and blocks until the context is
// canceled.
func (b *Bot) Serve(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord gateway: %w", err)
	}

	if err := b.registerCommands(); err != nil {
		_ = b.session.Close()
		return err
	}

	<-ctx.Done()

	if err := b.session.Close(); err != nil {
		return fmt.Errorf("failed to close discord gateway: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logging.
func (b *Bot) String() string {
	return "discord-bot"
}

// registerCommands registers the slash commands, scoped to the
// configured guild when one is set.
func (b *Bot) registerCommands() error {
	commands := []*discordgo.ApplicationCommand{}

	requestSubs := []*discordgo.ApplicationCommandOption{}
	if b.radarr != nil {
		requestSubs = append(requestSubs, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "movie",
			Description: "Request a movie to be added to the library",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "name",
				Description: "Name of the movie to add",
				Required:    true,
			}},
		})
	}
	if b.sonarr != nil {
		requestSubs = append(requestSubs, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "show",
			Description: "Request a show to be added to the library",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "name",
				Description: "Name of the show to add",
				Required:    true,
			}},
		})
	}
	if len(requestSubs) > 0 {
		commands = append(commands,
			&discordgo.ApplicationCommand{
				Name:        "request",
				Description: "Request content to be added to the library",
				Options:     requestSubs,
			},
			&discordgo.ApplicationCommand{
				Name:        "status",
				Description: "Get the download status of your requested content",
			},
		)
	}
	if b.provisioner != nil {
		commands = append(commands, &discordgo.ApplicationCommand{
			Name:        "newaccount",
			Description: "Create a new temporary Jellyfin account",
		})
	}

	_, err := b.session.ApplicationCommandBulkOverwrite(
		b.session.State.User.ID, b.cfg.Discord.GuildID, commands,
	)
	if err != nil {
		return fmt.Errorf("failed to register slash commands: %w", err)
	}

	logging.Info().Int("count", len(commands)).Msg("Registered slash commands")
	return nil
}

// handleInteraction dispatches slash commands and component clicks.
func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		switch data.Name {
		case "request":
			b.handleRequest(ctx, i, data)
		case "status":
			b.handleStatus(ctx, i)
		case "newaccount":
			b.handleNewAccount(ctx, i)
		}
	case discordgo.InteractionMessageComponent:
		b.handleComponent(ctx, i)
	}
}

// interactionUserID extracts the acting user's ID, which differs
// between guild and DM interactions.
func interactionUserID(i *discordgo.InteractionCreate) (int64, error) {
	var raw string
	if i.Member != nil && i.Member.User != nil {
		raw = i.Member.User.ID
	} else if i.User != nil {
		raw = i.User.ID
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse user id %q: %w", raw, err)
	}
	return id, nil
}

// respondEmbed sends an ephemeral embed as the interaction response.
func (b *Bot) respondEmbed(i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		logging.Error().Err(err).Msg("Failed to respond to interaction")
	}
}

// editEmbed edits the original interaction message in place, replacing
// its components.
func (b *Bot) editEmbed(i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) {
	err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
			Flags:      discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		logging.Error().Err(err).Msg("Failed to edit interaction message")
	}
}

// errorEmbed is the generic failure message for user-triggered actions.
// Transient failures are reported once; the user reissues the command.
func errorEmbed(title, description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       embedColor,
	}
}

// storePick stashes candidates for a pending selection and prunes stale
// entries.
func (b *Bot) storePick(key string, pick pendingPick) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	for k, p := range b.picks {
		if now.Sub(p.createdAt) > pickTTL {
			delete(b.picks, k)
		}
	}
	pick.createdAt = now
	b.picks[key] = pick
}

// takePick retrieves a pending selection without removing it; the
// confirm step needs it again after the select step.
func (b *Bot) takePick(key string) (pendingPick, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pick, ok := b.picks[key]
	return pick, ok
}

// dropPick discards a pending selection once the flow finishes.
func (b *Bot) dropPick(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.picks, key)
}
