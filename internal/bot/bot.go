// Package bot wires the slash commands to the command service
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Coxinelcops/Test/internal/notifier"
)

const commandTimeout = 15 * time.Second

// Bot represents the Discord side of the commands
type Bot struct {
	session  *discordgo.Session
	svc      *Service
	deleter  *notifier.Deleter
	commands []*discordgo.ApplicationCommand
}

// New creates a Bot and registers its handlers on the session. Replies that
// expire are deleted through deleter.
func New(session *discordgo.Session, svc *Service, deleter *notifier.Deleter) *Bot {
	session.Identify.Intents = discordgo.IntentsGuilds

	b := &Bot{
		session: session,
		svc:     svc,
		deleter: deleter,
	}
	b.registerHandlers()
	return b
}

// Start opens the Discord connection and registers the slash commands
func (b *Bot) Start(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	slog.Info("Connected to Discord", "user", b.session.State.User.Username)

	if err := b.registerCommands(ctx); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	return nil
}

// Stop closes the Discord connection. Registered commands are kept.
func (b *Bot) Stop() error {
	if b.session != nil {
		return b.session.Close()
	}
	return nil
}

// registerHandlers sets up Discord event handlers
func (b *Bot) registerHandlers() {
	b.session.AddHandler(b.handleInteraction)
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		slog.Info("Bot is ready", "guilds", len(r.Guilds))
	})
}

// handleInteraction processes slash command interactions
func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()
	slog.Debug("Received command", "command", data.Name, "guild", i.GuildID)

	if i.GuildID == "" {
		b.respond(s, i, Reply{Content: "Commands only work in a server."}, true, 0)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Command panicked", "command", data.Name, "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	cmd := newCommand(i)
	switch data.Name {
	case "watch":
		b.handleWatch(ctx, s, i, cmd)
	case "unwatch":
		b.handleUnwatch(s, i, cmd)
	case "watchlist":
		b.respond(s, i, b.svc.Watchlist(cmd.userID), false, watchReplyTTL)
	case "profile":
		b.handleProfile(ctx, s, i, cmd)
	case "twitchadd", "twitchremove", "twitchlist", "twitchclear", "pingrole":
		b.handleStreams(ctx, s, i, cmd, data.Name)
	case "event-create":
		b.handleEventCreate(ctx, s, i, cmd)
	case "event-list":
		b.respond(s, i, b.svc.ListEvents(i.GuildID), false, 0)
	case "event-info":
		reply, err := b.svc.EventInfo(i.GuildID, int(cmd.integer("id")))
		b.respondResult(s, i, reply, err, false, 0)
	case "event-delete":
		reply, err := b.svc.DeleteEvent(ctx, i.GuildID, int(cmd.integer("id")))
		b.respondResult(s, i, reply, err, true, 0)
	case "event-role":
		reply, err := b.svc.EventRole(i.GuildID, cmd.str("category"), cmd.role("role"))
		b.respondResult(s, i, reply, err, true, 0)
	case "help":
		b.respond(s, i, b.svc.Help(), true, 0)
	default:
		slog.Warn("Unknown command", "command", data.Name)
	}
}

// respond answers an interaction. A positive ttl deletes the reply later.
func (b *Bot) respond(s *discordgo.Session, i *discordgo.InteractionCreate, reply Reply, ephemeral bool, ttl time.Duration) {
	data := &discordgo.InteractionResponseData{Content: reply.Content}
	if reply.Embed != nil {
		data.Embeds = []*discordgo.MessageEmbed{reply.Embed}
	}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		slog.Error("Failed to respond to interaction", "error", err)
		return
	}
	b.expire(s, i, ttl)
}

// respondResult answers with reply, or with the user message of err
func (b *Bot) respondResult(s *discordgo.Session, i *discordgo.InteractionCreate, reply Reply, err error, ephemeral bool, ttl time.Duration) {
	if err != nil {
		b.respondError(s, i, err)
		return
	}
	b.respond(s, i, reply, ephemeral, ttl)
}

func (b *Bot) respondError(s *discordgo.Session, i *discordgo.InteractionCreate, err error) {
	slog.Debug("Command rejected", "command", i.ApplicationCommandData().Name, "error", err)
	b.respond(s, i, Reply{Content: describe(err)}, true, 0)
}

// deferResponse acknowledges a slow command; the answer follows with editResponse
func (b *Bot) deferResponse(s *discordgo.Session, i *discordgo.InteractionCreate, ephemeral bool) bool {
	resp := &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredChannelMessageWithSource}
	if ephemeral {
		resp.Data = &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral}
	}
	if err := s.InteractionRespond(i.Interaction, resp); err != nil {
		slog.Error("Failed to defer interaction", "error", err)
		return false
	}
	return true
}

func (b *Bot) editResponse(s *discordgo.Session, i *discordgo.InteractionCreate, reply Reply, ttl time.Duration) {
	embeds := []*discordgo.MessageEmbed{}
	if reply.Embed != nil {
		embeds = append(embeds, reply.Embed)
	}
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &reply.Content,
		Embeds:  &embeds,
	}); err != nil {
		slog.Error("Failed to edit interaction response", "error", err)
		return
	}
	b.expire(s, i, ttl)
}

func (b *Bot) expire(s *discordgo.Session, i *discordgo.InteractionCreate, ttl time.Duration) {
	if ttl <= 0 || b.deleter == nil {
		return
	}
	b.deleter.After(ttl, func(ctx context.Context) {
		if err := s.InteractionResponseDelete(i.Interaction, discordgo.WithContext(ctx)); err != nil {
			slog.Debug("Failed to delete command reply", "error", err)
		}
	})
}
