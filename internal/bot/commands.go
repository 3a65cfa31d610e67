package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Coxinelcops/Test/internal/riot"
	"github.com/Coxinelcops/Test/internal/tracker"
)

// Lifetimes of the public command replies
const (
	watchReplyTTL   = 2 * time.Minute
	profileReplyTTL = 3 * time.Minute
)

// command gives typed access to the options of an interaction
type command struct {
	userID      string
	username    string
	permissions int64
	options     map[string]*discordgo.ApplicationCommandInteractionDataOption
}

func newCommand(i *discordgo.InteractionCreate) command {
	c := command{options: make(map[string]*discordgo.ApplicationCommandInteractionDataOption)}
	for _, opt := range i.ApplicationCommandData().Options {
		c.options[opt.Name] = opt
	}
	switch {
	case i.Member != nil && i.Member.User != nil:
		c.userID = i.Member.User.ID
		c.username = i.Member.User.Username
		c.permissions = i.Member.Permissions
	case i.User != nil:
		c.userID = i.User.ID
		c.username = i.User.Username
	}
	return c
}

func (c command) str(name string) string {
	if opt, ok := c.options[name]; ok {
		return opt.StringValue()
	}
	return ""
}

func (c command) integer(name string) int64 {
	if opt, ok := c.options[name]; ok {
		return opt.IntValue()
	}
	return 0
}

func (c command) role(name string) string {
	if opt, ok := c.options[name]; ok {
		return opt.RoleValue(nil, "").ID
	}
	return ""
}

func (c command) canManageChannels() bool {
	return c.permissions&(discordgo.PermissionManageChannels|discordgo.PermissionAdministrator) != 0
}

func regionChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, len(riot.Regions))
	for i, r := range riot.Regions {
		choices[i] = &discordgo.ApplicationCommandOptionChoice{Name: r, Value: r}
	}
	return choices
}

func categoryChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, len(tracker.Categories))
	for i, c := range tracker.Categories {
		choices[i] = &discordgo.ApplicationCommandOptionChoice{Name: c.Label, Value: c.Value}
	}
	return choices
}

func stringOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        name,
		Description: description,
		Required:    required,
	}
}

func roleOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionRole,
		Name:        name,
		Description: description,
		Required:    required,
	}
}

func eventIDOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        "id",
		Description: "Event id",
		Required:    true,
	}
}

// Slash command definitions
func (b *Bot) getCommandDefinitions() []*discordgo.ApplicationCommand {
	region := stringOption("region", "Server region (default euw)", false)
	region.Choices = regionChoices()

	category := stringOption("category", "Event category", true)
	category.Choices = categoryChoices()

	return []*discordgo.ApplicationCommand{
		{
			Name:        "watch",
			Description: "Get notified when a player starts a ranked or normal game",
			Options: []*discordgo.ApplicationCommandOption{
				stringOption("riot_id", "Riot ID, e.g. Faker#KR1", true),
				region,
				roleOption("role", "Role to ping instead of you", false),
				stringOption("stream_url", "Stream link shown in the notification", false),
			},
		},
		{
			Name:        "unwatch",
			Description: "Stop watching a player",
			Options: []*discordgo.ApplicationCommandOption{
				stringOption("target", "Riot ID, or all", true),
			},
		},
		{
			Name:        "watchlist",
			Description: "List the players you watch",
		},
		{
			Name:        "profile",
			Description: "Show the level and rank of a player",
			Options: []*discordgo.ApplicationCommandOption{
				stringOption("riot_id", "Riot ID, e.g. Faker#KR1", true),
				region,
			},
		},
		{
			Name:        "twitchadd",
			Description: "Follow Twitch streamers in this channel",
			Options: []*discordgo.ApplicationCommandOption{
				stringOption("usernames", "Twitch logins separated by spaces", true),
			},
		},
		{
			Name:        "twitchremove",
			Description: "Stop following Twitch streamers in this channel",
			Options: []*discordgo.ApplicationCommandOption{
				stringOption("usernames", "Twitch logins separated by spaces", true),
			},
		},
		{
			Name:        "twitchlist",
			Description: "List the streamers followed in this channel",
		},
		{
			Name:        "twitchclear",
			Description: "Stop following every streamer in this channel",
		},
		{
			Name:        "pingrole",
			Description: "Role to ping when a stream of this channel goes live",
			Options: []*discordgo.ApplicationCommandOption{
				roleOption("role", "Role to mention", true),
			},
		},
		{
			Name:        "event-create",
			Description: "Schedule an event with reminders",
			Options: []*discordgo.ApplicationCommandOption{
				stringOption("name", "Event name", true),
				stringOption("date", "Start date, DD/MM/YYYY HH:MM", true),
				category,
				roleOption("role", "Role to ping (default: the category role)", false),
				stringOption("stream", "Stream link", false),
				stringOption("location", "Location", false),
				stringOption("image", "Image URL", false),
				stringOption("description", "Description", false),
			},
		},
		{
			Name:        "event-list",
			Description: "List the scheduled events",
		},
		{
			Name:        "event-info",
			Description: "Show an event",
			Options:     []*discordgo.ApplicationCommandOption{eventIDOption()},
		},
		{
			Name:        "event-delete",
			Description: "Delete an event",
			Options:     []*discordgo.ApplicationCommandOption{eventIDOption()},
		},
		{
			Name:        "event-role",
			Description: "Default role pinged for a category",
			Options: []*discordgo.ApplicationCommandOption{
				category,
				roleOption("role", "Role to mention", true),
			},
		},
		{
			Name:        "help",
			Description: "List the commands",
		},
	}
}

// registerCommands registers all slash commands with Discord
func (b *Bot) registerCommands(ctx context.Context) error {
	slog.Info("Registering slash commands")

	commandDefinitions := b.getCommandDefinitions()
	registeredCommands := make([]*discordgo.ApplicationCommand, 0, len(commandDefinitions))

	for _, cmd := range commandDefinitions {
		registered, err := b.session.ApplicationCommandCreate(
			b.session.State.User.ID,
			"", // Empty string = global command
			cmd,
			discordgo.WithContext(ctx),
		)
		if err != nil {
			return fmt.Errorf("failed to register command %s: %w", cmd.Name, err)
		}
		registeredCommands = append(registeredCommands, registered)
		slog.Debug("Registered command", "name", cmd.Name)
	}

	b.commands = registeredCommands
	slog.Info("Slash commands registered", "count", len(registeredCommands))
	return nil
}

// handleWatch handles the /watch command
func (b *Bot) handleWatch(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, cmd command) {
	req := WatchRequest{
		OwnerID:   cmd.userID,
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		RiotID:    cmd.str("riot_id"),
		Region:    cmd.str("region"),
		RoleID:    cmd.role("role"),
		StreamURL: cmd.str("stream_url"),
	}
	if err := b.svc.CheckWatch(req); err != nil {
		b.respondError(s, i, err)
		return
	}

	// Respond immediately to avoid timeout
	if !b.deferResponse(s, i, false) {
		return
	}

	reply, err := b.svc.Watch(ctx, req)
	if err != nil {
		if riot.StatusOf(err) != riot.StatusNotFound {
			slog.Error("Failed to watch player", "riotID", req.RiotID, "error", err)
		}
		reply = Reply{Content: describe(err)}
	}
	b.editResponse(s, i, reply, watchReplyTTL)
}

// handleUnwatch handles the /unwatch command
func (b *Bot) handleUnwatch(s *discordgo.Session, i *discordgo.InteractionCreate, cmd command) {
	reply, err := b.svc.Unwatch(cmd.userID, cmd.str("target"))
	b.respondResult(s, i, reply, err, true, 0)
}

// handleProfile handles the /profile command
func (b *Bot) handleProfile(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, cmd command) {
	riotID, region := cmd.str("riot_id"), cmd.str("region")
	if err := b.svc.CheckProfile(riotID, region); err != nil {
		b.respondError(s, i, err)
		return
	}
	if !b.deferResponse(s, i, false) {
		return
	}

	reply, err := b.svc.Profile(ctx, riotID, region)
	if err != nil {
		slog.Warn("Profile lookup failed", "riotID", riotID, "error", err)
		reply = Reply{Content: describe(err)}
	}
	b.editResponse(s, i, reply, profileReplyTTL)
}

// handleStreams handles the stream subscription commands
func (b *Bot) handleStreams(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, cmd command, name string) {
	if !cmd.canManageChannels() {
		b.respond(s, i, Reply{Content: "You need the Manage Channels permission to manage streamers."}, true, 0)
		return
	}

	if !b.deferResponse(s, i, true) {
		return
	}

	var (
		reply Reply
		err   error
	)
	switch name {
	case "twitchadd":
		reply, err = b.svc.TwitchAdd(ctx, i.GuildID, i.ChannelID, cmd.str("usernames"))
	case "twitchremove":
		reply, err = b.svc.TwitchRemove(ctx, i.GuildID, i.ChannelID, cmd.str("usernames"))
	case "twitchlist":
		reply, err = b.svc.TwitchList(ctx, i.GuildID, i.ChannelID)
	case "twitchclear":
		reply, err = b.svc.TwitchClear(ctx, i.GuildID, i.ChannelID)
	case "pingrole":
		reply = b.svc.PingRole(i.ChannelID, cmd.role("role"))
	}
	if err != nil {
		slog.Error("Stream command failed", "command", name, "channel", i.ChannelID, "error", err)
		reply = Reply{Content: describe(err)}
	}
	b.editResponse(s, i, reply, 0)
}

// handleEventCreate handles the /event-create command
func (b *Bot) handleEventCreate(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, cmd command) {
	// The announcement is posted before the reply
	if !b.deferResponse(s, i, true) {
		return
	}

	reply, err := b.svc.CreateEvent(ctx, EventRequest{
		Name:        cmd.str("name"),
		Date:        cmd.str("date"),
		Category:    cmd.str("category"),
		RoleID:      cmd.role("role"),
		Stream:      cmd.str("stream"),
		Location:    cmd.str("location"),
		Image:       cmd.str("image"),
		Description: cmd.str("description"),
		Creator:     cmd.username,
		GuildID:     i.GuildID,
		ChannelID:   i.ChannelID,
	})
	if err != nil {
		reply = Reply{Content: describe(err)}
	}
	b.editResponse(s, i, reply, 0)
}
