package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Coxinelcops/Test/internal/chat"
	"github.com/Coxinelcops/Test/internal/notifier"
	"github.com/Coxinelcops/Test/internal/riot"
	"github.com/Coxinelcops/Test/internal/storage"
	"github.com/Coxinelcops/Test/internal/tracker"
	"github.com/Coxinelcops/Test/internal/twitch"
)

var (
	// ErrUnknownRegion is returned for a region outside riot.Regions
	ErrUnknownRegion = errors.New("unknown region")

	// ErrRiotUnavailable is returned when no Riot API key is configured
	ErrRiotUnavailable = errors.New("riot API not configured")

	// ErrPlayerNotFound is returned when the Riot ID does not resolve
	ErrPlayerNotFound = errors.New("player not found")

	// ErrNoUsernames is returned when a stream command carries no usable login
	ErrNoUsernames = errors.New("no valid username")

	// ErrUnknownCategory is returned for an event category outside tracker.Categories
	ErrUnknownCategory = errors.New("unknown category")
)

// RiotAPI is the subset of the Riot client used by the commands
type RiotAPI interface {
	Configured() bool
	GetAccountByRiotID(ctx context.Context, gameName, tagLine, platform string) (*riot.Account, error)
	FetchLivePresence(ctx context.Context, puuid, platform string) riot.PresenceResult
	GetSummonerByPUUID(ctx context.Context, puuid, platform string) (*riot.Summoner, error)
	GetLeagueEntries(ctx context.Context, puuid, platform string) ([]riot.LeagueEntry, error)
}

// StreamLookup reports which logins are live
type StreamLookup interface {
	Configured() bool
	FetchLiveStreams(ctx context.Context, logins []string) *twitch.StreamsResult
}

// Announcer posts and retires event messages
type Announcer interface {
	AnnounceEvent(ctx context.Context, ev tracker.Event) (chat.MessageRef, error)
	Retire(ctx context.Context, refs ...chat.MessageRef) int
}

// IconResolver resolves profile icons to URLs
type IconResolver interface {
	ProfileIconURL(ctx context.Context, iconID int) string
}

// Reply is what a command answers with
type Reply struct {
	Content string
	Embed   *discordgo.MessageEmbed
}

// Service implements the commands against the shared state. It does not
// depend on a Discord session.
type Service struct {
	state     *tracker.State
	store     storage.Store
	riot      RiotAPI
	streams   StreamLookup
	announcer Announcer
	icons     IconResolver

	loc           *time.Location
	now           func() time.Time
	defaultRegion string
	watchPingRole string
}

// ServiceConfig carries the Service dependencies
type ServiceConfig struct {
	State         *tracker.State
	Store         storage.Store
	Riot          RiotAPI
	Streams       StreamLookup
	Announcer     Announcer
	Icons         IconResolver
	Location      *time.Location
	Now           func() time.Time
	DefaultRegion string
	WatchPingRole string
}

// NewService creates the command service
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		state:         cfg.State,
		store:         cfg.Store,
		riot:          cfg.Riot,
		streams:       cfg.Streams,
		announcer:     cfg.Announcer,
		icons:         cfg.Icons,
		loc:           cfg.Location,
		now:           cfg.Now,
		defaultRegion: cfg.DefaultRegion,
		watchPingRole: cfg.WatchPingRole,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.defaultRegion == "" {
		s.defaultRegion = "euw"
	}
	return s
}

func (s *Service) platform(region string) (string, string, error) {
	region = strings.ToLower(strings.TrimSpace(region))
	if region == "" {
		region = s.defaultRegion
	}
	platform, ok := riot.Platform(region)
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownRegion, region)
	}
	return region, platform, nil
}

func (s *Service) resolveAccount(ctx context.Context, input, platform string) (*riot.Account, error) {
	if s.riot == nil || !s.riot.Configured() {
		return nil, ErrRiotUnavailable
	}
	name, tag, _ := riot.ParseRiotID(input)
	acc, err := s.riot.GetAccountByRiotID(ctx, name, tag, platform)
	if err != nil {
		if riot.StatusOf(err) == riot.StatusNotFound {
			return nil, fmt.Errorf("%w: %s#%s", ErrPlayerNotFound, name, tag)
		}
		return nil, err
	}
	return acc, nil
}

// WatchRequest is the input of Watch
type WatchRequest struct {
	OwnerID   string
	GuildID   string
	ChannelID string
	RiotID    string
	Region    string
	RoleID    string
	StreamURL string
}

// CheckWatch validates a watch request without calling the Riot API
func (s *Service) CheckWatch(req WatchRequest) error {
	name, tag, err := riot.ParseRiotID(req.RiotID)
	if err != nil {
		return err
	}
	if _, _, err := s.platform(req.Region); err != nil {
		return err
	}
	return s.state.Players.CheckCanAdd(req.OwnerID, name+"#"+tag)
}

// CheckProfile validates a profile request without calling the Riot API
func (s *Service) CheckProfile(riotID, region string) error {
	if _, _, err := riot.ParseRiotID(riotID); err != nil {
		return err
	}
	_, _, err := s.platform(region)
	return err
}

// Watch adds a player to the owner's watch list. The initial presence seeds
// the state so a game already in progress is not announced.
func (s *Service) Watch(ctx context.Context, req WatchRequest) (Reply, error) {
	if err := s.CheckWatch(req); err != nil {
		return Reply{}, err
	}
	region, platform, _ := s.platform(req.Region)
	if req.StreamURL != "" && !strings.HasPrefix(req.StreamURL, "http") {
		req.StreamURL = ""
	}

	acc, err := s.resolveAccount(ctx, req.RiotID, platform)
	if err != nil {
		return Reply{}, err
	}

	presence := s.riot.FetchLivePresence(ctx, acc.PUUID, platform)
	if !presence.Known() {
		slog.Warn("Initial presence unknown", "player", acc.RiotID(), "status", presence.Status, "error", presence.Err)
	}

	roleID := req.RoleID
	if roleID == "" {
		roleID = s.watchPingRole
	}

	p := tracker.WatchedPlayer{
		OwnerID:          req.OwnerID,
		RiotID:           acc.RiotID(),
		Platform:         platform,
		PUUID:            acc.PUUID,
		GuildID:          req.GuildID,
		ChannelID:        req.ChannelID,
		LastWatchedState: presence.InTrackedGame(),
		PingRoleID:       roleID,
		StreamURL:        req.StreamURL,
		AddedAt:          s.now(),
	}
	if err := s.state.Players.Add(p); err != nil {
		return Reply{}, err
	}
	slog.Info("Player watched", "owner", req.OwnerID, "player", p.RiotID, "platform", platform, "inGame", presence.InGame())

	status := "🟢 Offline - watching"
	switch {
	case presence.InTrackedGame():
		status = "🟡 In a watched game - the next one will be announced"
	case presence.InGame():
		status = "🔵 In another mode - waiting for ranked or normal"
	}

	config := []string{"Region: " + strings.ToUpper(region)}
	if req.RoleID != "" {
		config = append(config, fmt.Sprintf("Notifications: <@&%s>", req.RoleID))
	} else {
		config = append(config, "Notifications: you only")
	}
	if p.StreamURL != "" {
		config = append(config, fmt.Sprintf("Stream: [link](%s)", p.StreamURL))
	}

	return Reply{Embed: &discordgo.MessageEmbed{
		Title:       "WATCH ENABLED",
		Description: fmt.Sprintf("**%s** • %s", p.RiotID, status),
		Color:       0x00ff00,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Settings", Value: strings.Join(config, "\n")},
			{Name: "Watch list", Value: fmt.Sprintf("%d/%d", len(s.state.Players.List(req.OwnerID)), tracker.MaxWatchedPerOwner), Inline: true},
		},
	}}, nil
}

// Unwatch removes one player, or all of them for target "all"
func (s *Service) Unwatch(ownerID, target string) (Reply, error) {
	target = strings.TrimSpace(target)
	if strings.EqualFold(target, "all") {
		n := s.state.Players.RemoveAll(ownerID)
		if n == 0 {
			return Reply{Content: "Your watch list is already empty."}, nil
		}
		return Reply{Content: fmt.Sprintf("Stopped watching %d player(s).", n)}, nil
	}

	p, err := s.state.Players.Remove(ownerID, target)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Content: fmt.Sprintf("Stopped watching **%s**.", p.RiotID)}, nil
}

// Watchlist lists the owner's watched players
func (s *Service) Watchlist(ownerID string) Reply {
	players := s.state.Players.List(ownerID)
	if len(players) == 0 {
		return Reply{Content: "You are not watching anyone. Use `/watch` to add a player."}
	}

	lines := make([]string, 0, len(players))
	for i, p := range players {
		status := "🟢"
		if p.LastWatchedState {
			status = "🟡"
		}
		line := fmt.Sprintf("%d. %s **%s** (%s)", i+1, status, p.RiotID, strings.ToUpper(riot.ShortRegion(p.Platform)))
		if p.StreamURL != "" {
			line += fmt.Sprintf(" • [stream](%s)", p.StreamURL)
		}
		lines = append(lines, line)
	}

	return Reply{Embed: &discordgo.MessageEmbed{
		Title:       "WATCHED PLAYERS",
		Description: strings.Join(lines, "\n"),
		Color:       0x5CDBF0,
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("%d/%d players", len(players), tracker.MaxWatchedPerOwner)},
	}}
}

// Profile shows the level and solo queue rank of a player
func (s *Service) Profile(ctx context.Context, riotID, region string) (Reply, error) {
	if err := s.CheckProfile(riotID, region); err != nil {
		return Reply{}, err
	}
	region, platform, _ := s.platform(region)

	acc, err := s.resolveAccount(ctx, riotID, platform)
	if err != nil {
		return Reply{}, err
	}
	summoner, err := s.riot.GetSummonerByPUUID(ctx, acc.PUUID, platform)
	if err != nil {
		if riot.StatusOf(err) == riot.StatusNotFound {
			return Reply{}, fmt.Errorf("%w in region %s", ErrPlayerNotFound, strings.ToUpper(region))
		}
		return Reply{}, err
	}

	entries, err := s.riot.GetLeagueEntries(ctx, acc.PUUID, platform)
	if err != nil {
		slog.Warn("Failed to get league entries", "player", acc.RiotID(), "error", err)
	}
	solo := riot.SoloQueue(entries)

	embed := &discordgo.MessageEmbed{
		Title:       acc.RiotID(),
		Description: "Unranked",
		Color:       riot.RankColor(""),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Level", Value: fmt.Sprint(summoner.SummonerLevel), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Region: " + strings.ToUpper(region)},
	}
	if s.icons != nil {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: s.icons.ProfileIconURL(ctx, summoner.ProfileIconID)}
	}
	if solo != nil {
		embed.Description = fmt.Sprintf("%s %s - %d LP", titleCase(solo.Tier), solo.Rank, solo.LeaguePoints)
		embed.Color = riot.RankColor(solo.Tier)
		if solo.Wins > 0 || solo.Losses > 0 {
			embed.Fields = append(embed.Fields,
				&discordgo.MessageEmbedField{Name: "Wins", Value: fmt.Sprint(solo.Wins), Inline: true},
				&discordgo.MessageEmbedField{Name: "Losses", Value: fmt.Sprint(solo.Losses), Inline: true},
				&discordgo.MessageEmbedField{Name: "Winrate", Value: fmt.Sprintf("%.1f%%", solo.Winrate()), Inline: true},
			)
		}
	}
	return Reply{Embed: embed}, nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func parseUsernames(input string) []string {
	var out []string
	for _, f := range strings.Fields(input) {
		if u := storage.NormalizeUsername(f); u != "" && !slices.Contains(out, u) {
			out = append(out, u)
		}
	}
	return out
}

// TwitchAdd subscribes a channel to streamers. The store is written first;
// the tracker only learns about subscriptions that were persisted.
func (s *Service) TwitchAdd(ctx context.Context, guildID, channelID, usernames string) (Reply, error) {
	logins := parseUsernames(usernames)
	if len(logins) == 0 {
		return Reply{}, ErrNoUsernames
	}

	var added, already, failed []string
	for _, login := range logins {
		err := s.store.Add(ctx, storage.StreamSubscription{Username: login, GuildID: guildID, ChannelID: channelID})
		switch {
		case err == nil:
			s.state.Streams.Subscribe(guildID, channelID, login)
			added = append(added, login)
		case errors.Is(err, storage.ErrAlreadyExists):
			// The tracker may have missed it, e.g. after a failed rehydration
			s.state.Streams.Subscribe(guildID, channelID, login)
			already = append(already, login)
		default:
			slog.Error("Failed to save stream subscription", "username", login, "channel", channelID, "error", err)
			failed = append(failed, login)
		}
	}

	var parts []string
	if len(added) > 0 {
		parts = append(parts, "Added: "+strings.Join(added, ", "))
	}
	if len(already) > 0 {
		parts = append(parts, "Already followed: "+strings.Join(already, ", "))
	}
	if len(failed) > 0 {
		parts = append(parts, "Could not save: "+strings.Join(failed, ", "))
	}
	if len(added) == 0 && len(already) == 0 && len(failed) == 0 {
		parts = append(parts, "No streamer added.")
	}
	return Reply{Content: strings.Join(parts, "\n")}, nil
}

// TwitchRemove unsubscribes a channel from streamers. A live message left
// behind is retired by the next stream tick.
func (s *Service) TwitchRemove(ctx context.Context, guildID, channelID, usernames string) (Reply, error) {
	logins := parseUsernames(usernames)
	if len(logins) == 0 {
		return Reply{}, ErrNoUsernames
	}

	var removed, missing []string
	for _, login := range logins {
		err := s.store.Remove(ctx, storage.StreamSubscription{Username: login, GuildID: guildID, ChannelID: channelID})
		switch {
		case err == nil:
			s.state.Streams.Unsubscribe(channelID, login)
			removed = append(removed, login)
		case errors.Is(err, storage.ErrNotFound):
			s.state.Streams.Unsubscribe(channelID, login)
			missing = append(missing, login)
		default:
			return Reply{}, fmt.Errorf("failed to remove %s: %w", login, err)
		}
	}

	var parts []string
	if len(removed) > 0 {
		parts = append(parts, "Removed: "+strings.Join(removed, ", "))
	}
	if len(missing) > 0 {
		parts = append(parts, "Not followed: "+strings.Join(missing, ", "))
	}
	return Reply{Content: strings.Join(parts, "\n")}, nil
}

// TwitchList lists the streamers of a channel with their current viewers
func (s *Service) TwitchList(ctx context.Context, guildID, channelID string) (Reply, error) {
	logins, err := s.store.ListChannel(ctx, guildID, channelID)
	if err != nil {
		return Reply{}, err
	}
	if len(logins) == 0 {
		return Reply{Content: "No streamer is followed in this channel. Use `/twitchadd` to add one."}, nil
	}

	live := map[string]twitch.Stream{}
	failed := map[string]bool{}
	if s.streams != nil && s.streams.Configured() {
		res := s.streams.FetchLiveStreams(ctx, logins)
		live = res.Live()
		failed = res.Failed
	}

	lines := make([]string, 0, len(logins))
	liveCount := 0
	for _, login := range logins {
		switch st, ok := live[login]; {
		case ok:
			liveCount++
			lines = append(lines, fmt.Sprintf("🔴 **%s** - %s viewers", login, notifier.FormatViewerCount(st.ViewerCount)))
		case failed[login]:
			lines = append(lines, fmt.Sprintf("❔ %s", login))
		default:
			lines = append(lines, fmt.Sprintf("⚫ %s", login))
		}
	}

	footer := fmt.Sprintf("%d streamer(s) • %d live", len(logins), liveCount)
	if role := s.state.Streams.PingRole(channelID); role != "" {
		footer += " • ping role set"
	}
	return Reply{Embed: &discordgo.MessageEmbed{
		Title:       "📺 Followed streamers",
		Description: strings.Join(lines, "\n"),
		Color:       0x9146FF,
		Footer:      &discordgo.MessageEmbedFooter{Text: footer},
	}}, nil
}

// TwitchClear removes every subscription of a channel
func (s *Service) TwitchClear(ctx context.Context, guildID, channelID string) (Reply, error) {
	n, err := s.store.Clear(ctx, guildID, channelID)
	if err != nil {
		return Reply{}, err
	}
	s.state.Streams.ClearChannel(channelID)
	if n == 0 {
		return Reply{Content: "No streamer was followed in this channel."}, nil
	}
	return Reply{Content: fmt.Sprintf("Removed %d streamer(s) from this channel.", n)}, nil
}

// PingRole sets the role mentioned when a stream of the channel goes live
func (s *Service) PingRole(channelID, roleID string) Reply {
	s.state.Streams.SetPingRole(channelID, roleID)
	return Reply{Content: fmt.Sprintf("<@&%s> will be pinged when someone goes live in this channel.", roleID)}
}

// EventRequest is the input of CreateEvent
type EventRequest struct {
	Name        string
	Date        string
	Category    string
	RoleID      string
	Stream      string
	Location    string
	Image       string
	Description string
	Creator     string
	GuildID     string
	ChannelID   string
}

// CreateEvent validates and schedules an event, then posts its announcement
func (s *Service) CreateEvent(ctx context.Context, req EventRequest) (Reply, error) {
	now := s.now()
	start, err := tracker.ParseEventDate(req.Date, s.loc, now)
	if err != nil {
		return Reply{}, err
	}
	if err := tracker.ValidateImage(req.Image); err != nil {
		return Reply{}, err
	}
	if !slices.ContainsFunc(tracker.Categories, func(c tracker.Category) bool { return c.Value == req.Category }) {
		return Reply{}, fmt.Errorf("%w: %q", ErrUnknownCategory, req.Category)
	}

	roleID := req.RoleID
	if roleID == "" {
		roleID = s.state.Events.CategoryRole(req.GuildID, req.Category)
	}

	ev := s.state.Events.Create(tracker.Event{
		Name:        strings.TrimSpace(req.Name),
		Start:       start,
		Creator:     req.Creator,
		GuildID:     req.GuildID,
		ChannelID:   req.ChannelID,
		RoleID:      roleID,
		Category:    req.Category,
		Stream:      req.Stream,
		Location:    req.Location,
		Image:       req.Image,
		Description: req.Description,
		CreatedAt:   now,
	})
	slog.Info("Event created", "event", ev.ID, "name", ev.Name, "start", ev.Start, "guild", ev.GuildID)

	if s.announcer != nil {
		ref, err := s.announcer.AnnounceEvent(ctx, ev)
		if err != nil {
			slog.Warn("Failed to announce event", "event", ev.ID, "error", err)
		} else {
			s.state.Events.SetAnnouncement(ev.ID, ref)
		}
	}

	return Reply{Content: fmt.Sprintf("Event **%s** created (#%d), starting %s.", ev.Name, ev.ID, notifier.FormatDate(ev.Start, s.loc))}, nil
}

// ListEvents lists the upcoming events of a guild
func (s *Service) ListEvents(guildID string) Reply {
	events := s.state.Events.ListGuild(guildID)
	if len(events) == 0 {
		return Reply{Content: "No event is scheduled. Use `/event-create` to add one."}
	}

	embed := &discordgo.MessageEmbed{
		Title: "📅 Scheduled events",
		Color: 0x5865F2,
	}
	for _, ev := range events {
		if len(embed.Fields) == 25 {
			break
		}
		value := fmt.Sprintf("%s\n%s", tracker.CategoryLabel(ev.Category), notifier.FormatDate(ev.Start, s.loc))
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("#%d • %s", ev.ID, ev.Name),
			Value: value,
		})
	}
	embed.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("%d event(s)", len(events))}
	return Reply{Embed: embed}
}

func (s *Service) guildEvent(guildID string, id int) (tracker.EventState, error) {
	ev, ok := s.state.Events.Get(id)
	if !ok || ev.GuildID != guildID {
		return tracker.EventState{}, fmt.Errorf("%w: #%d", tracker.ErrEventNotFound, id)
	}
	return ev, nil
}

// EventInfo shows an event with its reminder progress
func (s *Service) EventInfo(guildID string, id int) (Reply, error) {
	ev, err := s.guildEvent(guildID, id)
	if err != nil {
		return Reply{}, err
	}

	embed := notifier.EventEmbed(ev.Event, s.loc, true)
	check := func(b bool) string {
		if b {
			return "✅"
		}
		return "⏳"
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  "Reminders",
		Value: fmt.Sprintf("%s 15 minutes\n%s Live", check(ev.Flags.Sent15), check(ev.Flags.SentLive)),
	})
	return Reply{Embed: embed}, nil
}

// DeleteEvent removes an event and its messages
func (s *Service) DeleteEvent(ctx context.Context, guildID string, id int) (Reply, error) {
	if _, err := s.guildEvent(guildID, id); err != nil {
		return Reply{}, err
	}
	ev, ok := s.state.Events.Delete(id)
	if !ok {
		return Reply{}, fmt.Errorf("%w: #%d", tracker.ErrEventNotFound, id)
	}

	if s.announcer != nil {
		refs := append([]chat.MessageRef{ev.Announcement}, ev.Notifications...)
		s.announcer.Retire(ctx, refs...)
	}
	slog.Info("Event deleted", "event", id, "name", ev.Name)
	return Reply{Content: fmt.Sprintf("Event **%s** (#%d) deleted.", ev.Name, id)}, nil
}

// EventRole sets the default role of a category in a guild
func (s *Service) EventRole(guildID, category, roleID string) (Reply, error) {
	if !slices.ContainsFunc(tracker.Categories, func(c tracker.Category) bool { return c.Value == category }) {
		return Reply{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	s.state.Events.SetCategoryRole(guildID, category, roleID)
	return Reply{Content: fmt.Sprintf("<@&%s> is now pinged for %s events.", roleID, tracker.CategoryLabel(category))}, nil
}

// Help lists the commands
func (s *Service) Help() Reply {
	return Reply{Embed: &discordgo.MessageEmbed{
		Title: "Commands",
		Color: 0x5CDBF0,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "League of Legends", Value: "`/watch` `/unwatch` `/watchlist` `/profile`"},
			{Name: "Twitch", Value: "`/twitchadd` `/twitchremove` `/twitchlist` `/twitchclear` `/pingrole`"},
			{Name: "Events", Value: "`/event-create` `/event-list` `/event-info` `/event-delete` `/event-role`"},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Times are shown in %s", s.loc)},
	}}
}

// describe turns a command error into the message shown to the user
func describe(err error) string {
	switch {
	case errors.Is(err, riot.ErrInvalidRiotID):
		return "Invalid Riot ID. Use `name#tag`, for example `Faker#KR1`."
	case errors.Is(err, ErrUnknownRegion):
		return fmt.Sprintf("Unknown region. Use one of: %s.", strings.Join(riot.Regions, ", "))
	case errors.Is(err, ErrRiotUnavailable):
		return "The Riot API is not configured."
	case errors.Is(err, ErrPlayerNotFound):
		return "This player does not exist. Check the name and the #tag."
	case errors.Is(err, tracker.ErrCapacity):
		return fmt.Sprintf("You already watch %d players (maximum). Use `/unwatch` to free a slot.", tracker.MaxWatchedPerOwner)
	case errors.Is(err, tracker.ErrAlreadyWatched):
		return "This player is already in your watch list."
	case errors.Is(err, tracker.ErrNotWatched):
		return "This player is not in your watch list."
	case errors.Is(err, ErrNoUsernames):
		return "Please provide at least one valid username."
	case errors.Is(err, tracker.ErrInvalidDate):
		return "Invalid date. Use `DD/MM/YYYY HH:MM`."
	case errors.Is(err, tracker.ErrDateInPast):
		return "The date is in the past."
	case errors.Is(err, tracker.ErrInvalidImage):
		return "The image must be an http:// or https:// URL."
	case errors.Is(err, ErrUnknownCategory):
		return "Unknown category."
	case errors.Is(err, tracker.ErrEventNotFound):
		return "No event with this id."
	case riot.StatusOf(err) == riot.StatusRateLimited:
		return "The Riot API is rate limiting us, try again in a minute."
	default:
		return "Something went wrong, please try again."
	}
}
