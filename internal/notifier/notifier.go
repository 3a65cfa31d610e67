// Package notifier owns the lifecycle of outbound notifications: it builds
// the embeds, creates, edits and deletes messages, and schedules the
// self-deletion of expiring ones. It never mutates tracker state.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Coxinelcops/Test/internal/chat"
	"github.com/Coxinelcops/Test/internal/metrics"
	"github.com/Coxinelcops/Test/internal/riot"
	"github.com/Coxinelcops/Test/internal/tracker"
	"github.com/Coxinelcops/Test/internal/twitch"
)

// Self-deletion delays per notification class
const (
	PresenceDeleteAfter = 25 * time.Minute
	ReminderDeleteAfter = 5 * time.Minute
)

// Notifier sends notifications through a chat gateway
type Notifier struct {
	gw        chat.Gateway
	champions ChampionResolver
	deleter   *Deleter
	loc       *time.Location
	now       func() time.Time
}

// Option customizes a Notifier
type Option func(*Notifier)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(n *Notifier) { n.now = now }
}

// New creates a notifier. Times are rendered in loc.
func New(gw chat.Gateway, champions ChampionResolver, loc *time.Location, opts ...Option) *Notifier {
	if loc == nil {
		loc = time.UTC
	}
	n := &Notifier{
		gw:        gw,
		champions: champions,
		deleter:   NewDeleter(gw),
		loc:       loc,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Deleter exposes the self-deletion queue, shared with command replies
func (n *Notifier) Deleter() *Deleter {
	return n.deleter
}

// Stop abandons pending self-deletions
func (n *Notifier) Stop() {
	n.deleter.Stop()
}

// roleMention returns the mention of a role if it exists in the channel's guild
func (n *Notifier) roleMention(channelID, roleID string) string {
	if roleID == "" {
		return ""
	}
	guildID := n.gw.GuildOfChannel(channelID)
	if guildID != "" && !n.gw.HasRole(guildID, roleID) {
		return ""
	}
	return fmt.Sprintf("<@&%s>", roleID)
}

// OnPresenceDetected announces that a watched player entered a tracked game.
// The message deletes itself after PresenceDeleteAfter.
func (n *Notifier) OnPresenceDetected(ctx context.Context, p tracker.WatchedPlayer, game *riot.ActiveGame) (chat.MessageRef, error) {
	if game == nil {
		return chat.MessageRef{}, errors.New("no active game")
	}

	content := n.roleMention(p.ChannelID, p.PingRoleID)
	if content == "" {
		content = fmt.Sprintf("<@%s>", p.OwnerID)
	}

	embed := PresenceEmbed(ctx, n.champions, p, game, n.now())
	ref, err := n.gw.SendMessage(ctx, p.ChannelID, content, embed)
	if err != nil {
		return chat.MessageRef{}, fmt.Errorf("failed to send presence notification: %w", err)
	}

	metrics.Notifications.WithLabelValues(metrics.KindPresence).Inc()
	n.deleter.Schedule(ref, PresenceDeleteAfter)
	slog.Info("Presence notification sent", "player", p.RiotID, "queue", game.QueueID, "channel", p.ChannelID)
	return ref, nil
}

// OnStreamStarted posts the live message of a stream, mentioning pingRoleID
// when set. Live messages never delete themselves.
func (n *Notifier) OnStreamStarted(ctx context.Context, channelID, pingRoleID string, s twitch.Stream) (chat.MessageRef, error) {
	content := ""
	if pingRoleID != "" {
		content = fmt.Sprintf("<@&%s>", pingRoleID)
	}

	ref, err := n.gw.SendMessage(ctx, channelID, content, StreamEmbed(s, n.loc, n.now(), false))
	if err != nil {
		return chat.MessageRef{}, fmt.Errorf("failed to send stream notification: %w", err)
	}

	metrics.Notifications.WithLabelValues(metrics.KindStreamStart).Inc()
	slog.Info("New stream detected", "user", s.UserName, "viewers", s.ViewerCount, "channel", channelID)
	return ref, nil
}

// OnStreamRefresh edits the live message in place
func (n *Notifier) OnStreamRefresh(ctx context.Context, ref chat.MessageRef, s twitch.Stream) error {
	if err := n.gw.EditMessage(ctx, ref, StreamEmbed(s, n.loc, n.now(), true)); err != nil {
		return fmt.Errorf("failed to update stream notification: %w", err)
	}

	metrics.Notifications.WithLabelValues(metrics.KindStreamUpdate).Inc()
	slog.Debug("Stream updated", "user", s.UserName, "viewers", s.ViewerCount)
	return nil
}

// OnStreamEnded deletes the live message
func (n *Notifier) OnStreamEnded(ctx context.Context, ref chat.MessageRef) error {
	if err := n.gw.DeleteMessage(ctx, ref); err != nil {
		return fmt.Errorf("failed to delete stream notification: %w", err)
	}

	metrics.Notifications.WithLabelValues(metrics.KindStreamEnd).Inc()
	return nil
}

// AnnounceEvent posts the announcement of a new event
func (n *Notifier) AnnounceEvent(ctx context.Context, ev tracker.Event) (chat.MessageRef, error) {
	ref, err := n.gw.SendMessage(ctx, ev.ChannelID, "", EventEmbed(ev, n.loc, true))
	if err != nil {
		return chat.MessageRef{}, fmt.Errorf("failed to announce event: %w", err)
	}
	return ref, nil
}

// OnEventReminder sends the 15 minute (minutesBefore 15) or live
// (minutesBefore 0) reminder, mentioning the event role
func (n *Notifier) OnEventReminder(ctx context.Context, ev tracker.Event, minutesBefore int) (chat.MessageRef, error) {
	if !n.gw.HasChannel(ev.ChannelID) {
		return chat.MessageRef{}, chat.ErrUnknownChannel
	}

	content := ""
	if ev.RoleID != "" && n.gw.HasRole(ev.GuildID, ev.RoleID) {
		content = fmt.Sprintf("<@&%s>", ev.RoleID)
	}

	ref, err := n.gw.SendMessage(ctx, ev.ChannelID, content, ReminderEmbed(ev, minutesBefore, n.loc, n.now()))
	if err != nil {
		return chat.MessageRef{}, fmt.Errorf("failed to send event reminder: %w", err)
	}

	kind := metrics.KindEvent15
	if minutesBefore == 0 {
		kind = metrics.KindEventLive
	}
	metrics.Notifications.WithLabelValues(kind).Inc()
	n.deleter.Schedule(ref, ReminderDeleteAfter)
	slog.Info("Event reminder sent", "event", ev.ID, "name", ev.Name, "minutesBefore", minutesBefore)
	return ref, nil
}

// Retire deletes messages now; failures are logged and skipped
func (n *Notifier) Retire(ctx context.Context, refs ...chat.MessageRef) int {
	deleted := 0
	for _, ref := range refs {
		if ref.IsZero() {
			continue
		}
		if err := n.gw.DeleteMessage(ctx, ref); err != nil {
			slog.Warn("Failed to delete message", "channel", ref.ChannelID, "message", ref.MessageID, "error", err)
			continue
		}
		deleted++
	}
	if deleted > 0 {
		metrics.Notifications.WithLabelValues(metrics.KindCleanup).Add(float64(deleted))
	}
	return deleted
}
