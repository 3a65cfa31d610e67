package poller

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/Coxinelcops/Test/internal/chat"
	"github.com/Coxinelcops/Test/internal/metrics"
	"github.com/Coxinelcops/Test/internal/tracker"
	"github.com/Coxinelcops/Test/internal/twitch"
)

// StreamFetcher looks up which logins are live
type StreamFetcher interface {
	FetchLiveStreams(ctx context.Context, logins []string) *twitch.StreamsResult
}

// StreamNotifier drives the live message of a stream
type StreamNotifier interface {
	OnStreamStarted(ctx context.Context, channelID, pingRoleID string, s twitch.Stream) (chat.MessageRef, error)
	OnStreamRefresh(ctx context.Context, ref chat.MessageRef, s twitch.Stream) error
	OnStreamEnded(ctx context.Context, ref chat.MessageRef) error
}

// ChannelChecker reports whether a delivery channel still exists
type ChannelChecker interface {
	HasChannel(channelID string) bool
}

// StreamWatcher keeps exactly one live message per (channel, streamer)
type StreamWatcher struct {
	streams  *tracker.StreamRegistry
	twitch   StreamFetcher
	notifier StreamNotifier
	channels ChannelChecker
	now      func() time.Time
}

// NewStreamWatcher creates the stream watcher
func NewStreamWatcher(streams *tracker.StreamRegistry, fetcher StreamFetcher, notifier StreamNotifier, channels ChannelChecker) *StreamWatcher {
	return &StreamWatcher{
		streams:  streams,
		twitch:   fetcher,
		notifier: notifier,
		channels: channels,
		now:      time.Now,
	}
}

// Tick fetches every watched login once and reconciles each channel. A
// channel also covers logins that still have a live message after being
// unsubscribed, so that message gets retired.
func (w *StreamWatcher) Tick(ctx context.Context, log *slog.Logger) {
	perChannel := make(map[string]map[string]bool)
	add := func(channelID, login string) {
		if perChannel[channelID] == nil {
			perChannel[channelID] = make(map[string]bool)
		}
		perChannel[channelID][login] = true
	}
	for channelID, logins := range w.streams.Channels() {
		for _, login := range logins {
			add(channelID, login)
		}
	}
	for _, key := range w.streams.LiveKeys() {
		add(key.ChannelID, key.Username)
	}
	defer w.updateGauges()

	if len(perChannel) == 0 {
		log.Debug("No streamers to poll")
		return
	}

	channelIDs := make([]string, 0, len(perChannel))
	unique := make(map[string]bool)
	for channelID, logins := range perChannel {
		if !w.channels.HasChannel(channelID) {
			log.Warn("Skipping unknown channel", "channel", channelID)
			w.forgetChannel(channelID, logins)
			continue
		}
		channelIDs = append(channelIDs, channelID)
		for login := range logins {
			unique[login] = true
		}
	}
	sort.Strings(channelIDs)

	logins := make([]string, 0, len(unique))
	for login := range unique {
		logins = append(logins, login)
	}
	sort.Strings(logins)
	if len(logins) == 0 {
		return
	}

	res := w.twitch.FetchLiveStreams(ctx, logins)
	if res.Err != nil {
		metrics.FetchFailures.WithLabelValues("twitch", "error").Inc()
		log.Warn("Some streams are unknown this cycle", "failed", len(res.Failed), "error", res.Err)
	}
	live := res.Live()

	for _, channelID := range channelIDs {
		channelLogins := make([]string, 0, len(perChannel[channelID]))
		for login := range perChannel[channelID] {
			channelLogins = append(channelLogins, login)
		}
		sort.Strings(channelLogins)

		for _, login := range channelLogins {
			if ctx.Err() != nil {
				return
			}
			if res.Failed[login] {
				continue
			}
			guard(log, channelID+"/"+login, func() {
				s, isLive := live[login]
				w.reconcile(ctx, log, tracker.LiveKey{ChannelID: channelID, Username: login}, s, isLive)
			})
		}
	}
}

func (w *StreamWatcher) reconcile(ctx context.Context, log *slog.Logger, key tracker.LiveKey, s twitch.Stream, isLive bool) {
	entry, tracked := w.streams.Live(key)
	subscribed := w.streams.Subscribed(key.ChannelID, key.Username)

	switch {
	case isLive && subscribed && !tracked:
		w.announce(ctx, log, key, s)

	case isLive && subscribed && tracked:
		err := w.notifier.OnStreamRefresh(ctx, entry.Message, s)
		if errors.Is(err, chat.ErrUnknownMessage) {
			// Deleted by hand while live; post a fresh one
			log.Info("Live message is gone, posting it again", "user", key.Username, "channel", key.ChannelID)
			w.streams.RemoveLive(key)
			w.announce(ctx, log, key, s)
			return
		}
		if err != nil {
			log.Error("Failed to update stream", "user", key.Username, "channel", key.ChannelID, "error", err)
			return
		}
		entry.LastUpdate = w.now()
		w.streams.SetLive(key, entry)

	case tracked:
		// Offline or unsubscribed; the entry goes away even if the delete fails
		if err := w.notifier.OnStreamEnded(ctx, entry.Message); err != nil {
			log.Warn("Failed to delete stream message", "user", key.Username, "channel", key.ChannelID, "error", err)
		}
		w.streams.RemoveLive(key)
		log.Info("Stream ended", "user", key.Username, "channel", key.ChannelID)
	}
}

func (w *StreamWatcher) announce(ctx context.Context, log *slog.Logger, key tracker.LiveKey, s twitch.Stream) {
	ref, err := w.notifier.OnStreamStarted(ctx, key.ChannelID, w.streams.PingRole(key.ChannelID), s)
	if err != nil {
		log.Error("Failed to announce stream", "user", key.Username, "channel", key.ChannelID, "error", err)
		return
	}
	w.streams.SetLive(key, tracker.LiveEntry{Message: ref, LastUpdate: w.now()})
}

// forgetChannel drops live entries of a channel the bot can no longer see
func (w *StreamWatcher) forgetChannel(channelID string, logins map[string]bool) {
	for login := range logins {
		w.streams.RemoveLive(tracker.LiveKey{ChannelID: channelID, Username: login})
	}
}

func (w *StreamWatcher) updateGauges() {
	subscribed, live := w.streams.Counts()
	metrics.SubscribedStreamers.Set(float64(subscribed))
	metrics.LiveStreams.Set(float64(live))
}
