package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/sync/errgroup"

	"github.com/Coxinelcops/Test/internal/bot"
	"github.com/Coxinelcops/Test/internal/config"
	"github.com/Coxinelcops/Test/internal/discord"
	"github.com/Coxinelcops/Test/internal/health"
	"github.com/Coxinelcops/Test/internal/notifier"
	"github.com/Coxinelcops/Test/internal/poller"
	"github.com/Coxinelcops/Test/internal/riot"
	"github.com/Coxinelcops/Test/internal/storage"
	"github.com/Coxinelcops/Test/internal/tracker"
	"github.com/Coxinelcops/Test/internal/twitch"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Set up logging
	setupLogging(cfg.LogLevel)

	slog.Info("Starting notification bot", "timezone", cfg.Timezone.String())

	// Create context that cancels on interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Bot stopped with an error", "error", err)
		os.Exit(1)
	}
	slog.Info("Bot stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	started := time.Now()

	// Subscription store, then rehydrate the tracker before any tick
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("Failed to close store", "error", err)
		}
	}()

	state := tracker.NewState()
	subs, err := store.ListAll(ctx)
	if err != nil {
		slog.Error("Failed to load stream subscriptions", "backend", store.Backend(), "error", err)
	} else {
		n := state.Streams.Rehydrate(subs)
		slog.Info("Stream subscriptions loaded", "backend", store.Backend(), "count", n)
	}

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return err
	}
	gw := discord.New(session)

	riotClient := riot.NewClient(cfg.RiotAPIKey)
	if !riotClient.Configured() {
		slog.Warn("RIOT_API_KEY not set, League of Legends features disabled")
	}
	champions := riot.NewChampions("")

	twitchClient := twitch.NewClient(cfg.TwitchClientID, cfg.TwitchClientSecret)
	if err := twitchClient.Warmup(ctx); err != nil {
		slog.Warn("Twitch unavailable, stream notifications disabled until credentials work", "error", err)
	}

	notif := notifier.New(gw, champions, cfg.Timezone)
	defer notif.Stop()

	svc := bot.NewService(bot.ServiceConfig{
		State:         state,
		Store:         store,
		Riot:          riotClient,
		Streams:       twitchClient,
		Announcer:     notif,
		Icons:         champions,
		Location:      cfg.Timezone,
		DefaultRegion: cfg.DefaultRegion,
		WatchPingRole: cfg.WatchPingRoleID,
	})
	b := bot.New(session, svc, notif.Deleter())

	presence := poller.NewPresenceWatcher(state.Players, riotClient, notif)
	streams := poller.NewStreamWatcher(state.Streams, twitchClient, notif, gw)
	reminders := poller.NewEventReminder(state.Events, notif, nil)

	loops := []*poller.Loop{
		poller.NewLoop("presence", cfg.PresenceInterval, gw, presence.Tick),
		poller.NewLoop("streams", cfg.StreamInterval, gw, streams.Tick),
		poller.NewLoop("reminders", cfg.ReminderInterval, gw, reminders.Tick),
	}

	if err := b.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := b.Stop(); err != nil {
			slog.Error("Error during shutdown", "error", err)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	healthLoops := make([]health.Loop, 0, len(loops))
	for _, l := range loops {
		healthLoops = append(healthLoops, l)
		g.Go(func() error {
			if err := l.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if cfg.Port != "" {
		srv := health.NewServer(":"+cfg.Port, health.Source{
			Started:  started,
			Storage:  store.Backend(),
			Location: cfg.Timezone,
			State:    state,
			Loops:    healthLoops,
			Ready:    gw.IsReady,
			Guilds:   gw.GuildCount,
		})
		g.Go(func() error { return srv.Start(gctx) })
	}

	slog.Info("Bot is running. Press Ctrl+C to stop.")
	<-gctx.Done()

	slog.Info("Shutting down...")
	for _, l := range loops {
		l.Stop()
	}
	return g.Wait()
}

func setupLogging(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
