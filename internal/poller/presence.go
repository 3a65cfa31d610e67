package poller

import (
	"context"
	"log/slog"

	"github.com/Coxinelcops/Test/internal/chat"
	"github.com/Coxinelcops/Test/internal/metrics"
	"github.com/Coxinelcops/Test/internal/riot"
	"github.com/Coxinelcops/Test/internal/tracker"
)

// PresenceFetcher looks up the live game of a player
type PresenceFetcher interface {
	FetchLivePresence(ctx context.Context, puuid, platform string) riot.PresenceResult
}

// PresenceNotifier announces a detected game
type PresenceNotifier interface {
	OnPresenceDetected(ctx context.Context, p tracker.WatchedPlayer, game *riot.ActiveGame) (chat.MessageRef, error)
}

// PresenceWatcher notifies when a watched player enters a tracked queue
type PresenceWatcher struct {
	players  *tracker.PlayerRegistry
	riot     PresenceFetcher
	notifier PresenceNotifier
}

// NewPresenceWatcher creates the presence watcher
func NewPresenceWatcher(players *tracker.PlayerRegistry, fetcher PresenceFetcher, notifier PresenceNotifier) *PresenceWatcher {
	return &PresenceWatcher{players: players, riot: fetcher, notifier: notifier}
}

// Tick checks every watched player once
func (w *PresenceWatcher) Tick(ctx context.Context, log *slog.Logger) {
	players := w.players.Snapshot()
	metrics.WatchedPlayers.Set(float64(len(players)))
	if len(players) == 0 {
		log.Debug("No players to poll")
		return
	}

	log.Debug("Polling players", "count", len(players))

	for _, p := range players {
		select {
		case <-ctx.Done():
			return
		default:
			guard(log, p.RiotID, func() { w.checkPlayer(ctx, log, p) })
		}
	}
}

// checkPlayer fires on a false to true transition and always writes the
// fresh state back
func (w *PresenceWatcher) checkPlayer(ctx context.Context, log *slog.Logger, p tracker.WatchedPlayer) {
	res := w.riot.FetchLivePresence(ctx, p.PUUID, p.Platform)
	if !res.Known() {
		metrics.FetchFailures.WithLabelValues("riot", res.Status.String()).Inc()
		if res.Status == riot.StatusAuthInvalid {
			log.Error("Riot API key rejected", "player", p.RiotID, "code", res.Code)
		} else {
			log.Warn("Presence unknown this cycle", "player", p.RiotID, "status", res.Status, "error", res.Err)
		}
		return
	}

	current := res.InTrackedGame()
	if current && !p.LastWatchedState {
		log.Info("Game detected", "player", p.RiotID, "owner", p.OwnerID, "queue", res.Game.QueueID)
		if _, err := w.notifier.OnPresenceDetected(ctx, p, res.Game); err != nil {
			log.Error("Failed to send presence notification", "player", p.RiotID, "error", err)
		}
	}

	if !w.players.SetState(p.OwnerID, p.RiotID, current) {
		log.Debug("Player removed during tick", "player", p.RiotID)
	}
}
