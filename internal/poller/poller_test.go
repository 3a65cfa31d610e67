package poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Coxinelcops/Test/internal/chat"
	"github.com/Coxinelcops/Test/internal/notifier"
	"github.com/Coxinelcops/Test/internal/riot"
	"github.com/Coxinelcops/Test/internal/storage"
	"github.com/Coxinelcops/Test/internal/tracker"
	"github.com/Coxinelcops/Test/internal/twitch"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type stubChampions struct{}

func (stubChampions) Lookup(context.Context, int) riot.Champion { return riot.Champion{Name: "Ahri"} }

func newNotifier(t *testing.T, gw chat.Gateway) *notifier.Notifier {
	t.Helper()
	n := notifier.New(gw, stubChampions{}, time.UTC)
	t.Cleanup(n.Stop)
	return n
}

// scriptedPresence returns the scripted results of a puuid in order, then repeats the last one
type scriptedPresence struct {
	mu      sync.Mutex
	results map[string][]riot.PresenceResult
}

func (s *scriptedPresence) FetchLivePresence(_ context.Context, puuid, _ string) riot.PresenceResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.results[puuid]
	if len(q) == 0 {
		return riot.PresenceResult{Status: riot.StatusNotFound, Code: 404}
	}
	r := q[0]
	if len(q) > 1 {
		s.results[puuid] = q[1:]
	}
	return r
}

func inGame(queue int) riot.PresenceResult {
	return riot.PresenceResult{Status: riot.StatusOK, Code: 200, Game: &riot.ActiveGame{QueueID: queue}}
}

var (
	offGame     = riot.PresenceResult{Status: riot.StatusNotFound, Code: 404}
	rateLimited = riot.PresenceResult{Status: riot.StatusRateLimited, Code: 429, Err: errors.New("429")}
)

func TestPresenceTransitionFiresOnce(t *testing.T) {
	t.Parallel()

	gw := chat.NewFakeGateway(map[string]string{"chan": "guild"})
	players := tracker.NewPlayerRegistry()
	require.NoError(t, players.Add(tracker.WatchedPlayer{OwnerID: "u", RiotID: "A#1", PUUID: "p1", ChannelID: "chan"}))

	fetcher := &scriptedPresence{results: map[string][]riot.PresenceResult{
		"p1": {offGame, inGame(riot.QueueRankedSolo), inGame(riot.QueueRankedSolo), rateLimited, offGame, inGame(riot.QueueRankedFlex)},
	}}
	w := NewPresenceWatcher(players, fetcher, newNotifier(t, gw))

	expect := []struct {
		sends int
		state bool
	}{
		{0, false}, // offline
		{1, true},  // entered a ranked game
		{1, true},  // still in game, no re-fire
		{1, true},  // unknown this cycle keeps the state
		{1, false}, // left
		{2, true},  // new game
	}
	for i, e := range expect {
		w.Tick(t.Context(), discard)
		assert.Equal(t, e.sends, gw.Count("send"), "tick %d", i)
		assert.Equal(t, e.state, players.List("u")[0].LastWatchedState, "tick %d", i)
	}
}

func TestPresenceIgnoresUntrackedQueues(t *testing.T) {
	t.Parallel()

	gw := chat.NewFakeGateway(map[string]string{"chan": "guild"})
	players := tracker.NewPlayerRegistry()
	require.NoError(t, players.Add(tracker.WatchedPlayer{OwnerID: "u", RiotID: "A#1", PUUID: "p1", ChannelID: "chan"}))
	require.NoError(t, players.Add(tracker.WatchedPlayer{OwnerID: "u", RiotID: "B#1", PUUID: "p2", ChannelID: "missing"}))
	require.NoError(t, players.Add(tracker.WatchedPlayer{OwnerID: "v", RiotID: "C#1", PUUID: "p3", ChannelID: "chan"}))

	fetcher := &scriptedPresence{results: map[string][]riot.PresenceResult{
		"p1": {inGame(450)},                  // ARAM
		"p2": {inGame(riot.QueueRankedSolo)}, // send fails
		"p3": {inGame(riot.QueueNormalDraft)},
	}}
	w := NewPresenceWatcher(players, fetcher, newNotifier(t, gw))
	w.Tick(t.Context(), discard)

	// A failing sibling does not stop the others
	assert.Equal(t, 1, gw.Count("send"))
	assert.False(t, players.List("u")[0].LastWatchedState)
	assert.True(t, players.List("u")[1].LastWatchedState)
	assert.True(t, players.List("v")[0].LastWatchedState)
}

// scriptedStreams answers each call with the next live set
type scriptedStreams struct {
	mu     sync.Mutex
	script []map[string]bool
	fail   map[string]bool
	calls  int
}

func (s *scriptedStreams) FetchLiveStreams(_ context.Context, logins []string) *twitch.StreamsResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := &twitch.StreamsResult{Failed: make(map[string]bool)}
	var liveSet map[string]bool
	if s.calls < len(s.script) {
		liveSet = s.script[s.calls]
	}
	s.calls++

	for _, l := range logins {
		if s.fail[l] {
			res.Failed[l] = true
			res.Err = errors.New("batch failed")
			continue
		}
		if liveSet[l] {
			res.Streams = append(res.Streams, twitch.Stream{UserLogin: l, UserName: l, ViewerCount: 10})
		}
	}
	return res
}

func TestStreamSequence(t *testing.T) {
	t.Parallel()

	gw := chat.NewFakeGateway(map[string]string{"chan": "guild"})
	streams := tracker.NewStreamRegistry()
	streams.Subscribe("guild", "chan", "a")

	live := map[string]bool{"a": true}
	fetcher := &scriptedStreams{script: []map[string]bool{nil, live, live, live, nil}}
	w := NewStreamWatcher(streams, fetcher, newNotifier(t, gw), gw)

	for range 5 {
		w.Tick(t.Context(), discard)
	}

	assert.Equal(t, 1, gw.Count("send"))
	assert.Equal(t, 2, gw.Count("edit"))
	assert.Equal(t, 1, gw.Count("delete"))
	assert.Empty(t, streams.LiveKeys())
}

func TestStreamFailedLookupKeepsMessage(t *testing.T) {
	t.Parallel()

	gw := chat.NewFakeGateway(map[string]string{"chan": "guild"})
	streams := tracker.NewStreamRegistry()
	streams.Subscribe("guild", "chan", "a")
	streams.SetPingRole("chan", "fans")

	fetcher := &scriptedStreams{script: []map[string]bool{{"a": true}}}
	w := NewStreamWatcher(streams, fetcher, newNotifier(t, gw), gw)

	w.Tick(t.Context(), discard)
	require.Equal(t, 1, gw.Count("send"))
	assert.Equal(t, "<@&fans>", gw.Calls()[0].Content)

	// Unknown this cycle: no edit, no delete
	fetcher.fail = map[string]bool{"a": true}
	w.Tick(t.Context(), discard)
	assert.Zero(t, gw.Count("delete"))
	assert.Len(t, streams.LiveKeys(), 1)
}

func TestStreamUnsubscribedWhileLive(t *testing.T) {
	t.Parallel()

	gw := chat.NewFakeGateway(map[string]string{"chan": "guild"})
	streams := tracker.NewStreamRegistry()
	streams.Subscribe("guild", "chan", "a")
	streams.Subscribe("guild", "chan", "b")

	live := map[string]bool{"a": true, "b": true}
	fetcher := &scriptedStreams{script: []map[string]bool{live, live}}
	w := NewStreamWatcher(streams, fetcher, newNotifier(t, gw), gw)

	w.Tick(t.Context(), discard)
	require.Equal(t, 2, gw.Count("send"))

	streams.Unsubscribe("chan", "a")
	w.Tick(t.Context(), discard)
	assert.Equal(t, 1, gw.Count("delete"))
	assert.Equal(t, 1, gw.Count("edit"))
	assert.Equal(t, []tracker.LiveKey{{ChannelID: "chan", Username: "b"}}, streams.LiveKeys())
}

func TestStreamMessageDeletedWhileLiveIsPostedAgain(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	gw := chat.NewFakeGateway(map[string]string{"chan": "guild"})
	streams := tracker.NewStreamRegistry()
	streams.Subscribe("guild", "chan", "a")

	live := map[string]bool{"a": true}
	fetcher := &scriptedStreams{script: []map[string]bool{live, live, live}}
	w := NewStreamWatcher(streams, fetcher, newNotifier(t, gw), gw)
	key := tracker.LiveKey{ChannelID: "chan", Username: "a"}

	w.Tick(ctx, discard)
	first, ok := streams.Live(key)
	require.True(t, ok)

	// A moderator removes the live message
	require.NoError(t, gw.DeleteMessage(ctx, first.Message))

	w.Tick(ctx, discard)
	assert.Equal(t, 2, gw.Count("send"))
	second, ok := streams.Live(key)
	require.True(t, ok)
	assert.NotEqual(t, first.Message, second.Message)
	assert.False(t, gw.Live(first.Message))
	assert.True(t, gw.Live(second.Message))
	assert.Len(t, streams.LiveKeys(), 1)

	// The new message is refreshed in place afterwards
	w.Tick(ctx, discard)
	assert.Equal(t, 2, gw.Count("send"))
	assert.Equal(t, 1, gw.Count("edit"))
}

func TestStreamRehydrateBeforeFirstTick(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Add(ctx, storage.StreamSubscription{Username: "a", GuildID: "guildX", ChannelID: "chanY"}))

	subs, err := store.ListAll(ctx)
	require.NoError(t, err)
	streams := tracker.NewStreamRegistry()
	streams.Rehydrate(subs)

	channels := streams.Channels()
	require.Len(t, channels, 1)
	assert.Equal(t, []string{"a"}, channels["chanY"])

	gw := chat.NewFakeGateway(map[string]string{"chanY": "guildX"})
	fetcher := &scriptedStreams{script: []map[string]bool{{"a": true}}}
	NewStreamWatcher(streams, fetcher, newNotifier(t, gw), gw).Tick(ctx, discard)
	assert.Equal(t, 1, gw.Count("send"))
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func setupReminder(t *testing.T, startIn time.Duration) (*EventReminder, *tracker.EventRegistry, *chat.FakeGateway, *clock, int) {
	t.Helper()

	c := &clock{now: time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC)}
	gw := chat.NewFakeGateway(map[string]string{"chan": "guild"})
	events := tracker.NewEventRegistry()
	ev := events.Create(tracker.Event{Name: "Finals", Start: c.Now().Add(startIn), GuildID: "guild", ChannelID: "chan"})

	n := newNotifier(t, gw)
	ann, err := n.AnnounceEvent(t.Context(), ev)
	require.NoError(t, err)
	events.SetAnnouncement(ev.ID, ann)

	return NewEventReminder(events, n, c.Now), events, gw, c, ev.ID
}

func TestReminderTenMinutesAhead(t *testing.T) {
	t.Parallel()
	r, events, gw, c, id := setupReminder(t, 10*time.Minute)

	r.Tick(t.Context(), discard)
	st, _ := events.Get(id)
	assert.True(t, st.Flags.Sent15)
	assert.False(t, st.Flags.SentLive)
	assert.Equal(t, 2, gw.Count("send")) // announcement + 15 min

	// Idempotent without time passing
	r.Tick(t.Context(), discard)
	assert.Equal(t, 2, gw.Count("send"))

	c.Advance(5 * time.Minute)
	r.Tick(t.Context(), discard)
	st, _ = events.Get(id)
	assert.False(t, st.Flags.SentLive)

	c.Advance(5 * time.Minute)
	r.Tick(t.Context(), discard)
	r.Tick(t.Context(), discard)
	st, _ = events.Get(id)
	assert.True(t, st.Flags.SentLive)
	assert.Equal(t, 3, gw.Count("send"))
	assert.Len(t, st.Notifications, 2)
}

func TestReminderStartedEventFiresBothInOrder(t *testing.T) {
	t.Parallel()
	r, events, gw, _, id := setupReminder(t, -time.Minute)

	r.Tick(t.Context(), discard)
	st, _ := events.Get(id)
	assert.True(t, st.Flags.Sent15)
	assert.True(t, st.Flags.SentLive)

	calls := gw.Calls()
	require.Len(t, calls, 3)
	assert.Contains(t, calls[1].Embed.Title, "In 15 minutes")
	assert.Contains(t, calls[2].Embed.Title, "LIVE NOW")
}

func TestReminderCleanupAndExpiry(t *testing.T) {
	t.Parallel()
	r, events, gw, c, id := setupReminder(t, 5*time.Minute)

	r.Tick(t.Context(), discard) // 15 min
	c.Advance(5 * time.Minute)
	r.Tick(t.Context(), discard) // live
	require.Equal(t, 3, gw.Count("send"))

	c.Advance(31 * time.Minute)
	r.Tick(t.Context(), discard)
	st, ok := events.Get(id)
	require.True(t, ok)
	assert.True(t, st.Flags.Cleaned)
	assert.Equal(t, 3, gw.Count("delete"))

	// Nothing more until the two hour mark
	r.Tick(t.Context(), discard)
	assert.Equal(t, 3, gw.Count("delete"))
	assert.Equal(t, 3, gw.Count("send"))

	c.Advance(90 * time.Minute)
	r.Tick(t.Context(), discard)
	_, ok = events.Get(id)
	assert.False(t, ok)
	assert.Equal(t, 3, gw.Count("send"))
}

func TestReminderAfterLongPauseDoesNotResurrect(t *testing.T) {
	t.Parallel()
	r, events, gw, c, id := setupReminder(t, 5*time.Minute)

	r.Tick(t.Context(), discard)
	c.Advance(5 * time.Minute)
	r.Tick(t.Context(), discard)

	// Process paused past both thresholds
	c.Advance(3 * time.Hour)
	r.Tick(t.Context(), discard)
	r.Tick(t.Context(), discard)
	_, ok := events.Get(id)
	assert.False(t, ok)
	assert.Equal(t, 3, gw.Count("send"))
}

type readyGate struct{ ch chan struct{} }

func (g readyGate) WaitUntilReady(ctx context.Context) error {
	select {
	case <-g.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestLoopWaitsTicksAndStops(t *testing.T) {
	t.Parallel()

	gate := readyGate{ch: make(chan struct{})}
	var ticks atomic.Int32
	l := NewLoop("test", 10*time.Millisecond, gate, func(context.Context, *slog.Logger) {
		if ticks.Add(1) == 2 {
			panic("boom")
		}
	})

	done := make(chan error, 1)
	go func() { done <- l.Start(t.Context()) }()

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, ticks.Load())
	assert.False(t, l.IsRunning())

	close(gate.ch)
	assert.Eventually(t, func() bool { return ticks.Load() >= 3 }, time.Second, 5*time.Millisecond)
	assert.True(t, l.IsRunning())

	l.Stop()
	require.NoError(t, <-done)
	assert.False(t, l.IsRunning())
}

func TestLoopCancelledBeforeReady(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	l := NewLoop("test", time.Minute, readyGate{ch: make(chan struct{})}, func(context.Context, *slog.Logger) {
		t.Error("tick must not run")
	})
	cancel()
	assert.ErrorIs(t, l.Start(ctx), context.Canceled)
}

func TestLoopStoppedBeforeStartNeverTicks(t *testing.T) {
	t.Parallel()

	var ticks atomic.Int32
	l := NewLoop("test", time.Millisecond, nil, func(context.Context, *slog.Logger) {
		ticks.Add(1)
	})

	l.Stop()
	require.NoError(t, l.Start(t.Context()))
	assert.Zero(t, ticks.Load())
	assert.False(t, l.IsRunning())
}

func TestLoopStoppedWhileWaitingForReady(t *testing.T) {
	t.Parallel()

	var ticks atomic.Int32
	l := NewLoop("test", time.Millisecond, readyGate{ch: make(chan struct{})}, func(context.Context, *slog.Logger) {
		ticks.Add(1)
	})

	done := make(chan error, 1)
	go func() { done <- l.Start(t.Context()) }()
	time.Sleep(10 * time.Millisecond)

	l.Stop()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("loop did not return after Stop")
	}
	assert.Zero(t, ticks.Load())
}
