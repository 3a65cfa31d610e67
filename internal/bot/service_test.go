package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
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

var fixedNow = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

type fakeRiot struct {
	accounts  map[string]riot.Account // lowercase Name#Tag
	presence  map[string]riot.PresenceResult
	entries   []riot.LeagueEntry
	lookups   int
	disabled  bool
}

func (f *fakeRiot) Configured() bool { return !f.disabled }

func (f *fakeRiot) GetAccountByRiotID(_ context.Context, name, tag, _ string) (*riot.Account, error) {
	f.lookups++
	acc, ok := f.accounts[strings.ToLower(name+"#"+tag)]
	if !ok {
		return nil, &riot.APIError{Status: riot.StatusNotFound, Code: http.StatusNotFound}
	}
	return &acc, nil
}

func (f *fakeRiot) FetchLivePresence(_ context.Context, puuid, _ string) riot.PresenceResult {
	if r, ok := f.presence[puuid]; ok {
		return r
	}
	return riot.PresenceResult{Status: riot.StatusNotFound, Code: http.StatusNotFound}
}

func (f *fakeRiot) GetSummonerByPUUID(_ context.Context, puuid, _ string) (*riot.Summoner, error) {
	return &riot.Summoner{PUUID: puuid, ProfileIconID: 7, SummonerLevel: 321}, nil
}

func (f *fakeRiot) GetLeagueEntries(context.Context, string, string) ([]riot.LeagueEntry, error) {
	return f.entries, nil
}

type fakeStreams struct {
	live   []string
	failed []string
}

func (f *fakeStreams) Configured() bool { return true }

func (f *fakeStreams) FetchLiveStreams(_ context.Context, logins []string) *twitch.StreamsResult {
	res := &twitch.StreamsResult{Failed: map[string]bool{}}
	for _, l := range f.failed {
		res.Failed[l] = true
	}
	for _, l := range f.live {
		res.Streams = append(res.Streams, twitch.Stream{UserLogin: l, ViewerCount: 2500})
	}
	return res
}

// failingStore rejects every write
type failingStore struct{ storage.Store }

func (failingStore) Add(context.Context, storage.StreamSubscription) error {
	return errors.New("disk full")
}

type fixture struct {
	svc   *Service
	state *tracker.State
	store storage.Store
	riot  *fakeRiot
	gw    *chat.FakeGateway
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gw := chat.NewFakeGateway(map[string]string{"chan": "guild"})
	n := notifier.New(gw, nil, time.UTC, notifier.WithClock(func() time.Time { return fixedNow }))
	t.Cleanup(n.Stop)

	f := &fixture{
		state: tracker.NewState(),
		store: storage.NewMemoryStore(),
		riot: &fakeRiot{
			accounts: map[string]riot.Account{
				"faker#kr1": {PUUID: "p-faker", GameName: "Faker", TagLine: "KR1"},
				"caps#euw":  {PUUID: "p-caps", GameName: "Caps", TagLine: "EUW"},
			},
			presence: map[string]riot.PresenceResult{
				"p-caps": {Status: riot.StatusOK, Code: 200, Game: &riot.ActiveGame{QueueID: riot.QueueRankedSolo}},
			},
		},
		gw: gw,
	}
	f.svc = NewService(ServiceConfig{
		State:         f.state,
		Store:         f.store,
		Riot:          f.riot,
		Streams:       &fakeStreams{live: []string{"gotaga"}, failed: []string{"broken"}},
		Announcer:     n,
		Location:      time.UTC,
		Now:           func() time.Time { return fixedNow },
		DefaultRegion: "euw",
		WatchPingRole: "default-role",
	})
	return f
}

func TestWatchSeedsInitialPresence(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	reply, err := f.svc.Watch(t.Context(), WatchRequest{OwnerID: "u1", ChannelID: "chan", RiotID: "Caps#EUW"})
	require.NoError(t, err)
	require.NotNil(t, reply.Embed)
	assert.Contains(t, reply.Embed.Description, "In a watched game")

	players := f.state.Players.List("u1")
	require.Len(t, players, 1)
	assert.True(t, players[0].LastWatchedState, "a game in progress must not be announced")
	assert.Equal(t, "euw1", players[0].Platform)
	assert.Equal(t, "default-role", players[0].PingRoleID)

	_, err = f.svc.Watch(t.Context(), WatchRequest{OwnerID: "u1", ChannelID: "chan", RiotID: "Faker#KR1", Region: "kr", RoleID: "r1"})
	require.NoError(t, err)
	players = f.state.Players.List("u1")
	require.Len(t, players, 2)
	assert.False(t, players[1].LastWatchedState)
	assert.Equal(t, "r1", players[1].PingRoleID)
}

func TestWatchRejectsBeforeCallingRiot(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.svc.Watch(t.Context(), WatchRequest{OwnerID: "u1", RiotID: "Faker"})
	assert.ErrorIs(t, err, riot.ErrInvalidRiotID)

	_, err = f.svc.Watch(t.Context(), WatchRequest{OwnerID: "u1", RiotID: "Faker#KR1", Region: "moon"})
	assert.ErrorIs(t, err, ErrUnknownRegion)

	for i := range tracker.MaxWatchedPerOwner {
		require.NoError(t, f.state.Players.Add(tracker.WatchedPlayer{OwnerID: "u2", RiotID: fmt.Sprintf("P%d#EUW", i)}))
	}
	_, err = f.svc.Watch(t.Context(), WatchRequest{OwnerID: "u2", RiotID: "Faker#KR1"})
	assert.ErrorIs(t, err, tracker.ErrCapacity)

	_, err = f.svc.Watch(t.Context(), WatchRequest{OwnerID: "u2", RiotID: "p3#euw"})
	assert.ErrorIs(t, err, tracker.ErrCapacity)

	assert.Zero(t, f.riot.lookups)
}

func TestWatchDuplicateAndUnknownPlayer(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.svc.Watch(t.Context(), WatchRequest{OwnerID: "u1", RiotID: "Faker#KR1"})
	require.NoError(t, err)

	_, err = f.svc.Watch(t.Context(), WatchRequest{OwnerID: "u1", RiotID: "FAKER#kr1"})
	assert.ErrorIs(t, err, tracker.ErrAlreadyWatched)

	_, err = f.svc.Watch(t.Context(), WatchRequest{OwnerID: "u1", RiotID: "Nobody#000"})
	assert.ErrorIs(t, err, ErrPlayerNotFound)
	assert.Contains(t, describe(err), "does not exist")

	f.riot.disabled = true
	_, err = f.svc.Watch(t.Context(), WatchRequest{OwnerID: "u3", RiotID: "Faker#KR1"})
	assert.ErrorIs(t, err, ErrRiotUnavailable)
}

func TestUnwatchAndWatchlist(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	assert.Contains(t, f.svc.Watchlist("u1").Content, "not watching")

	for _, id := range []string{"Faker#KR1", "Caps#EUW"} {
		_, err := f.svc.Watch(t.Context(), WatchRequest{OwnerID: "u1", RiotID: id})
		require.NoError(t, err)
	}

	list := f.svc.Watchlist("u1")
	require.NotNil(t, list.Embed)
	assert.Contains(t, list.Embed.Description, "Faker#KR1")
	assert.Contains(t, list.Embed.Description, "🟡 **Caps#EUW**")
	assert.Equal(t, "2/15 players", list.Embed.Footer.Text)

	reply, err := f.svc.Unwatch("u1", "faker#kr1")
	require.NoError(t, err)
	assert.Contains(t, reply.Content, "Faker#KR1")

	_, err = f.svc.Unwatch("u1", "faker#kr1")
	assert.ErrorIs(t, err, tracker.ErrNotWatched)

	reply, err = f.svc.Unwatch("u1", "ALL")
	require.NoError(t, err)
	assert.Contains(t, reply.Content, "1 player")
	assert.Zero(t, f.state.Players.Count())
}

func TestProfile(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.riot.entries = []riot.LeagueEntry{
		{QueueType: "RANKED_FLEX_SR", Tier: "IRON"},
		{QueueType: "RANKED_SOLO_5x5", Tier: "GOLD", Rank: "II", LeaguePoints: 54, Wins: 2, Losses: 1},
	}

	reply, err := f.svc.Profile(t.Context(), "Faker#KR1", "kr")
	require.NoError(t, err)
	require.NotNil(t, reply.Embed)
	assert.Equal(t, "Faker#KR1", reply.Embed.Title)
	assert.Equal(t, "Gold II - 54 LP", reply.Embed.Description)
	assert.Equal(t, 0xFFD700, reply.Embed.Color)
	require.Len(t, reply.Embed.Fields, 4)
	assert.Equal(t, "66.7%", reply.Embed.Fields[3].Value)

	f.riot.entries = nil
	reply, err = f.svc.Profile(t.Context(), "Faker#KR1", "")
	require.NoError(t, err)
	assert.Equal(t, "Unranked", reply.Embed.Description)
	assert.Equal(t, "Region: EUW", reply.Embed.Footer.Text)
}

func TestTwitchCommandsWriteStoreThenTracker(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	reply, err := f.svc.TwitchAdd(ctx, "guild", "chan", "@Gotaga  kamet0 gotaga")
	require.NoError(t, err)
	assert.Equal(t, "Added: gotaga, kamet0", reply.Content)
	assert.True(t, f.state.Streams.Subscribed("chan", "gotaga"))

	reply, err = f.svc.TwitchAdd(ctx, "guild", "chan", "kamet0 broken")
	require.NoError(t, err)
	assert.Equal(t, "Added: broken\nAlready followed: kamet0", reply.Content)

	list, err := f.svc.TwitchList(ctx, "guild", "chan")
	require.NoError(t, err)
	require.NotNil(t, list.Embed)
	assert.Contains(t, list.Embed.Description, "🔴 **gotaga** - 2k viewers")
	assert.Contains(t, list.Embed.Description, "❔ broken")
	assert.Contains(t, list.Embed.Description, "⚫ kamet0")
	assert.Equal(t, "3 streamer(s) • 1 live", list.Embed.Footer.Text)

	reply, err = f.svc.TwitchRemove(ctx, "guild", "chan", "gotaga nobody")
	require.NoError(t, err)
	assert.Equal(t, "Removed: gotaga\nNot followed: nobody", reply.Content)
	assert.False(t, f.state.Streams.Subscribed("chan", "gotaga"))

	reply, err = f.svc.TwitchClear(ctx, "guild", "chan")
	require.NoError(t, err)
	assert.Contains(t, reply.Content, "2 streamer(s)")
	assert.Empty(t, f.state.Streams.ChannelStreamers("chan"))

	n, err := f.store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = f.svc.TwitchAdd(ctx, "guild", "chan", " @ ")
	assert.ErrorIs(t, err, ErrNoUsernames)
}

func TestTwitchAddStoreFailureLeavesTrackerUntouched(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.svc.store = failingStore{Store: f.store}

	reply, err := f.svc.TwitchAdd(t.Context(), "guild", "chan", "gotaga")
	require.NoError(t, err)
	assert.Equal(t, "Could not save: gotaga", reply.Content)
	assert.False(t, f.state.Streams.Subscribed("chan", "gotaga"))
}

func TestPingRole(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	reply := f.svc.PingRole("chan", "r9")
	assert.Contains(t, reply.Content, "<@&r9>")
	assert.Equal(t, "r9", f.state.Streams.PingRole("chan"))
}

func TestEventLifecycle(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := t.Context()

	_, err := f.svc.EventRole("guild", "lec", "lec-fans")
	require.NoError(t, err)

	reply, err := f.svc.CreateEvent(ctx, EventRequest{
		Name: "LEC Finals", Date: "08/03/2026 17:00", Category: "lec",
		Creator: "alice", GuildID: "guild", ChannelID: "chan",
	})
	require.NoError(t, err)
	assert.Contains(t, reply.Content, "#1")

	ev, ok := f.state.Events.Get(1)
	require.True(t, ok)
	assert.Equal(t, "lec-fans", ev.RoleID, "role defaults to the category role")
	assert.Equal(t, time.Date(2026, 3, 8, 17, 0, 0, 0, time.UTC), ev.Start)
	require.False(t, ev.Announcement.IsZero())
	assert.True(t, f.gw.Live(ev.Announcement))

	list := f.svc.ListEvents("guild")
	require.NotNil(t, list.Embed)
	require.Len(t, list.Embed.Fields, 1)
	assert.Equal(t, "#1 • LEC Finals", list.Embed.Fields[0].Name)
	assert.Contains(t, f.svc.ListEvents("other").Content, "No event")

	info, err := f.svc.EventInfo("guild", 1)
	require.NoError(t, err)
	assert.Contains(t, info.Embed.Fields[len(info.Embed.Fields)-1].Value, "⏳ 15 minutes")

	_, err = f.svc.EventInfo("other", 1)
	assert.ErrorIs(t, err, tracker.ErrEventNotFound)
	_, err = f.svc.DeleteEvent(ctx, "other", 1)
	assert.ErrorIs(t, err, tracker.ErrEventNotFound)

	_, err = f.svc.DeleteEvent(ctx, "guild", 1)
	require.NoError(t, err)
	assert.False(t, f.gw.Live(ev.Announcement))
	assert.Zero(t, f.state.Events.Count())
}

func TestCreateEventValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	base := EventRequest{Name: "x", Date: "08/03/2026 17:00", Category: "lec", GuildID: "guild", ChannelID: "chan"}

	tests := []struct {
		name   string
		modify func(*EventRequest)
		want   error
	}{
		{"bad date", func(r *EventRequest) { r.Date = "2026-03-08 17:00" }, tracker.ErrInvalidDate},
		{"past date", func(r *EventRequest) { r.Date = "01/03/2026 17:59" }, tracker.ErrDateInPast},
		{"bad image", func(r *EventRequest) { r.Image = "ftp://img" }, tracker.ErrInvalidImage},
		{"bad category", func(r *EventRequest) { r.Category = "golf" }, ErrUnknownCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.modify(&req)
			_, err := f.svc.CreateEvent(t.Context(), req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Zero(t, f.state.Events.Count(), "a rejected event is never stored")
	assert.Zero(t, f.gw.Count("send"))
}

func TestCreateEventAnnouncementFailureKeepsEvent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.gw.FailSend["chan"] = true

	_, err := f.svc.CreateEvent(t.Context(), EventRequest{
		Name: "x", Date: "08/03/2026 17:00", Category: "chess", GuildID: "guild", ChannelID: "chan",
	})
	require.NoError(t, err)

	ev, ok := f.state.Events.Get(1)
	require.True(t, ok)
	assert.True(t, ev.Announcement.IsZero())
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	assert.Contains(t, describe(fmt.Errorf("wrap: %w", tracker.ErrCapacity)), "15 players")
	assert.Contains(t, describe(&riot.APIError{Status: riot.StatusRateLimited, Code: 429}), "rate limiting")
	assert.Equal(t, "Something went wrong, please try again.", describe(errors.New("boom")))
}
