package storage

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Coxinelcops/Test/internal/config"
)

// backends returns a fresh store per backend; postgres runs only when TEST_PG_DSN is set
func backends(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()

	b := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) Store {
			repo, err := NewSQLiteRepository(t.Context(), filepath.Join(t.TempDir(), "data", "streams.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = repo.Close() })
			return repo
		},
		"redis": func(t *testing.T) Store {
			mr := miniredis.RunT(t)
			client, err := rueidis.NewClient(rueidis.ClientOption{
				InitAddress:  []string{mr.Addr()},
				DisableCache: true,
			})
			require.NoError(t, err)
			t.Cleanup(client.Close)
			return NewRedisStoreWithClient(client)
		},
	}

	if dsn := os.Getenv("TEST_PG_DSN"); dsn != "" {
		b["postgres"] = func(t *testing.T) Store {
			repo, err := NewPostgresRepository(t.Context(), dsn)
			require.NoError(t, err)
			t.Cleanup(func() { _ = repo.Close() })
			return repo
		}
	}
	return b
}

func listGuild(t *testing.T, store Store, guildID string) []StreamSubscription {
	t.Helper()
	all, err := store.ListAll(t.Context())
	require.NoError(t, err)

	var out []StreamSubscription
	for _, s := range all {
		if s.GuildID == guildID {
			out = append(out, s)
		}
	}
	return out
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			store := open(t)
			ctx := t.Context()

			// Unique scope so a shared postgres database does not leak between runs
			guild := uuid.NewString()
			sub := StreamSubscription{Username: "@Gotaga ", GuildID: guild, ChannelID: "chan-y"}

			require.NoError(t, store.Add(ctx, StreamSubscription{Username: "zerator", GuildID: guild, ChannelID: "chan-y"}))
			before := listGuild(t, store, guild)

			require.NoError(t, store.Add(ctx, sub))
			assert.ErrorIs(t, store.Add(ctx, StreamSubscription{Username: "gotaga", GuildID: guild, ChannelID: "chan-y"}), ErrAlreadyExists)

			all := listGuild(t, store, guild)
			assert.Len(t, all, len(before)+1)
			assert.Contains(t, all, StreamSubscription{Username: "gotaga", GuildID: guild, ChannelID: "chan-y"})

			names, err := store.ListChannel(ctx, guild, "chan-y")
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"gotaga", "zerator"}, names)

			require.NoError(t, store.Remove(ctx, sub))
			assert.ErrorIs(t, store.Remove(ctx, sub), ErrNotFound)

			after := listGuild(t, store, guild)
			assert.Len(t, after, len(all)-1)
			assert.NotContains(t, after, StreamSubscription{Username: "gotaga", GuildID: guild, ChannelID: "chan-y"})

			n, err := store.Clear(ctx, guild, "chan-y")
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}

func TestStoreClearAndCount(t *testing.T) {
	t.Parallel()

	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			store := open(t)
			ctx := t.Context()
			guild := uuid.NewString()

			start, err := store.Count(ctx)
			require.NoError(t, err)

			for _, u := range []string{"a", "b", "c"} {
				require.NoError(t, store.Add(ctx, StreamSubscription{Username: u, GuildID: guild, ChannelID: "one"}))
			}
			require.NoError(t, store.Add(ctx, StreamSubscription{Username: "a", GuildID: guild, ChannelID: "two"}))

			// A shared postgres database sees rows from parallel tests
			if name != "postgres" {
				count, err := store.Count(ctx)
				require.NoError(t, err)
				assert.Equal(t, start+4, count)
			}

			n, err := store.Clear(ctx, guild, "one")
			require.NoError(t, err)
			assert.Equal(t, 3, n)

			names, err := store.ListChannel(ctx, guild, "one")
			require.NoError(t, err)
			assert.Empty(t, names)

			names, err = store.ListChannel(ctx, guild, "two")
			require.NoError(t, err)
			assert.Equal(t, []string{"a"}, names)

			n, err = store.Clear(ctx, guild, "two")
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}

func TestRedisIndexKeepsChannelsAddedDuringRemove(t *testing.T) {
	t.Parallel()

	store := backends(t)["redis"](t)
	ctx := t.Context()

	// Removing the last name and clearing drop the channel from the index
	require.NoError(t, store.Add(ctx, StreamSubscription{Username: "a", GuildID: "g", ChannelID: "c"}))
	require.NoError(t, store.Remove(ctx, StreamSubscription{Username: "a", GuildID: "g", ChannelID: "c"}))
	assert.Empty(t, listGuild(t, store, "g"))

	for i := range 50 {
		require.NoError(t, store.Add(ctx, StreamSubscription{Username: "last", GuildID: "g", ChannelID: "c"}))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Remove(ctx, StreamSubscription{Username: "last", GuildID: "g", ChannelID: "c"}))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Add(ctx, StreamSubscription{Username: "next", GuildID: "g", ChannelID: "c"}))
		}()
		wg.Wait()

		require.Equal(t, []StreamSubscription{{Username: "next", GuildID: "g", ChannelID: "c"}}, listGuild(t, store, "g"), "iteration %d", i)

		n, err := store.Clear(ctx, "g", "c")
		require.NoError(t, err)
		require.Equal(t, 1, n)
		require.Empty(t, listGuild(t, store, "g"))
	}
}

func TestStoreRejectsEmptyUsername(t *testing.T) {
	t.Parallel()

	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			store := open(t)
			err := store.Add(t.Context(), StreamSubscription{Username: " @ ", GuildID: "g", ChannelID: "c"})
			assert.ErrorIs(t, err, ErrInvalidUsername)
		})
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "streams.db")
	repo, err := NewSQLiteRepository(t.Context(), path)
	require.NoError(t, err)
	require.NoError(t, repo.Add(t.Context(), StreamSubscription{Username: "a", GuildID: "g", ChannelID: "c"}))
	require.NoError(t, repo.Close())

	repo, err = NewSQLiteRepository(t.Context(), path)
	require.NoError(t, err)
	defer repo.Close()

	all, err := repo.ListAll(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []StreamSubscription{{Username: "a", GuildID: "g", ChannelID: "c"}}, all)
	assert.Equal(t, "SQLite", repo.Backend())
}

func TestRebind(t *testing.T) {
	t.Parallel()

	pg := &Repository{dialect: postgresDialect}
	assert.Equal(t, "a = $1 AND b = $2", pg.rebind("a = ? AND b = ?"))

	lite := &Repository{dialect: sqliteDialect}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}

func TestNormalizeUsername(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "gotaga", NormalizeUsername("  @GoTaGa "))
	assert.Empty(t, NormalizeUsername("@"))
}

func TestOpen(t *testing.T) {
	t.Parallel()

	store, err := Open(t.Context(), &config.Config{StoreBackend: "memory"})
	require.NoError(t, err)
	assert.Equal(t, "Memory", store.Backend())

	mr := miniredis.RunT(t)
	store, err = Open(t.Context(), &config.Config{StoreBackend: "auto", RedisAddr: mr.Addr()})
	require.NoError(t, err)
	assert.Equal(t, "Redis", store.Backend())
	require.NoError(t, store.Close())

	store, err = Open(t.Context(), &config.Config{StoreBackend: "auto", DatabasePath: filepath.Join(t.TempDir(), "s.db")})
	require.NoError(t, err)
	assert.Equal(t, "SQLite", store.Backend())
	require.NoError(t, store.Close())

	_, err = Open(t.Context(), &config.Config{StoreBackend: "floppy"})
	assert.Error(t, err)
}
