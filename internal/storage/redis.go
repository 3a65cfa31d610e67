package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/rueidis"
)

const (
	redisKeyPrefix = "streams:"
	redisIndexKey  = "streams:index"
)

// The index entry of a channel is maintained in the same script as its
// set so a concurrent Add cannot be left unindexed.
var (
	removeScript = rueidis.NewLuaScript(`
local removed = redis.call('SREM', KEYS[1], ARGV[1])
if removed == 1 and redis.call('SCARD', KEYS[1]) == 0 then
	redis.call('SREM', KEYS[2], ARGV[2])
end
return removed
`)

	clearScript = rueidis.NewLuaScript(`
local n = redis.call('SCARD', KEYS[1])
redis.call('DEL', KEYS[1])
redis.call('SREM', KEYS[2], ARGV[1])
return n
`)
)

// RedisStore keeps one set of usernames per guild/channel plus an index set
// of the channels that have at least one subscription
type RedisStore struct {
	client rueidis.Client
}

// NewRedisStore connects to Redis at addr
func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{addr},
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient wraps an existing client
func NewRedisStoreWithClient(client rueidis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func channelKey(guildID, channelID string) string {
	return redisKeyPrefix + guildID + ":" + channelID
}

func indexMember(guildID, channelID string) string {
	return guildID + ":" + channelID
}

// Backend implements Store
func (s *RedisStore) Backend() string { return "Redis" }

// Close implements Store
func (s *RedisStore) Close() error {
	s.client.Close()
	return nil
}

// Add implements Store
func (s *RedisStore) Add(ctx context.Context, sub StreamSubscription) error {
	sub, err := sub.normalize()
	if err != nil {
		return err
	}

	results := s.client.DoMulti(ctx,
		s.client.B().Sadd().Key(channelKey(sub.GuildID, sub.ChannelID)).Member(sub.Username).Build(),
		s.client.B().Sadd().Key(redisIndexKey).Member(indexMember(sub.GuildID, sub.ChannelID)).Build(),
	)
	added, err := results[0].AsInt64()
	if err != nil {
		return fmt.Errorf("failed to add stream: %w", err)
	}
	if err := results[1].Error(); err != nil {
		return fmt.Errorf("failed to index channel: %w", err)
	}
	if added == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// Remove implements Store
func (s *RedisStore) Remove(ctx context.Context, sub StreamSubscription) error {
	sub.Username = NormalizeUsername(sub.Username)
	key := channelKey(sub.GuildID, sub.ChannelID)

	removed, err := removeScript.Exec(ctx, s.client,
		[]string{key, redisIndexKey},
		[]string{sub.Username, indexMember(sub.GuildID, sub.ChannelID)},
	).AsInt64()
	if err != nil {
		return fmt.Errorf("failed to remove stream: %w", err)
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAll implements Store
func (s *RedisStore) ListAll(ctx context.Context) ([]StreamSubscription, error) {
	channels, err := s.client.Do(ctx, s.client.B().Smembers().Key(redisIndexKey).Build()).AsStrSlice()
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	sort.Strings(channels)

	var subs []StreamSubscription
	for _, member := range channels {
		guildID, channelID, ok := strings.Cut(member, ":")
		if !ok {
			continue
		}
		usernames, err := s.members(ctx, guildID, channelID)
		if err != nil {
			return nil, err
		}
		for _, u := range usernames {
			subs = append(subs, StreamSubscription{Username: u, GuildID: guildID, ChannelID: channelID})
		}
	}
	return subs, nil
}

func (s *RedisStore) members(ctx context.Context, guildID, channelID string) ([]string, error) {
	usernames, err := s.client.Do(ctx, s.client.B().Smembers().Key(channelKey(guildID, channelID)).Build()).AsStrSlice()
	if err != nil {
		return nil, fmt.Errorf("failed to list streams: %w", err)
	}
	sort.Strings(usernames)
	return usernames, nil
}

// ListChannel implements Store. Sets are unordered so names come back sorted.
func (s *RedisStore) ListChannel(ctx context.Context, guildID, channelID string) ([]string, error) {
	return s.members(ctx, guildID, channelID)
}

// Clear implements Store
func (s *RedisStore) Clear(ctx context.Context, guildID, channelID string) (int, error) {
	n, err := clearScript.Exec(ctx, s.client,
		[]string{channelKey(guildID, channelID), redisIndexKey},
		[]string{indexMember(guildID, channelID)},
	).AsInt64()
	if err != nil {
		return 0, fmt.Errorf("failed to clear channel: %w", err)
	}
	return int(n), nil
}

// Count implements Store
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	channels, err := s.client.Do(ctx, s.client.B().Smembers().Key(redisIndexKey).Build()).AsStrSlice()
	if err != nil {
		return 0, err
	}

	total := 0
	for _, member := range channels {
		guildID, channelID, _ := strings.Cut(member, ":")
		n, err := s.client.Do(ctx, s.client.B().Scard().Key(channelKey(guildID, channelID)).Build()).AsInt64()
		if err != nil {
			return 0, err
		}
		total += int(n)
	}
	return total, nil
}
