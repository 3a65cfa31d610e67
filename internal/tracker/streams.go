package tracker

import (
	"sort"
	"sync"
	"time"

	"github.com/Coxinelcops/Test/internal/chat"
	"github.com/Coxinelcops/Test/internal/storage"
)

// LiveKey identifies one live message
type LiveKey struct {
	ChannelID string
	Username  string
}

// LiveEntry is the message currently announcing a live stream
type LiveEntry struct {
	Message    chat.MessageRef
	LastUpdate time.Time
}

type channelSubs struct {
	guildID   string
	usernames map[string]struct{}
}

// StreamRegistry maps channels to their subscribed streamers and tracks the
// live message of each (channel, streamer) pair
type StreamRegistry struct {
	mu        sync.RWMutex
	channels  map[string]*channelSubs
	live      map[LiveKey]LiveEntry
	pingRoles map[string]string // channel -> role
}

// NewStreamRegistry creates an empty registry
func NewStreamRegistry() *StreamRegistry {
	return &StreamRegistry{
		channels:  make(map[string]*channelSubs),
		live:      make(map[LiveKey]LiveEntry),
		pingRoles: make(map[string]string),
	}
}

// Rehydrate loads persisted subscriptions and returns how many were applied
func (r *StreamRegistry) Rehydrate(subs []storage.StreamSubscription) int {
	for _, s := range subs {
		r.Subscribe(s.GuildID, s.ChannelID, s.Username)
	}
	return len(subs)
}

// Subscribe adds a streamer to a channel
func (r *StreamRegistry) Subscribe(guildID, channelID, username string) {
	username = storage.NormalizeUsername(username)
	if username == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.channels[channelID]
	if !ok {
		c = &channelSubs{guildID: guildID, usernames: make(map[string]struct{})}
		r.channels[channelID] = c
	}
	c.usernames[username] = struct{}{}
}

// Unsubscribe removes a streamer from a channel. The live entry, if any, is
// left for the stream watcher to retire.
func (r *StreamRegistry) Unsubscribe(channelID, username string) {
	username = storage.NormalizeUsername(username)

	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.channels[channelID]
	if !ok {
		return
	}
	delete(c.usernames, username)
	if len(c.usernames) == 0 {
		delete(r.channels, channelID)
	}
}

// ClearChannel removes every subscription of a channel
func (r *StreamRegistry) ClearChannel(channelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.channels, channelID)
}

// Subscribed reports whether a streamer is subscribed in a channel
func (r *StreamRegistry) Subscribed(channelID, username string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.channels[channelID]
	if !ok {
		return false
	}
	_, ok = c.usernames[username]
	return ok
}

// Channels returns a snapshot of channel -> sorted usernames
func (r *StreamRegistry) Channels() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]string, len(r.channels))
	for id, c := range r.channels {
		names := make([]string, 0, len(c.usernames))
		for u := range c.usernames {
			names = append(names, u)
		}
		sort.Strings(names)
		out[id] = names
	}
	return out
}

// ChannelStreamers returns the sorted usernames of one channel
func (r *StreamRegistry) ChannelStreamers(channelID string) []string {
	return r.Channels()[channelID]
}

// Live returns the live entry of a streamer in a channel
func (r *StreamRegistry) Live(key LiveKey) (LiveEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.live[key]
	return e, ok
}

// SetLive records or updates a live entry
func (r *StreamRegistry) SetLive(key LiveKey, entry LiveEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.live[key] = entry
}

// RemoveLive forgets a live entry
func (r *StreamRegistry) RemoveLive(key LiveKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.live, key)
}

// LiveKeys returns a snapshot of every tracked live entry key
func (r *StreamRegistry) LiveKeys() []LiveKey {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]LiveKey, 0, len(r.live))
	for k := range r.live {
		keys = append(keys, k)
	}
	return keys
}

// SetPingRole sets the role mentioned when a stream starts in a channel
func (r *StreamRegistry) SetPingRole(channelID, roleID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if roleID == "" {
		delete(r.pingRoles, channelID)
		return
	}
	r.pingRoles[channelID] = roleID
}

// PingRole returns the ping role of a channel, or ""
func (r *StreamRegistry) PingRole(channelID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pingRoles[channelID]
}

// Counts returns the number of subscriptions and live entries
func (r *StreamRegistry) Counts() (subscribed, live int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.channels {
		subscribed += len(c.usernames)
	}
	return subscribed, len(r.live)
}
