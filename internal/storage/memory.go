package storage

import (
	"context"
	"slices"
	"sort"
	"sync"
)

// MemoryStore keeps subscriptions in process memory; nothing survives a restart
type MemoryStore struct {
	mu   sync.RWMutex
	subs []StreamSubscription // insertion order
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Backend implements Store
func (m *MemoryStore) Backend() string { return "Memory" }

// Close implements Store
func (m *MemoryStore) Close() error { return nil }

// Add implements Store
func (m *MemoryStore) Add(_ context.Context, sub StreamSubscription) error {
	sub, err := sub.normalize()
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if slices.Contains(m.subs, sub) {
		return ErrAlreadyExists
	}
	m.subs = append(m.subs, sub)
	return nil
}

// Remove implements Store
func (m *MemoryStore) Remove(_ context.Context, sub StreamSubscription) error {
	sub.Username = NormalizeUsername(sub.Username)

	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.Index(m.subs, sub)
	if i < 0 {
		return ErrNotFound
	}
	m.subs = slices.Delete(m.subs, i, i+1)
	return nil
}

// ListAll implements Store
func (m *MemoryStore) ListAll(_ context.Context) ([]StreamSubscription, error) {
	m.mu.RLock()
	out := slices.Clone(m.subs)
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].GuildID != out[j].GuildID {
			return out[i].GuildID < out[j].GuildID
		}
		if out[i].ChannelID != out[j].ChannelID {
			return out[i].ChannelID < out[j].ChannelID
		}
		return out[i].Username < out[j].Username
	})
	return out, nil
}

// ListChannel implements Store, newest first
func (m *MemoryStore) ListChannel(_ context.Context, guildID, channelID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	for i := len(m.subs) - 1; i >= 0; i-- {
		if s := m.subs[i]; s.GuildID == guildID && s.ChannelID == channelID {
			out = append(out, s.Username)
		}
	}
	return out, nil
}

// Clear implements Store
func (m *MemoryStore) Clear(_ context.Context, guildID, channelID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := len(m.subs)
	m.subs = slices.DeleteFunc(m.subs, func(s StreamSubscription) bool {
		return s.GuildID == guildID && s.ChannelID == channelID
	})
	return before - len(m.subs), nil
}

// Count implements Store
func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs), nil
}
