package tracker

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"time"
)

// MaxWatchedPerOwner caps how many players one user can watch
const MaxWatchedPerOwner = 15

var (
	// ErrCapacity is returned when an owner already watches MaxWatchedPerOwner players
	ErrCapacity = errors.New("watch list is full")

	// ErrAlreadyWatched is returned when the owner already watches that Riot ID
	ErrAlreadyWatched = errors.New("player already watched")

	// ErrNotWatched is returned when removing a player the owner does not watch
	ErrNotWatched = errors.New("player not watched")
)

// WatchedPlayer is a Riot account a user asked to be notified about
type WatchedPlayer struct {
	OwnerID   string
	RiotID    string // GameName#TagLine as displayed
	Platform  string // e.g. euw1
	PUUID     string
	GuildID   string
	ChannelID string
	// LastWatchedState is true while the player was last seen in a tracked queue
	LastWatchedState bool
	PingRoleID       string
	StreamURL        string
	AddedAt          time.Time
}

// PlayerRegistry maps owners to their watched players
type PlayerRegistry struct {
	mu      sync.RWMutex
	byOwner map[string][]WatchedPlayer
}

// NewPlayerRegistry creates an empty registry
func NewPlayerRegistry() *PlayerRegistry {
	return &PlayerRegistry{byOwner: make(map[string][]WatchedPlayer)}
}

func indexOf(players []WatchedPlayer, riotID string) int {
	return slices.IndexFunc(players, func(p WatchedPlayer) bool {
		return strings.EqualFold(p.RiotID, riotID)
	})
}

// CheckCanAdd reports whether Add would be accepted, without mutating
func (r *PlayerRegistry) CheckCanAdd(ownerID, riotID string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.checkLocked(ownerID, riotID)
}

func (r *PlayerRegistry) checkLocked(ownerID, riotID string) error {
	players := r.byOwner[ownerID]
	if len(players) >= MaxWatchedPerOwner {
		return ErrCapacity
	}
	if indexOf(players, riotID) >= 0 {
		return ErrAlreadyWatched
	}
	return nil
}

// Add registers a player for its owner
func (r *PlayerRegistry) Add(p WatchedPlayer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkLocked(p.OwnerID, p.RiotID); err != nil {
		return err
	}
	r.byOwner[p.OwnerID] = append(r.byOwner[p.OwnerID], p)
	return nil
}

// Remove deletes one player of an owner, matching the Riot ID case-insensitively
func (r *PlayerRegistry) Remove(ownerID, riotID string) (WatchedPlayer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	players := r.byOwner[ownerID]
	i := indexOf(players, riotID)
	if i < 0 {
		return WatchedPlayer{}, ErrNotWatched
	}
	removed := players[i]
	players = slices.Delete(players, i, i+1)
	if len(players) == 0 {
		delete(r.byOwner, ownerID)
	} else {
		r.byOwner[ownerID] = players
	}
	return removed, nil
}

// RemoveAll clears an owner's list and returns how many players were removed
func (r *PlayerRegistry) RemoveAll(ownerID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.byOwner[ownerID])
	delete(r.byOwner, ownerID)
	return n
}

// List returns a copy of an owner's players in insertion order
func (r *PlayerRegistry) List(ownerID string) []WatchedPlayer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.byOwner[ownerID])
}

// Snapshot returns a copy of every watched player across owners
func (r *PlayerRegistry) Snapshot() []WatchedPlayer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []WatchedPlayer
	for _, players := range r.byOwner {
		out = append(out, players...)
	}
	return out
}

// SetState overwrites a player's last watched state. It reports false when
// the player was removed since the snapshot was taken.
func (r *PlayerRegistry) SetState(ownerID, riotID string, state bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	players := r.byOwner[ownerID]
	i := indexOf(players, riotID)
	if i < 0 {
		return false
	}
	players[i].LastWatchedState = state
	return true
}

// Count returns the total number of watched players
func (r *PlayerRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, players := range r.byOwner {
		n += len(players)
	}
	return n
}
