package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAlreadyExists is returned when adding a subscription that is already stored
	ErrAlreadyExists = errors.New("subscription already exists")

	// ErrNotFound is returned when removing a subscription that is not stored
	ErrNotFound = errors.New("subscription not found")

	// ErrInvalidUsername is returned for a username that is empty after normalization
	ErrInvalidUsername = errors.New("invalid username")
)

// StreamSubscription links a Twitch login to a Discord channel
type StreamSubscription struct {
	Username  string
	GuildID   string
	ChannelID string
}

// NormalizeUsername lowercases a login and strips '@' and surrounding spaces
func NormalizeUsername(username string) string {
	return strings.TrimSpace(strings.ToLower(strings.ReplaceAll(username, "@", "")))
}

// normalize validates a subscription and returns it with a normalized username
func (s StreamSubscription) normalize() (StreamSubscription, error) {
	s.Username = NormalizeUsername(s.Username)
	if s.Username == "" {
		return s, ErrInvalidUsername
	}
	if s.GuildID == "" || s.ChannelID == "" {
		return s, fmt.Errorf("%w: missing guild or channel", ErrInvalidUsername)
	}
	return s, nil
}

// Store persists stream subscriptions. Implementations are safe for
// concurrent use.
type Store interface {
	// Add stores a subscription, returning ErrAlreadyExists on duplicates
	Add(ctx context.Context, sub StreamSubscription) error
	// Remove deletes a subscription, returning ErrNotFound when absent
	Remove(ctx context.Context, sub StreamSubscription) error
	// ListAll returns every stored subscription
	ListAll(ctx context.Context) ([]StreamSubscription, error)
	// ListChannel returns the usernames subscribed in one channel
	ListChannel(ctx context.Context, guildID, channelID string) ([]string, error)
	// Clear removes every subscription of a channel and reports how many were removed
	Clear(ctx context.Context, guildID, channelID string) (int, error)
	// Count returns the total number of subscriptions
	Count(ctx context.Context) (int, error)
	// Backend names the storage backend for health output
	Backend() string
	Close() error
}
