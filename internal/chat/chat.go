// Package chat defines the outbound messaging contract the poll loops and the
// notifier depend on. The discord package provides the live implementation.
package chat

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"
)

// ErrUnknownChannel is returned when a delivery target no longer exists or
// is not visible to the bot.
var ErrUnknownChannel = errors.New("unknown channel")

// ErrUnknownMessage is returned when an edited message was deleted
var ErrUnknownMessage = errors.New("unknown message")

// MessageRef identifies a message that was sent to a channel
type MessageRef struct {
	ChannelID string
	MessageID string
}

// IsZero reports whether the reference points at nothing
func (r MessageRef) IsZero() bool {
	return r.MessageID == ""
}

// Gateway is the subset of the chat platform used by the core
type Gateway interface {
	// SendMessage posts content and an optional embed to a channel
	SendMessage(ctx context.Context, channelID, content string, embed *discordgo.MessageEmbed) (MessageRef, error)

	// EditMessage replaces the embed of an existing message
	EditMessage(ctx context.Context, ref MessageRef, embed *discordgo.MessageEmbed) error

	// DeleteMessage removes a message; deleting an already-deleted message is not an error
	DeleteMessage(ctx context.Context, ref MessageRef) error

	// WaitUntilReady blocks until the gateway connection is ready or ctx is done
	WaitUntilReady(ctx context.Context) error

	// HasChannel reports whether the channel is known to the bot
	HasChannel(channelID string) bool

	// HasRole reports whether the role exists in the guild
	HasRole(guildID, roleID string) bool

	// GuildOfChannel returns the guild owning a channel, or "" when unknown
	GuildOfChannel(channelID string) string
}
