// Package discord adapts a discordgo session to the chat.Gateway contract
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/Coxinelcops/Test/internal/chat"
)

// Gateway sends, edits and deletes messages through a discordgo session
type Gateway struct {
	session *discordgo.Session

	ready     chan struct{}
	readyOnce sync.Once
}

var _ chat.Gateway = (*Gateway)(nil)

// New wraps a session. It must be called before the session is opened so
// the Ready event is observed.
func New(session *discordgo.Session) *Gateway {
	g := &Gateway{session: session, ready: make(chan struct{})}
	session.AddHandler(g.onReady)
	return g
}

func (g *Gateway) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	g.readyOnce.Do(func() {
		slog.Info("Discord gateway ready", "guilds", len(r.Guilds))
		close(g.ready)
	})
}

// IsReady reports whether the first Ready event was received
func (g *Gateway) IsReady() bool {
	select {
	case <-g.ready:
		return true
	default:
		return false
	}
}

// GuildCount returns the number of guilds in the session state
func (g *Gateway) GuildCount() int {
	if g.session.State == nil {
		return 0
	}
	g.session.State.RLock()
	defer g.session.State.RUnlock()
	return len(g.session.State.Guilds)
}

// WaitUntilReady implements chat.Gateway
func (g *Gateway) WaitUntilReady(ctx context.Context) error {
	select {
	case <-g.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendMessage implements chat.Gateway
func (g *Gateway) SendMessage(ctx context.Context, channelID, content string, embed *discordgo.MessageEmbed) (chat.MessageRef, error) {
	data := &discordgo.MessageSend{Content: content}
	if embed != nil {
		data.Embeds = []*discordgo.MessageEmbed{embed}
	}

	msg, err := g.session.ChannelMessageSendComplex(channelID, data, discordgo.WithContext(ctx))
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return chat.MessageRef{}, fmt.Errorf("%w: %s", chat.ErrUnknownChannel, channelID)
		}
		return chat.MessageRef{}, err
	}
	return chat.MessageRef{ChannelID: msg.ChannelID, MessageID: msg.ID}, nil
}

// EditMessage implements chat.Gateway. A message deleted by a moderator
// yields chat.ErrUnknownMessage.
func (g *Gateway) EditMessage(ctx context.Context, ref chat.MessageRef, embed *discordgo.MessageEmbed) error {
	_, err := g.session.ChannelMessageEditEmbed(ref.ChannelID, ref.MessageID, embed, discordgo.WithContext(ctx))
	return editError(err, ref)
}

func editError(err error, ref chat.MessageRef) error {
	if err == nil {
		return nil
	}
	if isCode(err, discordgo.ErrCodeUnknownMessage) || isStatus(err, http.StatusNotFound) {
		return fmt.Errorf("%w: %s: %w", chat.ErrUnknownMessage, ref.MessageID, err)
	}
	return err
}

// DeleteMessage implements chat.Gateway. A message that is already gone is
// not an error.
func (g *Gateway) DeleteMessage(ctx context.Context, ref chat.MessageRef) error {
	err := g.session.ChannelMessageDelete(ref.ChannelID, ref.MessageID, discordgo.WithContext(ctx))
	if err != nil && (isStatus(err, http.StatusNotFound) || isCode(err, discordgo.ErrCodeUnknownMessage)) {
		return nil
	}
	return err
}

// HasChannel implements chat.Gateway from the session state
func (g *Gateway) HasChannel(channelID string) bool {
	if g.session.State == nil {
		return false
	}
	_, err := g.session.State.Channel(channelID)
	return err == nil
}

// HasRole implements chat.Gateway from the session state
func (g *Gateway) HasRole(guildID, roleID string) bool {
	if g.session.State == nil {
		return false
	}
	_, err := g.session.State.Role(guildID, roleID)
	return err == nil
}

// GuildOfChannel implements chat.Gateway from the session state
func (g *Gateway) GuildOfChannel(channelID string) string {
	if g.session.State == nil {
		return ""
	}
	ch, err := g.session.State.Channel(channelID)
	if err != nil {
		return ""
	}
	return ch.GuildID
}

func isStatus(err error, code int) bool {
	var restErr *discordgo.RESTError
	return errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == code
}

func isCode(err error, code int) bool {
	var restErr *discordgo.RESTError
	return errors.As(err, &restErr) && restErr.Message != nil && restErr.Message.Code == code
}
