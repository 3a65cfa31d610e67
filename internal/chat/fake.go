package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Call is one operation recorded by FakeGateway
type Call struct {
	Op      string // "send", "edit" or "delete"
	Ref     MessageRef
	Content string
	Embed   *discordgo.MessageEmbed
}

// FakeGateway is an in-memory Gateway that records every call. It is used by
// tests across packages and by dry runs without a Discord connection.
type FakeGateway struct {
	mu       sync.Mutex
	seq      int
	calls    []Call
	live     map[MessageRef]bool
	channels map[string]string // channel -> guild
	roles    map[string]bool   // guild/role

	// FailSend makes SendMessage return an error for the listed channels
	FailSend map[string]bool
}

// NewFakeGateway creates a gateway that knows the given channel->guild pairs
func NewFakeGateway(channels map[string]string) *FakeGateway {
	if channels == nil {
		channels = make(map[string]string)
	}
	return &FakeGateway{
		live:     make(map[MessageRef]bool),
		channels: channels,
		roles:    make(map[string]bool),
		FailSend: make(map[string]bool),
	}
}

// AddRole registers a role so HasRole reports it
func (f *FakeGateway) AddRole(guildID, roleID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roles[guildID+"/"+roleID] = true
}

func (f *FakeGateway) SendMessage(_ context.Context, channelID, content string, embed *discordgo.MessageEmbed) (MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.channels[channelID]; !ok {
		return MessageRef{}, ErrUnknownChannel
	}
	if f.FailSend[channelID] {
		return MessageRef{}, fmt.Errorf("send to %s failed", channelID)
	}

	f.seq++
	ref := MessageRef{ChannelID: channelID, MessageID: fmt.Sprintf("m%d", f.seq)}
	f.live[ref] = true
	f.calls = append(f.calls, Call{Op: "send", Ref: ref, Content: content, Embed: embed})
	return ref, nil
}

func (f *FakeGateway) EditMessage(_ context.Context, ref MessageRef, embed *discordgo.MessageEmbed) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.live[ref] {
		return fmt.Errorf("%w: %s", ErrUnknownMessage, ref.MessageID)
	}
	f.calls = append(f.calls, Call{Op: "edit", Ref: ref, Embed: embed})
	return nil
}

func (f *FakeGateway) DeleteMessage(_ context.Context, ref MessageRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.live, ref)
	f.calls = append(f.calls, Call{Op: "delete", Ref: ref})
	return nil
}

func (f *FakeGateway) WaitUntilReady(ctx context.Context) error {
	return ctx.Err()
}

func (f *FakeGateway) HasChannel(channelID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.channels[channelID]
	return ok
}

func (f *FakeGateway) HasRole(guildID, roleID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.roles[guildID+"/"+roleID]
}

func (f *FakeGateway) GuildOfChannel(channelID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.channels[channelID]
}

// Calls returns a copy of the recorded calls
func (f *FakeGateway) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// Count returns how many calls of the given op were recorded
func (f *FakeGateway) Count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Live reports whether a message is still present
func (f *FakeGateway) Live(ref MessageRef) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live[ref]
}
