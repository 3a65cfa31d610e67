package tracker

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Coxinelcops/Test/internal/chat"
)

// EventDateLayout is the accepted input format, DD/MM/YYYY HH:MM
const EventDateLayout = "02/01/2006 15:04"

var (
	// ErrInvalidDate is returned for a date not in EventDateLayout
	ErrInvalidDate = errors.New("invalid date, expected DD/MM/YYYY HH:MM")

	// ErrDateInPast is returned for an event starting before now
	ErrDateInPast = errors.New("event date is in the past")

	// ErrInvalidImage is returned for an image that is not an http(s) URL
	ErrInvalidImage = errors.New("image URL must start with http:// or https://")

	// ErrEventNotFound is returned for an unknown event id
	ErrEventNotFound = errors.New("event not found")
)

// Category is an event category with its display label
type Category struct {
	Value string
	Label string
}

// Categories are the selectable event categories
var Categories = []Category{
	{"lec", "🏆 LEC"},
	{"lfl", "🇫🇷 LFL"},
	{"rl", "🚗 Rocket League"},
	{"r6", "🎯 Rainbow Six"},
	{"chess", "♟️ Chess"},
	{"autre", "🎮 Other"},
}

// CategoryLabel returns the display label of a category
func CategoryLabel(value string) string {
	for _, c := range Categories {
		if c.Value == value {
			return c.Label
		}
	}
	return "🎮 " + strings.ToUpper(value)
}

// Event is a scheduled event
type Event struct {
	ID          int
	Name        string
	Start       time.Time
	Creator     string
	GuildID     string
	ChannelID   string
	RoleID      string
	Category    string
	Stream      string
	Location    string
	Image       string
	Description string
	CreatedAt   time.Time
}

// Flags record which reminders were sent. Each goes false to true once.
type Flags struct {
	Sent15   bool
	SentLive bool
	// Cleaned is set once the event messages were removed after the start
	Cleaned bool
}

// EventState is an event with its flags and outbound messages
type EventState struct {
	Event
	Flags         Flags
	Announcement  chat.MessageRef
	Notifications []chat.MessageRef
}

// EventRegistry stores scheduled events keyed by a monotonic id
type EventRegistry struct {
	mu            sync.RWMutex
	nextID        int
	events        map[int]*EventState
	categoryRoles map[string]map[string]string // guild -> category -> role
}

// NewEventRegistry creates an empty registry; ids start at 1
func NewEventRegistry() *EventRegistry {
	return &EventRegistry{
		nextID:        1,
		events:        make(map[int]*EventState),
		categoryRoles: make(map[string]map[string]string),
	}
}

// ParseEventDate parses a DD/MM/YYYY HH:MM date in loc and rejects past dates
func ParseEventDate(input string, loc *time.Location, now time.Time) (time.Time, error) {
	t, err := time.ParseInLocation(EventDateLayout, strings.TrimSpace(input), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, input)
	}
	if t.Before(now) {
		return time.Time{}, ErrDateInPast
	}
	return t, nil
}

// ValidateImage accepts an empty value or an http(s) URL
func ValidateImage(image string) error {
	if image == "" || strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		return nil
	}
	return ErrInvalidImage
}

// Create stores an event under the next id and returns it
func (r *EventRegistry) Create(ev Event) Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev.ID = r.nextID
	r.nextID++
	r.events[ev.ID] = &EventState{Event: ev}
	return ev
}

func (s *EventState) clone() EventState {
	c := *s
	c.Notifications = slices.Clone(s.Notifications)
	return c
}

// Get returns a copy of an event
func (r *EventRegistry) Get(id int) (EventState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.events[id]
	if !ok {
		return EventState{}, false
	}
	return s.clone(), true
}

// Snapshot returns copies of every event ordered by start time
func (r *EventRegistry) Snapshot() []EventState {
	r.mu.RLock()
	out := make([]EventState, 0, len(r.events))
	for _, s := range r.events {
		out = append(out, s.clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].ID < out[j].ID
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

// ListGuild returns the events of one guild ordered by start time
func (r *EventRegistry) ListGuild(guildID string) []EventState {
	all := r.Snapshot()
	out := all[:0]
	for _, s := range all {
		if s.GuildID == guildID {
			out = append(out, s)
		}
	}
	return out
}

// Delete removes an event with its flags and messages and returns what was removed
func (r *EventRegistry) Delete(id int) (EventState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.events[id]
	if !ok {
		return EventState{}, false
	}
	delete(r.events, id)
	return *s, true
}

func (r *EventRegistry) update(id int, fn func(*EventState)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.events[id]
	if ok {
		fn(s)
	}
	return ok
}

// MarkSent15 sets the 15 minute flag
func (r *EventRegistry) MarkSent15(id int) bool {
	return r.update(id, func(s *EventState) { s.Flags.Sent15 = true })
}

// MarkSentLive sets the live flag
func (r *EventRegistry) MarkSentLive(id int) bool {
	return r.update(id, func(s *EventState) { s.Flags.SentLive = true })
}

// SetAnnouncement records the message announcing the event
func (r *EventRegistry) SetAnnouncement(id int, ref chat.MessageRef) bool {
	return r.update(id, func(s *EventState) { s.Announcement = ref })
}

// AddNotification records a reminder message
func (r *EventRegistry) AddNotification(id int, ref chat.MessageRef) bool {
	return r.update(id, func(s *EventState) { s.Notifications = append(s.Notifications, ref) })
}

// Clean marks the event cleaned and hands back the messages still recorded
func (r *EventRegistry) Clean(id int) []chat.MessageRef {
	var refs []chat.MessageRef
	r.update(id, func(s *EventState) {
		if !s.Announcement.IsZero() {
			refs = append(refs, s.Announcement)
		}
		refs = append(refs, s.Notifications...)
		s.Announcement = chat.MessageRef{}
		s.Notifications = nil
		s.Flags.Cleaned = true
	})
	return refs
}

// SetCategoryRole sets the default role of a category in a guild
func (r *EventRegistry) SetCategoryRole(guildID, category, roleID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	roles, ok := r.categoryRoles[guildID]
	if !ok {
		roles = make(map[string]string)
		r.categoryRoles[guildID] = roles
	}
	roles[category] = roleID
}

// CategoryRole returns the default role of a category in a guild, or ""
func (r *EventRegistry) CategoryRole(guildID, category string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.categoryRoles[guildID][category]
}

// Count returns the number of scheduled events
func (r *EventRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.events)
}
