package poller

import (
	"context"
	"log/slog"
	"time"

	"github.com/Coxinelcops/Test/internal/chat"
	"github.com/Coxinelcops/Test/internal/metrics"
	"github.com/Coxinelcops/Test/internal/tracker"
)

// Reminder thresholds
const (
	ReminderLead = 15 // minutes
	CleanupAfter = 30 * time.Minute
	ForgetAfter  = 2 * time.Hour
)

// ReminderNotifier sends reminders and removes event messages
type ReminderNotifier interface {
	OnEventReminder(ctx context.Context, ev tracker.Event, minutesBefore int) (chat.MessageRef, error)
	Retire(ctx context.Context, refs ...chat.MessageRef) int
}

// EventReminder fires the 15 minute and live reminders of scheduled events
// and cleans up after them
type EventReminder struct {
	events   *tracker.EventRegistry
	notifier ReminderNotifier
	now      func() time.Time
}

// NewEventReminder creates the reminder; now may be nil for time.Now
func NewEventReminder(events *tracker.EventRegistry, notifier ReminderNotifier, now func() time.Time) *EventReminder {
	if now == nil {
		now = time.Now
	}
	return &EventReminder{events: events, notifier: notifier, now: now}
}

// Tick evaluates every event once. Each event takes at most one branch per
// pass, gated on its flags rather than on elapsed time alone:
//  1. 15 minute reminder (plus the live one when the event already started)
//  2. live reminder
//  3. delete the event messages 30 minutes after the start
//  4. forget the event 2 hours after the start
func (r *EventReminder) Tick(ctx context.Context, log *slog.Logger) {
	now := r.now()
	events := r.events.Snapshot()
	defer func() { metrics.ScheduledEvents.Set(float64(r.events.Count())) }()

	for _, ev := range events {
		if ctx.Err() != nil {
			return
		}
		guard(log, ev.Name, func() { r.evaluate(ctx, log, ev, now) })
	}
}

func (r *EventReminder) evaluate(ctx context.Context, log *slog.Logger, ev tracker.EventState, now time.Time) {
	delta := ev.Start.Sub(now)
	minutes := int(delta.Minutes())

	switch {
	case !ev.Flags.Sent15 && minutes <= ReminderLead:
		r.send(ctx, log, ev.Event, ReminderLead)
		r.events.MarkSent15(ev.ID)
		if minutes <= 0 && !ev.Flags.SentLive {
			r.send(ctx, log, ev.Event, 0)
			r.events.MarkSentLive(ev.ID)
		}

	case !ev.Flags.SentLive && minutes <= 0:
		r.send(ctx, log, ev.Event, 0)
		r.events.MarkSentLive(ev.ID)

	case !ev.Flags.Cleaned && delta < -CleanupAfter:
		refs := r.events.Clean(ev.ID)
		n := r.notifier.Retire(ctx, refs...)
		log.Info("Event messages cleaned up", "event", ev.ID, "deleted", n)

	case delta < -ForgetAfter:
		if removed, ok := r.events.Delete(ev.ID); ok {
			r.notifier.Retire(ctx, append([]chat.MessageRef{removed.Announcement}, removed.Notifications...)...)
			log.Info("Event expired", "event", ev.ID, "name", ev.Name)
		}
	}
}

// send fires one reminder. The flag is set by the caller even on failure so
// a reminder is attempted at most once.
func (r *EventReminder) send(ctx context.Context, log *slog.Logger, ev tracker.Event, minutesBefore int) {
	ref, err := r.notifier.OnEventReminder(ctx, ev, minutesBefore)
	if err != nil {
		log.Error("Failed to send event reminder", "event", ev.ID, "minutesBefore", minutesBefore, "error", err)
		return
	}
	r.events.AddNotification(ev.ID, ref)
}
