package notifier

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Coxinelcops/Test/internal/chat"
)

const deleteTimeout = 10 * time.Second

// Deleter runs deferred deletions. Stop abandons everything still pending;
// messages may then outlive the process.
type Deleter struct {
	gw chat.Gateway

	mu      sync.Mutex
	seq     int
	timers  map[int]*time.Timer
	stopped bool
}

// NewDeleter creates a deleter for a gateway
func NewDeleter(gw chat.Gateway) *Deleter {
	return &Deleter{gw: gw, timers: make(map[int]*time.Timer)}
}

// Schedule deletes a message after delay
func (d *Deleter) Schedule(ref chat.MessageRef, delay time.Duration) {
	if ref.IsZero() {
		return
	}
	d.After(delay, func(ctx context.Context) {
		if err := d.gw.DeleteMessage(ctx, ref); err != nil {
			slog.Warn("Failed to delete expired message", "channel", ref.ChannelID, "message", ref.MessageID, "error", err)
		}
	})
}

// After runs fn once delay has elapsed, unless the deleter was stopped
func (d *Deleter) After(delay time.Duration, fn func(ctx context.Context)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	d.seq++
	id := d.seq
	d.timers[id] = time.AfterFunc(delay, func() {
		d.mu.Lock()
		_, ok := d.timers[id]
		delete(d.timers, id)
		d.mu.Unlock()
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
		defer cancel()
		fn(ctx)
	})
}

// Pending returns the number of scheduled, not yet run, deletions
func (d *Deleter) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}

// Stop abandons every pending deletion without waiting
func (d *Deleter) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for id, t := range d.timers {
		t.Stop()
		delete(d.timers, id)
	}
}
