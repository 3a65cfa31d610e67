// Package poller runs the periodic watchers: each Loop waits for the chat
// gateway once, ticks immediately, then ticks at a fixed interval. A tick
// that overruns the interval makes the ticker drop the missed ticks.
package poller

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Coxinelcops/Test/internal/metrics"
)

// Waiter blocks until the chat gateway is ready
type Waiter interface {
	WaitUntilReady(ctx context.Context) error
}

// TickFunc is one poll cycle. The logger carries the loop name and a tick id.
type TickFunc func(ctx context.Context, log *slog.Logger)

// Loop runs a TickFunc at a fixed interval
type Loop struct {
	name     string
	interval time.Duration
	ready    Waiter
	tick     TickFunc

	running  atomic.Bool
	stopChan chan struct{}
	stopOnce sync.Once

	// mu orders wg.Add in Start against wg.Wait in Stop
	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// NewLoop creates a loop; ready may be nil to start ticking immediately
func NewLoop(name string, interval time.Duration, ready Waiter, tick TickFunc) *Loop {
	return &Loop{
		name:     name,
		interval: interval,
		ready:    ready,
		tick:     tick,
		stopChan: make(chan struct{}),
	}
}

// Name returns the loop name
func (l *Loop) Name() string { return l.name }

// IsRunning reports whether the loop is between its first tick and its stop
func (l *Loop) IsRunning() bool { return l.running.Load() }

// Start blocks running the loop until ctx is cancelled or Stop is called.
// A loop stopped before it is ready never ticks.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return nil
	}
	l.wg.Add(1)
	l.mu.Unlock()
	defer l.wg.Done()

	if l.ready != nil {
		if err := l.waitReady(ctx); err != nil {
			return err
		}
	}
	select {
	case <-l.stopChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	slog.Info("Starting loop", "loop", l.name, "interval", l.interval)
	l.running.Store(true)
	metrics.SetRunning(l.name, true)
	defer func() {
		l.running.Store(false)
		metrics.SetRunning(l.name, false)
	}()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	// Initial tick
	l.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Loop stopped (context cancelled)", "loop", l.name)
			return nil
		case <-l.stopChan:
			slog.Info("Loop stopped", "loop", l.name)
			return nil
		case <-ticker.C:
			l.RunOnce(ctx)
		}
	}
}

// Stop signals the loop to stop and waits for the current tick to finish
func (l *Loop) Stop() {
	l.mu.Lock()
	l.stopped = true
	l.stopOnce.Do(func() { close(l.stopChan) })
	l.mu.Unlock()
	l.wg.Wait()
}

// waitReady waits for the gateway, giving up early when the loop is stopped
func (l *Loop) waitReady(ctx context.Context) error {
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-l.stopChan:
			cancel()
		case <-waitCtx.Done():
		}
	}()

	err := l.ready.WaitUntilReady(waitCtx)
	select {
	case <-l.stopChan:
		return nil
	default:
	}
	return err
}

// RunOnce executes a single tick, recovering from panics
func (l *Loop) RunOnce(ctx context.Context) {
	log := slog.With("loop", l.name, "tick", uuid.NewString())
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			metrics.TickPanics.WithLabelValues(l.name).Inc()
			log.Error("Recovered from panic in tick", "panic", r, "stack", string(debug.Stack()))
		}
		metrics.ObserveTick(l.name, start)
	}()

	l.tick(ctx, log)
	log.Debug("Tick finished", "duration", time.Since(start))
}

// guard runs fn for one entity, turning a panic into a log line so sibling
// entities of the same tick still run
func guard(log *slog.Logger, entity string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Recovered from panic while processing entity", "entity", entity, "panic", r)
		}
	}()
	fn()
}
