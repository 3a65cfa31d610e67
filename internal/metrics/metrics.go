// Package metrics exposes the bot's Prometheus collectors
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Counters
	Ticks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifybot_loop_ticks_total",
		Help: "Number of poll loop ticks",
	}, []string{"loop"})
	TickPanics = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifybot_loop_panics_total",
		Help: "Number of recovered panics inside a poll loop tick",
	}, []string{"loop"})
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifybot_notifications_total",
		Help: "Outbound notification operations by kind",
	}, []string{"kind"})
	FetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifybot_fetch_failures_total",
		Help: "Failed upstream lookups by adapter and status",
	}, []string{"adapter", "status"})

	// Histograms (seconds)
	TickDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notifybot_loop_tick_duration_seconds",
		Help:    "Duration of one poll loop tick",
		Buckets: prometheus.DefBuckets,
	}, []string{"loop"})

	// Gauges
	LoopRunning = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "notifybot_loop_running",
		Help: "Poll loop running=1 stopped=0",
	}, []string{"loop"})
	WatchedPlayers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "notifybot_watched_players",
		Help: "Number of watched Riot players",
	})
	SubscribedStreamers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "notifybot_subscribed_streamers",
		Help: "Number of (channel, streamer) subscriptions",
	})
	LiveStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "notifybot_live_streams",
		Help: "Number of live stream messages currently tracked",
	})
	ScheduledEvents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "notifybot_scheduled_events",
		Help: "Number of scheduled events",
	})
)

// Notification kinds
const (
	KindPresence     = "presence"
	KindStreamStart  = "stream_start"
	KindStreamUpdate = "stream_update"
	KindStreamEnd    = "stream_end"
	KindEvent15      = "event_15min"
	KindEventLive    = "event_live"
	KindCleanup      = "cleanup"
)

// SetRunning records whether a loop is running
func SetRunning(loop string, running bool) {
	if running {
		LoopRunning.WithLabelValues(loop).Set(1)
	} else {
		LoopRunning.WithLabelValues(loop).Set(0)
	}
}

// ObserveTick counts a tick and records its duration
func ObserveTick(loop string, start time.Time) {
	Ticks.WithLabelValues(loop).Inc()
	TickDuration.WithLabelValues(loop).Observe(time.Since(start).Seconds())
}
