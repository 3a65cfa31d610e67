// Package health serves the liveness endpoints and Prometheus metrics
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Coxinelcops/Test/internal/tracker"
)

// Loop is the observability hook of a poll loop
type Loop interface {
	Name() string
	IsRunning() bool
}

// Source gathers what the health endpoints report
type Source struct {
	Started  time.Time
	Storage  string
	Location *time.Location
	State    *tracker.State
	Loops    []Loop
	// Ready reports whether the chat gateway is connected
	Ready func() bool
	// Guilds returns how many guilds the bot is in
	Guilds func() int
}

// Report is the /health.json payload
type Report struct {
	UptimeSeconds int64           `json:"uptime_seconds"`
	Storage       string          `json:"storage"`
	Status        string          `json:"status"`
	Timestamp     string          `json:"timestamp"`
	Bot           BotReport       `json:"bot"`
	Loops         map[string]bool `json:"loops"`
	Events        int             `json:"events_count"`
	Streamers     int             `json:"streamers_count"`
	LiveStreams   int             `json:"live_streams_count"`
	Players       int             `json:"lol_players_count"`
}

// BotReport describes the gateway connection
type BotReport struct {
	Connected bool `json:"connected"`
	Guilds    int  `json:"guilds"`
}

// Server is the health HTTP server
type Server struct {
	src Source
	now func() time.Time
	srv *http.Server
}

// NewServer creates a server listening on addr
func NewServer(addr string, src Source) *Server {
	if src.Location == nil {
		src.Location = time.UTC
	}
	s := &Server{src: src, now: time.Now}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleText)
	mux.HandleFunc("GET /health", s.handleText)
	mux.HandleFunc("GET /health.json", s.handleJSON)
	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("pong"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Health server started", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}

// Report builds the current status
func (s *Server) Report() Report {
	now := s.now()
	r := Report{
		UptimeSeconds: int64(now.Sub(s.src.Started).Seconds()),
		Storage:       s.src.Storage,
		Status:        "degraded",
		Timestamp:     now.In(s.src.Location).Format(time.RFC3339),
		Loops:         make(map[string]bool, len(s.src.Loops)),
	}
	if s.src.Ready != nil && s.src.Ready() {
		r.Status = "healthy"
		r.Bot.Connected = true
	}
	if s.src.Guilds != nil {
		r.Bot.Guilds = s.src.Guilds()
	}
	for _, l := range s.src.Loops {
		r.Loops[l.Name()] = l.IsRunning()
	}
	if st := s.src.State; st != nil {
		r.Events = st.Events.Count()
		r.Streamers, r.LiveStreams = st.Streams.Counts()
		r.Players = st.Players.Count()
	}
	return r
}

func (s *Server) handleJSON(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.Report())
}

func (s *Server) handleText(w http.ResponseWriter, _ *http.Request) {
	r := s.Report()

	var b strings.Builder
	status := "DISCONNECTED"
	if r.Bot.Connected {
		status = "CONNECTED"
	}
	fmt.Fprintf(&b, "Discord bot - Status: %s\n", status)
	for _, l := range s.src.Loops {
		state := "STOPPED"
		if r.Loops[l.Name()] {
			state = "RUNNING"
		}
		fmt.Fprintf(&b, "%s: %s\n", l.Name(), state)
	}
	fmt.Fprintf(&b, "Storage: %s\n", r.Storage)
	fmt.Fprintf(&b, "Uptime: %ds\n", r.UptimeSeconds)
	fmt.Fprintf(&b, "%s\n", s.now().In(s.src.Location).Format("02/01/2006 15:04:05"))
	fmt.Fprintf(&b, "%d events, %d streamers, %d LoL players\n", r.Events, r.Streamers, r.Players)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}
