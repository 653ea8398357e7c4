// Package daemon keeps the usage cache warm in the background and serves
// the latest snapshot over HTTP and server-sent events.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/theirongolddev/glm-statusline/internal/model"
)

// Snapshotter produces merged usage snapshots. *usage.Service satisfies it.
type Snapshotter interface {
	Snapshot(ctx context.Context) model.UsageSnapshot
}

// Config controls the daemon runtime behavior.
type Config struct {
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	CacheDir     string
}

// Snapshot is a compact usage state for status/event payloads.
type Snapshot struct {
	At            time.Time                     `json:"at"`
	Platform      string                        `json:"platform"`
	Level         string                        `json:"level"`
	DailyTokens   int64                         `json:"daily_tokens"`
	MonthlyTokens int64                         `json:"monthly_tokens"`
	MonthlyCalls  int64                         `json:"monthly_calls"`
	FiveHourPct   float64                       `json:"five_hour_pct"`
	MCPPct        float64                       `json:"mcp_pct"`
	MCPCurrent    int64                         `json:"mcp_current"`
	MCPTotal      int64                         `json:"mcp_total"`
	Origins       map[model.Metric]model.Origin `json:"origins,omitempty"`
	Error         string                        `json:"error,omitempty"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	DailyTokens   int64   `json:"daily_tokens"`
	MonthlyTokens int64   `json:"monthly_tokens"`
	MonthlyCalls  int64   `json:"monthly_calls"`
	FiveHourPct   float64 `json:"five_hour_pct"`
	MCPPct        float64 `json:"mcp_pct"`
}

func (d Delta) isZero() bool {
	return d.DailyTokens == 0 &&
		d.MonthlyTokens == 0 &&
		d.MonthlyCalls == 0 &&
		d.FiveHourPct == 0 &&
		d.MCPPct == 0
}

// Event is emitted whenever usage snapshot updates.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	CacheDir        string    `json:"cache_dir"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg     Config
	svc     Snapshotter
	log     *zap.Logger
	now     func() time.Time
	metrics *metrics

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config, svc Snapshotter, log *zap.Logger) *Service {
	if cfg.Interval < 10*time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8788"
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		cfg:       cfg,
		svc:       svc,
		log:       log.Named("daemon"),
		now:       time.Now,
		metrics:   newMetrics(),
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the daemon's HTTP API.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Get("/v1/status", s.handleStatus)
	r.Get("/v1/events", s.handleEvents)
	r.Get("/v1/stream", s.handleStream)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
	return r
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// pollOnce refreshes the snapshot. Stale cache entries are refetched and
// written back by the orchestrator, which is what keeps the status line fast.
func (s *Service) pollOnce(ctx context.Context) {
	start := s.now()
	usage := s.svc.Snapshot(ctx)
	now := s.now()

	snap := snapshotFromUsage(usage, now)
	s.metrics.observe(snap)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	s.lastPollAt = now
	s.pollCount++
	if usage.Error != "" {
		s.lastError = usage.Error
		s.mu.Unlock()
		s.log.Warn("poll failed", zap.String("error", usage.Error))
		return
	}

	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      "snapshot",
			Timestamp: now,
			Snapshot:  snap,
		}
		publish = true
	} else if delta := diffSnapshots(prev, snap); !delta.isZero() {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      "usage_delta",
			Timestamp: now,
			Snapshot:  snap,
			Delta:     delta,
		}
		publish = true
	}
	s.mu.Unlock()

	s.log.Debug("poll",
		zap.Duration("took", now.Sub(start)),
		zap.Any("origins", usage.Origins),
		zap.Bool("published", publish))

	if publish {
		s.publishEvent(ev)
	}
}

func snapshotFromUsage(u model.UsageSnapshot, at time.Time) Snapshot {
	snap := Snapshot{
		At:       at,
		Platform: u.Platform,
		Level:    model.DefaultLevel,
		Origins:  u.Origins,
		Error:    u.Error,
	}
	if u.Daily != nil {
		snap.DailyTokens = u.Daily.DailyTokens
	}
	if u.Monthly != nil {
		snap.MonthlyTokens = u.Monthly.TotalTokens
		snap.MonthlyCalls = u.Monthly.TotalCalls
	}
	if q := u.Quota; q != nil {
		if q.Level != "" {
			snap.Level = q.Level
		}
		snap.FiveHourPct = q.TokenUsage.Percentage
		snap.MCPPct = q.MCPUsage.Percentage
		snap.MCPCurrent = q.MCPUsage.Current
		snap.MCPTotal = q.MCPUsage.Total
	}
	return snap
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		DailyTokens:   curr.DailyTokens - prev.DailyTokens,
		MonthlyTokens: curr.MonthlyTokens - prev.MonthlyTokens,
		MonthlyCalls:  curr.MonthlyCalls - prev.MonthlyCalls,
		FiveHourPct:   curr.FiveHourPct - prev.FiveHourPct,
		MCPPct:        curr.MCPPct - prev.MCPPct,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		CacheDir:        s.cfg.CacheDir,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      "snapshot",
		Timestamp: s.now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
