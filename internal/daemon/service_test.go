package daemon

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/theirongolddev/glm-statusline/internal/model"
)

type stubSnapshotter struct {
	mu    sync.Mutex
	snaps []model.UsageSnapshot
	calls int
}

func (s *stubSnapshotter) Snapshot(context.Context) model.UsageSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.snaps) {
		i = len(s.snaps) - 1
	}
	s.calls++
	return s.snaps[i]
}

func usageSnap(daily, monthly int64, mcpPct float64) model.UsageSnapshot {
	return model.UsageSnapshot{
		Daily:    &model.DailyUsage{DailyTokens: daily},
		Monthly:  &model.MonthlyUsage{TotalTokens: monthly, TotalCalls: 10},
		Quota:    &model.QuotaStatus{MCPUsage: model.MCPUsage{Percentage: mcpPct, Total: 1000}, Level: "pro"},
		Platform: "ZHIPU",
		Origins:  map[model.Metric]model.Origin{model.MetricDaily: model.OriginRemote},
	}
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{
		DailyTokens:   1_000,
		MonthlyTokens: 1_000_000,
		MonthlyCalls:  120,
		FiveHourPct:   10,
		MCPPct:        30,
	}
	curr := Snapshot{
		DailyTokens:   1_500,
		MonthlyTokens: 1_250_000,
		MonthlyCalls:  136,
		FiveHourPct:   12.5,
		MCPPct:        30,
	}

	delta := diffSnapshots(prev, curr)
	if delta.DailyTokens != 500 {
		t.Fatalf("DailyTokens delta = %d, want 500", delta.DailyTokens)
	}
	if delta.MonthlyTokens != 250_000 {
		t.Fatalf("MonthlyTokens delta = %d, want 250000", delta.MonthlyTokens)
	}
	if delta.MonthlyCalls != 16 {
		t.Fatalf("MonthlyCalls delta = %d, want 16", delta.MonthlyCalls)
	}
	if math.Abs(delta.FiveHourPct-2.5) > 1e-9 {
		t.Fatalf("FiveHourPct delta = %.2f, want 2.50", delta.FiveHourPct)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
	if !diffSnapshots(curr, curr).isZero() {
		t.Fatal("identical snapshots should give a zero delta")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{EventsBuffer: 2}, &stubSnapshotter{}, nil)

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestNewDefaults(t *testing.T) {
	s := New(Config{Interval: time.Second}, &stubSnapshotter{}, nil)
	if s.cfg.Interval != 30*time.Second {
		t.Fatalf("Interval = %s, want 30s", s.cfg.Interval)
	}
	if s.cfg.Addr != "127.0.0.1:8788" {
		t.Fatalf("Addr = %q", s.cfg.Addr)
	}
}

func TestPollOncePublishesOnlyChanges(t *testing.T) {
	stub := &stubSnapshotter{snaps: []model.UsageSnapshot{
		usageSnap(100, 1000, 30),
		usageSnap(100, 1000, 30),
		usageSnap(250, 1150, 31),
	}}
	s := New(Config{}, stub, nil)
	ctx := context.Background()

	s.pollOnce(ctx)
	s.pollOnce(ctx)
	s.pollOnce(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.pollCount != 3 {
		t.Fatalf("pollCount = %d, want 3", s.pollCount)
	}
	if len(s.events) != 2 {
		t.Fatalf("events = %d, want 2 (initial snapshot + one delta)", len(s.events))
	}
	if s.events[0].Type != "snapshot" || s.events[1].Type != "usage_delta" {
		t.Fatalf("event types = %q, %q", s.events[0].Type, s.events[1].Type)
	}
	if s.events[1].Delta.DailyTokens != 150 {
		t.Fatalf("daily delta = %d, want 150", s.events[1].Delta.DailyTokens)
	}
}

func TestPollOnceErrorKeepsLastSnapshot(t *testing.T) {
	stub := &stubSnapshotter{snaps: []model.UsageSnapshot{
		usageSnap(100, 1000, 30),
		{Platform: "ZHIPU", Error: "boom"},
	}}
	s := New(Config{}, stub, nil)

	s.pollOnce(context.Background())
	s.pollOnce(context.Background())

	st := s.snapshotStatus()
	if st.LastError != "boom" {
		t.Fatalf("LastError = %q, want boom", st.LastError)
	}
	if st.Summary.DailyTokens != 100 {
		t.Fatalf("summary daily = %d, want last good value 100", st.Summary.DailyTokens)
	}
}

func TestStatusEndpoint(t *testing.T) {
	s := New(Config{CacheDir: "/tmp/glm"}, &stubSnapshotter{snaps: []model.UsageSnapshot{usageSnap(42, 4200, 5)}}, nil)
	s.pollOnce(context.Background())

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/status")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()

	var st Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if st.Summary.DailyTokens != 42 || st.Summary.Level != "pro" || st.CacheDir != "/tmp/glm" {
		t.Fatalf("unexpected status: %+v", st)
	}
	if st.Summary.Origins[model.MetricDaily] != model.OriginRemote {
		t.Fatalf("origins = %v", st.Summary.Origins)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	stub := &stubSnapshotter{snaps: []model.UsageSnapshot{
		usageSnap(42, 4200, 5),
		{Platform: "ZHIPU", Error: "boom"},
	}}
	s := New(Config{}, stub, nil)
	s.pollOnce(context.Background())
	s.pollOnce(context.Background())

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"glm_statusline_daily_tokens 42",
		"glm_statusline_monthly_tokens 4200",
		`glm_statusline_quota_used_percent{limit="mcp"} 5`,
		`glm_statusline_polls_total{result="ok"} 1`,
		`glm_statusline_polls_total{result="error"} 1`,
		`glm_statusline_metric_origin_total{metric="daily",origin="remote"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestHealthzRejectsPost(t *testing.T) {
	srv := httptest.NewServer(New(Config{}, &stubSnapshotter{}, nil).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/healthz", "text/plain", nil)
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("POST /healthz = %d, want 405", resp.StatusCode)
	}
}
