package daemon

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/theirongolddev/glm-statusline/internal/model"
)

const namespace = "glm_statusline"

// metrics exposes the latest snapshot as Prometheus gauges. Each Service
// owns its registry so tests can run several side by side.
type metrics struct {
	registry *prometheus.Registry

	dailyTokens   prometheus.Gauge
	monthlyTokens prometheus.Gauge
	monthlyCalls  prometheus.Gauge
	quotaPercent  *prometheus.GaugeVec
	pollsTotal    *prometheus.CounterVec
	originsTotal  *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		dailyTokens: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "daily_tokens",
			Help:      "Tokens used today",
		}),
		monthlyTokens: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "monthly_tokens",
			Help:      "Tokens used this calendar month",
		}),
		monthlyCalls: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "monthly_calls",
			Help:      "Model calls this calendar month",
		}),
		quotaPercent: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "quota_used_percent",
			Help:      "Plan quota utilization, 0-100",
		}, []string{"limit"}), // "five_hour" / "mcp"
		pollsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Snapshot polls by result",
		}, []string{"result"}),
		originsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metric_origin_total",
			Help:      "Where each polled metric came from",
		}, []string{"metric", "origin"}),
	}

	m.registry.MustRegister(
		m.dailyTokens,
		m.monthlyTokens,
		m.monthlyCalls,
		m.quotaPercent,
		m.pollsTotal,
		m.originsTotal,
	)
	return m
}

// observe records one poll.
func (m *metrics) observe(snap Snapshot) {
	if snap.Error != "" {
		m.pollsTotal.WithLabelValues("error").Inc()
		return
	}
	m.pollsTotal.WithLabelValues("ok").Inc()

	m.dailyTokens.Set(float64(snap.DailyTokens))
	m.monthlyTokens.Set(float64(snap.MonthlyTokens))
	m.monthlyCalls.Set(float64(snap.MonthlyCalls))
	m.quotaPercent.WithLabelValues("five_hour").Set(snap.FiveHourPct)
	m.quotaPercent.WithLabelValues("mcp").Set(snap.MCPPct)

	for _, metric := range model.Metrics {
		if origin, ok := snap.Origins[metric]; ok {
			m.originsTotal.WithLabelValues(string(metric), string(origin)).Inc()
		}
	}
}
