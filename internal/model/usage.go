// Package model defines the usage data shared by the client, cache, orchestrator and renderers.
package model

import (
	"encoding/json"
	"strings"
)

// Metric names one independently cached usage category.
type Metric string

const (
	MetricMonthly Metric = "monthly"
	MetricDaily   Metric = "daily"
	MetricQuota   Metric = "quota"
)

// Metrics lists every known metric in display order.
var Metrics = []Metric{MetricMonthly, MetricDaily, MetricQuota}

// Origin records where a snapshot metric came from.
type Origin string

const (
	OriginCache    Origin = "cache"
	OriginRemote   Origin = "remote"
	OriginFallback Origin = "fallback"
)

// DefaultMCPTotal is the MCP call budget assumed when the API reports none.
const DefaultMCPTotal = 1000

// DefaultLevel is the plan level assumed when the API reports none.
const DefaultLevel = "pro"

// MonthlyUsage covers the current calendar month up to now.
type MonthlyUsage struct {
	TotalTokens int64 `json:"totalTokens"`
	TotalCalls  int64 `json:"totalCalls"`
}

// DailyUsage covers today's tokens. HourlyData is the raw, compacted
// model-usage payload the total was computed from.
type DailyUsage struct {
	DailyTokens int64           `json:"dailyTokens"`
	HourlyData  json.RawMessage `json:"hourlyData,omitempty"`
}

// HourlyPoint is one sample of the hourly model-usage series.
type HourlyPoint struct {
	Time   string
	Tokens int64
}

// Hourly decodes the x_time/tokensUsage series from HourlyData.
// Missing or malformed data yields nil.
func (d DailyUsage) Hourly() []HourlyPoint {
	if len(d.HourlyData) == 0 {
		return nil
	}
	var raw struct {
		XTime       []string   `json:"x_time"`
		TokensUsage []*float64 `json:"tokensUsage"`
	}
	if err := json.Unmarshal(d.HourlyData, &raw); err != nil {
		return nil
	}

	points := make([]HourlyPoint, 0, len(raw.XTime))
	for i, ts := range raw.XTime {
		p := HourlyPoint{Time: ts}
		if i < len(raw.TokensUsage) && raw.TokensUsage[i] != nil {
			p.Tokens = int64(*raw.TokensUsage[i])
		}
		points = append(points, p)
	}
	return points
}

// TokensOn sums hourly samples whose timestamp starts with the given date (YYYY-MM-DD).
func TokensOn(points []HourlyPoint, date string) int64 {
	var total int64
	for _, p := range points {
		if strings.HasPrefix(p.Time, date) {
			total += p.Tokens
		}
	}
	return total
}

// MCPUsage is the time-based (MCP tool call) limit.
type MCPUsage struct {
	Percentage float64           `json:"percentage"`
	Current    int64             `json:"current"`
	Total      int64             `json:"total"`
	Details    []json.RawMessage `json:"details,omitempty"`
}

// TokenUsage is the token-based limit, a rolling 5-hour window on both platforms.
type TokenUsage struct {
	Percentage float64 `json:"percentage"`
}

// QuotaStatus holds the plan limits reported by the quota endpoint.
type QuotaStatus struct {
	MCPUsage   MCPUsage   `json:"mcpUsage"`
	TokenUsage TokenUsage `json:"tokenUsage"`
	Level      string     `json:"level"`
}

// DefaultQuota returns the quota used when a limit record is missing.
func DefaultQuota() QuotaStatus {
	return QuotaStatus{
		MCPUsage: MCPUsage{Total: DefaultMCPTotal},
		Level:    DefaultLevel,
	}
}

// UsageSnapshot is the merged result of one orchestration pass.
// When Error is set, Monthly, Daily and Quota are nil.
type UsageSnapshot struct {
	Monthly  *MonthlyUsage     `json:"monthly,omitempty"`
	Daily    *DailyUsage       `json:"daily,omitempty"`
	Quota    *QuotaStatus      `json:"quota,omitempty"`
	Platform string            `json:"platform"`
	Error    string            `json:"error,omitempty"`
	Origins  map[Metric]Origin `json:"origins,omitempty"`
}

// HasData reports whether the snapshot carries usage values.
func (s UsageSnapshot) HasData() bool {
	return s.Error == "" && (s.Monthly != nil || s.Daily != nil || s.Quota != nil)
}
