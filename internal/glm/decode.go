package glm

import (
	"bytes"
	"encoding/json"

	"github.com/samber/lo"

	"github.com/theirongolddev/glm-statusline/internal/model"
)

const (
	endpointModelUsage = "model-usage"
	endpointQuotaLimit = "quota/limit"
)

func decodeMonthly(body []byte) (model.MonthlyUsage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return model.MonthlyUsage{}, &ParseError{Endpoint: endpointModelUsage, Err: err}
	}

	var data modelUsageData
	if !isNull(env.Data) {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return model.MonthlyUsage{}, &ParseError{Endpoint: endpointModelUsage, Err: err}
		}
	}

	var usage model.MonthlyUsage
	if data.TotalUsage != nil {
		usage.TotalTokens = count(data.TotalUsage.TotalTokensUsage)
		usage.TotalCalls = count(data.TotalUsage.TotalModelCallCount)
	}
	return usage, nil
}

func decodeDaily(body []byte, today string) (model.DailyUsage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return model.DailyUsage{}, &ParseError{Endpoint: endpointModelUsage, Err: err}
	}

	usage := model.DailyUsage{HourlyData: json.RawMessage("{}")}
	if isNull(env.Data) {
		return usage, nil
	}

	// Validate the series shape before keeping the payload.
	var series struct {
		XTime       []string   `json:"x_time"`
		TokensUsage []*float64 `json:"tokensUsage"`
	}
	if err := json.Unmarshal(env.Data, &series); err != nil {
		return model.DailyUsage{}, &ParseError{Endpoint: endpointModelUsage, Err: err}
	}

	usage.HourlyData = compact(env.Data)
	usage.DailyTokens = max(0, model.TokensOn(usage.Hourly(), today))
	return usage, nil
}

func decodeQuota(body []byte) (model.QuotaStatus, error) {
	var resp quotaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.QuotaStatus{}, &ParseError{Endpoint: endpointQuotaLimit, Err: err}
	}

	rawLimits := resp.Limits
	level := resp.Level
	if resp.Data != nil {
		if resp.Data.Limits != nil {
			rawLimits = resp.Data.Limits
		}
		if resp.Data.Level != "" {
			level = resp.Data.Level
		}
	}

	limits := decodeLimits(rawLimits)

	status := model.DefaultQuota()
	if level != "" {
		status.Level = level
	}

	if rec, ok := lastOfType(limits, limitTypeTime); ok {
		status.MCPUsage = model.MCPUsage{
			Percentage: rec.Percentage,
			Current:    count(rec.CurrentValue),
			Total:      count(rec.Usage),
		}
		if status.MCPUsage.Total == 0 {
			status.MCPUsage.Total = model.DefaultMCPTotal
		}
		if len(rec.UsageDetails) > 0 {
			status.MCPUsage.Details = lo.Map(rec.UsageDetails, func(d json.RawMessage, _ int) json.RawMessage {
				return compact(d)
			})
		}
	}
	if rec, ok := lastOfType(limits, limitTypeTokens); ok {
		status.TokenUsage = model.TokenUsage{Percentage: rec.Percentage}
	}

	return status, nil
}

// decodeLimits keeps the TIME_LIMIT and TOKENS_LIMIT records. Records of
// other types are ignored and a badly typed record is skipped on its own.
func decodeLimits(raw []json.RawMessage) []limitRecord {
	return lo.FilterMap(raw, func(r json.RawMessage, _ int) (limitRecord, bool) {
		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(r, &head); err != nil {
			return limitRecord{}, false
		}
		if head.Type != limitTypeTime && head.Type != limitTypeTokens {
			return limitRecord{}, false
		}
		var rec limitRecord
		if err := json.Unmarshal(r, &rec); err != nil {
			return limitRecord{}, false
		}
		return rec, true
	})
}

// count converts an API number to a non-negative integer count.
func count(v float64) int64 {
	return max(0, int64(v))
}

// lastOfType returns the last limit record of the given type; later entries win.
func lastOfType(limits []limitRecord, kind string) (limitRecord, bool) {
	matches := lo.Filter(limits, func(l limitRecord, _ int) bool {
		return l.Type == kind
	})
	if len(matches) == 0 {
		return limitRecord{}, false
	}
	return matches[len(matches)-1], true
}

func compact(raw json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
