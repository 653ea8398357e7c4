package usage

import (
	"encoding/json"

	"github.com/theirongolddev/glm-statusline/internal/model"
)

// FallbackMonthly is substituted when the monthly fetch fails.
func FallbackMonthly() model.MonthlyUsage {
	return model.MonthlyUsage{}
}

// FallbackDaily is substituted when the daily fetch fails.
func FallbackDaily() model.DailyUsage {
	return model.DailyUsage{HourlyData: json.RawMessage("{}")}
}

// FallbackQuota is substituted when the quota fetch fails.
func FallbackQuota() model.QuotaStatus {
	return model.DefaultQuota()
}
