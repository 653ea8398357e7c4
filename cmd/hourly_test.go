package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/theirongolddev/glm-statusline/internal/model"
)

func TestRenderHourly(t *testing.T) {
	out := renderHourly([]model.HourlyPoint{
		{Time: "2025-03-15 12:00", Tokens: 500},
		{Time: "2025-03-15 13:00", Tokens: 0},
		{Time: "2025-03-15 14:00", Tokens: 2000},
	}, 8)

	lines := strings.Split(out, "\n")
	assert.Equal(t, "  2025-03-15 12:00 │    500 │ ██", lines[0])
	assert.Equal(t, "  2025-03-15 13:00 │      0 │ ", lines[1])
	assert.Equal(t, "  2025-03-15 14:00 │   2.0K │ ████████", lines[2])
	assert.Contains(t, out, "Peak: 2025-03-15 14:00 (2.0K tokens)")
}

func TestRenderHourly_AllZero(t *testing.T) {
	out := renderHourly([]model.HourlyPoint{{Time: "2025-03-15 12:00"}}, 8)
	assert.Contains(t, out, "No tokens used")
}
