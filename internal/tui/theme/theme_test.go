package theme

import "testing"

func TestGaugeThresholds(t *testing.T) {
	th := FlexokiDark
	cases := []struct {
		pct  float64
		want string
	}{
		{0, string(th.Green)},
		{49.9, string(th.Green)},
		{50, string(th.Yellow)},
		{79.9, string(th.Yellow)},
		{80, string(th.Red)},
		{100, string(th.Red)},
	}
	for _, c := range cases {
		if got := string(th.Gauge(c.pct)); got != c.want {
			t.Errorf("Gauge(%.1f) = %s, want %s", c.pct, got, c.want)
		}
	}
}

func TestSetActiveFallsBack(t *testing.T) {
	defer SetActive(FlexokiDark.Name)

	SetActive("tokyo-night")
	if Active.Name != "tokyo-night" {
		t.Fatalf("Active = %q, want tokyo-night", Active.Name)
	}
	SetActive("no-such-theme")
	if Active.Name != FlexokiDark.Name {
		t.Fatalf("Active = %q, want fallback %q", Active.Name, FlexokiDark.Name)
	}
}
