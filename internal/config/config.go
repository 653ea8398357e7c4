// Package config loads glm-statusline settings from TOML and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/theirongolddev/glm-statusline/internal/cli"
	"github.com/theirongolddev/glm-statusline/internal/model"
	"github.com/theirongolddev/glm-statusline/internal/store"
)

// Environment variables shared with Claude Code.
const (
	EnvAuthToken = "ANTHROPIC_AUTH_TOKEN"
	EnvBaseURL   = "ANTHROPIC_BASE_URL"
	EnvDebug     = "GLM_STATUSLINE_DEBUG"
)

// Config holds all glm-statusline configuration.
type Config struct {
	API        APIConfig        `toml:"api"`
	Cache      CacheConfig      `toml:"cache"`
	Display    DisplayConfig    `toml:"display"`
	Logging    LoggingConfig    `toml:"logging"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// APIConfig holds fallbacks for the Claude Code environment variables.
type APIConfig struct {
	AuthToken string `toml:"auth_token,omitempty"`
	BaseURL   string `toml:"base_url,omitempty"`
}

// CacheConfig holds cache location and per-metric TTLs in seconds.
type CacheConfig struct {
	Dir           string `toml:"dir,omitempty"`
	MonthlyTTLSec int    `toml:"monthly_ttl_sec"`
	DailyTTLSec   int    `toml:"daily_ttl_sec"`
	QuotaTTLSec   int    `toml:"quota_ttl_sec"`
}

// DisplayConfig toggles status-line segments.
type DisplayConfig struct {
	Compact      bool `toml:"compact"`
	BarWidth     int  `toml:"bar_width"`
	ShowSession  bool `toml:"show_session"`
	ShowDaily    bool `toml:"show_daily"`
	ShowMonthly  bool `toml:"show_monthly"`
	ShowMCP      bool `toml:"show_mcp"`
	ShowFiveHour bool `toml:"show_five_hour"`
	ShowContext  bool `toml:"show_context"`
}

// LoggingConfig controls the debug log. Logging is off unless Debug is set.
type LoggingConfig struct {
	Debug bool   `toml:"debug"`
	File  string `toml:"file,omitempty"`
}

// AppearanceConfig holds theme settings for the watch dashboard.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	ttl := store.DefaultTTL()
	opts := cli.DefaultStatusOptions()
	return Config{
		Cache: CacheConfig{
			MonthlyTTLSec: int(ttl[model.MetricMonthly] / time.Second),
			DailyTTLSec:   int(ttl[model.MetricDaily] / time.Second),
			QuotaTTLSec:   int(ttl[model.MetricQuota] / time.Second),
		},
		Display: DisplayConfig{
			Compact:      opts.Compact,
			BarWidth:     opts.BarWidth,
			ShowSession:  opts.ShowSession,
			ShowDaily:    opts.ShowDaily,
			ShowMonthly:  opts.ShowMonthly,
			ShowMCP:      opts.ShowMCP,
			ShowFiveHour: opts.ShowFiveHour,
			ShowContext:  opts.ShowContext,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "glm-statusline")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "glm-statusline")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config at path, returning defaults if it doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to the default path.
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes the config to path. The file may hold a token, so it is
// created owner-only.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// LoadEnv loads .env files from the config dir and the working directory.
// Variables already set in the environment are never overridden.
func LoadEnv() {
	for _, path := range []string{
		filepath.Join(ConfigDir(), ".env"),
		".env",
	} {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
		}
	}
}

// GetAuthToken returns the token from env var or config, in that order.
func GetAuthToken(cfg Config) string {
	if tok := os.Getenv(EnvAuthToken); tok != "" {
		return tok
	}
	return cfg.API.AuthToken
}

// GetBaseURL returns the Anthropic base URL from env var or config, in that order.
func GetBaseURL(cfg Config) string {
	if u := os.Getenv(EnvBaseURL); u != "" {
		return u
	}
	return cfg.API.BaseURL
}

// DebugEnabled reports whether debug logging is requested by env or config.
func DebugEnabled(cfg Config) bool {
	switch os.Getenv(EnvDebug) {
	case "1", "true", "yes":
		return true
	}
	return cfg.Logging.Debug
}

// CacheDir returns the configured cache directory or the shared temp default.
func (c Config) CacheDir() string {
	if c.Cache.Dir != "" {
		return c.Cache.Dir
	}
	return store.DefaultDir()
}

// LogFile returns the debug log path, defaulting into the cache directory.
func (c Config) LogFile() string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	return filepath.Join(c.CacheDir(), "debug.log")
}

// TTL converts the configured seconds into a store TTL table.
// Non-positive values keep the default for that metric.
func (c Config) TTL() store.TTL {
	ttl := store.DefaultTTL()
	for metric, secs := range map[model.Metric]int{
		model.MetricMonthly: c.Cache.MonthlyTTLSec,
		model.MetricDaily:   c.Cache.DailyTTLSec,
		model.MetricQuota:   c.Cache.QuotaTTLSec,
	} {
		if secs > 0 {
			ttl[metric] = time.Duration(secs) * time.Second
		}
	}
	return ttl
}

// StatusOptions converts the display section into renderer options.
func (c Config) StatusOptions() cli.StatusOptions {
	return cli.StatusOptions{
		Compact:      c.Display.Compact,
		BarWidth:     c.Display.BarWidth,
		ShowSession:  c.Display.ShowSession,
		ShowDaily:    c.Display.ShowDaily,
		ShowMonthly:  c.Display.ShowMonthly,
		ShowMCP:      c.Display.ShowMCP,
		ShowFiveHour: c.Display.ShowFiveHour,
		ShowContext:  c.Display.ShowContext,
	}
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
