// Package cmd implements the glm-statusline CLI commands.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/theirongolddev/glm-statusline/internal/cli"
	"github.com/theirongolddev/glm-statusline/internal/config"
	"github.com/theirongolddev/glm-statusline/internal/glm"
	"github.com/theirongolddev/glm-statusline/internal/logging"
	"github.com/theirongolddev/glm-statusline/internal/model"
	"github.com/theirongolddev/glm-statusline/internal/source"
	"github.com/theirongolddev/glm-statusline/internal/store"
	"github.com/theirongolddev/glm-statusline/internal/usage"
)

// stdinWait bounds how long we wait for Claude Code to pipe the context.
const stdinWait = 200 * time.Millisecond

// snapshotter produces a usage snapshot for the status line.
type snapshotter interface {
	Snapshot(ctx context.Context) model.UsageSnapshot
}

// Overridden in tests.
var (
	stdin         = os.Stdin
	statusService = func(a *app) snapshotter { return a.service() }
)

var (
	flagLocal      bool
	flagCompact    bool
	flagClearCache bool
	flagConfigPath string
	flagDebug      bool
	flagCacheDir   string
)

var rootCmd = &cobra.Command{
	Use:   "glm-statusline",
	Short: "GLM Coding Plan status line for Claude Code",
	Long: `Reads the Claude Code status-line context from stdin and prints the model,
session tokens and GLM Coding Plan usage (today, this month, 5h and MCP quotas).

Configure it in ~/.claude/settings.json:

  {"statusLine": {"type": "command", "command": "glm-statusline"}}

Environment:
  ANTHROPIC_AUTH_TOKEN  GLM API token
  ANTHROPIC_BASE_URL    API base URL (api.z.ai selects the international platform)`,
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runStatusLine,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if code := run(os.Args[1:], os.Stdout, os.Stderr); code != 0 {
		os.Exit(code)
	}
}

// run executes the CLI and returns the process exit code. The root command
// is the status line itself, so its failures still print a line and exit 0.
func run(args []string, stdout, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	cmd, err := rootCmd.ExecuteC()
	if err == nil {
		return 0
	}
	if cmd == rootCmd {
		fmt.Fprintln(stdout, cli.ErrorLine)
		return 0
	}
	fmt.Fprintf(stderr, "  Error: %v\n", err)
	return 1
}

func init() {
	rootCmd.Flags().BoolVarP(&flagLocal, "local", "l", false, "Use local context only, no API requests")
	rootCmd.Flags().BoolVarP(&flagCompact, "compact", "c", false, "Single-line output")
	rootCmd.Flags().BoolVar(&flagClearCache, "clear-cache", false, "Delete cached usage and exit")

	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "Config file (default $XDG_CONFIG_HOME/glm-statusline/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Write debug logs to the cache directory")
	rootCmd.PersistentFlags().StringVar(&flagCacheDir, "cache-dir", "", "Cache directory (default <tmp>/.glm-statusline-cache)")
}

// app bundles what every command builds from config and flags.
type app struct {
	cfg      config.Config
	log      *zap.Logger
	cache    *store.Store
	platform glm.Platform
	token    string
}

// setup loads .env files and config, then applies persistent flags.
// A broken config file falls back to defaults so the status line still renders.
func setup() *app {
	config.LoadEnv()

	var (
		cfg config.Config
		err error
	)
	if flagConfigPath != "" {
		cfg, err = config.LoadFrom(flagConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if flagCacheDir != "" {
		cfg.Cache.Dir = flagCacheDir
	}

	log, logErr := logging.New(flagDebug || config.DebugEnabled(cfg), cfg.LogFile())
	if logErr != nil {
		log = zap.NewNop()
	}
	if err != nil {
		log.Warn("config ignored", zap.Error(err))
	}

	return &app{
		cfg:      cfg,
		log:      log,
		cache:    store.New(cfg.CacheDir(), cfg.TTL()),
		platform: glm.DetectPlatform(config.GetBaseURL(cfg)),
		token:    config.GetAuthToken(cfg),
	}
}

// service wires the remote client and cache into an orchestrator.
func (a *app) service() *usage.Service {
	client := glm.NewClient(a.token, a.platform)
	return usage.NewService(client, a.cache, a.platform.Name, a.log)
}

func (a *app) close() {
	_ = a.log.Sync()
}

func runStatusLine(cmd *cobra.Command, _ []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("status line panicked: %v", r)
		}
	}()

	a := setup()
	defer a.close()

	if flagClearCache {
		if err := a.cache.ClearAll(); err != nil {
			a.log.Warn("clear cache", zap.Error(err))
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared")
		return nil
	}

	input := source.ReadInput(stdin, stdinWait)
	ctx := source.ParseContext(input)

	opts := a.cfg.StatusOptions()
	if flagCompact {
		opts.Compact = true
	}

	var snap *model.UsageSnapshot
	if flagLocal {
		opts = opts.Local()
	} else {
		if a.token == "" {
			a.log.Warn("no auth token set", zap.String("env", config.EnvAuthToken))
		}
		s := statusService(a).Snapshot(commandContext(cmd))
		snap = &s
		if s.Error != "" {
			a.log.Error("snapshot failed", zap.String("error", s.Error))
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.NewStatusLine(termenv.ANSI).Render(ctx, snap, opts))
	return nil
}

// commandContext returns cmd's context or a background one when run outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
