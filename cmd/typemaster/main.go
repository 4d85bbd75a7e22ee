// Package main provides the CLI entrypoint for typemaster.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/typemaster/internal/api"
	"github.com/verte-zerg/typemaster/internal/config"
	"github.com/verte-zerg/typemaster/internal/logging"
	"github.com/verte-zerg/typemaster/internal/model"
	"github.com/verte-zerg/typemaster/internal/pages"
	"github.com/verte-zerg/typemaster/internal/session"
	"github.com/verte-zerg/typemaster/internal/stats"
	"github.com/verte-zerg/typemaster/internal/store"
)

const (
	defaultTimeoutSeconds = 10
	defaultRateLimit      = api.DefaultRateLimit
	defaultDifficulty     = model.DifficultyEasy
	defaultAlertMs        = 3000
	defaultLogLevel       = "info"
	dotEnvPath            = ".env"
)

var (
	flagAPIURL     string
	flagTimeout    int
	flagRateLimit  float64
	flagDifficulty string
	flagAlertMs    int
	flagLogLevel   string
	flagLogFile    string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "typemaster",
		Short:         "Terminal client for the typing-speed test",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runAppCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagAPIURL, "api-url", api.DefaultBaseURL, "backend base URL")
	flags.IntVar(&flagTimeout, "timeout", defaultTimeoutSeconds, "request timeout in seconds")
	flags.Float64Var(&flagRateLimit, "rate-limit", defaultRateLimit, "maximum requests per second")
	flags.StringVar(&flagDifficulty, "difficulty", string(defaultDifficulty), "text difficulty (Easy, Medium, Hard)")
	flags.IntVar(&flagAlertMs, "alert-ms", defaultAlertMs, "alert display time in milliseconds")
	flags.StringVar(&flagLogLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&flagLogFile, "log-file", "", "log file used by full-screen views")

	rootCmd.AddCommand(newSignupCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newTestCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newProfileCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// deps bundles everything a command needs once the configuration is resolved.
type deps struct {
	cfg      model.Config
	logger   *log.Logger
	sessions *session.Manager
	client   *api.Client
	session  model.Session
	closers  []io.Closer
}

// setup resolves the configuration and opens the session database.
// Full-screen commands pass fullScreen so logs go to a file instead of stderr.
func setup(cmd *cobra.Command, fullScreen bool) (*deps, error) {
	if err := config.LoadDotEnv(dotEnvPath); err != nil {
		return nil, err
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	config.ApplyEnv(&fileCfg, os.Getenv)

	cfg, err := resolveConfig(cmd, fileCfg)
	if err != nil {
		return nil, err
	}

	rt := &deps{cfg: cfg}
	if fullScreen {
		logger, closer, err := logging.Open(flagLogFile, flagLogLevel)
		if err != nil {
			return nil, err
		}
		rt.logger = logger
		rt.closers = append(rt.closers, closer)
	} else {
		rt.logger = logging.New(os.Stderr, flagLogLevel)
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	rt.closers = append(rt.closers, st)
	rt.sessions = session.NewManager(st)

	s, err := rt.sessions.Load(cmd.Context())
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.session = s

	rt.client = api.New(api.Options{
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		Logger:    rt.logger,
	})
	rt.logger.Debug("configured", "api", rt.client.BaseURL(), "user", s.Username)
	return rt, nil
}

// Close releases the database and log file in reverse order.
func (rt *deps) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i].Close(); err != nil {
			logErrf("failed to close: %v\n", err)
		}
	}
	rt.closers = nil
}

func (rt *deps) requireSession() error {
	if !rt.session.Active() {
		return fmt.Errorf("not logged in (run: typemaster login)")
	}
	return nil
}

// resolveConfig applies file values to every flag the user did not set and
// validates the result. File values already carry the environment overrides.
func resolveConfig(cmd *cobra.Command, fileCfg config.FileConfig) (model.Config, error) {
	applyStringConfig(cmd, "api-url", &flagAPIURL, fileCfg.API.BaseURL)
	applyIntConfig(cmd, "timeout", &flagTimeout, fileCfg.API.TimeoutSeconds)
	applyFloatConfig(cmd, "rate-limit", &flagRateLimit, fileCfg.API.RateLimit)
	applyStringConfig(cmd, "difficulty", &flagDifficulty, fileCfg.Test.Difficulty)
	applyIntConfig(cmd, "alert-ms", &flagAlertMs, fileCfg.UI.AlertMs)
	applyStringConfig(cmd, "log-level", &flagLogLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "log-file", &flagLogFile, fileCfg.Log.File)
	if strings.TrimSpace(flagLogFile) == "" {
		flagLogFile = config.DefaultLogPath()
	}

	difficulty, err := model.ParseDifficulty(flagDifficulty)
	if err != nil {
		return model.Config{}, fmt.Errorf("--difficulty: %w", err)
	}
	cfg := model.Config{
		BaseURL:      strings.TrimSpace(flagAPIURL),
		Timeout:      time.Duration(flagTimeout) * time.Second,
		RateLimit:    flagRateLimit,
		Difficulty:   difficulty,
		PollInterval: stats.DefaultPollInterval,
		AlertDelay:   time.Duration(flagAlertMs) * time.Millisecond,
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg model.Config) error {
	if cfg.BaseURL == "" {
		return fmt.Errorf("--api-url must not be empty")
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("--timeout must be > 0")
	}
	if cfg.RateLimit <= 0 {
		return fmt.Errorf("--rate-limit must be > 0")
	}
	if cfg.AlertDelay <= 0 {
		return fmt.Errorf("--alert-ms must be > 0")
	}
	return nil
}

func runAppCmd(cmd *cobra.Command, _ []string) error {
	rt, err := setup(cmd, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	app := pages.NewApp(pages.Options{
		Backend:      rt.client,
		Sessions:     rt.sessions,
		Session:      rt.session,
		Difficulty:   rt.cfg.Difficulty,
		PollInterval: rt.cfg.PollInterval,
		AlertDelay:   rt.cfg.AlertDelay,
		Logger:       rt.logger,
	})
	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	var watch, chart bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard aggregates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatsCmd(cmd, watch, chart)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "keep refreshing in a full-screen view")
	cmd.Flags().BoolVar(&chart, "chart", false, "plot WPM and accuracy over time")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, watch, chart bool) error {
	rt, err := setup(cmd, watch)
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.requireSession(); err != nil {
		return err
	}

	if watch {
		view := pages.NewWatch(rt.client, rt.session, rt.cfg.PollInterval, rt.logger)
		program := tea.NewProgram(view, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run stats TUI: %w", err)
		}
		return nil
	}

	results, err := rt.client.ListResults(cmd.Context(), rt.session)
	if err != nil {
		return fmt.Errorf("failed to fetch results: %s", api.UserMessage(err, "request failed"))
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderSummary(out, stats.Aggregate(results)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if trend := stats.WPMTrend(results, trendWindow, trendWidth); trend != "" {
		if _, err := fmt.Fprintf(out, "WPM trend: %s\n", trend); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if chart && len(results) > 1 {
		if err := stats.RenderChart(out, "Progress", stats.ResultSeries(results), 0, 0); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

const (
	trendWindow = 3
	trendWidth  = 40
)

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
