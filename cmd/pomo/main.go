// Package main provides the CLI entrypoint for pomo.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/pomo/internal/config"
	"github.com/verte-zerg/pomo/internal/export"
	"github.com/verte-zerg/pomo/internal/model"
	"github.com/verte-zerg/pomo/internal/notify"
	"github.com/verte-zerg/pomo/internal/pomodoro"
	"github.com/verte-zerg/pomo/internal/stats"
	"github.com/verte-zerg/pomo/internal/store"
	"github.com/verte-zerg/pomo/internal/tui"
)

const (
	defaultWorkMinutes    = 20.0
	defaultBreakMinutes   = 5.0
	defaultPollIntervalMs = 10
)

var (
	timerWork     float64
	timerBreak    float64
	timerPollMs   int
	timerUser     string
	timerNoNotify bool
	dbPath        string

	statsUser   string
	statsSince  string
	statsPeriod string

	exportUser   string
	exportFormat string
	exportOut    string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pomo",
		Short:         "TUI pomodoro timer",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.MaximumNArgs(1),
		ValidArgs:     []string{"start"},
		RunE:          runTimerCmd,
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the SQLite database")
	rootCmd.Flags().Float64Var(&timerWork, "work", defaultWorkMinutes, "work duration in minutes")
	rootCmd.Flags().Float64Var(&timerBreak, "break", defaultBreakMinutes, "break duration in minutes")
	rootCmd.Flags().IntVar(&timerPollMs, "poll-interval-ms", defaultPollIntervalMs, "countdown poll interval in milliseconds")
	rootCmd.Flags().StringVar(&timerUser, "user", "", "sign in as this user on startup")
	rootCmd.Flags().BoolVar(&timerNoNotify, "no-notify", false, "disable desktop notifications")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newUsersCmd())
	rootCmd.AddCommand(newExportCmd())

	return rootCmd
}

func runTimerCmd(cmd *cobra.Command, args []string) error {
	if len(args) == 1 && args[0] != "start" {
		return fmt.Errorf("command not recognized: %s", args[0])
	}

	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFloatConfig(cmd, "work", &timerWork, fileCfg.Timer.WorkMinutes)
	applyFloatConfig(cmd, "break", &timerBreak, fileCfg.Timer.BreakMinutes)
	applyIntConfig(cmd, "poll-interval-ms", &timerPollMs, fileCfg.Timer.PollIntervalMs)
	applyStringConfig(cmd, "user", &timerUser, fileCfg.User.Default)
	if fileCfg.Notify.Enabled != nil && !*fileCfg.Notify.Enabled && !cmd.Flags().Changed("no-notify") {
		timerNoNotify = true
	}

	cfg := model.Config{
		WorkDuration:  minutesToDuration(timerWork),
		BreakDuration: minutesToDuration(timerBreak),
		PollInterval:  time.Duration(timerPollMs) * time.Millisecond,
		Notify:        !timerNoNotify,
		User:          strings.TrimSpace(timerUser),
	}
	if err := validateConfig(cfg, timerWork, timerBreak); err != nil {
		return err
	}

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	logFile, err := openLog()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := logFile.Close(); cerr != nil {
			logErrf("failed to close log: %v\n", cerr)
		}
	}()

	var notifier pomodoro.Notifier = notify.Noop{}
	if cfg.Notify {
		notifier = notify.NewDesktop()
	}

	timer := pomodoro.New(pomodoro.Config{
		WorkDuration:  cfg.WorkDuration,
		BreakDuration: cfg.BreakDuration,
		PollInterval:  cfg.PollInterval,
		Store:         st,
		Notifier:      notifier,
	})
	if cfg.User != "" && !timer.SignIn(cfg.User) {
		return fmt.Errorf("failed to sign in as %q", cfg.User)
	}
	defer timer.StopTimer()

	program := tea.NewProgram(tui.NewModel(timer), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show totals and per-day history",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsUser, "user", "", "user to report on (default: configured user)")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&statsPeriod, "period", "all-time", "today or all-time")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	user, err := resolveUser(cmd, statsUser)
	if err != nil {
		return err
	}
	period, err := model.ParsePeriod(statsPeriod)
	if err != nil {
		return fmt.Errorf("invalid --period value: %w", err)
	}
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	cfg := model.StatsConfig{User: user, Since: sinceTime, Period: period}
	report, err := stats.BuildReport(context.Background(), st, cfg, time.Now())
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderSummary(out, report); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderDayTable(out, report.Days, 0); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List users with recorded runs",
		Args:  cobra.NoArgs,
		RunE:  runUsersCmd,
	}
}

func runUsersCmd(cmd *cobra.Command, _ []string) error {
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	summaries, err := st.UserSummaries(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	if len(summaries) == 0 {
		logErrln("No users yet. Sign in with: pomo --user <name>")
		return nil
	}
	return writeUsers(cmd.OutOrStdout(), summaries, time.Now())
}

func writeUsers(w io.Writer, summaries []model.UserSummary, now time.Time) error {
	for _, s := range summaries {
		last := humanize.RelTime(s.LastRun, now, "ago", "from now")
		if stats.SameDay(now, s.LastRun) {
			last = "today"
		}
		if _, err := fmt.Fprintf(w, "%s\t%s runs\tlast %s\n", s.User, humanize.Comma(int64(s.Runs)), last); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export completed runs as YAML or TOML",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportUser, "user", "", "user to export (default: configured user)")
	cmd.Flags().StringVar(&exportFormat, "format", "yaml", "yaml or toml")
	cmd.Flags().StringVar(&exportOut, "out", "", "output file (default: stdout)")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	user, err := resolveUser(cmd, exportUser)
	if err != nil {
		return err
	}
	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	runs, err := st.GetTimerRuns(context.Background(), user)
	if err != nil {
		return fmt.Errorf("failed to load runs: %w", err)
	}
	if exportOut == "" {
		return export.Write(cmd.OutOrStdout(), format, user, runs)
	}
	return writeExportFile(exportOut, format, user, runs)
}

func writeExportFile(path string, format export.Format, user string, runs []model.TimerRun) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "export-*")
	if err != nil {
		return fmt.Errorf("failed to create temp export: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	writer := bufio.NewWriter(tmpFile)
	if err := export.Write(writer, format, user, runs); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush export: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close export: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	logErrf("Wrote %s\n", path)
	return nil
}

// resolveUser falls back to the configured default user.
func resolveUser(_ *cobra.Command, flagValue string) (string, error) {
	user := strings.TrimSpace(flagValue)
	if user != "" {
		return user, nil
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	if fileCfg.User.Default != nil && strings.TrimSpace(*fileCfg.User.Default) != "" {
		return strings.TrimSpace(*fileCfg.User.Default), nil
	}
	return "", fmt.Errorf("--user is required (or set [user] default in %s)", config.DefaultConfigPath())
}

func openStore() (*store.Store, func(), error) {
	path := dbPath
	if path == "" {
		path = config.DefaultDBPath()
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}, nil
}

// openLog sends the standard logger to a file so log lines from the timer do
// not draw over the alternate screen.
func openLog() (*os.File, error) {
	path := config.DefaultLogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := tea.LogToFile(path, "pomo")
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	return f, nil
}

func minutesToDuration(minutes float64) time.Duration {
	return time.Duration(minutes*60) * time.Second
}

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

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# pomo configuration
# Uncomment a value to enable it. CLI flags override config values.

[timer]
# work-minutes = %.1f        # Work duration in minutes
# break-minutes = %.1f        # Break duration in minutes
# poll-interval-ms = %d      # How often a running countdown checks for commands

[notify]
# enabled = true             # Desktop notification when a phase ends

[user]
# default = "alice"          # Sign in as this user on startup
`,
		defaultWorkMinutes,
		defaultBreakMinutes,
		defaultPollIntervalMs,
	)
}

func validateConfig(cfg model.Config, workMinutes, breakMinutes float64) error {
	if workMinutes < 0 {
		return fmt.Errorf("--work must be >= 0")
	}
	if breakMinutes < 0 {
		return fmt.Errorf("--break must be >= 0")
	}
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("--poll-interval-ms must be > 0")
	}
	if cfg.PollInterval > time.Second {
		return fmt.Errorf("--poll-interval-ms must be <= 1000")
	}
	return nil
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
