package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/skatelens-cli/internal/config"
	"github.com/KaramelBytes/skatelens-cli/internal/log"
)

var (
	// Global flags
	cfgFile       string
	flagDataRoot  string
	flagLogLevel  string
	flagLogFormat string
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "skatelens",
	Short: "SkateLens CLI: explore short-track speed skating results",
	Long: `SkateLens reads per-event folders of exported CSV files (events, rounds, heats,
heat results, competitors, laps), joins them into readable tables, computes
leaderboards and per-round statistics, and can ask an LLM to explain the results.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ~/.skatelens/config.yaml)")
	pf.StringVar(&flagDataRoot, "data-root", "", "directory holding one folder per event (overrides config)")
	pf.StringVar(&flagLogLevel, "log-level", "", "debug|info|warn|error (overrides config)")
	pf.StringVar(&flagLogFormat, "log-format", "", "console|json (overrides config)")
	pf.IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	pf.IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max attempts per explainer call on 429/5xx (overrides config)")
	pf.IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	pf.IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg = c

	f := cmd.Root().PersistentFlags()
	if f.Changed("data-root") && flagDataRoot != "" {
		cfg.DataRoot = flagDataRoot
	}
	if f.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if f.Changed("log-format") {
		cfg.LogFormat = flagLogFormat
	}
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		cfg.RetryMaxAttempts = flagRetryMaxAttempts
	}
	if f.Changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		cfg.RetryBaseDelayMs = flagRetryBaseDelayMs
	}
	if f.Changed("retry-max-ms") && flagRetryMaxDelayMs > 0 {
		cfg.RetryMaxDelayMs = flagRetryMaxDelayMs
	}

	// config set must still work on a file that currently fails validation.
	if cmd.Parent() == configCmd {
		_ = log.Init(cfg.LogFormat, cfg.LogLevel)
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return log.Init(cfg.LogFormat, cfg.LogLevel)
}
