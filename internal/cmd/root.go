package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/tasksync/internal/config"
	"github.com/felixgeelhaar/tasksync/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "tasksync",
	Short: "Live session state for agent task runs",
	Long: `tasksync reconstructs the live state of an agent task session from the
server's event stream and REST snapshots. It keeps a local graph of the
session's history (task status, reasoning, tool calls, plans, artifacts),
caches it durably between runs, and resumes from the last seen event on
reconnect. When the server cannot stream, it falls back to snapshot polling.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	cfgFile     string
	flagBaseURL string
	flagLevel   string
	flagFormat  string
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with the given context
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tasksync/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "session API base URL")
	rootCmd.PersistentFlags().StringVar(&flagLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "log-format", "", "log format (json, text)")
}

// loadConfig builds the effective configuration: file, environment, then
// command-line flags.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, err
	}
	if flagBaseURL != "" {
		cfg.BaseURL = flagBaseURL
	}
	if flagLevel != "" {
		cfg.LogLevel = flagLevel
	}
	if flagFormat != "" {
		cfg.LogFormat = flagFormat
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newLogger builds the process logger from the configuration
func newLogger(cfg config.Config) *log.Logger {
	logger := log.New(log.Config{
		Level:  log.ParseLevel(cfg.LogLevel),
		Format: log.ParseFormat(cfg.LogFormat),
		Output: log.OutputStderr(),
	})
	log.SetDefaultLogger(logger)
	return logger
}
