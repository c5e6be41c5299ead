// Package cli implements the compliance-copilot command-line interface.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mrz1836/compliance-copilot/internal/config"
	"github.com/mrz1836/compliance-copilot/internal/logging"
	"github.com/mrz1836/compliance-copilot/internal/output"
)

// contextKey is a type for context keys to avoid collisions
type contextKey struct{ name string }

//nolint:gochecknoglobals // context keys
var (
	loggerContextKey   = contextKey{"logger"}
	settingsContextKey = contextKey{"settings"}
)

// Flags contains the persistent flags shared by every command.
type Flags struct {
	LogLevel  string
	LogFormat string
	Verbose   int
}

const rootLong = `compliance-copilot turns pull requests and tickets into risk summaries.

A deterministic scorer grades every record LOW, MEDIUM, HIGH or CRITICAL from
its size, the sensitivity of what it touches, historical defect rates and
severity labels; a summarization backend explains the verdict and recommends
actions. Results are cached by content fingerprint and persisted to SQLite.

Settings come from COPILOT_* environment variables and .env files.`

// NewRootCmd creates an isolated root command with its own flags.
func NewRootCmd() *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:               "compliance-copilot",
		Short:             "Risk summaries for pull requests and tickets",
		Long:              rootLong,
		PersistentPreRunE: createSetup(flags),
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	cmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "Log level (debug, info, warn, error); overrides COPILOT_LOG_LEVEL")
	cmd.PersistentFlags().StringVar(&flags.LogFormat, "log-format", "", "Log format (text, json); overrides COPILOT_LOG_FORMAT")
	cmd.PersistentFlags().CountVarP(&flags.Verbose, "verbose", "v", "Increase verbosity (-v debug, -vv trace)")

	cmd.AddCommand(createServeCmd())
	cmd.AddCommand(createAnalyzeCmd())
	cmd.AddCommand(createScoringCmd())
	cmd.AddCommand(createPruneCmd())
	cmd.AddCommand(createVersionCmd())

	return cmd
}

// ExecuteWithContext runs the CLI until it finishes or ctx is canceled.
// SIGINT and SIGTERM cancel the context as well.
func ExecuteWithContext(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewRootCmd().ExecuteContext(ctx)
}

// createSetup loads the settings and builds the logger every command uses.
func createSetup(flags *Flags) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		settings := config.Load(output.Warnf)

		logConfig := settings.LogConfig()
		logConfig.Verbose = flags.Verbose
		logConfig.CorrelationID = logging.GenerateCorrelationID()
		if flags.LogLevel != "" {
			logConfig.LogLevel = flags.LogLevel
		}
		if flags.LogFormat != "" {
			logConfig.LogFormat = flags.LogFormat
		}

		// Log to stderr to keep stdout clean for output
		logger, err := logging.NewLogger(output.Stderr(), logConfig)
		if err != nil {
			return err
		}
		entry := logging.WithStandardFields(logger, logConfig, logging.ComponentNames.CLI).
			WithField("command", cmd.Name())

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx = context.WithValue(ctx, settingsContextKey, settings)
		ctx = context.WithValue(ctx, loggerContextKey, entry)
		cmd.SetContext(ctx)

		return nil
	}
}

// loggerFrom returns the logger set up for cmd, or a discarding one.
func loggerFrom(cmd *cobra.Command) *logrus.Entry {
	if entry, ok := cmd.Context().Value(loggerContextKey).(*logrus.Entry); ok {
		return entry
	}
	return logging.Discard()
}

// settingsFrom returns the settings loaded for cmd, falling back to the environment.
func settingsFrom(cmd *cobra.Command) *config.Settings {
	if s, ok := cmd.Context().Value(settingsContextKey).(*config.Settings); ok {
		return s
	}
	return config.Load(nil)
}
