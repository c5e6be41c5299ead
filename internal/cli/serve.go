package cli

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mrz1836/compliance-copilot/internal/analyzer"
	"github.com/mrz1836/compliance-copilot/internal/api"
	"github.com/mrz1836/compliance-copilot/internal/metrics"
	"github.com/mrz1836/compliance-copilot/internal/output"
)

type serveOptions struct {
	host string
	port int
}

func createServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API on COPILOT_HOST:COPILOT_PORT.

The server drains in-flight requests and exits on SIGINT or SIGTERM.`,
		Example: `  # Serve with settings from the environment
  compliance-copilot serve

  # Serve on another port with debug logging
  compliance-copilot serve --port 9000 -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", "", "Listen host (overrides COPILOT_HOST)")
	cmd.Flags().IntVar(&opts.port, "port", 0, "Listen port (overrides COPILOT_PORT)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	ctx := cmd.Context()
	logger := loggerFrom(cmd)
	settings := settingsFrom(cmd)

	if opts.host != "" {
		settings.Host = opts.host
	}
	if opts.port != 0 {
		settings.Port = opts.port
	}

	if logger.Logger.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	collectors := metrics.NewCollectors()
	rt, err := analyzer.Build(ctx, settings, collectors, logger)
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer func() {
		if closeErr := rt.Close(); closeErr != nil {
			logger.WithError(closeErr).Warn("Failed to close runtime")
		}
	}()

	server, err := api.NewServer(api.Options{
		Settings: settings,
		Service:  rt.Service,
		Metrics:  collectors,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	output.Successf("%s listening on http://%s (backend %s, environment %s)",
		settings.AppName, settings.Addr(), rt.Service.Backend(), settings.Environment)

	if err = server.Run(ctx); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	output.Info("Server stopped")
	return nil
}
