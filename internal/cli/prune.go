package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/compliance-copilot/internal/analyzer"
	"github.com/mrz1836/compliance-copilot/internal/output"
)

func createPruneCmd() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete stored summaries older than a given age",
		Long: `Delete summaries from COPILOT_STORE_PATH that were generated more than
--older-than ago. Cached copies in a running server expire on their own TTL.`,
		Example: `  # Keep thirty days of summaries
  compliance-copilot prune --older-than 720h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := loggerFrom(cmd)

			rt, err := analyzer.Build(cmd.Context(), settingsFrom(cmd), nil, logger)
			if err != nil {
				return fmt.Errorf("failed to start: %w", err)
			}
			defer func() {
				if closeErr := rt.Close(); closeErr != nil {
					logger.WithError(closeErr).Warn("Failed to close runtime")
				}
			}()

			removed, err := rt.Service.Prune(cmd.Context(), olderThan)
			if err != nil {
				return err
			}
			output.Successf("Removed %d summaries older than %s", removed, olderThan)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Minimum age of the summaries to delete")
	return cmd
}
