package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/compliance-copilot/internal/output"
	"github.com/mrz1836/compliance-copilot/internal/risk"
)

func createScoringCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scoring",
		Short: "Inspect the scoring policy",
		Long: `Inspect the scoring policy: weights, level thresholds, escalation rules,
sensitive paths, keywords and severity labels.

Without COPILOT_SCORING_FILE the embedded defaults apply. A scoring file only
needs the keys it changes; everything else keeps its default.`,
	}

	cmd.AddCommand(createScoringValidateCmd())
	cmd.AddCommand(createScoringShowCmd())
	return cmd
}

func createScoringValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a scoring file",
		Long:  `Validate a scoring file, or COPILOT_SCORING_FILE when no file is given.`,
		Example: `  compliance-copilot scoring validate scoring.yaml
  COPILOT_SCORING_FILE=scoring.yaml compliance-copilot scoring validate`,
		Aliases: []string{"check"},
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := settingsFrom(cmd).ScoringFile
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				if err := risk.DefaultScoringConfig().Validate(); err != nil {
					return err
				}
				output.Success("Embedded scoring defaults are valid")
				return nil
			}

			cfg, err := risk.LoadScoringConfig(path)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			output.Successf("Scoring file %s is valid", path)
			output.Plainf("  weights: size=%.2f sensitivity=%.2f history=%.2f severity=%.2f",
				cfg.Weights.Size, cfg.Weights.Sensitivity, cfg.Weights.History, cfg.Weights.Severity)
			output.Plainf("  thresholds: medium=%.2f high=%.2f critical=%.2f",
				cfg.Thresholds.Medium, cfg.Thresholds.High, cfg.Thresholds.Critical)
			return nil
		},
	}
}

func createScoringShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective scoring policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := settingsFrom(cmd).Scoring()
			if err != nil {
				return err
			}

			if jsonOutput {
				encoder := json.NewEncoder(output.Stdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(cfg)
			}

			encoder := yaml.NewEncoder(output.Stdout())
			encoder.SetIndent(2)
			if err = encoder.Encode(cfg); err != nil {
				return err
			}
			return encoder.Close()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print as JSON instead of YAML")
	return cmd
}
