package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/mrz1836/compliance-copilot/internal/output"
	"github.com/mrz1836/compliance-copilot/internal/version"
)

func createVersionCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build details and the served API version.`,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return printVersion(jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version information in JSON format")
	return cmd
}

// printVersion prints version information based on the format
func printVersion(jsonFormat bool) error {
	info := version.Get()

	if jsonFormat {
		encoder := json.NewEncoder(output.Stdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(info)
	}

	output.Infof("compliance-copilot %s", info.Short())
	output.Infof("Commit:      %s", info.Commit)
	output.Infof("Build Date:  %s", info.BuildDate)
	output.Infof("API Version: %s", info.APIVersion)
	output.Infof("Go Version:  %s", info.GoVersion)
	output.Infof("Platform:    %s", info.Platform)

	return nil
}
