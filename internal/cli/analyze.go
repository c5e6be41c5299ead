package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/compliance-copilot/internal/analyzer"
	appErrors "github.com/mrz1836/compliance-copilot/internal/errors"
	"github.com/mrz1836/compliance-copilot/internal/output"
	"github.com/mrz1836/compliance-copilot/internal/risk"
	"github.com/mrz1836/compliance-copilot/internal/source"
)

// ErrAnalyzeFailed is returned when at least one file could not be analyzed.
var ErrAnalyzeFailed = errors.New("analysis failed")

type analyzeOptions struct {
	kind        string
	source      string
	jsonOutput  bool
	concurrency int
}

// Failure classes reported per file.
const (
	failureRejected = "rejected"
	failureBackend  = "backend"
	failureOther    = "failed"
)

// fileResult is the outcome for one payload file.
type fileResult struct {
	Path       string        `json:"path"`
	Cache      string        `json:"cache,omitempty"`
	Summary    *risk.Summary `json:"summary,omitempty"`
	Error      string        `json:"error,omitempty"`
	ErrorClass string        `json:"error_class,omitempty"`

	err error
}

func (r *fileResult) fail(err error) {
	r.err = err
	r.Error = err.Error()
	switch {
	case appErrors.IsValidationClass(err):
		r.ErrorClass = failureRejected
	case appErrors.IsBackendClass(err):
		r.ErrorClass = failureBackend
	default:
		r.ErrorClass = failureOther
	}
}

func createAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <file>...",
		Short: "Analyze payload files offline",
		Long: `Run the analysis pipeline on one or more JSON payload files without starting
the server. Files are analyzed concurrently; identical payloads are summarized
once. Summaries are written to the configured store.`,
		Example: `  # Analyze a GitHub pull request export
  compliance-copilot analyze --kind pr --source github pr.json

  # Analyze Jira issues and print JSON
  compliance-copilot analyze --kind ticket --source jira --json PROJ-1.json PROJ-2.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.kind, "kind", "k", "pr", "Source kind (pr, ticket)")
	cmd.Flags().StringVarP(&opts.source, "source", "s", source.FormatGeneric, "Upstream format (generic, github, gitlab, jira)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print results as JSON")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", analyzer.DefaultBatchWorkers, "Files analyzed at once")

	return cmd
}

func runAnalyze(cmd *cobra.Command, opts *analyzeOptions, paths []string) error {
	if _, err := source.ParseKind(opts.kind); err != nil {
		return err
	}
	if opts.concurrency < 1 {
		return fmt.Errorf("%w: --concurrency must be at least 1", ErrAnalyzeFailed)
	}

	ctx := cmd.Context()
	logger := loggerFrom(cmd)

	rt, err := analyzer.Build(ctx, settingsFrom(cmd), nil, logger)
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer func() {
		if closeErr := rt.Close(); closeErr != nil {
			logger.WithError(closeErr).Warn("Failed to close runtime")
		}
	}()

	results := make([]fileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.concurrency)

	for i, path := range paths {
		g.Go(func() error {
			results[i] = analyzeFile(gctx, rt.Service, opts, path)
			if analyzer.IsCallerAbort(results[i].err) {
				return results[i].err
			}
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
		}
	}

	if opts.jsonOutput {
		encoder := json.NewEncoder(output.Stdout())
		encoder.SetIndent("", "  ")
		if err = encoder.Encode(results); err != nil {
			return err
		}
	} else {
		for i := range results {
			printResult(&results[i])
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d files", ErrAnalyzeFailed, failed, len(paths))
	}
	return nil
}

func analyzeFile(ctx context.Context, svc *analyzer.Service, opts *analyzeOptions, path string) fileResult {
	res := fileResult{Path: path}

	payload, err := os.ReadFile(path) //nolint:gosec // paths come from the command line
	if err != nil {
		res.fail(fmt.Errorf("read %s: %w", path, err))
		return res
	}

	out, err := svc.Analyze(ctx, &analyzer.Submission{
		SourceKind: opts.kind,
		Source:     opts.source,
		Payload:    payload,
	})
	if err != nil {
		res.fail(err)
		return res
	}

	res.Summary = out.Summary
	res.Cache = string(out.Cache)
	return res
}

// printResult writes one result, colored by risk level.
func printResult(r *fileResult) {
	if r.err != nil {
		output.Errorf("%s: %s: %v", r.Path, r.ErrorClass, r.err)
		return
	}

	s := r.Summary
	output.Risk(s.OverallRiskLevel.String(), fmt.Sprintf("%s: %s %s (score %.2f, %s)",
		r.Path, s.Identifier, s.OverallRiskLevel, s.RiskScore, strings.ToLower(r.Cache)))
	output.Plain("  " + s.Rationale)
	output.List(s.RecommendedActions)
	if len(s.Features.Degraded) > 0 {
		output.Plainf("  degraded: %s", strings.Join(s.Features.Degraded, ", "))
	}
}
