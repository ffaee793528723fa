package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"argus/bootstrap"
	"argus/core"
	"argus/pipeline"
)

func newAnalyzeCmd() *cobra.Command {
	var quick bool

	cmd := &cobra.Command{
		Use:   "analyze <file|dir> [...]",
		Short: "Analyze security documents",
		Long: `Analyze one or more document files, or every regular file in a
directory. Multiple documents run concurrently under the configured
worker limit; one failing document never aborts the rest.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			srcs, err := collectSources(args)
			if err != nil {
				return err
			}
			if len(srcs) == 0 {
				return fmt.Errorf("no documents found in %s", strings.Join(args, ", "))
			}

			app, err := bootstrap.NewApp(configFile)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if quick {
				return runQuick(ctx, app, srcs)
			}
			return runBatch(ctx, app, srcs)
		},
	}

	cmd.Flags().BoolVar(&quick, "quick", false, "Extraction and classification only, skip recommendation and persistence")
	return cmd
}

// collectSources expands directory arguments into their regular files.
func collectSources(args []string) ([]core.DocumentSource, error) {
	var srcs []core.DocumentSource
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}

		if !info.IsDir() {
			srcs = append(srcs, core.FileSource(arg))
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("read directory %s: %w", arg, err)
		}
		var names []string
		for _, entry := range entries {
			if entry.Type().IsRegular() {
				names = append(names, entry.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			srcs = append(srcs, core.FileSource(filepath.Join(arg, name)))
		}
	}
	return srcs, nil
}

func runQuick(ctx context.Context, app *bootstrap.App, srcs []core.DocumentSource) error {
	failures := 0
	for _, src := range srcs {
		result, err := app.Orchestrator.QuickAnalysis(ctx, src)
		if err != nil {
			failures++
			errorColor.Printf("✗ %s: %v\n", src.Ref(), err)
			continue
		}
		if outputJSON {
			if err := printJSON(result); err != nil {
				return err
			}
			continue
		}
		printQuickResult(result)
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d documents failed", failures, len(srcs))
	}
	return nil
}

func runBatch(ctx context.Context, app *bootstrap.App, srcs []core.DocumentSource) error {
	var s *spinner.Spinner
	if !quiet && !outputJSON {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Suffix = fmt.Sprintf(" Analyzing %d document(s)...", len(srcs))
		s.Start()
	}

	batch, err := app.Orchestrator.AnalyzeBatch(ctx, srcs)

	if s != nil {
		s.Stop()
	}
	if err != nil {
		warningColor.Printf("Batch interrupted: %v\n", err)
	}

	if outputJSON {
		return printJSON(batchSummary(batch))
	}

	for _, outcome := range batch.Outcomes {
		printOutcome(outcome)
	}

	fmt.Println()
	headerColor.Println("Summary")
	fmt.Printf("  documents: %d\n", len(batch.Outcomes))
	successColor.Printf("  succeeded: %d\n", batch.Succeeded)
	if batch.Failed > 0 {
		errorColor.Printf("  failed:    %d\n", batch.Failed)
	} else {
		fmt.Printf("  failed:    %d\n", batch.Failed)
	}
	fmt.Printf("  duration:  %s\n", batch.Duration.Round(time.Millisecond))

	if err != nil {
		return err
	}
	if batch.Failed > 0 {
		return fmt.Errorf("%d of %d documents failed", batch.Failed, len(batch.Outcomes))
	}
	return nil
}

func printOutcome(outcome pipeline.DocumentOutcome) {
	if outcome.State == core.DocStateFailed {
		errorColor.Printf("✗ %s", outcome.SourceRef)
		if outcome.FailedStage != "" {
			fmt.Printf(" [%s, reached %s]", outcome.FailedStage, outcome.Reached)
		}
		fmt.Printf(": %v\n", outcome.Err)
		return
	}

	result := outcome.Result
	verdict := successColor
	label := "normal"
	if result.Classification.IsMalicious {
		verdict = errorColor
		label = "MALICIOUS"
	}

	fmt.Printf("%s %s ", statusMark(result.Classification.IsMalicious), outcome.SourceRef)
	verdict.Printf("%s", label)
	fmt.Printf(" (confidence %.2f, stage %s, %d entities, risk %.2f)\n",
		result.Classification.Confidence,
		result.Classification.Stage,
		len(result.DocumentAnalysis.Entities),
		result.DocumentAnalysis.RiskScore)

	if len(result.Classification.DetectedThreats) > 0 {
		warningColor.Printf("    threats: %s\n",
			strings.Join(result.Classification.DetectedThreats, ", "))
	}
	if !quiet && result.SecurityAnalysis != nil {
		infoColor.Printf("    %s\n", result.SecurityAnalysis.Narrative)
	}
}

func printQuickResult(result *core.QuickResult) {
	label := "normal"
	printer := successColor
	if result.Classification.IsMalicious {
		label = "MALICIOUS"
		printer = errorColor
	}

	fmt.Printf("%s %s ", statusMark(result.Classification.IsMalicious), result.DocumentAnalysis.SourceRef)
	printer.Printf("%s", label)
	fmt.Printf(" (confidence %.2f, stage %s)\n",
		result.Classification.Confidence, result.Classification.Stage)

	for _, entity := range result.DocumentAnalysis.Entities {
		fmt.Printf("    %-10s %s\n", entity.Kind, entity.Value)
	}
}

func statusMark(malicious bool) string {
	if malicious {
		return "!"
	}
	return "✓"
}

// batchSummary shapes a batch result for JSON output.
func batchSummary(batch *pipeline.BatchResult) map[string]any {
	outcomes := make([]map[string]any, 0, len(batch.Outcomes))
	for _, outcome := range batch.Outcomes {
		entry := map[string]any{
			"source":  outcome.SourceRef,
			"state":   outcome.State,
			"reached": outcome.Reached,
		}
		if outcome.Result != nil {
			entry["result"] = outcome.Result
		}
		if outcome.Err != nil {
			entry["error"] = outcome.Err.Error()
			entry["failed_stage"] = outcome.FailedStage
		}
		outcomes = append(outcomes, entry)
	}
	return map[string]any{
		"outcomes":    outcomes,
		"succeeded":   batch.Succeeded,
		"failed":      batch.Failed,
		"duration_ms": batch.Duration.Milliseconds(),
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
