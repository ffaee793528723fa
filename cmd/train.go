package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"argus/bootstrap"
	"argus/core"
)

// maxTrainingFileSize bounds training input against memory exhaustion.
const maxTrainingFileSize = 50 * 1024 * 1024

func newTrainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "train <labeled.json>",
		Short: "Train the classification model",
		Long: `Train the statistical classifier on labeled documents and install it
for subsequent analyses. The input is a JSON array of objects with an
"analysis" document and an "is_malicious" label. When a model path is
configured the trained model is persisted there.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			examples, err := loadTrainingFile(args[0])
			if err != nil {
				return err
			}

			app, err := bootstrap.NewApp(configFile)
			if err != nil {
				return err
			}
			defer app.Close()

			var s *spinner.Spinner
			if !quiet && !outputJSON {
				s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
				s.Suffix = fmt.Sprintf(" Training on %d example(s)...", len(examples))
				s.Start()
			}

			model, err := app.Orchestrator.TrainModel(cmd.Context(), examples)

			if s != nil {
				s.Stop()
			}
			if err != nil {
				return fmt.Errorf("training failed: %w", err)
			}

			if outputJSON {
				return printJSON(map[string]any{
					"sample_count": model.SampleCount,
					"trained_at":   model.TrainedAt,
					"features":     model.FeatureNames,
				})
			}

			successColor.Printf("✓ Model trained on %d example(s)\n", model.SampleCount)
			if path := app.Config.Classification.ModelPath; path != "" {
				infoColor.Printf("  saved to %s\n", path)
			} else {
				warningColor.Println("  no model path configured, model active for this process only")
			}
			return nil
		},
	}
}

func loadTrainingFile(path string) ([]core.LabeledDocument, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat training file: %w", err)
	}
	if info.Size() > maxTrainingFileSize {
		return nil, fmt.Errorf("training file %s exceeds %d bytes", path, maxTrainingFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read training file: %w", err)
	}

	var examples []core.LabeledDocument
	if err := json.Unmarshal(data, &examples); err != nil {
		return nil, fmt.Errorf("decode training file %s: %w", path, err)
	}
	if len(examples) == 0 {
		return nil, fmt.Errorf("training file %s contains no examples", path)
	}
	return examples, nil
}
