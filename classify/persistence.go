package classify

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"argus/core"
)

// ModelMetadata is the JSON sidecar written next to a persisted model.
type ModelMetadata struct {
	SampleCount  int      `json:"sample_count"`
	FeatureNames []string `json:"feature_names"`
	TrainedAt    string   `json:"trained_at"`
}

// SaveModel writes a model to path as gzip-compressed gob, plus a
// <path>.meta.json sidecar describing the training run.
func SaveModel(model *Model, path string, logger *zap.SugaredLogger) error {
	if model == nil {
		return fmt.Errorf("model cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := gob.NewEncoder(gz).Encode(model); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to compress model: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write model file: %w", err)
	}

	meta := ModelMetadata{
		SampleCount:  model.SampleCount,
		FeatureNames: model.FeatureNames,
		TrainedAt:    model.TrainedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	metaData, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal model metadata: %w", err)
	}
	if err := os.WriteFile(path+".meta.json", metaData, 0600); err != nil {
		return fmt.Errorf("failed to write model metadata: %w", err)
	}

	logger.Infow("Saved classification model", "path", path, "samples", model.SampleCount)
	return nil
}

// LoadModel reads a model persisted by SaveModel. Every failure wraps
// core.ErrModelUnavailable so callers can degrade classification to
// rule-only mode instead of failing.
func LoadModel(path string, logger *zap.SugaredLogger) (*Model, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open model file: %v", core.ErrModelUnavailable, err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("%w: open compressed model %s: %v", core.ErrModelUnavailable, path, err)
	}
	defer gz.Close()

	var model Model
	if err := gob.NewDecoder(gz).Decode(&model); err != nil {
		return nil, fmt.Errorf("%w: decode model %s: %v", core.ErrModelUnavailable, path, err)
	}

	if len(model.Weights) != NumFeatures() {
		return nil, fmt.Errorf("%w: model %s has %d weights, expected %d (stale feature layout)",
			core.ErrModelUnavailable, path, len(model.Weights), NumFeatures())
	}

	logger.Infow("Loaded classification model", "path", path, "samples", model.SampleCount)
	return &model, nil
}
