package classify

import (
	"fmt"
	"math"
	"time"

	"argus/core"
	"argus/intel"

	"go.uber.org/zap"
)

// Model is a trained logistic regression classifier over the fixed feature
// layout of Features(). Exported fields so encoding/gob can persist it.
type Model struct {
	Weights      []float64
	Bias         float64
	FeatureNames []string
	TrainedAt    time.Time
	SampleCount  int
}

// TrainingConfig holds hyperparameters for model fitting. Training is fully
// deterministic: zero initialization, fixed epoch count, fixed sample order.
type TrainingConfig struct {
	LearningRate float64 // default: 0.1
	Epochs       int     // default: 500
	Logger       *zap.SugaredLogger
}

// Predict returns the probability that the given feature vector is
// malicious. Vectors of the wrong length are truncated or zero-padded
// rather than rejected.
func (m *Model) Predict(features []float64) float64 {
	z := m.Bias
	for i, w := range m.Weights {
		if i < len(features) {
			z += w * features[i]
		}
	}
	return sigmoid(z)
}

// PredictDocument derives features and predicts in one step.
func (m *Model) PredictDocument(doc *core.DocumentAnalysis, snap *intel.Snapshot) float64 {
	return m.Predict(Features(doc, snap))
}

// TrainModel fits a logistic regression over labeled documents with batch
// gradient descent. Idempotent: identical inputs produce an identical model.
func TrainModel(examples []core.LabeledDocument, snap *intel.Snapshot, cfg *TrainingConfig) (*Model, error) {
	if len(examples) == 0 {
		return nil, fmt.Errorf("training requires at least one labeled example")
	}
	if cfg == nil {
		cfg = &TrainingConfig{}
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = 0.1
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = 500
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}

	vectors := make([][]float64, len(examples))
	labels := make([]float64, len(examples))
	for i, example := range examples {
		vectors[i] = Features(example.Analysis, snap)
		if example.IsMalicious {
			labels[i] = 1.0
		}
	}

	n := NumFeatures()
	weights := make([]float64, n)
	bias := 0.0
	samples := float64(len(examples))

	start := time.Now()
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		gradW := make([]float64, n)
		gradB := 0.0

		for i, x := range vectors {
			z := bias
			for j, w := range weights {
				z += w * x[j]
			}
			err := sigmoid(z) - labels[i]
			for j := range gradW {
				gradW[j] += err * x[j]
			}
			gradB += err
		}

		for j := range weights {
			weights[j] -= cfg.LearningRate * gradW[j] / samples
		}
		bias -= cfg.LearningRate * gradB / samples
	}

	cfg.Logger.Infow("Model training completed",
		"samples", len(examples),
		"epochs", cfg.Epochs,
		"duration", time.Since(start))

	return &Model{
		Weights:      weights,
		Bias:         bias,
		FeatureNames: FeatureNames(),
		TrainedAt:    time.Now().UTC(),
		SampleCount:  len(examples),
	}, nil
}

func sigmoid(z float64) float64 {
	// Guard the exponent so confidence can never become NaN or Inf.
	if z > 35 {
		return 1.0
	}
	if z < -35 {
		return 0.0
	}
	return 1.0 / (1.0 + math.Exp(-z))
}
