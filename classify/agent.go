// Package classify produces the malicious/normal verdict for an analyzed
// document. The decision policy is an ordered stage chain: deterministic
// rule matching against threat intelligence always runs first and its
// verdict is final; a trained statistical model only decides when no rule
// matched. This precedence is deliberate: a known-bad indicator must never
// be suppressed by a model score.
package classify

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync/atomic"

	"argus/core"
	"argus/intel"
	"argus/metrics"

	"go.uber.org/zap"
)

// Stage is one step of the classification chain. Evaluate returns a verdict
// and true when the stage decides, or false to pass to the next stage.
// Additional stages (allow-listing, for example) can be inserted without
// restructuring the agent.
type Stage interface {
	Name() string
	Evaluate(doc *core.DocumentAnalysis, snap *intel.Snapshot, model *Model) (*core.ClassificationResult, bool)
}

// AgentConfig holds configuration for the classification agent.
type AgentConfig struct {
	// DecisionThreshold is the model probability cutoff for a malicious
	// verdict. A configuration surface, not a calibrated constant.
	DecisionThreshold float64 // default: 0.5
	// ModelPath loads a pre-trained model at construction; load failures
	// degrade to rule-only classification.
	ModelPath string
	Training  *TrainingConfig
	Logger    *zap.SugaredLogger
}

// Agent combines rule matching with an optional trained model. The active
// model is swapped atomically so concurrent classifications always read a
// complete model.
type Agent struct {
	stages    []Stage
	model     atomic.Pointer[Model]
	threshold float64
	training  *TrainingConfig
	logger    *zap.SugaredLogger
}

// NewAgent creates a classification agent. When cfg.ModelPath is set and
// loadable the model stage is active immediately; otherwise the agent runs
// rule-only until Train or SetModel installs one.
func NewAgent(cfg *AgentConfig) *Agent {
	if cfg == nil {
		cfg = &AgentConfig{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	if cfg.DecisionThreshold <= 0 || cfg.DecisionThreshold >= 1 {
		cfg.DecisionThreshold = 0.5
	}

	agent := &Agent{
		threshold: cfg.DecisionThreshold,
		training:  cfg.Training,
		logger:    cfg.Logger,
	}
	agent.stages = []Stage{
		ruleStage{},
		modelStage{threshold: cfg.DecisionThreshold},
		defaultStage{},
	}

	if cfg.ModelPath != "" {
		model, err := LoadModel(cfg.ModelPath, cfg.Logger)
		if err != nil {
			cfg.Logger.Warnw("Classification model unavailable, running rule-only",
				"path", cfg.ModelPath, "error", err)
		} else {
			agent.model.Store(model)
		}
	}

	return agent
}

// Model returns the active model, or nil when running rule-only.
func (a *Agent) Model() *Model {
	return a.model.Load()
}

// SetModel installs a model atomically. A nil model reverts to rule-only.
func (a *Agent) SetModel(model *Model) {
	if model == nil {
		return
	}
	a.model.Store(model)
}

// Classify runs the stage chain. Deterministic given a fixed document,
// snapshot and active model; never returns nil.
func (a *Agent) Classify(doc *core.DocumentAnalysis, snap *intel.Snapshot) *core.ClassificationResult {
	model := a.model.Load()

	for _, stage := range a.stages {
		result, decided := stage.Evaluate(doc, snap, model)
		if !decided {
			continue
		}

		verdict := "normal"
		if result.IsMalicious {
			verdict = "malicious"
		}
		metrics.ClassificationVerdicts.WithLabelValues(stage.Name(), verdict).Inc()

		a.logger.Debugw("Document classified",
			"document_id", doc.DocumentID,
			"stage", stage.Name(),
			"is_malicious", result.IsMalicious,
			"confidence", result.Confidence)
		return result
	}

	// The default stage always decides; reaching here means the chain was
	// misconfigured.
	panic("classification stage chain did not decide")
}

// Train fits a new model over labeled examples and hot-swaps it into the
// agent only on success. A failed training run leaves the previous model
// active and untouched.
func (a *Agent) Train(ctx context.Context, examples []core.LabeledDocument, snap *intel.Snapshot) (*Model, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	model, err := TrainModel(examples, snap, a.training)
	if err != nil {
		return nil, fmt.Errorf("model training failed: %w", err)
	}

	a.model.Store(model)
	a.logger.Infow("Classification model swapped", "samples", model.SampleCount)
	return model, nil
}

// ruleStage matches document entities against the threat intelligence
// snapshot. Any match decides the verdict; the match ratio never discounts
// it, since known indicators are treated as certain.
type ruleStage struct{}

func (ruleStage) Name() string { return string(core.StageRule) }

func (ruleStage) Evaluate(doc *core.DocumentAnalysis, snap *intel.Snapshot, _ *Model) (*core.ClassificationResult, bool) {
	if doc == nil || snap == nil {
		return nil, false
	}

	threatSet := make(map[string]struct{})
	var categories []core.ThreatCategory

	for _, entity := range doc.Entities {
		if snap.MatchIP(entity.Value) {
			threatSet[intel.Normalize(entity.Value)] = struct{}{}
			categories = appendCategory(categories, core.ThreatCategoryIP)
		}
		if snap.MatchDomain(entity.Value) {
			threatSet[intel.Normalize(entity.Value)] = struct{}{}
			categories = appendCategory(categories, core.ThreatCategoryDomain)
		}
		if keyword, ok := snap.MatchKeyword(entity.Value); ok {
			threatSet[keyword] = struct{}{}
			categories = appendCategory(categories, core.ThreatCategoryKeyword)
		}
	}

	if len(threatSet) == 0 {
		return nil, false
	}

	threats := make([]string, 0, len(threatSet))
	for threat := range threatSet {
		threats = append(threats, threat)
	}
	sort.Strings(threats)

	return &core.ClassificationResult{
		IsMalicious:        true,
		Confidence:         1.0,
		DetectedThreats:    threats,
		MatchedCategories:  categories,
		MatchedRule:        true,
		Stage:              core.StageRule,
		RecommendedActions: recommendedActions(true, categories),
	}, true
}

// modelStage applies the trained classifier when one is configured.
type modelStage struct {
	threshold float64
}

func (modelStage) Name() string { return string(core.StageModel) }

func (s modelStage) Evaluate(doc *core.DocumentAnalysis, snap *intel.Snapshot, model *Model) (*core.ClassificationResult, bool) {
	if model == nil {
		return nil, false
	}

	probability := model.PredictDocument(doc, snap)
	malicious := probability >= s.threshold

	// Confidence always expresses certainty in the returned label.
	confidence := probability
	if !malicious {
		confidence = 1.0 - probability
	}

	return &core.ClassificationResult{
		IsMalicious:        malicious,
		Confidence:         clamp01(confidence),
		DetectedThreats:    []string{},
		MatchedRule:        false,
		Stage:              core.StageModel,
		RecommendedActions: recommendedActions(malicious, nil),
	}, true
}

// defaultStage is the terminal fallback when no rule matched and no model
// is configured: a normal verdict with confidence reduced by the document
// risk score.
type defaultStage struct{}

func (defaultStage) Name() string { return string(core.StageDefault) }

func (defaultStage) Evaluate(doc *core.DocumentAnalysis, _ *intel.Snapshot, _ *Model) (*core.ClassificationResult, bool) {
	riskScore := 0.0
	if doc != nil {
		riskScore = doc.RiskScore
	}

	return &core.ClassificationResult{
		IsMalicious:        false,
		Confidence:         clamp01(1.0 - riskScore),
		DetectedThreats:    []string{},
		MatchedRule:        false,
		Stage:              core.StageDefault,
		RecommendedActions: recommendedActions(false, nil),
	}, true
}

func appendCategory(categories []core.ThreatCategory, category core.ThreatCategory) []core.ThreatCategory {
	if containsCategory(categories, category) {
		return categories
	}
	return append(categories, category)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0.0
	}
	return math.Min(1.0, math.Max(0.0, v))
}
