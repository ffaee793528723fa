// Package pipeline wires extraction, classification, recommendation and
// persistence into the end-to-end document analysis flow. The Orchestrator
// is safe for concurrent use; threat-intel updates and model retraining may
// happen while a batch is in flight and apply to documents that have not
// yet reached the affected stage.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"argus/classify"
	"argus/core"
	"argus/extract"
	"argus/intel"
	"argus/metrics"
	"argus/recommend"
	"argus/storage"
	"argus/util/goroutine"
)

const defaultConcurrencyLimit = 4

// Stage names used in failure causes and duration metrics.
const (
	stageInput    = "input"
	stageExtract  = "extract"
	stageClassify = "classify"
	stageGenerate = "generate"
	stagePersist  = "persist"
)

// Config assembles the orchestrator's collaborators. Extractor, Agent and
// Intel default to fresh instances when nil; Store and Generator are
// optional (no persistence, template-only generation).
type Config struct {
	Extractor *extract.Extractor
	Agent     *classify.Agent
	Generator *recommend.Generator
	Intel     *intel.Store
	Store     storage.ResultStore

	// ModelPath, when set, receives the trained model after a successful
	// TrainModel call.
	ModelPath string

	// ConcurrencyLimit bounds batch worker goroutines.
	ConcurrencyLimit int

	Logger *zap.SugaredLogger
}

// Orchestrator runs documents through the full analysis pipeline.
type Orchestrator struct {
	extractor *extract.Extractor
	agent     *classify.Agent
	generator *recommend.Generator
	intel     *intel.Store
	store     storage.ResultStore
	modelPath string
	limit     int
	logger    *zap.SugaredLogger
}

func NewOrchestrator(cfg *Config) *Orchestrator {
	if cfg == nil {
		cfg = &Config{}
	}
	o := &Orchestrator{
		extractor: cfg.Extractor,
		agent:     cfg.Agent,
		generator: cfg.Generator,
		intel:     cfg.Intel,
		store:     cfg.Store,
		modelPath: cfg.ModelPath,
		limit:     cfg.ConcurrencyLimit,
		logger:    cfg.Logger,
	}
	if o.logger == nil {
		o.logger = zap.NewNop().Sugar()
	}
	if o.extractor == nil {
		o.extractor = extract.NewExtractor(nil)
	}
	if o.agent == nil {
		o.agent = classify.NewAgent(nil)
	}
	if o.generator == nil {
		o.generator = recommend.NewGenerator(nil)
	}
	if o.intel == nil {
		o.intel = intel.NewStore(o.logger)
	}
	if o.limit <= 0 {
		o.limit = defaultConcurrencyLimit
	}
	return o
}

// AnalyzeDocument runs one document through extract, classify, generate and
// persist. A persistence failure still returns the completed in-memory
// result alongside the error; every other stage failure returns a nil
// result with the failing stage recorded in a StageError.
func (o *Orchestrator) AnalyzeDocument(ctx context.Context, src core.DocumentSource) (*core.PipelineResult, error) {
	pipelineID := uuid.NewString()
	started := time.Now()
	log := o.logger.With("pipeline_id", pipelineID, "source", src.Ref())

	log.Debugw("document received")

	text, err := src.Read()
	if err != nil {
		metrics.DocumentsProcessed.WithLabelValues(string(core.DocStateFailed)).Inc()
		log.Warnw("document unreadable", "error", err)
		return nil, core.NewStageError(stageInput, err)
	}

	doc := o.runExtract(ctx, pipelineID, src.Ref(), text)
	result := o.runClassify(doc)
	analysis := o.runGenerate(ctx, doc, result)

	pipelineResult := &core.PipelineResult{
		PipelineID:       pipelineID,
		DocumentAnalysis: doc,
		Classification:   result,
		SecurityAnalysis: analysis,
		StartedAt:        started,
		CompletedAt:      time.Now(),
	}

	if err := o.persist(ctx, pipelineResult); err != nil {
		metrics.DocumentsProcessed.WithLabelValues(string(core.DocStateFailed)).Inc()
		log.Errorw("result persistence failed", "error", err)
		return pipelineResult, core.NewStageError(stagePersist, err)
	}

	metrics.DocumentsProcessed.WithLabelValues(string(core.DocStatePersisted)).Inc()
	log.Infow("document analyzed",
		"is_malicious", result.IsMalicious,
		"stage", result.Stage,
		"entities", len(doc.Entities),
		"generation_mode", analysis.GenerationMode,
		"duration", time.Since(started))
	return pipelineResult, nil
}

// QuickAnalysis runs extraction and classification only. Nothing is
// persisted and the generative backend is never contacted.
func (o *Orchestrator) QuickAnalysis(ctx context.Context, src core.DocumentSource) (*core.QuickResult, error) {
	pipelineID := uuid.NewString()

	text, err := src.Read()
	if err != nil {
		return nil, core.NewStageError(stageInput, err)
	}

	doc := o.runExtract(ctx, pipelineID, src.Ref(), text)
	result := o.runClassify(doc)

	return &core.QuickResult{
		PipelineID:       pipelineID,
		DocumentAnalysis: doc,
		Classification:   result,
	}, nil
}

// DocumentOutcome is the per-document record of a batch run.
type DocumentOutcome struct {
	Index     int
	SourceRef string
	State     core.DocumentState
	Result    *core.PipelineResult

	// Reached is the last state the document attained. PERSISTED on
	// success; on failure, the state completed before FailedStage broke.
	Reached core.DocumentState

	// FailedStage and Err are set when State is FAILED.
	FailedStage string
	Err         error
}

// reachedState maps a failing stage to the state the document had already
// attained when that stage broke.
func reachedState(failedStage string) core.DocumentState {
	switch failedStage {
	case stageClassify:
		return core.DocStateExtracted
	case stageGenerate:
		return core.DocStateClassified
	case stagePersist:
		return core.DocStateAnalyzed
	default:
		return core.DocStateReceived
	}
}

// BatchResult summarizes a batch run. Outcomes preserves input order and
// always has one entry per input source.
type BatchResult struct {
	Outcomes  []DocumentOutcome
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// AnalyzeBatch processes sources concurrently under the configured worker
// limit. One failing document never aborts the others. Context cancellation
// stops scheduling new documents; already-running ones finish, and
// unscheduled ones are marked FAILED with the context error.
func (o *Orchestrator) AnalyzeBatch(ctx context.Context, srcs []core.DocumentSource) (*BatchResult, error) {
	started := time.Now()
	outcomes := make([]DocumentOutcome, len(srcs))

	sem := make(chan struct{}, o.limit)
	var wg sync.WaitGroup

scheduling:
	for i, src := range srcs {
		select {
		case <-ctx.Done():
			for j := i; j < len(srcs); j++ {
				outcomes[j] = DocumentOutcome{
					Index:       j,
					SourceRef:   srcs[j].Ref(),
					State:       core.DocStateFailed,
					Reached:     core.DocStateReceived,
					FailedStage: stageInput,
					Err:         ctx.Err(),
				}
			}
			break scheduling
		case sem <- struct{}{}:
		}

		wg.Add(1)
		goroutine.Go("batch-worker", o.logger, func() {
			defer wg.Done()
			defer func() { <-sem }()

			metrics.BatchWorkersActive.Inc()
			defer metrics.BatchWorkersActive.Dec()

			// Default outcome in case the worker panics mid-document.
			outcomes[i] = DocumentOutcome{
				Index:       i,
				SourceRef:   src.Ref(),
				State:       core.DocStateFailed,
				Reached:     core.DocStateReceived,
				FailedStage: stageExtract,
				Err:         fmt.Errorf("analysis did not complete"),
			}

			result, err := o.AnalyzeDocument(ctx, src)
			if err != nil {
				stageErr, _ := err.(*core.StageError)
				outcome := DocumentOutcome{
					Index:     i,
					SourceRef: src.Ref(),
					State:     core.DocStateFailed,
					Reached:   core.DocStateReceived,
					Result:    result,
					Err:       err,
				}
				if stageErr != nil {
					outcome.FailedStage = stageErr.Stage
					outcome.Reached = reachedState(stageErr.Stage)
				}
				outcomes[i] = outcome
				return
			}

			outcomes[i] = DocumentOutcome{
				Index:     i,
				SourceRef: src.Ref(),
				State:     core.DocStatePersisted,
				Reached:   core.DocStatePersisted,
				Result:    result,
			}
		})
	}

	wg.Wait()

	batch := &BatchResult{Outcomes: outcomes, Duration: time.Since(started)}
	for _, outcome := range outcomes {
		if outcome.State == core.DocStatePersisted {
			batch.Succeeded++
		} else {
			batch.Failed++
		}
	}

	o.logger.Infow("batch complete",
		"documents", len(srcs),
		"succeeded", batch.Succeeded,
		"failed", batch.Failed,
		"duration", batch.Duration)

	if err := ctx.Err(); err != nil {
		return batch, err
	}
	return batch, nil
}

// UpdateThreatIntelligence merges new indicators into the active snapshot.
// Documents classified after this call see the new snapshot; in-flight
// documents that already loaded a snapshot finish against the old one.
func (o *Orchestrator) UpdateThreatIntelligence(update intel.Update) *intel.Snapshot {
	return o.intel.Update(update)
}

// TrainModel trains a classifier on labeled documents, hot-swaps it into
// the agent on success and, when a model path is configured, persists it.
func (o *Orchestrator) TrainModel(ctx context.Context, examples []core.LabeledDocument) (*classify.Model, error) {
	model, err := o.agent.Train(ctx, examples, o.intel.Snapshot())
	if err != nil {
		return nil, err
	}

	if o.modelPath != "" {
		if err := classify.SaveModel(model, o.modelPath, o.logger); err != nil {
			return nil, fmt.Errorf("persist trained model: %w", err)
		}
	}
	return model, nil
}

// Intel exposes the threat-intel store for feed loading.
func (o *Orchestrator) Intel() *intel.Store { return o.intel }

func (o *Orchestrator) runExtract(ctx context.Context, pipelineID, sourceRef, text string) *core.DocumentAnalysis {
	defer observeStage(stageExtract)()
	return o.extractor.Extract(ctx, pipelineID, sourceRef, text)
}

func (o *Orchestrator) runClassify(doc *core.DocumentAnalysis) *core.ClassificationResult {
	defer observeStage(stageClassify)()
	return o.agent.Classify(doc, o.intel.Snapshot())
}

func (o *Orchestrator) runGenerate(ctx context.Context, doc *core.DocumentAnalysis, result *core.ClassificationResult) *core.SecurityAnalysis {
	defer observeStage(stageGenerate)()
	return o.generator.Generate(ctx, doc, result)
}

func (o *Orchestrator) persist(ctx context.Context, result *core.PipelineResult) error {
	if o.store == nil {
		return nil
	}
	defer observeStage(stagePersist)()
	if err := o.store.Save(ctx, result); err != nil {
		metrics.PersistenceFailures.WithLabelValues(o.store.Name()).Inc()
		return err
	}
	return nil
}

func observeStage(stage string) func() {
	start := time.Now()
	return func() {
		metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}
