// Package extract turns raw document text into a DocumentAnalysis: a set of
// typed indicator entities plus a derived document risk score.
package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"sort"

	"argus/core"
	"argus/metrics"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// WeightTable maps entity kinds to their contribution to the document risk
// score. It is a configuration surface: callers override individual weights
// through config rather than relying on the defaults being calibrated.
type WeightTable map[core.EntityKind]float64

// DefaultWeights returns the default risk weighting. High-signal indicator
// kinds (hashes, suspicious keywords) weigh more than generic ones.
func DefaultWeights() WeightTable {
	return WeightTable{
		core.EntityKindHash:      0.5,
		core.EntityKindKeyword:   0.5,
		core.EntityKindIP:        0.3,
		core.EntityKindURL:       0.3,
		core.EntityKindDomain:    0.25,
		core.EntityKindFilePath:  0.2,
		core.EntityKindEmail:     0.1,
		core.EntityKindTimestamp: 0.05,
	}
}

// Merge overlays non-zero overrides onto a copy of the table.
func (w WeightTable) Merge(overrides map[core.EntityKind]float64) WeightTable {
	merged := make(WeightTable, len(w))
	for kind, weight := range w {
		merged[kind] = weight
	}
	for kind, weight := range overrides {
		merged[kind] = weight
	}
	return merged
}

// Config holds configuration for the extractor.
type Config struct {
	Weights    WeightTable       // nil uses DefaultWeights
	Recognizer KeywordRecognizer // nil uses NoopRecognizer
	CacheSize  int               // analyses cached by content digest; 0 disables
	Logger     *zap.SugaredLogger
}

// Extractor runs the pattern registry and the optional keyword recognizer
// over document text. Extraction never fails: malformed or empty input
// yields an analysis with no entities and risk score 0.
type Extractor struct {
	patterns   []patternExtractor
	recognizer KeywordRecognizer
	weights    WeightTable
	cache      *lru.Cache[string, *core.DocumentAnalysis]
	logger     *zap.SugaredLogger
}

// NewExtractor creates an extractor with the built-in pattern registry.
func NewExtractor(cfg *Config) *Extractor {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop().Sugar()
	}
	if cfg.Weights == nil {
		cfg.Weights = DefaultWeights()
	}
	if cfg.Recognizer == nil {
		cfg.Recognizer = NoopRecognizer{}
	}

	e := &Extractor{
		patterns:   builtinPatterns(),
		recognizer: cfg.Recognizer,
		weights:    cfg.Weights,
		logger:     cfg.Logger,
	}

	if cfg.CacheSize > 0 {
		// Analyses are immutable, so sharing cached pointers is safe.
		cache, err := lru.New[string, *core.DocumentAnalysis](cfg.CacheSize)
		if err == nil {
			e.cache = cache
		} else {
			cfg.Logger.Warnw("Failed to create extraction cache, continuing without", "error", err)
		}
	}

	return e
}

// Extract analyzes text and returns a DocumentAnalysis. The ctx is only
// consulted between pattern passes; individual patterns are bounded by RE2
// linear-time matching.
func (e *Extractor) Extract(ctx context.Context, docID, sourceRef, text string) *core.DocumentAnalysis {
	cacheKey := ""
	if e.cache != nil {
		cacheKey = digest(text)
		if cached, ok := e.cache.Get(cacheKey); ok {
			// Same content from a different document: entities and risk are
			// identical, only the identity fields differ.
			hit := *cached
			hit.DocumentID = docID
			hit.SourceRef = sourceRef
			return &hit
		}
	}

	var candidates []core.Entity
	for _, pattern := range e.patterns {
		select {
		case <-ctx.Done():
			// Partial extraction is worse than none; report what we have so
			// far as a normal (possibly empty) analysis.
			e.logger.Debugw("Extraction cancelled", "document_id", docID)
			return e.finalize(docID, sourceRef, candidates)
		default:
		}
		candidates = append(candidates, pattern.extract(text)...)
	}

	keywordEntities, err := e.recognizer.Recognize(ctx, text)
	if err != nil {
		// Degrade to pattern-only mode.
		e.logger.Warnw("Keyword recognizer failed, continuing pattern-only",
			"recognizer", e.recognizer.Name(),
			"document_id", docID,
			"error", err)
	} else {
		candidates = append(candidates, keywordEntities...)
	}

	analysis := e.finalize(docID, sourceRef, candidates)

	if e.cache != nil {
		e.cache.Add(cacheKey, analysis)
	}
	return analysis
}

// finalize deduplicates candidates, orders them and computes the risk score.
func (e *Extractor) finalize(docID, sourceRef string, candidates []core.Entity) *core.DocumentAnalysis {
	entities := dedupe(candidates)

	for _, entity := range entities {
		metrics.EntitiesExtracted.WithLabelValues(entity.Kind.String()).Inc()
	}

	return &core.DocumentAnalysis{
		DocumentID: docID,
		SourceRef:  sourceRef,
		Entities:   entities,
		RiskScore:  e.riskScore(entities),
	}
}

// dedupe collapses entities with identical (kind, value), keeping the first
// offset and the maximum confidence observed. Output is ordered by offset.
func dedupe(candidates []core.Entity) []core.Entity {
	type key struct {
		kind  core.EntityKind
		value string
	}

	seen := make(map[key]int, len(candidates))
	unique := make([]core.Entity, 0, len(candidates))

	for _, entity := range candidates {
		k := key{entity.Kind, entity.Value}
		if idx, ok := seen[k]; ok {
			if entity.Offset < unique[idx].Offset {
				unique[idx].Offset = entity.Offset
			}
			if entity.Confidence > unique[idx].Confidence {
				unique[idx].Confidence = entity.Confidence
			}
			continue
		}
		seen[k] = len(unique)
		unique = append(unique, entity)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Offset < unique[j].Offset
	})
	return unique
}

// riskScore is a saturating function of weighted entity-kind counts:
// 1 - exp(-sum(weight * count)), clamped to [0,1]. No entities yields
// exactly 0.
func (e *Extractor) riskScore(entities []core.Entity) float64 {
	if len(entities) == 0 {
		return 0.0
	}

	weighted := 0.0
	for _, entity := range entities {
		weighted += e.weights[entity.Kind]
	}

	score := 1.0 - math.Exp(-weighted)
	return math.Min(1.0, math.Max(0.0, score))
}

func digest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
