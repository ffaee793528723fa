package core

import (
	"time"
)

// EntityKind represents the type of an extracted indicator
type EntityKind string

const (
	EntityKindIP        EntityKind = "ip"
	EntityKindDomain    EntityKind = "domain"
	EntityKindEmail     EntityKind = "email"
	EntityKindURL       EntityKind = "url"
	EntityKindFilePath  EntityKind = "file_path"
	EntityKindHash      EntityKind = "hash"
	EntityKindTimestamp EntityKind = "timestamp"
	EntityKindKeyword   EntityKind = "keyword"
)

// AllEntityKinds lists every entity kind in a fixed order. Feature vectors
// and weight tables iterate this slice so their layout is stable.
var AllEntityKinds = []EntityKind{
	EntityKindIP,
	EntityKindDomain,
	EntityKindEmail,
	EntityKindURL,
	EntityKindFilePath,
	EntityKindHash,
	EntityKindTimestamp,
	EntityKindKeyword,
}

// String returns the string representation
func (k EntityKind) String() string {
	return string(k)
}

// IsValid checks if the entity kind is known
func (k EntityKind) IsValid() bool {
	for _, known := range AllEntityKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Entity is a single indicator extracted from a document. Immutable once
// created; owned by the DocumentAnalysis that produced it.
type Entity struct {
	Kind       EntityKind `json:"kind"`
	Value      string     `json:"value"`
	Offset     int        `json:"offset"`     // byte offset into the source text
	Confidence float64    `json:"confidence"` // 0-1
}

// DocumentAnalysis is the output of the extraction stage for one document.
type DocumentAnalysis struct {
	DocumentID string   `json:"document_id"`
	SourceRef  string   `json:"document_name"`
	Entities   []Entity `json:"entities"`
	RiskScore  float64  `json:"risk_score"` // 0-1, derived from entity kind weights
}

// KindCounts returns the number of entities per kind.
func (d *DocumentAnalysis) KindCounts() map[EntityKind]int {
	counts := make(map[EntityKind]int, len(AllEntityKinds))
	for _, e := range d.Entities {
		counts[e.Kind]++
	}
	return counts
}

// ThreatCategory identifies which threat-intelligence set an indicator
// matched against.
type ThreatCategory string

const (
	ThreatCategoryIP      ThreatCategory = "high_risk_ip"
	ThreatCategoryDomain  ThreatCategory = "malicious_domain"
	ThreatCategoryKeyword ThreatCategory = "suspicious_keyword"
)

// ClassificationResult is the verdict for one document. Derived solely from
// a DocumentAnalysis, a threat-intel snapshot and the active model, so it is
// deterministic given fixed inputs.
type ClassificationResult struct {
	IsMalicious        bool                 `json:"is_malicious"`
	Confidence         float64              `json:"confidence"` // certainty in the returned label, 0-1
	DetectedThreats    []string             `json:"detected_threats"`
	MatchedCategories  []ThreatCategory     `json:"matched_categories,omitempty"`
	MatchedRule        bool                 `json:"matched_rule"`
	Stage              ClassificationStage  `json:"stage"`
	RecommendedActions []string             `json:"recommended_actions"`
}

// ClassificationStage names the decision stage that produced a verdict.
type ClassificationStage string

const (
	StageRule    ClassificationStage = "rule"
	StageModel   ClassificationStage = "model"
	StageDefault ClassificationStage = "default"
)

// GenerationMode records how a SecurityAnalysis was produced.
type GenerationMode string

const (
	// GenerationModeLLM indicates the analysis came from the generative backend
	GenerationModeLLM GenerationMode = "llm"
	// GenerationModeTemplate indicates the deterministic fallback produced it
	GenerationModeTemplate GenerationMode = "template_fallback"
)

// SecurityAnalysis is the human-readable output of the recommendation stage.
type SecurityAnalysis struct {
	Narrative               string         `json:"llm_analysis"`
	DetailedRecommendations []string       `json:"detailed_recommendations"`
	IncidentResponseSteps   []string       `json:"incident_response_steps"`
	RiskMitigation          []string       `json:"risk_mitigation_strategies"`
	GenerationMode          GenerationMode `json:"generation_mode"`
}

// PipelineResult is the unit persisted to output storage. Written once,
// never mutated. CompletedAt is always >= StartedAt.
type PipelineResult struct {
	PipelineID       string                `json:"pipeline_id"`
	DocumentAnalysis *DocumentAnalysis     `json:"document_analysis"`
	Classification   *ClassificationResult `json:"classification_result"`
	SecurityAnalysis *SecurityAnalysis     `json:"security_analysis"`
	StartedAt        time.Time             `json:"started_at"`
	CompletedAt      time.Time             `json:"completed_at"`
}

// QuickResult is the reduced result of a quick analysis, which skips the
// recommendation stage entirely.
type QuickResult struct {
	PipelineID       string                `json:"pipeline_id"`
	DocumentAnalysis *DocumentAnalysis     `json:"document_analysis"`
	Classification   *ClassificationResult `json:"classification_result"`
}

// DocumentState tracks a document through the pipeline state machine.
type DocumentState string

const (
	DocStateReceived   DocumentState = "RECEIVED"
	DocStateExtracted  DocumentState = "EXTRACTED"
	DocStateClassified DocumentState = "CLASSIFIED"
	DocStateAnalyzed   DocumentState = "ANALYZED"
	DocStatePersisted  DocumentState = "PERSISTED"
	DocStateFailed     DocumentState = "FAILED"
)

// Terminal reports whether the state is a terminal state.
func (s DocumentState) Terminal() bool {
	return s == DocStatePersisted || s == DocStateFailed
}

// LabeledDocument pairs a DocumentAnalysis with its ground-truth label for
// supervised training.
type LabeledDocument struct {
	Analysis    *DocumentAnalysis `json:"analysis"`
	IsMalicious bool              `json:"is_malicious"`
}
