package recommend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argus/core"
)

func testDoc() *core.DocumentAnalysis {
	return &core.DocumentAnalysis{
		DocumentID: "doc-1",
		SourceRef:  "alert.txt",
		Entities: []core.Entity{
			{Kind: core.EntityKindIP, Value: "203.0.113.5", Confidence: 0.9},
			{Kind: core.EntityKindDomain, Value: "malware.example.com", Confidence: 0.8},
		},
		RiskScore: 0.55,
	}
}

func testResult() *core.ClassificationResult {
	return &core.ClassificationResult{
		IsMalicious:       true,
		Confidence:        1.0,
		DetectedThreats:   []string{"malware.example.com"},
		MatchedCategories: []core.ThreatCategory{core.ThreatCategoryDomain},
		MatchedRule:       true,
		Stage:             core.StageRule,
	}
}

func TestGeneratorStubBackendProducesLLMMode(t *testing.T) {
	g := NewGenerator(&GeneratorConfig{Backend: &StubBackend{}})

	analysis := g.Generate(context.Background(), testDoc(), testResult())

	require.NotNil(t, analysis)
	assert.Equal(t, core.GenerationModeLLM, analysis.GenerationMode)
	assert.NotEmpty(t, analysis.Narrative)
	assert.NotEmpty(t, analysis.DetailedRecommendations)
	assert.NotEmpty(t, analysis.IncidentResponseSteps)
	assert.NotEmpty(t, analysis.RiskMitigation)
}

func TestGeneratorNilBackendFallsBackToTemplate(t *testing.T) {
	g := NewGenerator(nil)

	analysis := g.Generate(context.Background(), testDoc(), testResult())

	require.NotNil(t, analysis)
	assert.Equal(t, core.GenerationModeTemplate, analysis.GenerationMode)
	assert.NotEmpty(t, analysis.Narrative)
	assert.NotEmpty(t, analysis.DetailedRecommendations)
}

func TestGeneratorBackendErrorFallsBackToTemplate(t *testing.T) {
	g := NewGenerator(&GeneratorConfig{
		Backend: &StubBackend{Err: errors.New("backend exploded")},
	})

	analysis := g.Generate(context.Background(), testDoc(), testResult())

	require.NotNil(t, analysis)
	assert.Equal(t, core.GenerationModeTemplate, analysis.GenerationMode)
}

func TestGeneratorUnparsableResponseFallsBackToTemplate(t *testing.T) {
	g := NewGenerator(&GeneratorConfig{
		Backend: &StubBackend{Response: "sorry, I cannot help with that"},
	})

	analysis := g.Generate(context.Background(), testDoc(), testResult())

	require.NotNil(t, analysis)
	assert.Equal(t, core.GenerationModeTemplate, analysis.GenerationMode)
}

// countingBackend fails with a retryable error a fixed number of times
// before succeeding.
type countingBackend struct {
	failures int
	calls    int
	err      error
}

func (c *countingBackend) Name() string { return "counting" }

func (c *countingBackend) Generate(ctx context.Context, _ string) (string, error) {
	c.calls++
	if c.calls <= c.failures {
		return "", c.err
	}
	return (&StubBackend{}).Generate(ctx, "")
}

func TestGeneratorRetriesTransientFailures(t *testing.T) {
	backend := &countingBackend{failures: 2, err: core.ErrGenerationRateLimited}
	g := NewGenerator(&GeneratorConfig{Backend: backend, MaxRetries: 2})

	analysis := g.Generate(context.Background(), testDoc(), testResult())

	assert.Equal(t, 3, backend.calls)
	assert.Equal(t, core.GenerationModeLLM, analysis.GenerationMode)
}

func TestGeneratorDoesNotRetryNonTransientFailures(t *testing.T) {
	backend := &countingBackend{failures: 5, err: errors.New("bad request")}
	g := NewGenerator(&GeneratorConfig{Backend: backend, MaxRetries: 2})

	analysis := g.Generate(context.Background(), testDoc(), testResult())

	assert.Equal(t, 1, backend.calls)
	assert.Equal(t, core.GenerationModeTemplate, analysis.GenerationMode)
}

func TestGeneratorExhaustedRetriesFallBackToTemplate(t *testing.T) {
	backend := &countingBackend{failures: 10, err: core.ErrGenerationTimeout}
	g := NewGenerator(&GeneratorConfig{Backend: backend, MaxRetries: 1})

	analysis := g.Generate(context.Background(), testDoc(), testResult())

	assert.Equal(t, 2, backend.calls)
	assert.Equal(t, core.GenerationModeTemplate, analysis.GenerationMode)
}

func TestGeneratorCancelledContextStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	backend := &countingBackend{failures: 10, err: core.ErrGenerationTimeout}
	g := NewGenerator(&GeneratorConfig{Backend: backend, MaxRetries: 2})

	start := time.Now()
	analysis := g.Generate(ctx, testDoc(), testResult())

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, core.GenerationModeTemplate, analysis.GenerationMode)
}
