package classify

import (
	"context"
	"testing"

	"argus/core"
	"argus/intel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioDoc() *core.DocumentAnalysis {
	return &core.DocumentAnalysis{
		DocumentID: "doc-1",
		SourceRef:  "incident.log",
		RiskScore:  0.6,
		Entities: []core.Entity{
			{Kind: core.EntityKindIP, Value: "203.0.113.5", Offset: 16, Confidence: 0.95},
			{Kind: core.EntityKindDomain, Value: "malware.example.com", Offset: 31, Confidence: 0.7},
			{Kind: core.EntityKindTimestamp, Value: "2024-01-15T10:00:00", Offset: 54, Confidence: 0.9},
			{Kind: core.EntityKindFilePath, Value: `C:\Windows\System32\cmd.exe`, Offset: 84, Confidence: 0.85},
		},
	}
}

func TestAgent_RuleMatchOverridesEverything(t *testing.T) {
	agent := NewAgent(nil)
	snap := intel.NewSnapshot(nil, []string{"malware.example.com"}, nil, 1)

	result := agent.Classify(scenarioDoc(), snap)

	assert.True(t, result.IsMalicious)
	assert.True(t, result.MatchedRule)
	assert.Equal(t, core.StageRule, result.Stage)
	assert.Equal(t, []string{"malware.example.com"}, result.DetectedThreats)
	assert.Equal(t, 1.0, result.Confidence)
	assert.NotEmpty(t, result.RecommendedActions)
}

func TestAgent_RuleMatchWinsEvenWithModel(t *testing.T) {
	// Train a model biased toward "normal" and verify the rule stage still
	// decides malicious for a known indicator.
	var examples []core.LabeledDocument
	for i := 0; i < 20; i++ {
		examples = append(examples, core.LabeledDocument{Analysis: scenarioDoc(), IsMalicious: false})
	}

	agent := NewAgent(nil)
	_, err := agent.Train(context.Background(), examples, intel.EmptySnapshot())
	require.NoError(t, err)

	snap := intel.NewSnapshot([]string{"203.0.113.5"}, nil, nil, 1)
	result := agent.Classify(scenarioDoc(), snap)

	assert.True(t, result.IsMalicious)
	assert.True(t, result.MatchedRule)
	assert.Contains(t, result.DetectedThreats, "203.0.113.5")
}

func TestAgent_EmptyIntelNoModel_DefaultStage(t *testing.T) {
	agent := NewAgent(nil)

	result := agent.Classify(scenarioDoc(), intel.EmptySnapshot())

	assert.False(t, result.IsMalicious)
	assert.False(t, result.MatchedRule)
	assert.Equal(t, core.StageDefault, result.Stage)
	assert.InDelta(t, 0.4, result.Confidence, 1e-9) // 1 - risk_score
}

func TestAgent_ModelStageDecidesWithoutRuleMatch(t *testing.T) {
	agent := NewAgent(nil)
	_, err := agent.Train(context.Background(), trainingSet(), intel.EmptySnapshot())
	require.NoError(t, err)

	result := agent.Classify(maliciousDoc("doc-bad"), intel.EmptySnapshot())
	assert.Equal(t, core.StageModel, result.Stage)
	assert.True(t, result.IsMalicious)
	assert.False(t, result.MatchedRule)
	assert.GreaterOrEqual(t, result.Confidence, 0.5)

	normal := agent.Classify(normalDoc("doc-good"), intel.EmptySnapshot())
	assert.False(t, normal.IsMalicious)
	// Confidence expresses certainty in the returned label.
	assert.GreaterOrEqual(t, normal.Confidence, 0.5)
}

func TestAgent_Deterministic(t *testing.T) {
	agent := NewAgent(nil)
	_, err := agent.Train(context.Background(), trainingSet(), intel.EmptySnapshot())
	require.NoError(t, err)

	snap := intel.NewSnapshot([]string{"203.0.113.5"}, nil, []string{"ransomware"}, 3)
	first := agent.Classify(scenarioDoc(), snap)
	second := agent.Classify(scenarioDoc(), snap)
	assert.Equal(t, first, second)
}

func TestAgent_TrainFailureKeepsOldModel(t *testing.T) {
	agent := NewAgent(nil)
	trained, err := agent.Train(context.Background(), trainingSet(), intel.EmptySnapshot())
	require.NoError(t, err)

	_, err = agent.Train(context.Background(), nil, intel.EmptySnapshot())
	require.Error(t, err)
	assert.Same(t, trained, agent.Model())
}

func TestAgent_TrainCancelled(t *testing.T) {
	agent := NewAgent(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := agent.Train(ctx, trainingSet(), intel.EmptySnapshot())
	require.Error(t, err)
	assert.Nil(t, agent.Model())
}

func TestAgent_MissingModelFileDegradesToRules(t *testing.T) {
	agent := NewAgent(&AgentConfig{ModelPath: "/nonexistent/model.gob.gz"})
	assert.Nil(t, agent.Model())

	result := agent.Classify(scenarioDoc(), intel.EmptySnapshot())
	assert.Equal(t, core.StageDefault, result.Stage)
}

func TestAgent_KeywordIntelMatch(t *testing.T) {
	agent := NewAgent(nil)
	doc := &core.DocumentAnalysis{
		DocumentID: "doc-kw",
		Entities: []core.Entity{
			{Kind: core.EntityKindKeyword, Value: "ransomware", Confidence: 0.6},
		},
	}
	snap := intel.NewSnapshot(nil, nil, []string{"ransomware"}, 1)

	result := agent.Classify(doc, snap)
	assert.True(t, result.IsMalicious)
	assert.True(t, result.MatchedRule)
	assert.Equal(t, []string{"ransomware"}, result.DetectedThreats)
	assert.Contains(t, result.MatchedCategories, core.ThreatCategoryKeyword)
}
