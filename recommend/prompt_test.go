package recommend

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"argus/core"
)

func TestBuildPromptIncludesVerdictAndEntities(t *testing.T) {
	prompt := BuildPrompt(testDoc(), testResult())

	assert.Contains(t, prompt, "MALICIOUS")
	assert.Contains(t, prompt, "203.0.113.5")
	assert.Contains(t, prompt, "malware.example.com")
	assert.Contains(t, prompt, "## Analysis")
	assert.Contains(t, prompt, "## Risk Mitigation Strategies")
}

func TestBuildPromptNormalVerdict(t *testing.T) {
	result := &core.ClassificationResult{IsMalicious: false, Confidence: 0.9}
	prompt := BuildPrompt(testDoc(), result)
	assert.Contains(t, prompt, "NORMAL")
	assert.NotContains(t, prompt, "Known-bad indicators")
}

func TestBuildPromptBoundsEntityList(t *testing.T) {
	doc := testDoc()
	doc.Entities = nil
	for i := 0; i < 100; i++ {
		doc.Entities = append(doc.Entities, core.Entity{
			Kind:  core.EntityKindIP,
			Value: fmt.Sprintf("10.0.0.%d", i),
		})
	}

	prompt := BuildPrompt(doc, testResult())

	assert.Contains(t, prompt, "and 75 more")
	assert.Equal(t, maxPromptEntities, strings.Count(prompt, "- ip: "))
}

func TestBuildPromptBoundsTotalSize(t *testing.T) {
	doc := testDoc()
	doc.Entities = []core.Entity{{
		Kind:  core.EntityKindKeyword,
		Value: strings.Repeat("x", 10000),
	}}

	prompt := BuildPrompt(doc, testResult())
	assert.LessOrEqual(t, len(prompt), maxPromptBytes)
}
