package recommend

import (
	"fmt"
	"strings"

	"argus/core"
)

const (
	// maxPromptEntities bounds how many entities the prompt enumerates
	maxPromptEntities = 25
	// maxPromptBytes bounds total prompt size
	maxPromptBytes = 4096
)

// BuildPrompt summarizes the document entities and the verdict into a
// bounded-size prompt instructing the backend to answer with the four
// sections the parser expects.
func BuildPrompt(doc *core.DocumentAnalysis, result *core.ClassificationResult) string {
	var sb strings.Builder

	verdict := "NORMAL"
	if result.IsMalicious {
		verdict = "MALICIOUS"
	}

	fmt.Fprintf(&sb, "A security document (%s) was classified %s with confidence %.2f.\n",
		doc.SourceRef, verdict, result.Confidence)
	fmt.Fprintf(&sb, "Document risk score: %.2f.\n", doc.RiskScore)

	if result.MatchedRule && len(result.DetectedThreats) > 0 {
		fmt.Fprintf(&sb, "Known-bad indicators matched: %s.\n",
			strings.Join(result.DetectedThreats, ", "))
	}

	if len(doc.Entities) > 0 {
		sb.WriteString("Extracted indicators:\n")
		for i, entity := range doc.Entities {
			if i == maxPromptEntities {
				fmt.Fprintf(&sb, "- ... and %d more\n", len(doc.Entities)-maxPromptEntities)
				break
			}
			fmt.Fprintf(&sb, "- %s: %s\n", entity.Kind, entity.Value)
		}
	}

	sb.WriteString("\nWrite a concise assessment with exactly these markdown sections:\n")
	sb.WriteString("## Analysis\n## Recommendations\n## Incident Response Steps\n## Risk Mitigation Strategies\n")
	sb.WriteString("Use bullet lists for the last three sections.\n")

	prompt := sb.String()
	if len(prompt) > maxPromptBytes {
		prompt = prompt[:maxPromptBytes]
	}
	return prompt
}
