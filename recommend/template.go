package recommend

import (
	"fmt"
	"strings"

	"argus/core"
)

// TemplateAnalysis deterministically synthesizes a SecurityAnalysis from the
// verdict and detected threat categories. It is the availability guarantee
// of the pipeline when the generative backend is absent or failing, so it
// must never fail and needs no network access.
func TemplateAnalysis(doc *core.DocumentAnalysis, result *core.ClassificationResult) *core.SecurityAnalysis {
	analysis := &core.SecurityAnalysis{
		GenerationMode: core.GenerationModeTemplate,
	}

	if result.IsMalicious {
		analysis.Narrative = maliciousNarrative(doc, result)
		analysis.DetailedRecommendations = maliciousRecommendations(result)
		analysis.IncidentResponseSteps = []string{
			"Open an incident ticket and assign an owner",
			"Contain affected hosts referenced by the document",
			"Collect and preserve the source document and surrounding logs",
			"Eradicate identified indicators and verify removal",
			"Document findings and close out with a post-incident review",
		}
		analysis.RiskMitigation = []string{
			"Update detection rules with the confirmed indicators",
			"Review perimeter and DNS filtering for the matched categories",
			"Schedule awareness follow-up for the affected teams",
		}
		return analysis
	}

	analysis.Narrative = fmt.Sprintf(
		"Document %s was classified as normal with confidence %.2f. "+
			"%d indicator(s) were extracted; none matched threat intelligence.",
		doc.SourceRef, result.Confidence, len(doc.Entities))
	analysis.DetailedRecommendations = []string{
		"No remediation required for this document",
		"Re-run analysis if threat intelligence is updated",
	}
	analysis.IncidentResponseSteps = []string{
		"None required; retain the document per retention policy",
	}
	analysis.RiskMitigation = []string{
		"Continue routine monitoring of the source system",
	}
	return analysis
}

func maliciousNarrative(doc *core.DocumentAnalysis, result *core.ClassificationResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Document %s was classified as malicious with confidence %.2f.",
		doc.SourceRef, result.Confidence)

	if result.MatchedRule {
		fmt.Fprintf(&sb, " %d known-bad indicator(s) matched threat intelligence: %s.",
			len(result.DetectedThreats), strings.Join(result.DetectedThreats, ", "))
	} else {
		sb.WriteString(" The verdict was produced by the statistical model without a direct indicator match.")
	}

	fmt.Fprintf(&sb, " The document risk score is %.2f across %d extracted indicator(s).",
		doc.RiskScore, len(doc.Entities))
	return sb.String()
}

func maliciousRecommendations(result *core.ClassificationResult) []string {
	recommendations := []string{
		"Treat the document as evidence of compromise until proven otherwise",
	}

	for _, category := range result.MatchedCategories {
		switch category {
		case core.ThreatCategoryIP:
			recommendations = append(recommendations,
				"Block the matched IP addresses and audit recent connections from them")
		case core.ThreatCategoryDomain:
			recommendations = append(recommendations,
				"Block the matched domains and hunt for other resolutions in DNS logs")
		case core.ThreatCategoryKeyword:
			recommendations = append(recommendations,
				"Investigate the activity described by the flagged terminology")
		}
	}

	recommendations = append(recommendations,
		"Validate the verdict against additional telemetry before closing")
	return recommendations
}
