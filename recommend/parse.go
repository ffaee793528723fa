package recommend

import (
	"fmt"
	"strings"

	"argus/core"
)

type section int

const (
	sectionNarrative section = iota
	sectionRecommendations
	sectionResponseSteps
	sectionMitigation
)

// parseResponse maps free-form backend output onto the four fields of
// SecurityAnalysis. Section headers are matched loosely (any heading line
// mentioning the section topic); bullets accept -, * and "1." markers.
// A response with no usable narrative or no recommendations is unparsable
// and sends the generator to the template fallback.
func parseResponse(doc *core.DocumentAnalysis, result *core.ClassificationResult, text string) (*core.SecurityAnalysis, error) {
	current := sectionNarrative
	var narrative []string
	lists := map[section][]string{}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if heading, ok := headingSection(trimmed); ok {
			current = heading
			continue
		}

		if current == sectionNarrative {
			narrative = append(narrative, trimmed)
			continue
		}

		if item, ok := bulletItem(trimmed); ok {
			lists[current] = append(lists[current], item)
		} else {
			// Prose inside a list section still counts as one item.
			lists[current] = append(lists[current], trimmed)
		}
	}

	if len(narrative) == 0 {
		return nil, fmt.Errorf("%w: no narrative section", core.ErrGenerationUnparsable)
	}
	if len(lists[sectionRecommendations]) == 0 {
		return nil, fmt.Errorf("%w: no recommendations section", core.ErrGenerationUnparsable)
	}

	analysis := &core.SecurityAnalysis{
		Narrative:               strings.Join(narrative, " "),
		DetailedRecommendations: lists[sectionRecommendations],
		IncidentResponseSteps:   lists[sectionResponseSteps],
		RiskMitigation:          lists[sectionMitigation],
		GenerationMode:          core.GenerationModeLLM,
	}

	// Backfill sections the backend omitted so the output schema is always
	// fully populated.
	fallback := TemplateAnalysis(doc, result)
	if len(analysis.IncidentResponseSteps) == 0 {
		analysis.IncidentResponseSteps = fallback.IncidentResponseSteps
	}
	if len(analysis.RiskMitigation) == 0 {
		analysis.RiskMitigation = fallback.RiskMitigation
	}

	return analysis, nil
}

func headingSection(line string) (section, bool) {
	if !strings.HasPrefix(line, "#") && !looksLikeHeading(line) {
		return 0, false
	}
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "recommendation"):
		return sectionRecommendations, true
	case strings.Contains(lower, "incident response") || strings.Contains(lower, "response step"):
		return sectionResponseSteps, true
	case strings.Contains(lower, "mitigation"):
		return sectionMitigation, true
	case strings.Contains(lower, "analysis") || strings.Contains(lower, "summary"):
		return sectionNarrative, true
	default:
		return 0, false
	}
}

// looksLikeHeading accepts "Recommendations:"-style headers without
// markdown markers.
func looksLikeHeading(line string) bool {
	return strings.HasSuffix(line, ":") && len(strings.Fields(line)) <= 4
}

func bulletItem(line string) (string, bool) {
	for _, marker := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(strings.TrimPrefix(line, marker)), true
		}
	}
	// Numbered bullets: "1. item"
	if idx := strings.Index(line, ". "); idx > 0 && idx <= 3 {
		if _, err := fmt.Sscanf(line[:idx], "%d", new(int)); err == nil {
			return strings.TrimSpace(line[idx+2:]), true
		}
	}
	return "", false
}
