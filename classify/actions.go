package classify

import (
	"argus/core"
)

// categoryActions maps detected threat categories to deterministic,
// explainable response actions. This list is distinct from the generated
// narrative of the recommendation stage: it never depends on the generative
// backend.
var categoryActions = map[core.ThreatCategory][]string{
	core.ThreatCategoryIP: {
		"Block the matched IP address at the network perimeter",
		"Review firewall and flow logs for prior traffic to the matched IP",
	},
	core.ThreatCategoryDomain: {
		"Sinkhole or block the matched domain at the DNS resolver",
		"Search proxy logs for other hosts contacting the matched domain",
	},
	core.ThreatCategoryKeyword: {
		"Escalate the document to the incident response team for review",
		"Correlate the flagged activity with endpoint telemetry",
	},
}

// defaultMaliciousActions apply when the verdict is malicious but no rule
// category pinpoints a specific indicator (model-stage verdicts).
var defaultMaliciousActions = []string{
	"Isolate affected systems pending investigation",
	"Preserve the source document and related logs as evidence",
}

// defaultNormalActions apply to documents classified as normal.
var defaultNormalActions = []string{
	"No immediate action required",
	"Retain the document per standard log retention policy",
}

// recommendedActions builds the ordered action list for a verdict. Category
// actions come first in a stable category order, without duplicates.
func recommendedActions(malicious bool, categories []core.ThreatCategory) []string {
	if !malicious {
		return append([]string(nil), defaultNormalActions...)
	}

	if len(categories) == 0 {
		return append([]string(nil), defaultMaliciousActions...)
	}

	seen := make(map[string]struct{})
	var actions []string
	for _, category := range []core.ThreatCategory{
		core.ThreatCategoryIP, core.ThreatCategoryDomain, core.ThreatCategoryKeyword,
	} {
		if !containsCategory(categories, category) {
			continue
		}
		for _, action := range categoryActions[category] {
			if _, dup := seen[action]; dup {
				continue
			}
			seen[action] = struct{}{}
			actions = append(actions, action)
		}
	}
	return actions
}

func containsCategory(categories []core.ThreatCategory, category core.ThreatCategory) bool {
	for _, c := range categories {
		if c == category {
			return true
		}
	}
	return false
}
