package classify

import (
	"argus/core"
	"argus/intel"
)

// Feature vector layout: one count per entity kind in core.AllEntityKinds
// order, the document risk score, then one presence flag per threat-intel
// category. The layout is fixed so trained models stay compatible with the
// vectors produced at inference time.
const (
	featureRiskScore       = "risk_score"
	featureIntelIPHit      = "intel_ip_hit"
	featureIntelDomainHit  = "intel_domain_hit"
	featureIntelKeywordHit = "intel_keyword_hit"
)

// FeatureNames returns the fixed, ordered feature name list.
func FeatureNames() []string {
	names := make([]string, 0, len(core.AllEntityKinds)+4)
	for _, kind := range core.AllEntityKinds {
		names = append(names, "count_"+kind.String())
	}
	names = append(names, featureRiskScore, featureIntelIPHit, featureIntelDomainHit, featureIntelKeywordHit)
	return names
}

// NumFeatures is the fixed feature vector length.
func NumFeatures() int {
	return len(core.AllEntityKinds) + 4
}

// Features derives the fixed-length feature vector from a document analysis
// and a threat-intel snapshot. Missing entity kinds are zero-filled, never
// an error.
func Features(doc *core.DocumentAnalysis, snap *intel.Snapshot) []float64 {
	vector := make([]float64, NumFeatures())
	if doc == nil {
		return vector
	}

	counts := doc.KindCounts()
	for i, kind := range core.AllEntityKinds {
		vector[i] = float64(counts[kind])
	}

	base := len(core.AllEntityKinds)
	vector[base] = doc.RiskScore

	if snap != nil {
		for _, entity := range doc.Entities {
			if snap.MatchIP(entity.Value) {
				vector[base+1] = 1.0
			}
			if snap.MatchDomain(entity.Value) {
				vector[base+2] = 1.0
			}
			if _, ok := snap.MatchKeyword(entity.Value); ok {
				vector[base+3] = 1.0
			}
		}
	}

	return vector
}
