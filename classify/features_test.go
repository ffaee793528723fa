package classify

import (
	"testing"

	"argus/core"
	"argus/intel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureNames_StableLayout(t *testing.T) {
	names := FeatureNames()
	require.Len(t, names, NumFeatures())
	assert.Equal(t, "count_ip", names[0])
	assert.Equal(t, "risk_score", names[len(core.AllEntityKinds)])
	assert.Equal(t, "intel_keyword_hit", names[len(names)-1])
}

func TestFeatures_ZeroFilledForNilDocument(t *testing.T) {
	vector := Features(nil, intel.EmptySnapshot())
	require.Len(t, vector, NumFeatures())
	for _, v := range vector {
		assert.Equal(t, 0.0, v)
	}
}

func TestFeatures_CountsAndRiskScore(t *testing.T) {
	doc := &core.DocumentAnalysis{
		DocumentID: "doc-1",
		RiskScore:  0.4,
		Entities: []core.Entity{
			{Kind: core.EntityKindIP, Value: "203.0.113.5"},
			{Kind: core.EntityKindIP, Value: "198.51.100.7"},
			{Kind: core.EntityKindHash, Value: "5d41402abc4b2a76b9719d911017c592"},
		},
	}

	vector := Features(doc, intel.EmptySnapshot())
	assert.Equal(t, 2.0, vector[0]) // count_ip
	assert.Equal(t, 0.4, vector[len(core.AllEntityKinds)])

	// Missing kinds are zero-filled.
	for i, kind := range core.AllEntityKinds {
		if kind == core.EntityKindIP || kind == core.EntityKindHash {
			continue
		}
		assert.Equal(t, 0.0, vector[i], "kind %s", kind)
	}
}

func TestFeatures_IntelPresenceFlags(t *testing.T) {
	doc := &core.DocumentAnalysis{
		Entities: []core.Entity{
			{Kind: core.EntityKindIP, Value: "203.0.113.5"},
			{Kind: core.EntityKindDomain, Value: "evil.test"},
		},
	}

	snap := intel.NewSnapshot([]string{"203.0.113.5"}, []string{"evil.test"}, nil, 1)
	vector := Features(doc, snap)

	base := len(core.AllEntityKinds)
	assert.Equal(t, 1.0, vector[base+1]) // intel_ip_hit
	assert.Equal(t, 1.0, vector[base+2]) // intel_domain_hit
	assert.Equal(t, 0.0, vector[base+3]) // intel_keyword_hit

	empty := Features(doc, intel.EmptySnapshot())
	assert.Equal(t, 0.0, empty[base+1])
	assert.Equal(t, 0.0, empty[base+2])
}
