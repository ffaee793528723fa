// Package intel maintains the process-wide threat intelligence snapshot.
//
// Snapshots are immutable. Updates build a new snapshot and swap an atomic
// pointer, so in-flight classifications always observe a complete,
// self-consistent view and never a half-applied update.
package intel

import (
	"sort"
	"strings"
)

// Snapshot is one immutable version of the threat intelligence sets.
// Never mutate a snapshot after it has been published to the store.
type Snapshot struct {
	HighRiskIPs        map[string]struct{}
	MaliciousDomains   map[string]struct{}
	SuspiciousKeywords map[string]struct{}
	Version            int
}

// Normalize canonicalizes an indicator value for set membership checks.
func Normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// NewSnapshot builds a snapshot from indicator slices, normalizing values.
func NewSnapshot(ips, domains, keywords []string, version int) *Snapshot {
	return &Snapshot{
		HighRiskIPs:        toSet(ips),
		MaliciousDomains:   toSet(domains),
		SuspiciousKeywords: toSet(keywords),
		Version:            version,
	}
}

// EmptySnapshot returns version 0 with no indicators.
func EmptySnapshot() *Snapshot {
	return NewSnapshot(nil, nil, nil, 0)
}

// MatchIP reports whether value is a known high-risk IP.
func (s *Snapshot) MatchIP(value string) bool {
	_, ok := s.HighRiskIPs[Normalize(value)]
	return ok
}

// MatchDomain reports whether value is a known malicious domain.
func (s *Snapshot) MatchDomain(value string) bool {
	_, ok := s.MaliciousDomains[Normalize(value)]
	return ok
}

// MatchKeyword reports whether the normalized text contains a suspicious
// keyword. Multi-word keywords match as substrings of the normalized text.
func (s *Snapshot) MatchKeyword(text string) (string, bool) {
	normalized := Normalize(text)
	if _, ok := s.SuspiciousKeywords[normalized]; ok {
		return normalized, true
	}
	for keyword := range s.SuspiciousKeywords {
		if strings.Contains(normalized, keyword) {
			return keyword, true
		}
	}
	return "", false
}

// Size returns the total number of indicators across all sets.
func (s *Snapshot) Size() int {
	return len(s.HighRiskIPs) + len(s.MaliciousDomains) + len(s.SuspiciousKeywords)
}

// Indicators returns a sorted list of every indicator in the given set,
// used for display and persistence.
func Indicators(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		normalized := Normalize(v)
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}
	return set
}
