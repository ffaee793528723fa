package intel

import (
	"sync"
	"sync/atomic"

	"argus/metrics"

	"go.uber.org/zap"
)

// Update is a partial set of indicators merged into the next snapshot.
// Values are normalized on merge.
type Update struct {
	HighRiskIPs        []string `json:"high_risk_ips" yaml:"high_risk_ips"`
	MaliciousDomains   []string `json:"malicious_domains" yaml:"malicious_domains"`
	SuspiciousKeywords []string `json:"suspicious_keywords" yaml:"suspicious_keywords"`
}

// Empty reports whether the update carries no indicators.
func (u Update) Empty() bool {
	return len(u.HighRiskIPs) == 0 && len(u.MaliciousDomains) == 0 && len(u.SuspiciousKeywords) == 0
}

// Store holds the active threat intelligence snapshot. Reads are lock-free
// atomic pointer loads; updates are serialized under a single writer mutex
// and publish a fresh copy, never mutating the previous snapshot in place.
type Store struct {
	current atomic.Pointer[Snapshot]
	writeMu sync.Mutex
	logger  *zap.SugaredLogger
}

// NewStore creates a store seeded with an empty snapshot.
func NewStore(logger *zap.SugaredLogger) *Store {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Store{logger: logger}
	s.current.Store(EmptySnapshot())
	return s
}

// Snapshot returns the active snapshot. The returned value is immutable and
// remains valid for the duration of a classification even if the store is
// updated concurrently.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Update merges a partial update into a new snapshot and atomically swaps it
// in. Safe to call while classifications are reading the previous snapshot.
// Returns the newly published snapshot.
func (s *Store) Update(u Update) *Snapshot {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	prev := s.current.Load()
	next := &Snapshot{
		HighRiskIPs:        mergeSet(prev.HighRiskIPs, u.HighRiskIPs),
		MaliciousDomains:   mergeSet(prev.MaliciousDomains, u.MaliciousDomains),
		SuspiciousKeywords: mergeSet(prev.SuspiciousKeywords, u.SuspiciousKeywords),
		Version:            prev.Version + 1,
	}
	s.current.Store(next)

	metrics.IntelSnapshotVersion.Set(float64(next.Version))
	s.logger.Infow("Threat intelligence updated",
		"version", next.Version,
		"high_risk_ips", len(next.HighRiskIPs),
		"malicious_domains", len(next.MaliciousDomains),
		"suspicious_keywords", len(next.SuspiciousKeywords))

	return next
}

// Replace discards the current snapshot entirely and publishes a snapshot
// built only from the given update, bumping the version.
func (s *Store) Replace(u Update) *Snapshot {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	prev := s.current.Load()
	next := NewSnapshot(u.HighRiskIPs, u.MaliciousDomains, u.SuspiciousKeywords, prev.Version+1)
	s.current.Store(next)

	metrics.IntelSnapshotVersion.Set(float64(next.Version))
	s.logger.Infow("Threat intelligence replaced", "version", next.Version, "indicators", next.Size())

	return next
}

func mergeSet(prev map[string]struct{}, add []string) map[string]struct{} {
	merged := make(map[string]struct{}, len(prev)+len(add))
	for v := range prev {
		merged[v] = struct{}{}
	}
	for _, v := range add {
		normalized := Normalize(v)
		if normalized == "" {
			continue
		}
		merged[normalized] = struct{}{}
	}
	return merged
}
