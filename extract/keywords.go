package extract

import (
	"context"
	"regexp"
	"strings"

	"argus/core"
)

// KeywordRecognizer is the optional named-entity step of extraction. It
// contributes keyword-kind entities on top of the pattern registry. A
// recognizer failure or absence degrades extraction to pattern-only mode;
// it never aborts it.
type KeywordRecognizer interface {
	Name() string
	Recognize(ctx context.Context, text string) ([]core.Entity, error)
}

// NoopRecognizer is the absent-capability implementation.
type NoopRecognizer struct{}

func (NoopRecognizer) Name() string { return "noop" }

func (NoopRecognizer) Recognize(_ context.Context, _ string) ([]core.Entity, error) {
	return nil, nil
}

// defaultVocabulary is the curated security term list the vocabulary
// recognizer matches against. Multi-word terms are matched as phrases.
var defaultVocabulary = []string{
	"malware", "ransomware", "phishing", "trojan", "botnet", "backdoor",
	"rootkit", "keylogger", "spyware", "exploit", "payload", "c2",
	"command and control", "brute force", "credential dump", "lateral movement",
	"privilege escalation", "data exfiltration", "sql injection",
	"cross-site scripting", "zero-day", "denial of service", "unauthorized access",
	"suspicious login", "port scan", "reverse shell",
}

// VocabularyRecognizer matches a fixed security vocabulary against document
// text, case-insensitively on word boundaries.
type VocabularyRecognizer struct {
	re         *regexp.Regexp
	confidence float64
}

// NewVocabularyRecognizer builds a recognizer over the given terms, or the
// default security vocabulary when terms is empty.
func NewVocabularyRecognizer(terms []string) *VocabularyRecognizer {
	if len(terms) == 0 {
		terms = defaultVocabulary
	}

	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		quoted = append(quoted, regexp.QuoteMeta(term))
	}

	return &VocabularyRecognizer{
		re:         regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`),
		confidence: 0.6,
	}
}

func (r *VocabularyRecognizer) Name() string { return "vocabulary" }

// Recognize yields one keyword entity per vocabulary hit. Values are
// lowercased so deduplication folds case variants of the same term.
func (r *VocabularyRecognizer) Recognize(_ context.Context, text string) ([]core.Entity, error) {
	locs := r.re.FindAllStringIndex(text, -1)
	if locs == nil {
		return nil, nil
	}

	entities := make([]core.Entity, 0, len(locs))
	for _, loc := range locs {
		entities = append(entities, core.Entity{
			Kind:       core.EntityKindKeyword,
			Value:      strings.ToLower(text[loc[0]:loc[1]]),
			Offset:     loc[0],
			Confidence: r.confidence,
		})
	}
	return entities, nil
}
