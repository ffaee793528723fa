package extract

import (
	"net"
	"regexp"
	"strings"

	"argus/core"
)

// patternExtractor applies one compiled pattern over document text and
// yields candidate entities of a single kind.
type patternExtractor struct {
	kind       core.EntityKind
	re         *regexp.Regexp
	confidence float64
	// group selects a capture group as the entity value; 0 takes the whole match
	group int
	// filter rejects individual matches after the regex accepted them
	filter func(value string) bool
}

func (p patternExtractor) extract(text string) []core.Entity {
	locs := p.re.FindAllStringSubmatchIndex(text, -1)
	if locs == nil {
		return nil
	}

	entities := make([]core.Entity, 0, len(locs))
	for _, loc := range locs {
		start, end := loc[2*p.group], loc[2*p.group+1]
		if start < 0 {
			continue
		}
		value := text[start:end]
		if p.filter != nil && !p.filter(value) {
			continue
		}
		entities = append(entities, core.Entity{
			Kind:       p.kind,
			Value:      value,
			Offset:     start,
			Confidence: p.confidence,
		})
	}
	return entities
}

var (
	ipv4Re = regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4][0-9]|1[0-9][0-9]|[1-9]?[0-9])\.){3}(?:25[0-5]|2[0-4][0-9]|1[0-9][0-9]|[1-9]?[0-9])\b`)
	ipv6Re = regexp.MustCompile(`\b(?:[0-9a-fA-F]{1,4}:){2,7}[0-9a-fA-F]{1,4}\b`)

	domainRe = regexp.MustCompile(`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}\b`)
	emailRe  = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	urlRe    = regexp.MustCompile(`\bhttps?://[^\s"'<>]+`)

	windowsPathRe = regexp.MustCompile(`\b[A-Za-z]:\\(?:[^\\\s:*?"<>|]+\\)*[^\\\s:*?"<>|]+`)
	// anchored so URL path components are not reported as file paths
	unixPathRe = regexp.MustCompile(`(?:^|[\s"'=(])(/(?:[\w.-]+/)+[\w.-]+)`)

	// MD5, SHA-1 and SHA-256 digests in order of length
	hashRe = regexp.MustCompile(`\b(?:[a-fA-F0-9]{64}|[a-fA-F0-9]{40}|[a-fA-F0-9]{32})\b`)

	isoTimestampRe    = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:?\d{2})?\b`)
	syslogTimestampRe = regexp.MustCompile(`\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec) +\d{1,2} \d{2}:\d{2}:\d{2}\b`)
)

// fileExtensions are trailing labels that disqualify a domain match; without
// this, Windows file names like cmd.exe pass the domain pattern.
var fileExtensions = map[string]struct{}{
	"exe": {}, "dll": {}, "sys": {}, "bat": {}, "cmd": {}, "ps1": {}, "sh": {},
	"txt": {}, "log": {}, "tmp": {}, "dat": {}, "bin": {}, "ini": {}, "cfg": {},
	"conf": {}, "json": {}, "xml": {}, "yml": {}, "yaml": {}, "csv": {}, "zip": {},
	"tar": {}, "gz": {}, "doc": {}, "docx": {}, "pdf": {}, "xls": {}, "xlsx": {},
	"js": {}, "py": {}, "go": {}, "rb": {}, "php": {}, "html": {}, "css": {},
}

// ipv6Filter discards colon-separated hex runs that are not parseable
// addresses; clock fields like 10:00:05 satisfy the pattern otherwise.
func ipv6Filter(value string) bool {
	ip := net.ParseIP(value)
	return ip != nil && ip.To4() == nil
}

func domainFilter(value string) bool {
	idx := strings.LastIndex(value, ".")
	if idx < 0 {
		return false
	}
	tld := strings.ToLower(value[idx+1:])
	_, isExtension := fileExtensions[tld]
	return !isExtension
}

// builtinPatterns returns the full pattern registry in evaluation order.
// Each extractor is independent; order only affects which entity keeps the
// first offset when values collide across kinds (they never do, since
// deduplication is per kind+value).
func builtinPatterns() []patternExtractor {
	return []patternExtractor{
		{kind: core.EntityKindIP, re: ipv4Re, confidence: 0.95},
		{kind: core.EntityKindIP, re: ipv6Re, confidence: 0.85, filter: ipv6Filter},
		{kind: core.EntityKindEmail, re: emailRe, confidence: 0.95},
		{kind: core.EntityKindURL, re: urlRe, confidence: 0.9},
		{kind: core.EntityKindDomain, re: domainRe, confidence: 0.7, filter: domainFilter},
		{kind: core.EntityKindFilePath, re: windowsPathRe, confidence: 0.85},
		{kind: core.EntityKindFilePath, re: unixPathRe, confidence: 0.75, group: 1},
		{kind: core.EntityKindHash, re: hashRe, confidence: 0.95},
		{kind: core.EntityKindTimestamp, re: isoTimestampRe, confidence: 0.9},
		{kind: core.EntityKindTimestamp, re: syslogTimestampRe, confidence: 0.8},
	}
}
