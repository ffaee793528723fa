// Package recommend turns an analyzed, classified document into a
// human-readable SecurityAnalysis: a narrative plus recommendation, incident
// response and risk mitigation lists.
//
// The generative capability is isolated behind the Backend interface with
// exactly two implementations: a network-backed HTTP client and a
// deterministic stub. Everything except the literal prose of the narrative
// is therefore testable offline. When no backend is configured, or the
// backend fails past its retry limit, a deterministic template produces
// the same four fields; generation never fails the pipeline.
package recommend

import (
	"context"
)

// Backend is the abstraction over the external text-generation capability.
type Backend interface {
	Name() string
	// Generate produces free-form text for a prompt. Implementations honor
	// ctx cancellation and deadlines.
	Generate(ctx context.Context, prompt string) (string, error)
}

// StubBackend is the deterministic non-network implementation. It returns a
// fixed, parsable response so tests can exercise the full llm path offline.
type StubBackend struct {
	// Response overrides the canned response when non-empty.
	Response string
	// Err makes every call fail, for exercising the fallback path.
	Err error
}

func (s *StubBackend) Name() string { return "stub" }

func (s *StubBackend) Generate(ctx context.Context, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.Err != nil {
		return "", s.Err
	}
	if s.Response != "" {
		return s.Response, nil
	}
	return `## Analysis
The document was reviewed against the current threat intelligence and model verdict.

## Recommendations
- Review the flagged indicators in context

## Incident Response Steps
- Confirm the verdict with a second analyst

## Risk Mitigation Strategies
- Keep threat intelligence feeds current
`, nil
}
