package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for the pipeline error taxonomy. Stages wrap these with
// fmt.Errorf("...: %w", ...) so callers can classify failures with errors.Is.
var (
	// ErrInputUnreadable indicates a document could not be read or decoded.
	// The document is marked FAILED; a batch continues.
	ErrInputUnreadable = errors.New("input document unreadable")

	// ErrInputNotUTF8 indicates document bytes were not valid UTF-8
	ErrInputNotUTF8 = errors.New("input document is not valid UTF-8")

	// ErrModelUnavailable indicates no trained classifier is configured.
	// Non-fatal: classification degrades to rule-only mode.
	ErrModelUnavailable = errors.New("classification model unavailable")

	// ErrGenerationTimeout indicates the generative backend timed out
	ErrGenerationTimeout = errors.New("generation request timed out")

	// ErrGenerationRateLimited indicates the generative backend rejected the
	// request due to rate limiting
	ErrGenerationRateLimited = errors.New("generation request rate limited")

	// ErrGenerationUnparsable indicates the backend responded but the
	// response could not be parsed into a SecurityAnalysis
	ErrGenerationUnparsable = errors.New("generation response unparsable")

	// ErrPersistence indicates a computed result could not be written to the
	// output store. The in-memory result is still returned to the caller.
	ErrPersistence = errors.New("result persistence failed")
)

// StageError records which pipeline stage failed and why. It is the cause
// attached to a FAILED document outcome.
type StageError struct {
	Stage string
	Err   error
}

// NewStageError wraps err with the failing stage name.
func NewStageError(stage string, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying cause
func (e *StageError) Unwrap() error {
	return e.Err
}
