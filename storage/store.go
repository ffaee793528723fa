// Package storage persists pipeline results. Three interchangeable stores
// implement ResultStore: a JSON file store for single-host operation, a
// SQLite store for queryable local history, and a Redis store for sharing
// results with downstream consumers.
package storage

import (
	"context"
	"errors"

	"argus/core"
)

// ErrNotFound indicates no result exists for the requested pipeline ID.
var ErrNotFound = errors.New("result not found")

// ResultStore persists completed pipeline results. Save is write-once per
// pipeline ID; stores never mutate a previously written result.
type ResultStore interface {
	// Save persists the result. Failures wrap core.ErrPersistence.
	Save(ctx context.Context, result *core.PipelineResult) error

	// Load retrieves a result by pipeline ID, or ErrNotFound.
	Load(ctx context.Context, pipelineID string) (*core.PipelineResult, error)

	// Name identifies the store in logs and metrics labels.
	Name() string

	Close() error
}
