package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"argus/core"
)

// FileStore writes one JSON document per result into a directory. Writes go
// through a temp file followed by rename, so readers never observe a
// partially written result.
type FileStore struct {
	dir    string
	logger *zap.SugaredLogger
}

// NewFileStore creates the output directory if needed.
func NewFileStore(dir string, logger *zap.SugaredLogger) (*FileStore, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create result directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

func (s *FileStore) Name() string { return "file" }

func (s *FileStore) Save(ctx context.Context, result *core.PipelineResult) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrPersistence, err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal result %s: %v", core.ErrPersistence, result.PipelineID, err)
	}

	final := s.resultPath(result.PipelineID)

	tmp, err := os.CreateTemp(s.dir, ".result-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", core.ErrPersistence, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write result %s: %v", core.ErrPersistence, result.PipelineID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close temp file: %v", core.ErrPersistence, err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: publish result %s: %v", core.ErrPersistence, result.PipelineID, err)
	}

	s.logger.Debugw("result persisted", "store", s.Name(), "pipeline_id", result.PipelineID, "path", final)
	return nil
}

func (s *FileStore) Load(_ context.Context, pipelineID string) (*core.PipelineResult, error) {
	data, err := os.ReadFile(s.resultPath(pipelineID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read result %s: %w", pipelineID, err)
	}

	var result core.PipelineResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", pipelineID, err)
	}
	return &result, nil
}

func (s *FileStore) Close() error { return nil }

// resultPath sanitizes the pipeline ID so a crafted ID cannot escape the
// output directory.
func (s *FileStore) resultPath(pipelineID string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, pipelineID)
	return filepath.Join(s.dir, safe+".json")
}
