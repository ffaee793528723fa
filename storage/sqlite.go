package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"argus/core"
)

const resultsSchema = `
CREATE TABLE IF NOT EXISTS pipeline_results (
	pipeline_id   TEXT PRIMARY KEY,
	document_id   TEXT NOT NULL,
	document_name TEXT NOT NULL,
	is_malicious  INTEGER NOT NULL,
	stage         TEXT NOT NULL,
	started_at    TEXT NOT NULL,
	completed_at  TEXT NOT NULL,
	result_json   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_document ON pipeline_results(document_id);
CREATE INDEX IF NOT EXISTS idx_results_verdict ON pipeline_results(is_malicious);
`

// SQLiteStore persists results to a local SQLite database. The full result
// is stored as JSON alongside a few indexed verdict columns for querying
// history without decoding every row.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// NewSQLiteStore opens (or creates) the database at path and applies the
// schema. WAL mode keeps concurrent readers off the single writer.
func NewSQLiteStore(path string, logger *zap.SugaredLogger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %s: %w", path, err)
	}
	// Single writer; WAL readers do not block on it.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("configure sqlite (%s): %w", pragma, err)
		}
	}

	if _, err := db.Exec(resultsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply results schema: %w", err)
	}

	logger.Infow("sqlite result store ready", "path", path)
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Name() string { return "sqlite" }

func (s *SQLiteStore) Save(ctx context.Context, result *core.PipelineResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("%w: marshal result %s: %v", core.ErrPersistence, result.PipelineID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pipeline_results
			(pipeline_id, document_id, document_name, is_malicious, stage, started_at, completed_at, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(pipeline_id) DO NOTHING`,
		result.PipelineID,
		result.DocumentAnalysis.DocumentID,
		result.DocumentAnalysis.SourceRef,
		boolToInt(result.Classification.IsMalicious),
		string(result.Classification.Stage),
		result.StartedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		result.CompletedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		string(data),
	)
	if err != nil {
		return fmt.Errorf("%w: insert result %s: %v", core.ErrPersistence, result.PipelineID, err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, pipelineID string) (*core.PipelineResult, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT result_json FROM pipeline_results WHERE pipeline_id = ?", pipelineID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query result %s: %w", pipelineID, err)
	}

	var result core.PipelineResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", pipelineID, err)
	}
	return &result, nil
}

// CountByVerdict returns how many stored results carry each verdict.
func (s *SQLiteStore) CountByVerdict(ctx context.Context) (malicious, normal int, err error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT is_malicious, COUNT(*) FROM pipeline_results GROUP BY is_malicious")
	if err != nil {
		return 0, 0, fmt.Errorf("count results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var verdict, count int
		if err := rows.Scan(&verdict, &count); err != nil {
			return 0, 0, fmt.Errorf("scan verdict count: %w", err)
		}
		if verdict == 1 {
			malicious = count
		} else {
			normal = count
		}
	}
	return malicious, normal, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
