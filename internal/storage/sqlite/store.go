// Package sqlite persists evaluation runs so backtest enrichment can run
// after the hold window has elapsed.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dyike/PromptBench/internal/models"
)

type Store struct {
	db *sql.DB
}

// RunRecord identifies one A/B evaluation run.
type RunRecord struct {
	ID   string
	Mode string
	Date string
}

func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("db path is required")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_loc=Local")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=3000;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", p, err)
		}
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    mode TEXT NOT NULL,
    date TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS results (
    test_case_id TEXT NOT NULL,
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    prompt_version TEXT NOT NULL,
    ticker TEXT NOT NULL,
    date TEXT NOT NULL,
    completeness_score REAL NOT NULL,
    format_compliance REAL NOT NULL,
    data_accuracy REAL NOT NULL,
    input_tokens INTEGER NOT NULL,
    output_tokens INTEGER NOT NULL,
    response_time_ms INTEGER NOT NULL,
    recommendation TEXT NOT NULL,
    confidence REAL NOT NULL,
    actual_return_5d REAL,
    actual_return_10d REAL,
    PRIMARY KEY (run_id, test_case_id)
);

CREATE INDEX IF NOT EXISTS idx_results_run ON results(run_id);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *Store) CreateRun(ctx context.Context, run RunRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, mode, date) VALUES (?, ?, ?)`,
		run.ID, run.Mode, run.Date)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

func (s *Store) SaveResult(ctx context.Context, runID string, r *models.EvaluationResult) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO results (
    test_case_id, run_id, prompt_version, ticker, date,
    completeness_score, format_compliance, data_accuracy,
    input_tokens, output_tokens, response_time_ms,
    recommendation, confidence, actual_return_5d, actual_return_10d
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (run_id, test_case_id) DO UPDATE SET
    completeness_score = excluded.completeness_score,
    format_compliance = excluded.format_compliance,
    data_accuracy = excluded.data_accuracy,
    input_tokens = excluded.input_tokens,
    output_tokens = excluded.output_tokens,
    response_time_ms = excluded.response_time_ms,
    recommendation = excluded.recommendation,
    confidence = excluded.confidence,
    actual_return_5d = excluded.actual_return_5d,
    actual_return_10d = excluded.actual_return_10d`,
		r.TestCaseID, runID, r.PromptVersion, r.Ticker, r.Date,
		r.CompletenessScore, r.FormatCompliance, r.DataAccuracy,
		r.InputTokens, r.OutputTokens, r.ResponseTimeMs,
		r.Recommendation, r.Confidence, r.ActualReturn5d, r.ActualReturn10d)
	if err != nil {
		return fmt.Errorf("save result %s: %w", r.TestCaseID, err)
	}
	return nil
}

func (s *Store) SaveResults(ctx context.Context, runID string, results []*models.EvaluationResult) error {
	for _, r := range results {
		if err := s.SaveResult(ctx, runID, r); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ListResults(ctx context.Context, runID string) ([]*models.EvaluationResult, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT test_case_id, prompt_version, ticker, date,
       completeness_score, format_compliance, data_accuracy,
       input_tokens, output_tokens, response_time_ms,
       recommendation, confidence, actual_return_5d, actual_return_10d
FROM results WHERE run_id = ? ORDER BY prompt_version, ticker`, runID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var results []*models.EvaluationResult
	for rows.Next() {
		var r models.EvaluationResult
		var ret5d, ret10d sql.NullFloat64
		if err := rows.Scan(
			&r.TestCaseID, &r.PromptVersion, &r.Ticker, &r.Date,
			&r.CompletenessScore, &r.FormatCompliance, &r.DataAccuracy,
			&r.InputTokens, &r.OutputTokens, &r.ResponseTimeMs,
			&r.Recommendation, &r.Confidence, &ret5d, &ret10d,
		); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if ret5d.Valid {
			v := ret5d.Float64
			r.ActualReturn5d = &v
		}
		if ret10d.Valid {
			v := ret10d.Float64
			r.ActualReturn10d = &v
		}
		results = append(results, &r)
	}
	return results, rows.Err()
}

func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mode, date FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var run RunRecord
		if err := rows.Scan(&run.ID, &run.Mode, &run.Date); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
