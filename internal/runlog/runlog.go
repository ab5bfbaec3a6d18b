// Package runlog keeps a durable ledger of completed inference runs.
//
// Every run's identity, seed, configuration, and summary land in one SQLite
// row, so any past result can be traced back to the exact inputs that
// produced it. The ledger is an audit trail, not a cache: nothing reads it
// back into the pipeline.
package runlog

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/reactionlab/kinfer/internal/report"
)

//go:embed schema.sql
var schemaSQL string

// Store is the SQLite-backed run ledger.
// Uses WAL mode for concurrent read access.
type Store struct {
	db *sql.DB
}

// Open creates or opens the ledger database at the given path.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//
// Idempotent; safe to call on an existing ledger.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to ledger: %w", err)
	}

	// SQLite allows one writer at a time; a single connection avoids
	// SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply ledger schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the ledger.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Entry is one ledger row.
type Entry struct {
	RunID      string
	Mode       string
	ModelName  string
	CodeHash   string
	Seed       int64
	CacheHit   bool
	Config     string // JSON
	Summary    string // JSON
	Warnings   []string
	RuntimeMin float64
	CreatedAt  string
}

// Record writes a finished run to the ledger. Satisfies the driver layer's
// Recorder interface.
func (s *Store) Record(ctx context.Context, rep *report.Report, configJSON []byte) error {
	summaryJSON, err := json.Marshal(rep.Summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	warningsJSON, err := json.Marshal(rep.Warnings)
	if err != nil {
		return fmt.Errorf("encode warnings: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, mode, model_name, code_hash, seed, cache_hit, config, summary, warnings, runtime_min)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.RunID, string(rep.Mode), rep.ModelName, rep.CodeHash, rep.Seed,
		rep.CacheHit, string(configJSON), string(summaryJSON), string(warningsJSON), rep.RuntimeMin,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", rep.RunID, err)
	}
	return nil
}

// List returns the most recent runs, newest first, at most limit rows.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, mode, model_name, code_hash, seed, cache_hit, config, summary, warnings, runtime_min, created_at
		FROM runs ORDER BY created_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var warningsJSON string
		if err := rows.Scan(&e.RunID, &e.Mode, &e.ModelName, &e.CodeHash, &e.Seed,
			&e.CacheHit, &e.Config, &e.Summary, &warningsJSON, &e.RuntimeMin, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(warningsJSON), &e.Warnings); err != nil {
			return nil, fmt.Errorf("decode warnings for %s: %w", e.RunID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return entries, nil
}

// Get returns one run by ID.
func (s *Store) Get(ctx context.Context, runID string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, mode, model_name, code_hash, seed, cache_hit, config, summary, warnings, runtime_min, created_at
		FROM runs WHERE run_id = ?`, runID)

	var e Entry
	var warningsJSON string
	if err := row.Scan(&e.RunID, &e.Mode, &e.ModelName, &e.CodeHash, &e.Seed,
		&e.CacheHit, &e.Config, &e.Summary, &warningsJSON, &e.RuntimeMin, &e.CreatedAt); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	if err := json.Unmarshal([]byte(warningsJSON), &e.Warnings); err != nil {
		return nil, fmt.Errorf("decode warnings for %s: %w", runID, err)
	}
	return &e, nil
}
