// Package history persists build run outcomes in a SQLite database so past
// runs can be inspected and reported on after the fact.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/movementlabs/suzuka-build/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// RunRecord is a persisted orchestration run.
type RunRecord struct {
	ID           string
	StartedAt    time.Time
	Duration     time.Duration
	Attempted    int
	Succeeded    int
	Failed       int
	ExitCode     int
	ProfileFlags string
}

// TargetRecord is a persisted per-target outcome within a run.
type TargetRecord struct {
	Ordinal      int
	Name         string
	SelectorKind string
	SelectorName string
	Status       string
	ExitCode     int
	Duration     time.Duration
}

// Store manages the SQLite database holding build history.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore creates a new Store instance and initializes the database
func NewStore(dbPath string) (*Store, error) {
	// Handle in-memory database
	if dbPath == ":memory:" {
		return openAndInitStore(dbPath)
	}

	// Ensure parent directory exists for file-based databases
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	return openAndInitStore(dbPath)
}

// openAndInitStore opens the database connection and initializes schema
func openAndInitStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Configure SQLite for concurrent access with retry logic.
	// Set busy_timeout FIRST so subsequent operations wait on locks.
	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}

	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return store, nil
}

// execWithRetry executes a SQL statement with exponential backoff retry on lock errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}

		// Only retry on "database is locked" errors
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}

		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun persists a finished run and its per-target outcomes in one
// transaction.
func (s *Store) RecordRun(ctx context.Context, startedAt time.Time, result *models.RunResult) error {
	if result == nil {
		return fmt.Errorf("result cannot be nil")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, duration_ms, attempted, succeeded, failed, exit_code, profile_flags)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID, startedAt.UTC(), result.Duration.Milliseconds(),
		result.Attempted, result.Succeeded, result.Failed,
		result.ExitCode, result.ProfileFlags)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, tr := range result.Results {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO target_results (run_id, ordinal, name, selector_kind, selector_name, status, exit_code, duration_ms)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			result.ID, tr.Target.Ordinal, tr.Target.Name,
			string(tr.Target.Selector.Kind), tr.Target.Selector.Name,
			tr.Status, tr.ExitCode, tr.Duration.Milliseconds())
		if err != nil {
			return fmt.Errorf("insert target result for %s: %w", tr.Target.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// ListRuns returns the most recent runs, newest first, up to limit.
// A limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `SELECT id, started_at, duration_ms, attempted, succeeded, failed, exit_code, profile_flags
	          FROM runs ORDER BY started_at DESC, id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var durationMs int64
		if err := rows.Scan(&r.ID, &r.StartedAt, &durationMs, &r.Attempted, &r.Succeeded, &r.Failed, &r.ExitCode, &r.ProfileFlags); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// TargetResults returns the per-target outcomes for a run, in build order.
func (s *Store) TargetResults(ctx context.Context, runID string) ([]TargetRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ordinal, name, selector_kind, selector_name, status, exit_code, duration_ms
		 FROM target_results WHERE run_id = ? ORDER BY ordinal`, runID)
	if err != nil {
		return nil, fmt.Errorf("query target results: %w", err)
	}
	defer rows.Close()

	var results []TargetRecord
	for rows.Next() {
		var tr TargetRecord
		var durationMs int64
		if err := rows.Scan(&tr.Ordinal, &tr.Name, &tr.SelectorKind, &tr.SelectorName, &tr.Status, &tr.ExitCode, &durationMs); err != nil {
			return nil, fmt.Errorf("scan target result: %w", err)
		}
		tr.Duration = time.Duration(durationMs) * time.Millisecond
		results = append(results, tr)
	}

	return results, rows.Err()
}
