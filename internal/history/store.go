// Package history persists tool invocation records in a local SQLite
// database. Recording is best-effort plumbing around the dispatch engine; the
// engine itself never touches storage.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"geminimcp/internal/domain"

	_ "modernc.org/sqlite"
)

// Store implements domain.InvocationRecorder on SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ domain.InvocationRecorder = (*Store)(nil)

type Options struct {
	RetentionDays int // 0 keeps records forever
	Logger        *slog.Logger
}

// Open creates or opens the invocation database at dbPath, applies the
// schema, and prunes records older than the retention window.
func Open(dbPath string, opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection for SQLite
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db, logger: logger}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	if opts.RetentionDays > 0 {
		if err := store.prune(opts.RetentionDays); err != nil {
			logger.Warn("cannot prune invocation history", "err", err)
		}
	}

	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS invocations (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		tool        TEXT NOT NULL,
		prompt      TEXT,
		working_dir TEXT,
		exit_code   INTEGER NOT NULL,
		stderr      TEXT,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_invocations_time ON invocations(created_at);
	CREATE INDEX IF NOT EXISTS idx_invocations_tool ON invocations(tool, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) prune(retentionDays int) error {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	res, err := s.db.Exec(`DELETE FROM invocations WHERE created_at < ?`, cutoff)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.logger.Debug("pruned invocation history", "removed", n, "cutoff", cutoff)
	}
	return nil
}

// Record inserts one invocation row.
func (s *Store) Record(ctx context.Context, rec domain.InvocationRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO invocations (tool, prompt, working_dir, exit_code, stderr, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Tool, rec.Prompt, rec.WorkingDir, rec.ExitCode, rec.Stderr,
		rec.Duration.Milliseconds(), rec.CreatedAt,
	)
	return err
}

// Recent returns the latest invocations, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.InvocationRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tool, prompt, working_dir, exit_code, stderr, duration_ms, created_at
		 FROM invocations ORDER BY created_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []domain.InvocationRecord
	for rows.Next() {
		var r domain.InvocationRecord
		var prompt, workingDir, stderr sql.NullString
		var durationMs int64
		if err := rows.Scan(&r.ID, &r.Tool, &prompt, &workingDir, &r.ExitCode,
			&stderr, &durationMs, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Prompt = prompt.String
		r.WorkingDir = workingDir.String
		r.Stderr = stderr.String
		r.Duration = time.Duration(durationMs) * time.Millisecond
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
