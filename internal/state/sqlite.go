package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store persists check runs and per-file results.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewStore creates a store. A nil logger discards output.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{logger: logger}
}

// Open opens the database at path, creating parent directories as needed,
// and applies pending migrations. Use ":memory:" for an in-memory database.
func (s *Store) Open(path string) error {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	if err := s.Migrate(); err != nil {
		_ = s.Close()
		return err
	}
	s.logger.Debug("opened check cache", slog.String("path", path))
	return nil
}

// Path returns the path passed to Open.
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func generateID() string {
	return uuid.New().String()
}

// --- Runs ---

// StartRun records the start of a check run.
func (s *Store) StartRun(ctx context.Context, dialect string) (*CheckRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &CheckRun{
		ID:        generateID(),
		Dialect:   dialect,
		StartedAt: time.Now().UTC(),
	}
	s.logger.Debug("starting check run", slog.String("id", run.ID), slog.String("dialect", dialect))

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO check_runs (id, dialect, started_at) VALUES (?, ?, ?)`,
		run.ID, run.Dialect, run.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// FinishRun stores the totals of a run and marks it complete.
func (s *Store) FinishRun(ctx context.Context, id string, files, failures int) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE check_runs SET completed_at = ?, files = ?, failures = ? WHERE id = ?`,
		time.Now().UTC(), files, failures, id)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*CheckRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	var (
		run       CheckRun
		completed sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, dialect, started_at, completed_at, files, failures FROM check_runs WHERE id = ?`, id).
		Scan(&run.ID, &run.Dialect, &run.StartedAt, &completed, &run.Files, &run.Failures)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	if completed.Valid {
		t := completed.Time
		run.CompletedAt = &t
	}
	return &run, nil
}

// --- Results ---

// Lookup returns the cached result for path when it was checked with the
// same content hash and dialect. It returns nil when there is no such entry.
func (s *Store) Lookup(ctx context.Context, path, hash, dialect string) (*CheckResult, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	var (
		r      CheckResult
		status string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT file_path, content_hash, dialect, status, message, checked_at
		 FROM check_results WHERE file_path = ? AND dialect = ? AND content_hash = ?`,
		path, dialect, hash).
		Scan(&r.FilePath, &r.ContentHash, &r.Dialect, &status, &r.Message, &r.CheckedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up result: %w", err)
	}
	r.Status = Status(status)
	return &r, nil
}

// Record stores a result, replacing any earlier one for the same file and
// dialect. A zero CheckedAt is set to the current time.
func (s *Store) Record(ctx context.Context, r *CheckResult) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if r.CheckedAt.IsZero() {
		r.CheckedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO check_results (file_path, content_hash, dialect, status, message, checked_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (file_path, dialect) DO UPDATE SET
		   content_hash = excluded.content_hash,
		   status = excluded.status,
		   message = excluded.message,
		   checked_at = excluded.checked_at`,
		r.FilePath, r.ContentHash, r.Dialect, string(r.Status), r.Message, r.CheckedAt)
	if err != nil {
		return fmt.Errorf("failed to record result: %w", err)
	}
	return nil
}

// Prune removes the cached results of the given files for every dialect.
// It returns the number of rows removed.
func (s *Store) Prune(ctx context.Context, paths []string) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}
	if len(paths) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var removed int64
	for _, p := range paths {
		res, err := tx.ExecContext(ctx, `DELETE FROM check_results WHERE file_path = ?`, p)
		if err != nil {
			return 0, fmt.Errorf("failed to prune %s: %w", p, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			removed += n
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit prune: %w", err)
	}
	s.logger.Debug("pruned check cache", slog.Int64("rows", removed))
	return removed, nil
}
