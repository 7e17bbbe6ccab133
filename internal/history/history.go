// Package history keeps a SQLite journal of imports: one row per run and one
// row per contact file that an import removed from its book.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/uncaged-coder/vcardtools/internal/sqlutil"
)

// Dir is the directory inside the work directory holding the journal and locks.
const Dir = ".vcardtools"

// Store is the journal database handle.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Run is one recorded import.
type Run struct {
	ID        int64
	Book      string
	Input     string
	StartedAt time.Time
	Existing  int
	Imported  int
	Outputs   int
	Committed bool
	Removed   []Removal
}

// Removal is a contact file that disappeared from a book during an import.
type Removal struct {
	RunID int64
	Book  string
	File  string
	// MergedInto is the output file that absorbed the contact, empty when
	// no output can be traced back to it.
	MergedInto  string
	Fingerprint string
	RemovedAt   time.Time
}

// Open opens or creates the journal in workDir.
func Open(workDir string) (*Store, error) {
	dir := filepath.Join(workDir, Dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", Dir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "history.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenInMemory opens an in-memory journal (for testing).
func OpenInMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// Every pooled connection would get its own empty in-memory database.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CurrentDBVersion is the journal schema version.
const CurrentDBVersion = 1

func (s *Store) initialize() error {
	schema := `
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;

		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			book TEXT NOT NULL,
			input TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			existing INTEGER NOT NULL,
			imported INTEGER NOT NULL,
			outputs INTEGER NOT NULL,
			committed INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS removed (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			book TEXT NOT NULL,
			file TEXT NOT NULL,
			merged_into TEXT,
			fingerprint TEXT NOT NULL,
			removed_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_runs_book ON runs(book);
		CREATE INDEX IF NOT EXISTS idx_removed_book ON removed(book, removed_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize history schema: %w", err)
	}
	if _, err := s.db.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES ('version', ?)",
		fmt.Sprintf("%d", CurrentDBVersion),
	); err != nil {
		return fmt.Errorf("failed to set history version: %w", err)
	}
	return nil
}

// RecordRun stores run and its removals in one transaction and returns the
// new run ID. A zero StartedAt is set to the current time.
func (s *Store) RecordRun(ctx context.Context, run Run) (int64, error) {
	if run.StartedAt.IsZero() {
		run.StartedAt = s.now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (book, input, started_at, existing, imported, outputs, committed)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.Book, run.Input, run.StartedAt.Unix(),
		run.Existing, run.Imported, run.Outputs, boolToInt(run.Committed))
	if err != nil {
		return 0, fmt.Errorf("failed to record run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO removed (run_id, book, file, merged_into, fingerprint, removed_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare removal insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range run.Removed {
		var mergedInto sql.NullString
		if r.MergedInto != "" {
			mergedInto = sql.NullString{String: r.MergedInto, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, id, run.Book, r.File, mergedInto, r.Fingerprint, run.StartedAt.Unix()); err != nil {
			return 0, fmt.Errorf("failed to record removal of %s: %w", r.File, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

// Removed returns the most recent removals for book, newest first.
// A limit of zero or less returns all of them.
func (s *Store) Removed(ctx context.Context, book string, limit int) ([]Removal, error) {
	query := `
		SELECT run_id, book, file, COALESCE(merged_into, ''), fingerprint, removed_at
		FROM removed
		WHERE book = ?
		ORDER BY removed_at DESC, id DESC`
	query, args := sqlutil.Limit(query, []any{book}, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query removals: %w", err)
	}
	return sqlutil.ScanRows(rows, func(rows *sql.Rows) (Removal, error) {
		var r Removal
		var removedAt int64
		err := rows.Scan(&r.RunID, &r.Book, &r.File, &r.MergedInto, &r.Fingerprint, &removedAt)
		r.RemovedAt = time.Unix(removedAt, 0)
		return r, err
	})
}

// Runs returns the most recent runs for book, newest first, without their removals.
func (s *Store) Runs(ctx context.Context, book string, limit int) ([]Run, error) {
	query := `
		SELECT id, book, input, started_at, existing, imported, outputs, committed
		FROM runs
		WHERE book = ?
		ORDER BY started_at DESC, id DESC`
	query, args := sqlutil.Limit(query, []any{book}, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	return sqlutil.ScanRows(rows, func(rows *sql.Rows) (Run, error) {
		var r Run
		var startedAt int64
		var committed int
		err := rows.Scan(&r.ID, &r.Book, &r.Input, &startedAt, &r.Existing, &r.Imported, &r.Outputs, &committed)
		r.StartedAt = time.Unix(startedAt, 0)
		r.Committed = committed != 0
		return r, err
	})
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
