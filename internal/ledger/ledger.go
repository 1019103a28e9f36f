// Package ledger records extraction runs and per-file outcomes in SQLite.
//
// The ledger lives next to the corpora (ledger.db in the output directory) and
// lets a later run skip files whose current content was already committed.
package ledger

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultFileName is the ledger database name inside the output directory.
const DefaultFileName = "ledger.db"

// timeLayout is fixed-width so stored timestamps sort chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Status is the outcome of one file in one run.
type Status string

const (
	StatusCommitted Status = "committed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// FileOutcome is one row of the file_outcomes table.
type FileOutcome struct {
	Path     string
	Hash     string
	Status   Status
	Methods  int
	Skipped  int
	Error    string
	Duration time.Duration
}

// RunTotals are the counters stored when a run finishes.
type RunTotals struct {
	FilesAttempted int
	FilesSucceeded int
	FilesFailed    int
	FilesSkipped   int
	Records        int
	Elapsed        time.Duration
}

// Run is one row of the runs table.
type Run struct {
	ID         string
	RootDir    string
	StartedAt  time.Time
	FinishedAt time.Time // zero while the run is in progress or was interrupted
	Totals     RunTotals
}

// Ledger is a handle on the ledger database.
type Ledger struct {
	db  *sql.DB
	now func() time.Time

	mu  sync.Mutex
	seq map[string]int
}

// Open opens (creating if needed) the ledger database at path.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger %s: %w", path, err)
	}
	// Single writer keeps sqlite from returning SQLITE_BUSY under the driver's committer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return New(db), nil
}

// New wraps an existing database. The schema must already exist.
func New(db *sql.DB) *Ledger {
	return &Ledger{
		db:  db,
		seq: make(map[string]int),
		now: time.Now,
	}
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// BeginRun inserts a new run and returns its ID.
func (l *Ledger) BeginRun(rootDir string) (string, error) {
	runID := uuid.New().String()
	_, err := sq.Insert("runs").
		Columns("run_id", "root_dir", "started_at").
		Values(runID, rootDir, formatTime(l.now())).
		RunWith(l.db).
		Exec()
	if err != nil {
		return "", fmt.Errorf("failed to begin run: %w", err)
	}
	return runID, nil
}

// RecordFile appends one file outcome to a run. Outcomes keep the order in
// which they were recorded.
func (l *Ledger) RecordFile(runID string, o FileOutcome) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	seq := l.seq[runID]
	var errText any
	if o.Error != "" {
		errText = o.Error
	}

	_, err := sq.Insert("file_outcomes").
		Columns("run_id", "seq", "file_path", "file_hash", "status", "methods", "skipped", "error", "duration_ms").
		Values(runID, seq, o.Path, o.Hash, string(o.Status), o.Methods, o.Skipped, errText, o.Duration.Milliseconds()).
		RunWith(l.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to record %s: %w", o.Path, err)
	}
	l.seq[runID] = seq + 1
	return nil
}

// FinishRun stores the final counters of a run.
func (l *Ledger) FinishRun(runID string, t RunTotals) error {
	res, err := sq.Update("runs").
		SetMap(map[string]any{
			"finished_at":     formatTime(l.now()),
			"files_attempted": t.FilesAttempted,
			"files_succeeded": t.FilesSucceeded,
			"files_failed":    t.FilesFailed,
			"files_skipped":   t.FilesSkipped,
			"records":         t.Records,
			"elapsed_ms":      t.Elapsed.Milliseconds(),
		}).
		Where(sq.Eq{"run_id": runID}).
		RunWith(l.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to finish run %s: no such run", runID)
	}
	l.mu.Lock()
	delete(l.seq, runID)
	l.mu.Unlock()
	return nil
}

// IsCommitted reports whether any run committed path with exactly this content hash.
func (l *Ledger) IsCommitted(path, hash string) (bool, error) {
	var count int
	err := sq.Select("COUNT(*)").
		From("file_outcomes").
		Where(sq.Eq{
			"file_path": path,
			"file_hash": hash,
			"status":    string(StatusCommitted),
		}).
		RunWith(l.db).
		QueryRow().
		Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query ledger for %s: %w", path, err)
	}
	return count > 0, nil
}

// RecentRuns returns up to limit runs, newest first.
func (l *Ledger) RecentRuns(limit int) ([]Run, error) {
	query := sq.Select(
		"run_id", "root_dir", "started_at", "COALESCE(finished_at, '')",
		"files_attempted", "files_succeeded", "files_failed", "files_skipped", "records", "elapsed_ms",
	).
		From("runs").
		OrderBy("started_at DESC", "rowid DESC")
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	rows, err := query.RunWith(l.db).Query()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished string
			elapsedMs         int64
		)
		if err := rows.Scan(
			&r.ID, &r.RootDir, &started, &finished,
			&r.Totals.FilesAttempted, &r.Totals.FilesSucceeded, &r.Totals.FilesFailed,
			&r.Totals.FilesSkipped, &r.Totals.Records, &elapsedMs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		r.Totals.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// FileOutcomes returns the outcomes recorded for a run in recording order.
func (l *Ledger) FileOutcomes(runID string) ([]FileOutcome, error) {
	rows, err := sq.Select("file_path", "file_hash", "status", "methods", "skipped", "COALESCE(error, '')", "duration_ms").
		From("file_outcomes").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("seq").
		RunWith(l.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to list outcomes for run %s: %w", runID, err)
	}
	defer rows.Close()

	var outcomes []FileOutcome
	for rows.Next() {
		var (
			o          FileOutcome
			status     string
			durationMs int64
		)
		if err := rows.Scan(&o.Path, &o.Hash, &status, &o.Methods, &o.Skipped, &o.Error, &durationMs); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		o.Status = Status(status)
		o.Duration = time.Duration(durationMs) * time.Millisecond
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
