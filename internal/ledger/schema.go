package ledger

import (
	"database/sql"
	"fmt"
)

const createRunsTable = `
CREATE TABLE IF NOT EXISTS runs (
	run_id          TEXT PRIMARY KEY,
	root_dir        TEXT NOT NULL,
	started_at      TEXT NOT NULL,
	finished_at     TEXT,
	files_attempted INTEGER NOT NULL DEFAULT 0,
	files_succeeded INTEGER NOT NULL DEFAULT 0,
	files_failed    INTEGER NOT NULL DEFAULT 0,
	files_skipped   INTEGER NOT NULL DEFAULT 0,
	records         INTEGER NOT NULL DEFAULT 0,
	elapsed_ms      INTEGER NOT NULL DEFAULT 0
)`

const createFileOutcomesTable = `
CREATE TABLE IF NOT EXISTS file_outcomes (
	run_id      TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	seq         INTEGER NOT NULL,
	file_path   TEXT NOT NULL,
	file_hash   TEXT NOT NULL,
	status      TEXT NOT NULL,
	methods     INTEGER NOT NULL DEFAULT 0,
	skipped     INTEGER NOT NULL DEFAULT 0,
	error       TEXT,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (run_id, seq)
)`

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_file_outcomes_path_hash ON file_outcomes(file_path, file_hash, status)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
}

// CreateSchema creates the ledger tables and indexes. It is idempotent.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	tables := []struct {
		name string
		ddl  string
	}{
		{"runs", createRunsTable},
		{"file_outcomes", createFileOutcomesTable},
	}
	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	for i, idx := range indexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}
	return nil
}
