package ledger

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestLedger creates a ledger backed by an in-memory SQLite database with
// the schema applied. The database is closed by t.Cleanup.
//
// Example:
//
//	func TestSomething(t *testing.T) {
//	    l := ledger.NewTestLedger(t)
//	    runID, err := l.BeginRun("/src")
//	    // ...
//	}
func NewTestLedger(t testing.TB) *Ledger {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// A second connection would see a different in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)
	require.NoError(t, CreateSchema(db))

	return New(db)
}

// NewTestLedgerFile opens a file-backed ledger in t.TempDir(). Use it when a
// test needs to reopen the ledger.
func NewTestLedgerFile(t testing.TB) (*Ledger, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), DefaultFileName)
	l, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	return l, path
}
