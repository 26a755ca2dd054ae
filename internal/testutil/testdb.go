package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/alexanderramin/insession/internal/db"
	"github.com/alexanderramin/insession/internal/repository"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
// The database is closed when the test completes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(db.MemoryPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}

// NewTestDBPath returns a database file path inside the test's temp dir.
// Use it when two connections must see the same data, as across a restart.
func NewTestDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "insession.db")
}

// NewTestUoW creates a UnitOfWork backed by the given test database.
func NewTestUoW(database *sql.DB) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(database)
}

// NewTestKV creates a SQLite-backed KeyValueRepo on a fresh in-memory database.
func NewTestKV(t *testing.T) *repository.SQLiteKeyValueRepo {
	t.Helper()
	database := NewTestDB(t)
	return repository.NewSQLiteKeyValueRepo(database, NewTestUoW(database))
}
