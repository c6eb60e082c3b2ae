package testutil

import (
	"database/sql"
	"testing"

	"github.com/alexanderramin/crawl/internal/db"
	"github.com/stretchr/testify/require"
)

// NewTestDB opens a private in-memory catalog database: nodes table,
// revision counter and triggers in place, foreign keys on. Each call gets
// its own database, closed at test cleanup.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(":memory:")
	require.NoError(t, err, "opening catalog test database")
	t.Cleanup(func() { _ = database.Close() })
	return database
}

// NewTestUoW is the transaction runner a SQLite node store uses for batch
// subtree deletes.
func NewTestUoW(database *sql.DB) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(database)
}
