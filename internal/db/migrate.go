package db

import (
	"database/sql"
	"fmt"
)

// Migrate runs all schema migrations. It is safe to run repeatedly.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

const nodesTable = `CREATE TABLE IF NOT EXISTS nodes (
		id          TEXT PRIMARY KEY,
		type        TEXT NOT NULL
		            CHECK(type IN ('folder','bucket','itemFolder','item','templateFolder','template')),
		name        TEXT NOT NULL,
		active      INTEGER NOT NULL DEFAULT 1,
		parent_id   TEXT REFERENCES nodes(id) ON DELETE CASCADE,
		order_index INTEGER NOT NULL DEFAULT 0,
		schedule    TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`

var migrations = []string{
	nodesTable,

	`CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent_id)`,
	`CREATE INDEX IF NOT EXISTS idx_nodes_type ON nodes(type)`,

	`CREATE TABLE IF NOT EXISTS catalog_revision (
		id       INTEGER PRIMARY KEY CHECK(id = 1),
		revision INTEGER NOT NULL DEFAULT 0
	)`,
	`INSERT OR IGNORE INTO catalog_revision (id, revision) VALUES (1, 0)`,

	// Every write to nodes bumps the revision polled for external changes.
	`CREATE TRIGGER IF NOT EXISTS trg_nodes_insert_revision AFTER INSERT ON nodes
	BEGIN UPDATE catalog_revision SET revision = revision + 1 WHERE id = 1; END`,
	`CREATE TRIGGER IF NOT EXISTS trg_nodes_update_revision AFTER UPDATE ON nodes
	BEGIN UPDATE catalog_revision SET revision = revision + 1 WHERE id = 1; END`,
	`CREATE TRIGGER IF NOT EXISTS trg_nodes_delete_revision AFTER DELETE ON nodes
	BEGIN UPDATE catalog_revision SET revision = revision + 1 WHERE id = 1; END`,
}
