// Package metastore is the Metadata Store: it persists Repository records
// and per-file content hashes, the basis the Indexer uses to decide whether
// a file is unchanged, changed, or new.
package metastore

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store owns the repositories and file_hashes tables for one database
// handle. Unlike Chunk Store/Call-Graph Store, these two tables are not
// namespaced: a Repository record is addressed by its own id regardless of
// which namespace its chunks/references live under.
type Store struct {
	db *sql.DB
}

// Open creates the repositories/file_hashes tables if absent and returns a
// ready Store.
func Open(db *sql.DB) (*Store, error) {
	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("metadata store: creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer tx.Rollback()

	ddls := []string{
		`CREATE TABLE IF NOT EXISTS repositories (
			id               TEXT PRIMARY KEY,
			name             TEXT NOT NULL,
			path             TEXT NOT NULL UNIQUE,
			created_at       INTEGER NOT NULL,
			updated_at       INTEGER NOT NULL,
			chunk_count      INTEGER NOT NULL DEFAULT 0,
			file_count       INTEGER NOT NULL DEFAULT 0,
			vector_store_tag TEXT NOT NULL DEFAULT '',
			namespace        TEXT NOT NULL DEFAULT 'default'
		)`,
		`CREATE TABLE IF NOT EXISTS repository_language_stats (
			repository_id TEXT NOT NULL,
			language      TEXT NOT NULL,
			file_count    INTEGER NOT NULL,
			PRIMARY KEY (repository_id, language)
		)`,
		`CREATE TABLE IF NOT EXISTS file_hashes (
			repository_id TEXT NOT NULL,
			file_path     TEXT NOT NULL,
			sha256        TEXT NOT NULL,
			PRIMARY KEY (repository_id, file_path)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_file_hashes_repo ON file_hashes (repository_id)`,
	}
	for _, ddl := range ddls {
		if _, err := tx.Exec(ddl); err != nil {
			return fmt.Errorf("executing schema ddl: %w", err)
		}
	}
	return tx.Commit()
}
