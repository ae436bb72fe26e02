package store

import (
	"database/sql"
	"fmt"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
)

// createSchema creates the namespace's chunks table and its sqlite-vec vec0
// companion. The chunks table is created inside a transaction; the vec0
// virtual table, like the teacher's own schema bootstrap, is created outside
// any transaction since sqlite-vec does not support DDL inside one.
func createSchema(db *sql.DB, chunksTbl, vecTbl string, dimensions int) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer tx.Rollback()

	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id             TEXT PRIMARY KEY,
			repository_id  TEXT NOT NULL,
			file_path      TEXT NOT NULL,
			content        TEXT NOT NULL,
			start_line     INTEGER NOT NULL,
			end_line       INTEGER NOT NULL,
			language       TEXT NOT NULL,
			node_type      TEXT NOT NULL,
			symbol_name    TEXT NOT NULL DEFAULT '',
			parent_symbol  TEXT NOT NULL DEFAULT ''
		)`, chunksTbl)
	if _, err := tx.Exec(ddl); err != nil {
		return fmt.Errorf("create %s table: %w", chunksTbl, err)
	}

	indexes := []string{
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_repo ON %s (repository_id)", chunksTbl, chunksTbl),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_file ON %s (repository_id, file_path)", chunksTbl, chunksTbl),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_lang ON %s (language)", chunksTbl, chunksTbl),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_node_type ON %s (node_type)", chunksTbl, chunksTbl),
	}
	for _, idx := range indexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("create index on %s: %w", chunksTbl, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}

	vecDDL := fmt.Sprintf(`
		CREATE VIRTUAL TABLE IF NOT EXISTS %s USING vec0(
			chunk_id TEXT PRIMARY KEY,
			embedding float[%d]
		)`, vecTbl, dimensions)
	if _, err := db.Exec(vecDDL); err != nil {
		return fmt.Errorf("create %s vector table: %w", vecTbl, err)
	}

	return nil
}

// serializeEmbedding mirrors sqlite-vec's expected on-disk float32 blob.
func serializeEmbedding(vec [384]float32) ([]byte, error) {
	return sqlite_vec.SerializeFloat32(vec[:])
}
