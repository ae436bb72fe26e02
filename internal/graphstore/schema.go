// Package graphstore is the Call-Graph Store: it persists SymbolReferences
// in one sqlite table with the secondary indices the find_callers/
// find_callees/find_by_file lookups need, and keeps a read cache in front of
// the hot caller/callee queries.
package graphstore

import (
	"database/sql"
	"fmt"
)

// createSchema creates the namespace's symbol_references table plus the six
// secondary indices spec.md §4.6 names, following the teacher's pattern of
// one transaction for table DDL followed by separate index statements.
func createSchema(db *sql.DB, table string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer tx.Rollback()

	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id               TEXT PRIMARY KEY,
			repository_id    TEXT NOT NULL,
			caller_symbol    TEXT NOT NULL DEFAULT '',
			callee_symbol    TEXT NOT NULL,
			caller_file      TEXT NOT NULL DEFAULT '',
			reference_file   TEXT NOT NULL,
			line             INTEGER NOT NULL,
			ref_column       INTEGER NOT NULL,
			reference_kind   TEXT NOT NULL,
			language         TEXT NOT NULL,
			caller_node_type TEXT NOT NULL DEFAULT '',
			enclosing_scope  TEXT NOT NULL DEFAULT '',
			import_alias     TEXT NOT NULL DEFAULT ''
		)`, table)
	if _, err := tx.Exec(ddl); err != nil {
		return fmt.Errorf("create %s table: %w", table, err)
	}

	indexes := []string{
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_callee_repo ON %s (callee_symbol, repository_id)", table, table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_caller_repo ON %s (caller_symbol, repository_id)", table, table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_reffile_repo ON %s (reference_file, repository_id)", table, table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_repo ON %s (repository_id)", table, table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_callee ON %s (callee_symbol)", table, table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_lang_repo ON %s (language, repository_id)", table, table),
	}
	for _, idx := range indexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("create index on %s: %w", table, err)
		}
	}

	return tx.Commit()
}
