package graphstore

import (
	"database/sql"
	"fmt"
	"regexp"
	"sync"

	"github.com/maypok86/otter"
	_ "github.com/mattn/go-sqlite3"

	"github.com/codesearch-io/codesearch/internal/model"
)

// cacheCapacity bounds the number of distinct (operation, target, filter)
// query results cached per Store instance.
const cacheCapacity = 4096

var namespaceSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_]`)

func sanitizeNamespace(namespace string) string {
	if namespace == "" {
		namespace = "default"
	}
	return namespaceSanitizer.ReplaceAllString(namespace, "_")
}

// Store is one namespace's symbol-reference table plus a read cache in
// front of find_callers/find_callees.
type Store struct {
	db       *sql.DB
	mu       sync.Mutex
	table    string
	readOnly bool
	cache    otter.Cache[string, []model.SymbolReference]
}

// Open creates (if absent) the namespace's symbol_references table and
// returns a ready Store.
func Open(db *sql.DB, namespace string, readOnly bool) (*Store, error) {
	ns := sanitizeNamespace(namespace)
	table := "symbol_references_" + ns

	if !readOnly {
		if err := createSchema(db, table); err != nil {
			return nil, fmt.Errorf("graph store: creating schema for namespace %q: %w", namespace, err)
		}
	}

	cache, err := otter.MustBuilder[string, []model.SymbolReference](cacheCapacity).Build()
	if err != nil {
		return nil, fmt.Errorf("graph store: building read cache: %w", err)
	}

	return &Store{db: db, table: table, readOnly: readOnly, cache: cache}, nil
}

// Close releases the read cache.
func (s *Store) Close() error {
	s.cache.Close()
	return nil
}

// invalidate drops the whole read cache. Every write path calls this:
// a per-key invalidation scheme would need to track which (callee/caller,
// repo) keys a given reference could affect, which is no cheaper than just
// clearing the (small, bounded) cache outright.
func (s *Store) invalidate() {
	s.cache.Clear()
}

func cacheKey(op, target, repoFilter, langFilter, kindFilter string, limit int) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%d", op, target, repoFilter, langFilter, kindFilter, limit)
}
