// Package store is the Chunk Store: it persists (CodeChunk, Embedding) pairs
// in sqlite (chunk metadata plus a sqlite-vec vec0 table for the vectors) and
// keeps a bleve BM25 text index alongside for lexical search, fusing the two
// with package fusion when a query asks for hybrid search.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/blevesearch/bleve/v2"
	_ "github.com/mattn/go-sqlite3"
)

var initVectorExtensionOnce sync.Once

// initVectorExtension registers the sqlite-vec extension with the driver.
// Must happen exactly once per process, before any *Store is opened.
func initVectorExtension() {
	initVectorExtensionOnce.Do(sqlite_vec.Auto)
}

const embeddingDimensions = 384

var namespaceSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// sanitizeNamespace turns an arbitrary namespace string into a safe SQL
// identifier suffix and bleve directory component.
func sanitizeNamespace(namespace string) string {
	if namespace == "" {
		namespace = "default"
	}
	return namespaceSanitizer.ReplaceAllString(namespace, "_")
}

// Store is one namespace's chunk+vector+text index, backed by a shared
// sqlite connection. The caller owns the *sql.DB lifetime and may share one
// handle across a Store, a graphstore.Store and a metastore.Store per
// spec's single-writer discipline; Store only ever takes its own mu.
type Store struct {
	db         *sql.DB
	mu         sync.Mutex
	namespace  string
	ns         string // sanitized
	chunksTbl  string
	vecTbl     string
	readOnly   bool
	bleveDir   string // empty means in-memory bleve index
	bleve      bleve.Index
	dirty      bool
	degradedLogged bool
}

// Open creates (if absent) the namespace's sqlite tables and bleve index
// directory, and returns a ready Store. bleveRoot is the parent directory
// under which "<namespace>/bleve" is created; pass "" for an in-memory
// index (used by tests and --mock-embeddings dry runs).
func Open(db *sql.DB, namespace string, bleveRoot string, readOnly bool) (*Store, error) {
	initVectorExtension()

	ns := sanitizeNamespace(namespace)
	s := &Store{
		db:        db,
		namespace: namespace,
		ns:        ns,
		chunksTbl: "chunks_" + ns,
		vecTbl:    "chunks_vec_" + ns,
		readOnly:  readOnly,
	}
	if bleveRoot != "" {
		s.bleveDir = filepath.Join(bleveRoot, ns, "bleve")
	}

	if !readOnly {
		if err := createSchema(db, s.chunksTbl, s.vecTbl, embeddingDimensions); err != nil {
			return nil, fmt.Errorf("chunk store: creating schema for namespace %q: %w", namespace, err)
		}
	}

	idx, err := openBleveIndex(s.bleveDir, readOnly)
	if err != nil {
		return nil, fmt.Errorf("chunk store: opening bm25 index for namespace %q: %w", namespace, err)
	}
	s.bleve = idx
	if idx == nil {
		s.degradeOnce("bm25 index absent at startup")
	}

	return s, nil
}

// Close releases the bleve index handle. The sqlite *sql.DB is owned by the
// caller and is not closed here.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bleve == nil {
		return nil
	}
	err := s.bleve.Close()
	s.bleve = nil
	return err
}

// degradeOnce logs the read-only/absent-index degradation exactly once per
// Store instance.
func (s *Store) degradeOnce(reason string) {
	if s.degradedLogged {
		return
	}
	s.degradedLogged = true
	slog.Warn("chunk_store_degraded_to_semantic_only", slog.String("namespace", s.namespace), slog.String("reason", reason))
}

func openBleveIndex(dir string, readOnly bool) (bleve.Index, error) {
	if dir == "" {
		if readOnly {
			return nil, nil
		}
		return bleve.NewMemOnly(newChunkIndexMapping())
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if readOnly {
			return nil, nil
		}
		if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
			return nil, fmt.Errorf("creating bm25 directory: %w", err)
		}
		return bleve.New(dir, newChunkIndexMapping())
	}

	idx, err := bleve.Open(dir)
	if err != nil {
		if readOnly {
			return nil, nil
		}
		// Corrupted or partial index: clear and rebuild, mirroring the
		// recover-by-recreate pattern used for bleve elsewhere in the pack.
		if removeErr := os.RemoveAll(dir); removeErr != nil {
			return nil, fmt.Errorf("bm25 index at %s unreadable (%v) and could not be removed: %w", dir, err, removeErr)
		}
		return bleve.New(dir, newChunkIndexMapping())
	}
	return idx, nil
}
