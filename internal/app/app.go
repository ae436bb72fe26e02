// Package app wires the shared sqlite handle and every collaborator
// (Metadata Store, Chunk Store, Call-Graph Store, Embedding Service,
// Reranking Service, Query Expander, Indexer, Searcher) together per one
// config.Config, so CLI commands and the MCP server build on the same
// construction path instead of repeating it.
package app

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/codesearch-io/codesearch/internal/config"
	"github.com/codesearch-io/codesearch/internal/embed"
	"github.com/codesearch-io/codesearch/internal/expand"
	"github.com/codesearch-io/codesearch/internal/graphstore"
	"github.com/codesearch-io/codesearch/internal/indexer"
	"github.com/codesearch-io/codesearch/internal/metastore"
	"github.com/codesearch-io/codesearch/internal/rerank"
	"github.com/codesearch-io/codesearch/internal/search"
	"github.com/codesearch-io/codesearch/internal/store"
)

// App owns one process's shared database handle and every collaborator
// built on top of it.
type App struct {
	Config *config.Config

	db       *sql.DB
	Meta     *metastore.Store
	Chunks   *store.Store
	Graph    *graphstore.Store
	Embedder embed.Provider
	Reranker rerank.Reranker
	Expander expand.Expander

	Indexer  *indexer.Indexer
	Searcher *search.Searcher
}

// Open builds an App for cfg. readOnly governs whether the Chunk/Call-Graph
// stores accept writes; the Metadata Store is always writable since the
// Indexer depends on it regardless of search-only use.
func Open(cfg *config.Config, readOnly bool) (*App, error) {
	dsn := ":memory:"
	if !cfg.MemoryStorage {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data dir %s: %w", cfg.DataDir, err)
		}
		dsn = cfg.DBPath()
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1) // single-writer discipline per spec §9

	meta, err := metastore.Open(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("opening metadata store: %w", err)
	}

	chunks, err := store.Open(db, cfg.Namespace, cfg.BleveRoot(), readOnly)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("opening chunk store: %w", err)
	}

	graph, err := graphstore.Open(db, cfg.Namespace, readOnly)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("opening call-graph store: %w", err)
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating embedding provider: %w", err)
	}

	a := &App{
		Config:   cfg,
		db:       db,
		Meta:     meta,
		Chunks:   chunks,
		Graph:    graph,
		Embedder: embedder,
	}

	a.Indexer = &indexer.Indexer{Meta: meta, Chunks: chunks, Graph: graph, Embedder: embedder}

	var expander expand.Expander
	if cfg.ExpandQuery {
		expander = expand.NewLLM(cfg.AnthropicBaseURL, cfg.AnthropicModel, cfg.AnthropicAPIKey)
		a.Expander = expander
	}

	var opts []search.Option
	if expander != nil {
		opts = append(opts, search.WithExpander(expander))
	}
	if !cfg.NoRerank {
		reranker, err := newReranker(cfg)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("creating reranker: %w", err)
		}
		a.Reranker = reranker
		opts = append(opts, search.WithReranker(reranker))
	}
	a.Searcher = search.New(chunks, embedder, opts...)

	return a, nil
}

func newEmbedder(cfg *config.Config) (embed.Provider, error) {
	if cfg.MockEmbeddings {
		return embed.NewMockProvider(), nil
	}
	return embed.NewProvider(embed.Config{Provider: "http", Endpoint: cfg.EmbeddingEndpoint})
}

func newReranker(cfg *config.Config) (rerank.Reranker, error) {
	if cfg.MockEmbeddings {
		return rerank.NewMockReranker(), nil
	}
	return rerank.NewHTTPReranker(cfg.RerankEndpoint)
}

// Close releases every collaborator and the shared database handle.
func (a *App) Close() error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	record(a.Chunks.Close())
	if a.Embedder != nil {
		record(a.Embedder.Close())
	}
	if a.Reranker != nil {
		record(a.Reranker.Close())
	}
	record(a.db.Close())
	return firstErr
}

// DataDirAbs returns the absolute data directory, creating it if absent.
func DataDirAbs(cfg *config.Config) (string, error) {
	abs, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return "", err
	}
	return abs, os.MkdirAll(abs, 0o755)
}
