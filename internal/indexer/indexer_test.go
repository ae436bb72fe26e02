package indexer

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesearch-io/codesearch/internal/embed"
	"github.com/codesearch-io/codesearch/internal/graphstore"
	"github.com/codesearch-io/codesearch/internal/metastore"
	"github.com/codesearch-io/codesearch/internal/store"
)

func newTestIndexer(t *testing.T) *Indexer {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	meta, err := metastore.Open(db)
	require.NoError(t, err)
	chunks, err := store.Open(db, "default", "", false)
	require.NoError(t, err)
	t.Cleanup(func() { chunks.Close() })
	graph, err := graphstore.Open(db, "default", false)
	require.NoError(t, err)
	t.Cleanup(func() { graph.Close() })

	return &Indexer{Meta: meta, Chunks: chunks, Graph: graph, Embedder: embed.NewMockProvider()}
}

func writeRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return dir
}

const goFileA = `package widgets

// widget loader
func LoadWidget() string {
	return "widget"
}
`

const goFileB = `package widgets

func UseWidget() string {
	return LoadWidget()
}
`

func TestRunIndexesNewRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	idx := newTestIndexer(t)
	dir := writeRepo(t, map[string]string{"a.go": goFileA, "b.go": goFileB})

	stats, err := idx.Run(ctx, dir, false)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesNew)
	assert.Zero(t, stats.FilesChanged)
	assert.Zero(t, stats.FilesUnchanged)
	assert.Greater(t, stats.ChunksWritten, 0)

	repo, ok, err := idx.Meta.FindByPath(ctx, mustAbs(t, dir))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, repo.FileCount)
	assert.Equal(t, stats.ChunksWritten, repo.ChunkCount)
}

func TestRunSecondPassSkipsUnchangedFiles(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	idx := newTestIndexer(t)
	dir := writeRepo(t, map[string]string{"a.go": goFileA})

	_, err := idx.Run(ctx, dir, false)
	require.NoError(t, err)

	stats, err := idx.Run(ctx, dir, false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesUnchanged)
	assert.Zero(t, stats.FilesNew)
	assert.Zero(t, stats.FilesChanged)
}

func TestRunReprocessesChangedFile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	idx := newTestIndexer(t)
	dir := writeRepo(t, map[string]string{"a.go": goFileA})

	_, err := idx.Run(ctx, dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte(goFileA+"\nfunc Extra() {}\n"), 0o644))

	stats, err := idx.Run(ctx, dir, false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesChanged)
}

func TestRunReconcilesDeletedFile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	idx := newTestIndexer(t)
	dir := writeRepo(t, map[string]string{"a.go": goFileA, "b.go": goFileB})

	_, err := idx.Run(ctx, dir, false)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "b.go")))

	stats, err := idx.Run(ctx, dir, false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesDeleted)
}

func TestRunRespectsGitignore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	idx := newTestIndexer(t)
	dir := writeRepo(t, map[string]string{
		".gitignore": "vendor/\n",
		"a.go":       goFileA,
		"vendor/b.go": goFileB,
	})

	stats, err := idx.Run(ctx, dir, false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesNew)
}

func TestRunForceClearsAndReusesRepositoryID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	idx := newTestIndexer(t)
	dir := writeRepo(t, map[string]string{"a.go": goFileA})

	first, err := idx.Run(ctx, dir, false)
	require.NoError(t, err)

	second, err := idx.Run(ctx, dir, true)
	require.NoError(t, err)
	assert.Equal(t, first.RepositoryID, second.RepositoryID)
	assert.Equal(t, 1, second.FilesNew, "force reindex reprocesses every file as new")
}

func TestRunNamedOverridesDerivedRepositoryName(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	idx := newTestIndexer(t)
	dir := writeRepo(t, map[string]string{"a.go": goFileA})

	_, err := idx.RunNamed(ctx, dir, false, "widgets-service")
	require.NoError(t, err)

	repo, ok, err := idx.Meta.FindByPath(ctx, mustAbs(t, dir))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "widgets-service", repo.Name)
}

func TestRunNamedIgnoresNameOnExistingRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	idx := newTestIndexer(t)
	dir := writeRepo(t, map[string]string{"a.go": goFileA})

	_, err := idx.Run(ctx, dir, false)
	require.NoError(t, err)

	_, err = idx.RunNamed(ctx, dir, false, "renamed")
	require.NoError(t, err)

	repo, ok, err := idx.Meta.FindByPath(ctx, mustAbs(t, dir))
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, "renamed", repo.Name)
}

func mustAbs(t *testing.T, path string) string {
	t.Helper()
	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	resolved, err := filepath.EvalSymlinks(abs)
	require.NoError(t, err)
	return resolved
}
