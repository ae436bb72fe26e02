package metastore

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesearch-io/codesearch/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s, err := Open(db)
	require.NoError(t, err)
	return s
}

func TestCreateAndFindByPath(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	created, err := s.Create(ctx, "my-repo", "/abs/path/my-repo", "default", 1000)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	found, ok, err := s.FindByPath(ctx, "/abs/path/my-repo")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "my-repo", found.Name)
}

func TestFindByPathMissingReturnsNotFound(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	_, ok, err := s.FindByPath(context.Background(), "/does/not/exist")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFindByIDMissingReturnsNotFound(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	_, ok, err := s.FindByID(context.Background(), "no-such-id")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListRepositoriesOrdersByName(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Create(ctx, "zeta", "/abs/zeta", "default", 1000)
	require.NoError(t, err)
	_, err = s.Create(ctx, "alpha", "/abs/alpha", "default", 1001)
	require.NoError(t, err)

	repos, err := s.ListRepositories(ctx)
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "alpha", repos[0].Name)
	assert.Equal(t, "zeta", repos[1].Name)
}

func TestUpdateStatsReplacesLanguageHistogram(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	repo, err := s.Create(ctx, "r", "/r", "default", 1)
	require.NoError(t, err)

	require.NoError(t, s.UpdateStats(ctx, repo.ID, 10, 3, 2000, map[string]int{"go": 2, "python": 1}))

	updated, ok, err := s.FindByPath(ctx, "/r")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 10, updated.ChunkCount)
	assert.Equal(t, 3, updated.FileCount)
	assert.Equal(t, int64(2000), updated.UpdatedAt)
	assert.Equal(t, map[string]int{"go": 2, "python": 1}, updated.LanguageStats)

	require.NoError(t, s.UpdateStats(ctx, repo.ID, 5, 1, 3000, map[string]int{"rust": 1}))
	reupdated, _, err := s.FindByPath(ctx, "/r")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"rust": 1}, reupdated.LanguageStats, "UpdateStats must replace, not merge, the language histogram")
}

func TestFileHashRoundTripAndDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	_, ok, err := s.FindHash(ctx, "repo-1", "a.go")
	require.NoError(t, err)
	assert.False(t, ok, "an unindexed file has no recorded hash")

	require.NoError(t, s.UpsertHash(ctx, model.FileHash{RepositoryID: "repo-1", FilePath: "a.go", SHA256: "abc123"}))
	hash, ok, err := s.FindHash(ctx, "repo-1", "a.go")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc123", hash)

	require.NoError(t, s.UpsertHash(ctx, model.FileHash{RepositoryID: "repo-1", FilePath: "a.go", SHA256: "def456"}))
	hash, _, err = s.FindHash(ctx, "repo-1", "a.go")
	require.NoError(t, err)
	assert.Equal(t, "def456", hash, "a changed file's hash must replace the prior record")

	require.NoError(t, s.DeleteHash(ctx, "repo-1", "a.go"))
	_, ok, err = s.FindHash(ctx, "repo-1", "a.go")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAllPathsListsEveryRecordedFile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.UpsertHash(ctx, model.FileHash{RepositoryID: "repo-1", FilePath: "a.go", SHA256: "h1"}))
	require.NoError(t, s.UpsertHash(ctx, model.FileHash{RepositoryID: "repo-1", FilePath: "b.go", SHA256: "h2"}))
	require.NoError(t, s.UpsertHash(ctx, model.FileHash{RepositoryID: "repo-2", FilePath: "c.go", SHA256: "h3"}))

	paths, err := s.AllPaths(ctx, "repo-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.go", "b.go"}, paths)
}

func TestDeleteRepositoryCascadesToHashesAndStats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	repo, err := s.Create(ctx, "r", "/r", "default", 1)
	require.NoError(t, err)
	require.NoError(t, s.UpdateStats(ctx, repo.ID, 1, 1, 2, map[string]int{"go": 1}))
	require.NoError(t, s.UpsertHash(ctx, model.FileHash{RepositoryID: repo.ID, FilePath: "a.go", SHA256: "h"}))

	require.NoError(t, s.DeleteRepository(ctx, repo.ID))

	_, ok, err := s.FindByPath(ctx, "/r")
	require.NoError(t, err)
	assert.False(t, ok)

	paths, err := s.AllPaths(ctx, repo.ID)
	require.NoError(t, err)
	assert.Empty(t, paths)
}
