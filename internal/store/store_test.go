package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesearch-io/codesearch/internal/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func openTestStore(t *testing.T, db *sql.DB, namespace string) *Store {
	t.Helper()
	s, err := Open(db, namespace, "", false)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func unitVector(axis int) [384]float32 {
	var v [384]float32
	v[axis] = 1
	return v
}

func chunk(id, filePath, content, symbol string) model.CodeChunk {
	return model.CodeChunk{
		ID:           id,
		RepositoryID: "repo-1",
		FilePath:     filePath,
		Content:      content,
		StartLine:    1,
		EndLine:      3,
		Language:     "go",
		NodeType:     model.NodeFunction,
		SymbolName:   symbol,
	}
}

func TestSaveBatchAndSearchSemanticRanksByCosine(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t, openTestDB(t), "ns")

	chunks := []model.CodeChunk{
		chunk("near", "near.go", "// widget config loader\nfunc widgetHandler() { return 1 }", "widgetHandler"),
		chunk("far", "far.go", "// totally unrelated helper\nfunc unrelatedThing() { return 42 }", "unrelatedThing"),
	}
	embeddings := []model.Embedding{
		{ChunkID: "near", Vector: unitVector(0), Model: "mock"},
		{ChunkID: "far", Vector: unitVector(1), Model: "mock"},
	}
	require.NoError(t, s.SaveBatch(ctx, chunks, embeddings))

	query := unitVector(0)
	results, err := s.SearchSemantic(ctx, query[:], model.SearchQuery{}, 10, nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "near", results[0].Chunk.ID, "the chunk whose embedding matches the query exactly should rank first")
}

func TestSearchSemanticAppliesMinScoreInNonHybridMode(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t, openTestDB(t), "ns")

	require.NoError(t, s.SaveBatch(ctx,
		[]model.CodeChunk{chunk("orthogonal", "f.go", "func totallyUnrelated() { return 1 }", "totallyUnrelated")},
		[]model.Embedding{{ChunkID: "orthogonal", Vector: unitVector(5), Model: "mock"}},
	))

	query := unitVector(0)
	min := float32(0.5)
	results, err := s.SearchSemantic(ctx, query[:], model.SearchQuery{}, 10, &min)
	require.NoError(t, err)
	assert.Empty(t, results, "an orthogonal embedding scores ~0 and should be dropped by a 0.5 min_score cutoff")
}

func TestSearchTextMatchesContentAndSymbolName(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t, openTestDB(t), "ns")

	require.NoError(t, s.SaveBatch(ctx,
		[]model.CodeChunk{
			chunk("widget-chunk", "widget.go", "// widget loader\nfunc construct() string { return \"x\" }", "widgetLoader"),
			chunk("other-chunk", "other.go", "// totally unrelated\nfunc doOtherStuff() int { return 1 }", "doOtherStuff"),
		},
		[]model.Embedding{
			{ChunkID: "widget-chunk", Vector: unitVector(0), Model: "mock"},
			{ChunkID: "other-chunk", Vector: unitVector(1), Model: "mock"},
		},
	))

	results, err := s.SearchText(ctx, "widget", model.SearchQuery{}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "widget-chunk", results[0].Chunk.ID)
}

func TestHybridSearchFusesSemanticAndLexical(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t, openTestDB(t), "ns")

	require.NoError(t, s.SaveBatch(ctx,
		[]model.CodeChunk{
			chunk("a", "a.go", "// widget config resolver\nfunc resolve() { return nil }", "resolveWidgetConfig"),
			chunk("b", "b.go", "// totally unrelated helper\nfunc helper() { return nil }", "unrelatedHelper"),
		},
		[]model.Embedding{
			{ChunkID: "a", Vector: unitVector(0), Model: "mock"},
			{ChunkID: "b", Vector: unitVector(1), Model: "mock"},
		},
	))

	query := unitVector(0)
	results, err := s.Search(ctx, query[:], "widget", model.SearchQuery{Hybrid: true, Limit: 10, FetchLimit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "a", results[0].Chunk.ID, "a chunk ranking first on both semantic and lexical legs should win the fused ranking")
}

func TestDeleteByFilePathRemovesChunkFromBothIndexes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t, openTestDB(t), "ns")

	require.NoError(t, s.SaveBatch(ctx,
		[]model.CodeChunk{chunk("gone", "gone.go", "// widget that vanishes\nfunc vanishing() { return nil }", "vanishingWidget")},
		[]model.Embedding{{ChunkID: "gone", Vector: unitVector(0), Model: "mock"}},
	))

	require.NoError(t, s.DeleteByFilePath(ctx, "repo-1", "gone.go"))

	query := unitVector(0)
	semanticResults, err := s.SearchSemantic(ctx, query[:], model.SearchQuery{}, 10, nil)
	require.NoError(t, err)
	assert.Empty(t, semanticResults)

	textResults, err := s.SearchText(ctx, "widget", model.SearchQuery{}, 10)
	require.NoError(t, err)
	assert.Empty(t, textResults)
}

func TestNamespacesAreIsolated(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	sA := openTestStore(t, db, "tenant-a")
	sB := openTestStore(t, db, "tenant-b")

	require.NoError(t, sA.SaveBatch(context.Background(),
		[]model.CodeChunk{chunk("only-in-a", "a.go", "func onlyInNamespaceA() { return nil }", "onlyInNamespaceA")},
		[]model.Embedding{{ChunkID: "only-in-a", Vector: unitVector(0), Model: "mock"}},
	))

	query := unitVector(0)
	resultsB, err := sB.SearchSemantic(context.Background(), query[:], model.SearchQuery{}, 10, nil)
	require.NoError(t, err)
	assert.Empty(t, resultsB, "a chunk saved under one namespace must not be visible from another namespace's store")
}

func TestReadOnlyStoreRejectsWrites(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	// Bootstrap schema with a writable store first; sqlite has no
	// CREATE TABLE IF NOT EXISTS restriction for a read-only handle to
	// discover, but this store must still refuse writes on its own.
	openTestStore(t, db, "ro-ns")

	ro, err := Open(db, "ro-ns", "", true)
	require.NoError(t, err)
	defer ro.Close()

	err = ro.SaveBatch(context.Background(),
		[]model.CodeChunk{chunk("x", "x.go", "func blockedWrite() { return nil }", "blockedWrite")},
		[]model.Embedding{{ChunkID: "x", Vector: unitVector(0), Model: "mock"}},
	)
	assert.Error(t, err)
}
