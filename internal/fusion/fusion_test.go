package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesearch-io/codesearch/internal/model"
)

func chunkResult(id, path string) model.SearchResult {
	return model.SearchResult{Chunk: model.CodeChunk{ID: id, FilePath: path}}
}

func TestFuseSumsReciprocalRanks(t *testing.T) {
	t.Parallel()

	semantic := []model.SearchResult{chunkResult("a", "a.go"), chunkResult("b", "b.go")}
	lexical := []model.SearchResult{chunkResult("b", "b.go"), chunkResult("a", "a.go")}

	fused := Fuse([][]model.SearchResult{semantic, lexical}, 10)
	require.Len(t, fused, 2)

	want := float32(1.0/61.0 + 1.0/62.0)
	for _, r := range fused {
		assert.InDelta(t, want, r.Score, 1e-6, "both chunks appear once at rank 1 and once at rank 2 across the two lists")
	}
}

func TestFuseAppliesTestFilePenalty(t *testing.T) {
	t.Parallel()

	list := []model.SearchResult{chunkResult("a", "src/widget.go")}
	testList := []model.SearchResult{chunkResult("b", "src/widget_test.go")}

	fused := Fuse([][]model.SearchResult{list, testList, list, testList}, 10)
	require.Len(t, fused, 2)

	scores := map[string]float32{}
	for _, r := range fused {
		scores[r.Chunk.ID] = r.Score
	}
	assert.Less(t, scores["b"], scores["a"], "test-file hit should be discounted relative to an equally-ranked non-test hit")
}

func TestFuseDropsBelowMinScore(t *testing.T) {
	t.Parallel()

	// A chunk appearing only once, ranked low, falls under MinScore (0.013)
	// once K=60 is added: 1/(60+20) = 0.0125.
	list := make([]model.SearchResult, 20)
	for i := range list {
		list[i] = chunkResult(string(rune('a'+i)), "filler.go")
	}
	list[19] = chunkResult("tail", "tail.go")

	fused := Fuse([][]model.SearchResult{list}, 50)
	for _, r := range fused {
		assert.NotEqual(t, "tail", r.Chunk.ID, "low single-appearance rank should be dropped by the min-score cutoff")
	}
}

func TestFusePreservesFirstInstance(t *testing.T) {
	t.Parallel()

	first := chunkResult("a", "a.go")
	first.Highlights = []string{"first"}
	second := chunkResult("a", "a.go")
	second.Highlights = []string{"second"}

	fused := Fuse([][]model.SearchResult{{first}, {second}}, 10)
	require.Len(t, fused, 1)
	assert.Equal(t, []string{"first"}, fused[0].Highlights)
}

func TestFuseRespectsLimit(t *testing.T) {
	t.Parallel()

	list := []model.SearchResult{chunkResult("a", "a.go"), chunkResult("b", "b.go"), chunkResult("c", "c.go")}
	fused := Fuse([][]model.SearchResult{list}, 2)
	assert.Len(t, fused, 2)
}

func TestIsTestFile(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"src/widget.go":              false,
		"test.go":                    false,
		"internal/test/widget.go":    true,
		"internal/tests/widget.go":   true,
		"pkg/__tests__/widget.js":    true,
		"foo.test.ts":                true,
		"foo.spec.ts":                true,
		"test_widget.py":             true,
		"widget_test.go":             true,
		"testdata/fixture.go":        true,
		"Testdata/Fixture.GO":        true,
	}
	for path, want := range cases {
		assert.Equal(t, want, isTestFile(path), "isTestFile(%q)", path)
	}
}
