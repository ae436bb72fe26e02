// Package fusion combines multiple ranked SearchResult lists into one by
// Reciprocal Rank Fusion, applying the test-file score penalty and the
// post-fusion minimum-score cutoff.
package fusion

import (
	"sort"

	"github.com/codesearch-io/codesearch/internal/model"
)

// K is the RRF smoothing constant.
const K = 60

// TestFilePenalty discounts results whose file looks like a test file.
const TestFilePenalty = 0.5

// MinScore drops fused results below this score, calibrated so a
// single-appearance hit ranked below roughly 15 is eliminated.
const MinScore = 0.013

type accum struct {
	result model.SearchResult
	score  float64
}

// Fuse runs Reciprocal Rank Fusion over lists (each already ranked,
// rank 1 = best) and returns the fused results sorted descending by score,
// truncated to limit. The first SearchResult instance seen for a chunk id is
// preserved; later occurrences only contribute to its score.
func Fuse(lists [][]model.SearchResult, limit int) []model.SearchResult {
	scores := make(map[string]*accum)
	order := make([]string, 0)

	for _, list := range lists {
		for rank, r := range list {
			contribution := 1.0 / float64(K+rank+1)
			id := r.Chunk.ID
			if existing, ok := scores[id]; ok {
				existing.score += contribution
				continue
			}
			scores[id] = &accum{result: r, score: contribution}
			order = append(order, id)
		}
	}

	fused := make([]model.SearchResult, 0, len(order))
	for _, id := range order {
		a := scores[id]
		if isTestFile(a.result.Chunk.FilePath) {
			a.score *= TestFilePenalty
		}
		if a.score < MinScore {
			continue
		}
		r := a.result
		r.Score = float32(a.score)
		fused = append(fused, r)
	}

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Score > fused[j].Score
	})

	if limit > 0 && len(fused) > limit {
		fused = fused[:limit]
	}
	return fused
}
