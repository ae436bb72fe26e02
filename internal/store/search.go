package store

import (
	"context"

	"github.com/codesearch-io/codesearch/internal/fusion"
	"github.com/codesearch-io/codesearch/internal/model"
)

// bm25CandidateLimit is the fixed BM25 leg size for the hybrid path,
// per spec.md §4.3 ("BM25 (top 10)").
const bm25CandidateLimit = 10

// Search runs one query against this namespace. When q.Hybrid is false it
// is a pure semantic search (min_score applied here). When true it runs
// semantic (top fetchLimit) and BM25 (top 10) independently and fuses them
// with RRF, applying min_score after fusion.
func (s *Store) Search(ctx context.Context, queryVec []float32, queryTerms string, q model.SearchQuery) ([]model.SearchResult, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}
	fetchLimit := q.FetchLimit
	if fetchLimit <= 0 {
		fetchLimit = limit
	}

	if !q.Hybrid {
		return s.SearchSemantic(ctx, queryVec, q, fetchLimit, q.MinScore)
	}

	semantic, err := s.SearchSemantic(ctx, queryVec, q, fetchLimit, nil)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	lexical, err := s.searchTextLocked(ctx, queryTerms, q, bm25CandidateLimit)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	fused := fusion.Fuse([][]model.SearchResult{semantic, lexical}, fetchLimit)
	if q.MinScore != nil {
		filtered := fused[:0]
		for _, r := range fused {
			if r.Score >= *q.MinScore {
				filtered = append(filtered, r)
			}
		}
		fused = filtered
	}
	if len(fused) > fetchLimit {
		fused = fused[:fetchLimit]
	}
	return fused, nil
}

// SearchText is the standalone BM25 entry point used directly by callers
// that only want lexical results (e.g. a future CLI `--text-only` flag),
// independent of the hybrid Search path above.
func (s *Store) SearchText(ctx context.Context, queryTerms string, q model.SearchQuery, limit int) ([]model.SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchTextLocked(ctx, queryTerms, q, limit)
}
