// Package search orchestrates query expansion, embedding, the Chunk
// Store's hybrid search, cross-variant fusion, and optional reranking.
package search

import (
	"context"
	"math"
	"sort"

	"github.com/codesearch-io/codesearch/internal/embed"
	"github.com/codesearch-io/codesearch/internal/expand"
	"github.com/codesearch-io/codesearch/internal/fusion"
	"github.com/codesearch-io/codesearch/internal/model"
	"github.com/codesearch-io/codesearch/internal/rerank"
	"github.com/codesearch-io/codesearch/internal/store"
)

// rerankPreFilterScore drops non-hybrid results below this score before
// reranking, per spec.md §4.5 step 6 ("they rarely survive").
const rerankPreFilterScore = 0.1

// chunkStore is the subset of *store.Store the Searcher depends on.
type chunkStore interface {
	Search(ctx context.Context, queryVec []float32, queryTerms string, q model.SearchQuery) ([]model.SearchResult, error)
}

// Searcher answers SearchQuery requests.
type Searcher struct {
	chunks   chunkStore
	embedder embed.Provider
	expander expand.Expander
	reranker rerank.Reranker
}

// Option configures optional Searcher collaborators.
type Option func(*Searcher)

// WithExpander enables query expansion (spec.md §4.5 step 1). Without one,
// the original query is the only variant searched.
func WithExpander(e expand.Expander) Option {
	return func(s *Searcher) { s.expander = e }
}

// WithReranker enables the cross-encoder rerank pass (spec.md §4.5 step 6).
func WithReranker(r rerank.Reranker) Option {
	return func(s *Searcher) { s.reranker = r }
}

// New builds a Searcher over the given Chunk Store and embedding provider.
func New(chunks *store.Store, embedder embed.Provider, opts ...Option) *Searcher {
	s := &Searcher{chunks: chunks, embedder: embedder}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search runs the full pipeline from spec.md §4.5 for one query.
func (s *Searcher) Search(ctx context.Context, q model.SearchQuery) ([]model.SearchResult, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	variants := []string{q.Text}
	if s.expander != nil {
		variants = s.expander.Expand(ctx, q.Text)
	}

	vectors, err := s.embedder.Embed(ctx, variants, embed.EmbedModeQuery)
	if err != nil {
		return nil, err
	}

	fetchLimit := fetchLimitFor(limit, s.reranker != nil)

	perVariant := make([][]model.SearchResult, 0, len(variants))
	for i, variant := range variants {
		variantQuery := q
		variantQuery.Text = variant
		variantQuery.Limit = limit
		variantQuery.FetchLimit = fetchLimit

		results, err := s.chunks.Search(ctx, vectors[i], variant, variantQuery)
		if err != nil {
			return nil, err
		}
		perVariant = append(perVariant, results)
	}

	fused := perVariant[0]
	if len(perVariant) > 1 {
		fused = fusion.Fuse(perVariant, fetchLimit)
	}

	if s.reranker == nil {
		if len(fused) > limit {
			fused = fused[:limit]
		}
		return fused, nil
	}

	candidates := fused
	if !q.Hybrid {
		filtered := candidates[:0]
		for _, r := range candidates {
			if r.Score >= rerankPreFilterScore {
				filtered = append(filtered, r)
			}
		}
		candidates = filtered
	}
	if len(candidates) == 0 {
		return candidates, nil
	}

	docs := make([]string, len(candidates))
	for i, r := range candidates {
		docs[i] = r.Chunk.Content
	}
	scores, err := s.reranker.Score(ctx, q.Text, docs)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		if i < len(scores) {
			candidates[i].Score = scores[i]
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// fetchLimitFor implements spec.md §4.5 step 3.
func fetchLimitFor(limit int, reranking bool) int {
	if !reranking {
		return limit
	}
	base := limit
	if base < 20 {
		base = 20
	}
	return base + int(math.Ceil(float64(base)/math.Log(float64(base))))
}
