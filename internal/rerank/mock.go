package rerank

import (
	"context"
	"strings"
)

// MockReranker scores documents by counting literal query-term overlap,
// deterministic and good enough to exercise reranking without a model.
type MockReranker struct{}

// NewMockReranker returns a reranker with no external dependencies.
func NewMockReranker() *MockReranker { return &MockReranker{} }

func (r *MockReranker) Score(ctx context.Context, query string, docs []string) ([]float32, error) {
	terms := strings.Fields(strings.ToLower(query))
	scores := make([]float32, len(docs))
	for i, doc := range docs {
		lower := strings.ToLower(doc)
		var hits int
		for _, term := range terms {
			hits += strings.Count(lower, term)
		}
		scores[i] = float32(hits)
	}
	return scores, nil
}

func (r *MockReranker) Close() error { return nil }
