// Package rerank is the Reranking Service collaborator: an optional
// cross-encoder pass that re-scores hybrid search hits against the raw
// query text before they are returned to the caller.
package rerank

import "context"

// Reranker scores a query against a set of candidate documents. Score i
// corresponds to docs[i]; higher is more relevant.
type Reranker interface {
	Score(ctx context.Context, query string, docs []string) ([]float32, error)
	Close() error
}
