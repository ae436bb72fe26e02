package rerank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockRerankerScoresByTermOverlap(t *testing.T) {
	t.Parallel()
	r := NewMockReranker()

	scores, err := r.Score(context.Background(), "widget loader", []string{
		"func widgetLoader() {}",
		"func widget() {}",
		"func unrelated() {}",
	})
	require.NoError(t, err)
	require.Len(t, scores, 3)
	assert.Greater(t, scores[0], scores[1])
	assert.Greater(t, scores[1], scores[2])
}

func TestMockRerankerEmptyDocs(t *testing.T) {
	t.Parallel()
	r := NewMockReranker()
	scores, err := r.Score(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Empty(t, scores)
}
