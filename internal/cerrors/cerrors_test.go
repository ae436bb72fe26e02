package cerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapNilCauseReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(Storage, "boom", nil))
}

func TestIsMatchesByKindNotMessage(t *testing.T) {
	err := Wrap(NotFound, "repository 123", errors.New("db miss"))
	assert.True(t, Is(err, NotFound))
	assert.False(t, Is(err, Storage))
}

func TestErrorsIsWorksAcrossWrapping(t *testing.T) {
	inner := New(Parse, "bad syntax")
	outer := fmt.Errorf("indexing file.go: %w", inner)
	require.True(t, errors.Is(outer, inner))
}

func TestOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, Internal, Of(errors.New("plain")))
}
