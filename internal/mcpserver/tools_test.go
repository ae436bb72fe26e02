package mcpserver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codesearch-io/codesearch/internal/impact"
)

func TestClampSearchLimitDefaultsWhenUnset(t *testing.T) {
	assert.Equal(t, defaultSearchLimit, clampSearchLimit(0))
	assert.Equal(t, defaultSearchLimit, clampSearchLimit(-5))
}

func TestClampSearchLimitCapsAtMax(t *testing.T) {
	assert.Equal(t, maxSearchLimit, clampSearchLimit(1000))
	assert.Equal(t, maxSearchLimit, clampSearchLimit(maxSearchLimit))
}

func TestClampSearchLimitPassesThroughValid(t *testing.T) {
	assert.Equal(t, 25, clampSearchLimit(25))
}

func TestClampImpactDepthDefaultsWhenUnset(t *testing.T) {
	assert.Equal(t, impact.DefaultMaxDepth, clampImpactDepth(0))
	assert.Equal(t, impact.DefaultMaxDepth, clampImpactDepth(-1))
}

func TestClampImpactDepthCapsAtServerMax(t *testing.T) {
	assert.Equal(t, impact.ServerMaxDepth, clampImpactDepth(1000))
}

func TestClampImpactDepthPassesThroughValid(t *testing.T) {
	assert.Equal(t, 3, clampImpactDepth(3))
}
