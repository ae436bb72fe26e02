package mcpserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockArgumentGetter struct {
	args map[string]interface{}
}

func (m *mockArgumentGetter) GetArguments() map[string]interface{} {
	return m.args
}

type testBindTarget struct {
	Query      string   `json:"query"`
	Limit      int      `json:"limit,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	ChunkTypes []string `json:"chunk_types,omitempty"`
}

func TestBindArgumentsJSONStringArrays(t *testing.T) {
	request := &mockArgumentGetter{args: map[string]interface{}{
		"query":       "test query",
		"chunk_types": `["symbols", "definitions"]`,
		"tags":        `["go", "test"]`,
		"limit":       "10",
	}}

	var result testBindTarget
	require.NoError(t, bindArguments(request, &result))

	assert.Equal(t, "test query", result.Query)
	assert.Equal(t, 10, result.Limit)
	assert.Equal(t, []string{"symbols", "definitions"}, result.ChunkTypes)
	assert.Equal(t, []string{"go", "test"}, result.Tags)
}

func TestBindArgumentsAlreadyProperTypes(t *testing.T) {
	request := &mockArgumentGetter{args: map[string]interface{}{
		"query":       "test query",
		"chunk_types": []string{"symbols"},
		"limit":       10,
	}}

	var result testBindTarget
	require.NoError(t, bindArguments(request, &result))

	assert.Equal(t, 10, result.Limit)
	assert.Equal(t, []string{"symbols"}, result.ChunkTypes)
}

func TestBindArgumentsNullAndEmptyStrings(t *testing.T) {
	request := &mockArgumentGetter{args: map[string]interface{}{
		"query":       "test query",
		"chunk_types": "",
		"tags":        nil,
		"limit":       nil,
	}}

	var result testBindTarget
	require.NoError(t, bindArguments(request, &result))

	assert.Equal(t, "test query", result.Query)
	assert.Equal(t, 0, result.Limit)
	assert.Empty(t, result.ChunkTypes)
	assert.Empty(t, result.Tags)
}

func TestBindArgumentsBooleans(t *testing.T) {
	type boolTarget struct {
		Enabled  bool `json:"enabled"`
		Disabled bool `json:"disabled"`
	}
	request := &mockArgumentGetter{args: map[string]interface{}{
		"enabled":  "true",
		"disabled": "false",
	}}

	var result boolTarget
	require.NoError(t, bindArguments(request, &result))

	assert.True(t, result.Enabled)
	assert.False(t, result.Disabled)
}

func TestBindArgumentsNumbers(t *testing.T) {
	type numberTarget struct {
		Count int     `json:"count"`
		Price float64 `json:"price"`
	}
	request := &mockArgumentGetter{args: map[string]interface{}{
		"count": "42",
		"price": "19.99",
	}}

	var result numberTarget
	require.NoError(t, bindArguments(request, &result))

	assert.Equal(t, 42, result.Count)
	assert.Equal(t, 19.99, result.Price)
}

func TestBindArgumentsCommaSeparatedFallback(t *testing.T) {
	request := &mockArgumentGetter{args: map[string]interface{}{
		"query": "test",
		"tags":  "go,test,example",
	}}

	var result testBindTarget
	require.NoError(t, bindArguments(request, &result))

	assert.Equal(t, []string{"go", "test", "example"}, result.Tags)
}

func TestBindArgumentsInvalidJSONPassedThrough(t *testing.T) {
	request := &mockArgumentGetter{args: map[string]interface{}{
		"query":       "test",
		"chunk_types": "[invalid json",
	}}

	var result testBindTarget
	require.NoError(t, bindArguments(request, &result))

	assert.Equal(t, []string{"[invalid json"}, result.ChunkTypes)
}

func TestBindArgumentsRequiredSearchCodeShape(t *testing.T) {
	request := &mockArgumentGetter{args: map[string]interface{}{
		"query":        "find auth handler",
		"limit":        "25",
		"languages":    `["go", "rust"]`,
		"repositories": []string{"repo-1"},
		"hybrid":       "true",
	}}

	var result searchCodeArgs
	require.NoError(t, bindArguments(request, &result))

	assert.Equal(t, "find auth handler", result.Query)
	assert.Equal(t, 25, result.Limit)
	assert.Equal(t, []string{"go", "rust"}, result.Languages)
	assert.Equal(t, []string{"repo-1"}, result.Repositories)
	assert.True(t, result.Hybrid)
}
