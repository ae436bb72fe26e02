package expand

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAnthropicStub(t *testing.T, text string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp := anthropicResponse{Content: []anthropicContentBlock{{Text: text}}}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLLMExpandParsesJSONArrayFromResponse(t *testing.T) {
	t.Parallel()
	srv := newAnthropicStub(t, `here you go: ["parse json config", "json_config_loader"]`)
	e := NewLLM(srv.URL, "test-model", "")

	variants := e.Expand(context.Background(), "parse json config")
	require.Len(t, variants, 3)
	assert.Equal(t, "parse json config", variants[0])
	assert.Equal(t, "parse json config", variants[1])
	assert.Equal(t, "json_config_loader", variants[2])
}

func TestLLMExpandFallsBackOnMalformedResponse(t *testing.T) {
	t.Parallel()
	srv := newAnthropicStub(t, "not a json array at all")
	e := NewLLM(srv.URL, "test-model", "")

	variants := e.Expand(context.Background(), "find the thing")
	assert.Equal(t, []string{"find the thing"}, variants)
}

func TestLLMExpandFastFailsWhenUnreachable(t *testing.T) {
	t.Parallel()
	e := NewLLM("http://127.0.0.1:1", "test-model", "")

	variants := e.Expand(context.Background(), "anything")
	assert.Equal(t, []string{"anything"}, variants)
}

func TestLLMExpandTruncatesToTwoAlternatives(t *testing.T) {
	t.Parallel()
	srv := newAnthropicStub(t, `["one", "two", "three"]`)
	e := NewLLM(srv.URL, "test-model", "")

	variants := e.Expand(context.Background(), "q")
	assert.Len(t, variants, 3)
}
