package expand

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"
)

const expanderSystemPrompt = `You rewrite code search queries. Given a query, return a JSON array of ` +
	`exactly 2 terse alternative phrasings that would help find the relevant code. ` +
	`Return only the JSON array, nothing else.`

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string              `json:"model"`
	MaxTokens int                 `json:"max_tokens"`
	System    string              `json:"system"`
	Messages  []anthropicMessage  `json:"messages"`
}

type anthropicContentBlock struct {
	Text string `json:"text"`
}

type anthropicResponse struct {
	Content []anthropicContentBlock `json:"content"`
}

// LLM calls a local Anthropic-wire-protocol endpoint to propose two
// alternative phrasings. A single failed reachability probe poisons
// subsequent calls with fast-fail; expansion itself never fails the
// caller — any error just yields the original query alone.
type LLM struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client

	probeOnce sync.Once
	reachable bool
}

// NewLLM builds an LLM expander targeting baseURL (e.g.
// ANTHROPIC_BASE_URL), using model (ANTHROPIC_MODEL) and apiKey
// (ANTHROPIC_API_KEY, may be empty for local endpoints).
func NewLLM(baseURL, model, apiKey string) *LLM {
	return &LLM{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (e *LLM) Expand(ctx context.Context, query string) []string {
	original := []string{query}
	if !e.probeReachable(ctx) {
		return original
	}

	body, err := json.Marshal(anthropicRequest{
		Model:     e.model,
		MaxTokens: 256,
		System:    expanderSystemPrompt,
		Messages:  []anthropicMessage{{Role: "user", Content: query}},
	})
	if err != nil {
		return original
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return original
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", e.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := e.client.Do(req)
	if err != nil {
		return original
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return original
	}

	var out anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || len(out.Content) == 0 {
		return original
	}

	alternatives := parseJSONArray(out.Content[0].Text)
	if len(alternatives) == 0 {
		return original
	}
	if len(alternatives) > 2 {
		alternatives = alternatives[:2]
	}
	return append(original, alternatives...)
}

// probeReachable runs a one-shot HEAD probe with a 2-second timeout, cached
// for the lifetime of this expander.
func (e *LLM) probeReachable(ctx context.Context) bool {
	e.probeOnce.Do(func() {
		probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, e.baseURL+"/", nil)
		if err != nil {
			return
		}
		resp, err := e.client.Do(req)
		if err != nil {
			return
		}
		resp.Body.Close()
		e.reachable = true
	})
	return e.reachable
}

// parseJSONArray locates the first '[' and last ']' in text and attempts a
// JSON array decode, returning nil on any failure.
func parseJSONArray(text string) []string {
	start := strings.IndexByte(text, '[')
	end := strings.LastIndexByte(text, ']')
	if start < 0 || end < start {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return nil
	}
	return out
}
