package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// httpProvider calls a locally running embedding HTTP endpoint. It does not
// spawn or manage that process; the endpoint is expected to already be up
// (e.g. a sidecar started independently of this binary).
type httpProvider struct {
	endpoint   string
	dimensions int
	client     *http.Client
}

// newHTTPProvider creates a provider that POSTs to endpoint+"/embed".
func newHTTPProvider(endpoint string) (*httpProvider, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("embedding provider: endpoint must not be empty")
	}
	return &httpProvider{
		endpoint:   endpoint,
		dimensions: embeddingDimensions,
		client:     &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type embedRequest struct {
	Texts []string `json:"texts"`
	Mode  string   `json:"mode"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed posts texts to the remote endpoint and returns one vector per text.
func (p *httpProvider) Embed(ctx context.Context, texts []string, mode EmbedMode) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	body, err := json.Marshal(embedRequest{Texts: texts, Mode: string(mode)})
	if err != nil {
		return nil, fmt.Errorf("marshaling embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding server returned status %d", resp.StatusCode)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding embed response: %w", err)
	}
	if len(out.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding server returned %d vectors for %d texts", len(out.Embeddings), len(texts))
	}
	return out.Embeddings, nil
}

// Dimensions returns the embedding vector length this service produces.
func (p *httpProvider) Dimensions() int { return p.dimensions }

// Close is a no-op: the remote process's lifecycle is not ours to manage.
func (p *httpProvider) Close() error { return nil }
