package embed

import "fmt"

const embeddingDimensions = 384

// Config selects and configures an embedding Provider.
type Config struct {
	// Provider selects the implementation: "http" or "mock".
	Provider string

	// Endpoint is the base URL of a running embedding HTTP service
	// (used by the "http" provider).
	Endpoint string
}

// NewProvider builds a Provider from Config.
func NewProvider(config Config) (Provider, error) {
	switch config.Provider {
	case "http", "":
		return newHTTPProvider(config.Endpoint)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (supported: http, mock)", config.Provider)
	}
}
