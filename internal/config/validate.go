package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyDataDir indicates a missing data directory for file-backed storage.
	ErrEmptyDataDir = errors.New("empty data directory")

	// ErrEmptyNamespace indicates a missing chunk/call-graph namespace.
	ErrEmptyNamespace = errors.New("empty namespace")

	// ErrEmptyEndpoint indicates a missing collaborator HTTP endpoint.
	ErrEmptyEndpoint = errors.New("empty endpoint")

	// ErrEmptyAnthropicModel indicates a missing query-expander model name.
	ErrEmptyAnthropicModel = errors.New("empty anthropic model")
)

// Validate checks that the configuration is complete enough to build an App.
func Validate(cfg *Config) error {
	var errs []error

	if strings.TrimSpace(cfg.Namespace) == "" {
		errs = append(errs, fmt.Errorf("%w: namespace is required", ErrEmptyNamespace))
	}

	if !cfg.MemoryStorage && strings.TrimSpace(cfg.DataDir) == "" {
		errs = append(errs, fmt.Errorf("%w: data_dir is required unless memory_storage is set", ErrEmptyDataDir))
	}

	if !cfg.MockEmbeddings && strings.TrimSpace(cfg.EmbeddingEndpoint) == "" {
		errs = append(errs, fmt.Errorf("%w: embedding_endpoint is required unless mock_embeddings is set", ErrEmptyEndpoint))
	}

	if !cfg.NoRerank && !cfg.MockEmbeddings && strings.TrimSpace(cfg.RerankEndpoint) == "" {
		errs = append(errs, fmt.Errorf("%w: rerank_endpoint is required unless no_rerank or mock_embeddings is set", ErrEmptyEndpoint))
	}

	if cfg.ExpandQuery && strings.TrimSpace(cfg.AnthropicModel) == "" {
		errs = append(errs, fmt.Errorf("%w: anthropic_model is required when expand_query is set", ErrEmptyAnthropicModel))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}

	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
