// Package config holds the global settings every CLI subcommand and the MCP
// server share: where the database lives, which namespace to use, and the
// collaborator toggles (mock embeddings, in-memory storage, no-rerank,
// query expansion) from spec.md §6's global flags. Like the teacher's own
// config package, it can be loaded from a YAML file with environment
// variable overrides (see Loader in loader.go) on top of Default()'s
// baseline, with CLI flags (internal/cli/root.go) taking final precedence.
package config

import (
	"os"
	"path/filepath"
)

// Config is the resolved set of global settings: defaults, overridden by
// .codesearch/config.yml, overridden by CODESEARCH_* environment variables,
// overridden in turn by whatever CLI flags the invocation passes.
type Config struct {
	DataDir        string `yaml:"data_dir" mapstructure:"data_dir"`
	Namespace      string `yaml:"namespace" mapstructure:"namespace"`
	MockEmbeddings bool   `yaml:"mock_embeddings" mapstructure:"mock_embeddings"`
	MemoryStorage  bool   `yaml:"memory_storage" mapstructure:"memory_storage"`
	NoRerank       bool   `yaml:"no_rerank" mapstructure:"no_rerank"`
	ExpandQuery    bool   `yaml:"expand_query" mapstructure:"expand_query"`
	Verbose        bool   `yaml:"verbose" mapstructure:"verbose"`

	EmbeddingEndpoint string `yaml:"embedding_endpoint" mapstructure:"embedding_endpoint"`
	RerankEndpoint    string `yaml:"rerank_endpoint" mapstructure:"rerank_endpoint"`

	AnthropicBaseURL string `yaml:"anthropic_base_url" mapstructure:"anthropic_base_url"`
	AnthropicModel   string `yaml:"anthropic_model" mapstructure:"anthropic_model"`
	AnthropicAPIKey  string `yaml:"anthropic_api_key" mapstructure:"anthropic_api_key"`
}

// Default returns the configuration spec.md §6 specifies when no config
// file, environment variable, or flag overrides it. The Anthropic fields
// read the bare ANTHROPIC_* names directly (the convention the query
// expander's underlying client expects, per internal/expand/llm.go),
// independent of this package's own CODESEARCH_*-prefixed config keys that
// Loader layers on top.
func Default() *Config {
	return &Config{
		DataDir:           defaultDataDir(),
		Namespace:         "search",
		EmbeddingEndpoint: "http://localhost:8088",
		RerankEndpoint:    "http://localhost:8089",
		AnthropicBaseURL:  envOr("ANTHROPIC_BASE_URL", "http://localhost:1234"),
		AnthropicModel:    envOr("ANTHROPIC_MODEL", "ministral-3b-2512"),
		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".codesearch"
	}
	return filepath.Join(home, ".codesearch")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// DBPath returns the path to the single sqlite database file, per spec.md
// §6 ("a single database file... <data-dir>/codesearch.db or similar").
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "codesearch.db")
}

// BleveRoot returns the directory under which each namespace's BM25 index
// lives, or "" when storage is in-memory.
func (c *Config) BleveRoot() string {
	if c.MemoryStorage {
		return ""
	}
	return filepath.Join(c.DataDir, "bleve")
}
