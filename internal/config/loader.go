package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins).
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a configuration loader rooted at rootDir, the directory
// under which .codesearch/config.yml is searched for.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

// Load loads configuration with the following priority (highest to lowest):
//  1. Environment variables (CODESEARCH_*)
//  2. Config file (.codesearch/config.yml)
//  3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	configDir := filepath.Join(l.rootDir, ".codesearch")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix("codesearch")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("data_dir")
	v.BindEnv("namespace")
	v.BindEnv("mock_embeddings")
	v.BindEnv("memory_storage")
	v.BindEnv("no_rerank")
	v.BindEnv("expand_query")
	v.BindEnv("verbose")
	v.BindEnv("embedding_endpoint")
	v.BindEnv("rerank_endpoint")
	v.BindEnv("anthropic_base_url")
	v.BindEnv("anthropic_model")
	v.BindEnv("anthropic_api_key")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults seeds viper with Default()'s values so an absent config file
// and unset environment variables still produce a complete Config.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("data_dir", defaults.DataDir)
	v.SetDefault("namespace", defaults.Namespace)
	v.SetDefault("mock_embeddings", defaults.MockEmbeddings)
	v.SetDefault("memory_storage", defaults.MemoryStorage)
	v.SetDefault("no_rerank", defaults.NoRerank)
	v.SetDefault("expand_query", defaults.ExpandQuery)
	v.SetDefault("verbose", defaults.Verbose)
	v.SetDefault("embedding_endpoint", defaults.EmbeddingEndpoint)
	v.SetDefault("rerank_endpoint", defaults.RerankEndpoint)
	v.SetDefault("anthropic_base_url", defaults.AnthropicBaseURL)
	v.SetDefault("anthropic_model", defaults.AnthropicModel)
	v.SetDefault("anthropic_api_key", defaults.AnthropicAPIKey)
}
