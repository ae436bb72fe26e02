// Package cli implements the codesearch command-line surface: index,
// search, list, delete, stats, impact, context, and mcp, per spec.md §6.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/codesearch-io/codesearch/internal/config"
)

var cfg = loadConfig()

// loadConfig resolves the global Config from .codesearch/config.yml plus
// CODESEARCH_* environment variables (config.Loader), falling back to
// config.Default() when no file is present or the home directory can't be
// determined. CLI flags registered below still have the final say: each is
// bound to the resulting cfg's field as its default, so an unset flag keeps
// the loaded value and a passed flag overwrites it during ParseFlags.
func loadConfig() *config.Config {
	rootDir, err := os.UserHomeDir()
	if err != nil {
		return config.Default()
	}
	loaded, err := config.NewLoader(rootDir).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: loading config: %v; using defaults\n", err)
		return config.Default()
	}
	return loaded
}

var rootCmd = &cobra.Command{
	Use:   "codesearch",
	Short: "Local-first semantic code search and call-graph engine",
	Long: `codesearch indexes a repository into a local chunk store, embedding
index, and call graph, then answers semantic/hybrid search, impact
analysis, and caller/callee context queries over it.`,
}

// Execute adds all child commands to the root command and runs it. Called
// once by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory holding the sqlite database and BM25 index")
	flags.StringVar(&cfg.Namespace, "namespace", cfg.Namespace, "chunk/call-graph namespace")
	flags.BoolVar(&cfg.MockEmbeddings, "mock-embeddings", cfg.MockEmbeddings, "use deterministic hash-based embeddings instead of a remote model")
	flags.BoolVar(&cfg.MemoryStorage, "memory-storage", cfg.MemoryStorage, "keep the database and BM25 index in memory only")
	flags.BoolVar(&cfg.NoRerank, "no-rerank", cfg.NoRerank, "skip the reranking pass after fusion")
	flags.BoolVar(&cfg.ExpandQuery, "expand-query", cfg.ExpandQuery, "expand search queries via the LLM-based query expander")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "verbose logging")

	viper.BindPFlag("data-dir", flags.Lookup("data-dir"))
	viper.BindPFlag("namespace", flags.Lookup("namespace"))
}

func initConfig() {
	viper.SetEnvPrefix("codesearch")
	viper.AutomaticEnv()
}
