package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codesearch-io/codesearch/internal/app"
	"github.com/codesearch-io/codesearch/internal/model"
)

var (
	searchNum          int
	searchMinScore     float32
	searchHasMinScore  bool
	searchLanguages    []string
	searchRepositories []string
	searchFormat       string
	searchNoTextSearch bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search indexed code semantically or hybrid (semantic + BM25)",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVar(&searchNum, "num", 10, "maximum results to return")
	searchCmd.Flags().Float32Var(&searchMinScore, "min-score", 0, "drop results below this score")
	searchCmd.Flags().StringSliceVar(&searchLanguages, "language", nil, "restrict to these languages (repeatable)")
	searchCmd.Flags().StringSliceVar(&searchRepositories, "repository", nil, "restrict to these repository ids (repeatable)")
	searchCmd.Flags().StringVar(&searchFormat, "format", "text", "output format: text, json, or vimgrep")
	searchCmd.Flags().BoolVar(&searchNoTextSearch, "no-text-search", false, "disable the BM25 half of hybrid search")
}

func runSearch(cmd *cobra.Command, args []string) error {
	searchHasMinScore = cmd.Flags().Changed("min-score")

	a, err := app.Open(cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	q := model.SearchQuery{
		Text:          args[0],
		Limit:         searchNum,
		Languages:     searchLanguages,
		RepositoryIDs: searchRepositories,
		Hybrid:        !searchNoTextSearch,
	}
	if searchHasMinScore {
		score := searchMinScore
		q.MinScore = &score
	}

	results, err := a.Searcher.Search(cmd.Context(), q)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	switch searchFormat {
	case "json":
		return printSearchJSON(results)
	case "vimgrep":
		printSearchVimgrep(results)
	default:
		printSearchText(results)
	}
	return nil
}

func printSearchText(results []model.SearchResult) {
	if len(results) == 0 {
		fmt.Println("no matches")
		return
	}
	for i, r := range results {
		symbol := r.Chunk.SymbolName
		if symbol == "" {
			symbol = "(anonymous)"
		}
		fmt.Printf("%d. [%.4f] %s:%d-%d %s\n", i+1, r.Score, r.Chunk.FilePath, r.Chunk.StartLine, r.Chunk.EndLine, symbol)
	}
}

func printSearchVimgrep(results []model.SearchResult) {
	for _, r := range results {
		firstLine := firstNonEmptyLine(r.Chunk.Content)
		symbol := r.Chunk.SymbolName
		if symbol == "" {
			symbol = "(anonymous)"
		}
		fmt.Printf("%s:%d:1:[%.4f] %s - %s\n", r.Chunk.FilePath, r.Chunk.StartLine, r.Score, symbol, firstLine)
	}
}

func firstNonEmptyLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func printSearchJSON(results []model.SearchResult) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
