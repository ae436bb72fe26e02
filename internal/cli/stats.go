package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codesearch-io/codesearch/internal/app"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Aggregate counts across every indexed repository",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	a, err := app.Open(cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	repos, err := a.Meta.ListRepositories(ctx)
	if err != nil {
		return fmt.Errorf("listing repositories: %w", err)
	}

	var totalFiles, totalChunks, totalRefs int
	languages := make(map[string]int)
	for _, r := range repos {
		totalFiles += r.FileCount
		totalChunks += r.ChunkCount
		for lang, n := range r.LanguageStats {
			languages[lang] += n
		}

		refStats, err := a.Graph.GetStats(ctx, r.ID)
		if err != nil {
			return fmt.Errorf("reading reference stats for %s: %w", r.Name, err)
		}
		totalRefs += refStats.TotalReferences
	}

	fmt.Printf("repositories: %d\n", len(repos))
	fmt.Printf("files:        %d\n", totalFiles)
	fmt.Printf("chunks:       %d\n", totalChunks)
	fmt.Printf("references:   %d\n", totalRefs)
	if len(languages) > 0 {
		fmt.Println("by language:")
		for lang, n := range languages {
			fmt.Printf("  %-12s %d files\n", lang, n)
		}
	}
	return nil
}
