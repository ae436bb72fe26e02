package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codesearch-io/codesearch/internal/app"
	"github.com/codesearch-io/codesearch/internal/graphstore"
	"github.com/codesearch-io/codesearch/internal/impact"
)

var (
	impactDepth      int
	impactRepository string
	impactFormat     string
)

var impactCmd = &cobra.Command{
	Use:   "impact <symbol>",
	Short: "Find every symbol that transitively calls the given symbol",
	Args:  cobra.ExactArgs(1),
	RunE:  runImpact,
}

func init() {
	rootCmd.AddCommand(impactCmd)
	impactCmd.Flags().IntVar(&impactDepth, "depth", impact.DefaultMaxDepth, "maximum BFS depth")
	impactCmd.Flags().StringVar(&impactRepository, "repository", "", "restrict to this repository id")
	impactCmd.Flags().StringVar(&impactFormat, "format", "text", "output format: text or json")
}

func runImpact(cmd *cobra.Command, args []string) error {
	a, err := app.Open(cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := graphstore.QueryOptions{RepositoryID: impactRepository}
	analysis, err := impact.Analyze(cmd.Context(), a.Graph, args[0], impactDepth, opts)
	if err != nil {
		return fmt.Errorf("impact analysis failed: %w", err)
	}

	switch impactFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(analysis)
	case "vimgrep":
		return fmt.Errorf("--format vimgrep is not supported for impact; use text or json")
	}

	if analysis.TotalAffected == 0 {
		fmt.Printf("No callers found for %q. Either the symbol is a root entry point or it hasn't been indexed yet.\n", analysis.RootSymbol)
		return nil
	}

	repoNames := buildRepoNameMap(cmd.Context(), a, analysis)

	fmt.Printf("%s: %d affected symbols across %d levels\n", analysis.RootSymbol, analysis.TotalAffected, analysis.MaxDepthReached)
	for depth, nodes := range analysis.ByDepth {
		if len(nodes) == 0 {
			continue
		}
		fmt.Printf("depth %d:\n", depth+1)
		for _, n := range nodes {
			repoLabel := repoNames[n.RepositoryID]
			if repoLabel == "" {
				repoLabel = n.RepositoryID
			}
			fmt.Printf("  %s  (%s:%d, via %s, repo %s)\n", n.Symbol, n.FilePath, n.Line, n.ViaSymbol, repoLabel)
		}
	}
	return nil
}

// buildRepoNameMap resolves the repository IDs appearing in analysis to their
// human-readable names, so text-format output doesn't show raw UUIDs.
func buildRepoNameMap(ctx context.Context, a *app.App, analysis impact.Analysis) map[string]string {
	seen := make(map[string]bool)
	names := make(map[string]string)
	for _, nodes := range analysis.ByDepth {
		for _, n := range nodes {
			if seen[n.RepositoryID] {
				continue
			}
			seen[n.RepositoryID] = true
			if repo, ok, err := a.Meta.FindByID(ctx, n.RepositoryID); err == nil && ok {
				names[n.RepositoryID] = repo.Name
			}
		}
	}
	return names
}
