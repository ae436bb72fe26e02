package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codesearch-io/codesearch/internal/app"
	"github.com/codesearch-io/codesearch/internal/ctxview"
	"github.com/codesearch-io/codesearch/internal/graphstore"
)

var (
	contextRepository string
	contextLimit      int
	contextFormat     string
)

var contextCmd = &cobra.Command{
	Use:   "context <symbol>",
	Short: "Show a symbol's callers and callees",
	Args:  cobra.ExactArgs(1),
	RunE:  runContext,
}

func init() {
	rootCmd.AddCommand(contextCmd)
	contextCmd.Flags().StringVar(&contextRepository, "repository", "", "restrict to this repository id")
	contextCmd.Flags().IntVar(&contextLimit, "limit", 0, "maximum callers/callees to return (0 = unlimited)")
	contextCmd.Flags().StringVar(&contextFormat, "format", "text", "output format: text or json")
}

func runContext(cmd *cobra.Command, args []string) error {
	a, err := app.Open(cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := graphstore.QueryOptions{RepositoryID: contextRepository, Limit: contextLimit}
	view, err := ctxview.Get(cmd.Context(), a.Graph, args[0], opts)
	if err != nil {
		return fmt.Errorf("context lookup failed: %w", err)
	}

	if contextFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	fmt.Printf("callers (%d):\n", view.CallerCount)
	for _, e := range view.Callers {
		fmt.Printf("  %s  (%s:%d)\n", e.Symbol, e.FilePath, e.Line)
	}
	fmt.Printf("callees (%d):\n", view.CalleeCount)
	for _, e := range view.Callees {
		fmt.Printf("  %s  (%s:%d)\n", e.Symbol, e.FilePath, e.Line)
	}
	return nil
}
