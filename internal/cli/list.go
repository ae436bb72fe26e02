package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/codesearch-io/codesearch/internal/app"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Enumerate indexed repositories",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	a, err := app.Open(cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	repos, err := a.Meta.ListRepositories(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing repositories: %w", err)
	}
	if len(repos) == 0 {
		fmt.Println("no repositories indexed")
		return nil
	}

	for _, r := range repos {
		updated := time.Unix(r.UpdatedAt, 0).Format(time.RFC3339)
		fmt.Printf("%s  %-30s %6d files  %6d chunks  %s  %s\n", r.ID, r.Name, r.FileCount, r.ChunkCount, updated, r.Path)
	}
	return nil
}
