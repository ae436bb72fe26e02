package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codesearch-io/codesearch/internal/app"
	"github.com/codesearch-io/codesearch/internal/cerrors"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id_or_path>",
	Short: "Delete an indexed repository and everything it owns",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	a, err := app.Open(cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	idOrPath := args[0]

	repo, found, err := a.Meta.FindByID(ctx, idOrPath)
	if err != nil {
		return fmt.Errorf("looking up repository by id: %w", err)
	}
	if !found {
		repo, found, err = a.Meta.FindByPath(ctx, idOrPath)
		if err != nil {
			return fmt.Errorf("looking up repository by path: %w", err)
		}
	}
	if !found {
		return cerrors.New(cerrors.NotFound, fmt.Sprintf("no repository matches %q", idOrPath))
	}

	if err := a.Chunks.DeleteByRepository(ctx, repo.ID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	if err := a.Graph.DeleteByRepository(ctx, repo.ID); err != nil {
		return fmt.Errorf("deleting references: %w", err)
	}
	if err := a.Meta.DeleteRepository(ctx, repo.ID); err != nil {
		return fmt.Errorf("deleting repository record: %w", err)
	}

	fmt.Printf("deleted repository %s (%s)\n", repo.Name, repo.ID)
	return nil
}
