package cli

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/codesearch-io/codesearch/internal/app"
	"github.com/codesearch-io/codesearch/internal/indexer"
	"github.com/codesearch-io/codesearch/internal/watch"
)

var (
	indexName  string
	indexForce bool
	indexWatch bool
)

var indexCmd = &cobra.Command{
	Use:   "index <path>",
	Short: "(Re)index a repository",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().StringVar(&indexName, "name", "", "repository display name (defaults to the directory's base name)")
	indexCmd.Flags().BoolVar(&indexForce, "force", false, "clear and fully reprocess an already-indexed repository")
	indexCmd.Flags().BoolVar(&indexWatch, "watch", false, "keep running and reindex on filesystem changes")
}

func runIndex(cmd *cobra.Command, args []string) error {
	a, err := app.Open(cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	a.Indexer.OnFileProcessed = newIndexProgressBar()

	var stats indexer.Stats
	var runErr error
	if indexName != "" {
		stats, runErr = a.Indexer.RunNamed(cmd.Context(), args[0], indexForce, indexName)
	} else {
		stats, runErr = a.Indexer.Run(cmd.Context(), args[0], indexForce)
	}
	if runErr != nil {
		return fmt.Errorf("indexing failed: %w", runErr)
	}

	printIndexStats(stats)
	if !indexWatch {
		return nil
	}

	fmt.Println("watching for changes (ctrl-c to stop)...")
	w, err := watch.New(args[0], func() {
		a.Indexer.OnFileProcessed = newIndexProgressBar()
		stats, err := a.Indexer.Run(cmd.Context(), args[0], false)
		if err != nil {
			fmt.Printf("reindex failed: %v\n", err)
			return
		}
		printIndexStats(stats)
	})
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	return w.Run(cmd.Context())
}

// newIndexProgressBar returns an Indexer.OnFileProcessed hook that drives a
// terminal progress bar, lazily sized against the total on first call.
func newIndexProgressBar() func(processed, total int) {
	var bar *progressbar.ProgressBar
	return func(processed, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("indexing"),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionShowIts(),
				progressbar.OptionSetItsString("files/s"),
				progressbar.OptionThrottle(65*time.Millisecond),
				progressbar.OptionShowElapsedTimeOnFinish(),
			)
		}
		_ = bar.Set(processed)
	}
}

func printIndexStats(stats indexer.Stats) {
	fmt.Printf("%d files, %d chunks\n", stats.FilesNew+stats.FilesChanged+stats.FilesUnchanged, stats.ChunksWritten)
	if cfg.Verbose {
		fmt.Printf("  new=%d changed=%d unchanged=%d deleted=%d failed=%d refs=%d duration=%s\n",
			stats.FilesNew, stats.FilesChanged, stats.FilesUnchanged, stats.FilesDeleted,
			stats.FilesFailed, stats.RefsWritten, stats.Duration)
	}
}
