package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/murmurapp/searchcore/internal/core/domain"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Index new and changed records",
	Long: `Reconciles the search index with the record store.
Unchanged records are skipped by fingerprint comparison, modified ones
are re-chunked and re-embedded, and records deleted from the store are
removed from the index.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	if indexerService == nil {
		return errors.New("indexing not configured: run 'searchcore config set embedding.provider ollama' first")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cmd.Println("Synchronising records...")

	// Progress arrives on a subscription while SyncAll runs.
	progressCtx, cancelProgress := context.WithCancel(ctx)
	defer cancelProgress()
	updates := indexerService.Subscribe(progressCtx)

	type outcome struct {
		stats *domain.IndexStats
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		stats, err := indexerService.SyncAll(ctx)
		done <- outcome{stats, err}
	}()

	lastShown := -1
	for {
		select {
		case state, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			if state.Status == domain.IndexStatusIndexing && state.Total > 0 && state.Current != lastShown {
				cmd.Printf("\rIndexing... %d/%d records", state.Current, state.Total)
				lastShown = state.Current
			}

		case result := <-done:
			if lastShown >= 0 {
				cmd.Println()
			}
			if result.err != nil {
				return fmt.Errorf("sync failed: %w", result.err)
			}
			printSyncStats(cmd, result.stats)
			return nil
		}
	}
}

func printSyncStats(cmd *cobra.Command, stats *domain.IndexStats) {
	cmd.Printf("Sync complete: %d processed, %d indexed, %d skipped, %d removed\n",
		stats.Processed, stats.Indexed, stats.Skipped, stats.Removed)
	if stats.Failed > 0 {
		cmd.Printf("Warning: %d records failed to index. Run with --verbose for details.\n", stats.Failed)
	}
}
