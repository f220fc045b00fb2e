package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	recordfile "github.com/murmurapp/searchcore/internal/adapters/driven/records/file"
	"github.com/murmurapp/searchcore/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the records directory and index changes",
	Long: `Runs a full sync, then watches the records directory and indexes
records as they are created, updated, or deleted. The periodic
background sync keeps running to reconcile anything the watcher
misses. Stops on Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if indexerService == nil {
		return errors.New("indexing not configured: run 'searchcore config set embedding.provider ollama' first")
	}
	if recordWatcher == nil {
		return errors.New("record watching requires the file record store")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cmd.Println("Running initial sync...")
	stats, err := indexerService.SyncAll(ctx)
	if err != nil {
		return fmt.Errorf("initial sync failed: %w", err)
	}
	printSyncStats(cmd, stats)

	events, err := recordWatcher.Watch(ctx)
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}

	if schedulerService != nil {
		go func() {
			if err := schedulerService.Start(ctx); err != nil {
				logger.Warn("Scheduler stopped: %v", err)
			}
		}()
		defer schedulerService.Stop() //nolint:errcheck // Best-effort shutdown
	}

	cmd.Println("Watching for record changes. Press Ctrl+C to stop.")

	// A single-record failure is logged and left for the periodic
	// sync to retry. ErrSyncInProgress lands here too when an event
	// races a scheduled sync.
	for event := range events {
		switch event.Type {
		case recordfile.EventCreated, recordfile.EventUpdated:
			logger.Info("Record %s changed; indexing", event.RecordID)
			if err := indexerService.IndexRecord(ctx, event.RecordID); err != nil {
				logger.Warn("Indexing %s: %v", event.RecordID, err)
			}
		case recordfile.EventDeleted:
			logger.Info("Record %s deleted; removing from index", event.RecordID)
			if err := indexerService.RemoveRecord(ctx, event.RecordID); err != nil {
				logger.Warn("Removing %s: %v", event.RecordID, err)
			}
		}
	}

	cmd.Println("Watcher stopped.")
	return nil
}
