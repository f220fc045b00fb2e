package driving

import (
	"context"

	"github.com/murmurapp/searchcore/internal/core/domain"
)

// Indexer coordinates the index lifecycle: full syncs, single-record
// updates, and removals. Only one sync or single-record update runs
// at a time; concurrent triggers return domain.ErrSyncInProgress.
type Indexer interface {
	// SyncAll reconciles the whole index with the record store.
	// Unchanged records (by fingerprint) are skipped without
	// re-embedding; orphaned index entries are removed.
	SyncAll(ctx context.Context) (*domain.IndexStats, error)

	// IndexRecord immediately (re-)indexes a single record,
	// bypassing the fingerprint comparison.
	IndexRecord(ctx context.Context, recordID string) error

	// RemoveRecord deletes a record's chunks and fingerprint from
	// the index. Safe to call for an already-absent record.
	RemoveRecord(ctx context.Context, recordID string) error

	// State returns a snapshot of the current indexing progress.
	State() domain.IndexingState

	// Subscribe returns a channel receiving state snapshots as the
	// orchestrator publishes them. The channel is closed when ctx
	// is cancelled.
	Subscribe(ctx context.Context) <-chan domain.IndexingState
}
