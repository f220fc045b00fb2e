package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/murmurapp/searchcore/internal/core/domain"
	"github.com/murmurapp/searchcore/internal/core/ports/driven"
	"github.com/murmurapp/searchcore/internal/core/ports/driving"
	"github.com/murmurapp/searchcore/internal/logger"
)

// Ensure Indexer implements the interface.
var _ driving.Indexer = (*Indexer)(nil)

// Indexer keeps the vector store and keyword index consistent with
// the record store. It owns the index lifecycle: full syncs, immediate
// single-record updates, removals, and orphan reconciliation.
//
// Sync operations are single-flight: a CAS latch drops concurrent
// triggers with domain.ErrSyncInProgress instead of queueing them.
// RemoveRecord deliberately bypasses the latch; a record deleted
// mid-sync is reconciled by the next cycle (eventual consistency).
type Indexer struct {
	records      driven.RecordStore
	chunker      driven.RecordChunker
	chunkStore   driven.ChunkStore
	vectorIndex  driven.VectorIndex
	keywordIndex driven.KeywordIndex
	fingerprints driven.FingerprintStore

	syncing atomic.Bool

	mu          sync.RWMutex
	state       domain.IndexingState
	subscribers map[int]chan domain.IndexingState
	nextSubID   int
}

// NewIndexer creates an index orchestrator over the given stores.
func NewIndexer(
	records driven.RecordStore,
	chunker driven.RecordChunker,
	chunkStore driven.ChunkStore,
	vectorIndex driven.VectorIndex,
	keywordIndex driven.KeywordIndex,
	fingerprints driven.FingerprintStore,
) *Indexer {
	return &Indexer{
		records:      records,
		chunker:      chunker,
		chunkStore:   chunkStore,
		vectorIndex:  vectorIndex,
		keywordIndex: keywordIndex,
		fingerprints: fingerprints,
		state:        domain.IndexingState{Status: domain.IndexStatusIdle},
		subscribers:  make(map[int]chan domain.IndexingState),
	}
}

// SyncAll reconciles the whole index with the record store.
//
// Records whose stored fingerprint matches their current indexable
// text are skipped without any embedding calls. One record's failure
// is logged and counted, never aborting the cycle. Orphaned chunks
// (records deleted from the store) are removed, and the keyword index
// is rebuilt exactly once, strictly after all per-record writes.
func (x *Indexer) SyncAll(ctx context.Context) (*domain.IndexStats, error) {
	if !x.syncing.CompareAndSwap(false, true) {
		logger.Debug("Sync already running, dropping trigger")
		return nil, domain.ErrSyncInProgress
	}
	defer x.syncing.Store(false)

	records, err := x.records.ListAll(ctx)
	if err != nil {
		err = fmt.Errorf("list records: %w", err)
		x.setError(err)
		return nil, err
	}

	logger.Info("Starting sync: %d records", len(records))
	x.update(func(s *domain.IndexingState) {
		s.Status = domain.IndexStatusIndexing
		s.Current = 0
		s.Total = len(records)
	})

	stats := &domain.IndexStats{}
	var errs []error

	for i := range records {
		rec := records[i]
		select {
		case <-ctx.Done():
			err := ctx.Err()
			x.setError(err)
			return stats, err
		default:
		}

		indexed, err := x.syncOne(ctx, rec)
		switch {
		case err != nil:
			stats.Failed++
			errs = append(errs, fmt.Errorf("record %s: %w", rec.ID, err))
			logger.Warn("Failed to index record %s: %v", rec.ID, err)
		case indexed:
			stats.Indexed++
			logger.Debug("Indexed record %s", rec.ID)
		default:
			stats.Skipped++
			logger.Debug("Record %s unchanged, skipped", rec.ID)
		}
		stats.Processed++
		x.update(func(s *domain.IndexingState) { s.Current = stats.Processed })
	}

	removed, err := x.reconcileOrphans(ctx, records)
	if err != nil {
		errs = append(errs, fmt.Errorf("reconcile orphans: %w", err))
	}
	stats.Removed = removed

	// The rebuild runs once, after every per-record write in this
	// cycle: BM25 statistics depend on the final corpus state. Failed
	// records count as a change because they may have written chunks
	// before failing.
	if stats.Indexed+stats.Removed+stats.Failed > 0 {
		if err := x.rebuildKeywordIndex(ctx); err != nil {
			errs = append(errs, fmt.Errorf("rebuild keyword index: %w", err))
		}
	} else {
		logger.Debug("No changes this cycle, keyword rebuild skipped")
	}

	if len(errs) > 0 {
		err := errors.Join(errs...)
		x.setError(err)
		logger.Warn("Sync finished with errors: %d indexed, %d skipped, %d removed, %d failed",
			stats.Indexed, stats.Skipped, stats.Removed, stats.Failed)
		return stats, err
	}

	x.update(func(s *domain.IndexingState) {
		s.Status = domain.IndexStatusIdle
		s.Current = s.Total
		s.LastError = ""
	})
	logger.Info("Sync complete: %d indexed, %d skipped, %d removed", stats.Indexed, stats.Skipped, stats.Removed)
	return stats, nil
}

// IndexRecord immediately (re-)indexes a single record, bypassing the
// fingerprint comparison. Used right after a new recording is saved.
func (x *Indexer) IndexRecord(ctx context.Context, recordID string) error {
	if !x.syncing.CompareAndSwap(false, true) {
		return domain.ErrSyncInProgress
	}
	defer x.syncing.Store(false)

	rec, err := x.records.Get(ctx, recordID)
	if err != nil {
		return fmt.Errorf("get record %s: %w", recordID, err)
	}

	x.update(func(s *domain.IndexingState) {
		s.Status = domain.IndexStatusIndexing
		s.Current = 0
		s.Total = 1
	})

	fp := domain.ComputeFingerprint(rec.IndexableText())
	if err := x.indexRecord(ctx, *rec, fp); err != nil {
		err = fmt.Errorf("index record %s: %w", recordID, err)
		x.setError(err)
		return err
	}
	if err := x.rebuildKeywordIndex(ctx); err != nil {
		err = fmt.Errorf("rebuild keyword index: %w", err)
		x.setError(err)
		return err
	}

	x.update(func(s *domain.IndexingState) {
		s.Status = domain.IndexStatusIdle
		s.Current = 1
		s.LastError = ""
	})
	logger.Info("Indexed record %s", recordID)
	return nil
}

// RemoveRecord deletes a record's chunks, vectors and fingerprint,
// then rebuilds the keyword index so its terms stop matching.
// Safe for already-absent records and deliberately not latched:
// a removal racing a sync is settled by the next cycle.
func (x *Indexer) RemoveRecord(ctx context.Context, recordID string) error {
	if err := x.deleteRecordFromIndex(ctx, recordID); err != nil {
		return err
	}
	if err := x.rebuildKeywordIndex(ctx); err != nil {
		return fmt.Errorf("rebuild keyword index: %w", err)
	}
	logger.Info("Removed record %s from index", recordID)
	return nil
}

// State returns a snapshot of the current indexing progress.
func (x *Indexer) State() domain.IndexingState {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.state
}

// Subscribe returns a channel receiving state snapshots as the
// orchestrator publishes them. Slow receivers miss intermediate
// snapshots rather than blocking the sync. The channel closes when
// ctx is cancelled.
func (x *Indexer) Subscribe(ctx context.Context) <-chan domain.IndexingState {
	ch := make(chan domain.IndexingState, 16)

	x.mu.Lock()
	id := x.nextSubID
	x.nextSubID++
	x.subscribers[id] = ch
	x.mu.Unlock()

	go func() {
		<-ctx.Done()
		x.mu.Lock()
		delete(x.subscribers, id)
		close(ch)
		x.mu.Unlock()
	}()

	return ch
}

// syncOne indexes a single record when its fingerprint differs from
// the stored one. Returns false when the record was skipped.
func (x *Indexer) syncOne(ctx context.Context, rec domain.Record) (bool, error) {
	fp := domain.ComputeFingerprint(rec.IndexableText())

	var stored domain.Fingerprint
	err := retryWithBackoff(ctx, func() error {
		var err error
		stored, err = x.fingerprints.Get(ctx, rec.ID)
		if errors.Is(err, domain.ErrNotFound) {
			stored = ""
			return nil
		}
		return err
	}, storeRetryAttempts, storeRetryBaseDelay)
	if err != nil {
		return false, fmt.Errorf("get fingerprint: %w", err)
	}

	if stored == fp {
		return false, nil
	}
	if err := x.indexRecord(ctx, rec, fp); err != nil {
		return false, err
	}
	return true, nil
}

// indexRecord chunks one record and writes everything through.
// The fingerprint is stored last so a partial failure re-indexes the
// record on the next cycle instead of silently skipping it.
func (x *Indexer) indexRecord(ctx context.Context, rec domain.Record, fp domain.Fingerprint) error {
	chunks, err := x.chunker.ChunkRecord(ctx, rec)
	if err != nil {
		return fmt.Errorf("chunk record: %w", err)
	}

	err = retryWithBackoff(ctx, func() error {
		return x.chunkStore.SaveChunks(ctx, rec.ID, chunks)
	}, storeRetryAttempts, storeRetryBaseDelay)
	if err != nil {
		return fmt.Errorf("save chunks: %w", err)
	}

	// Delete before upsert: a re-chunked record may produce fewer
	// chunks than before, and upsert alone would leave stale vectors.
	err = retryWithBackoff(ctx, func() error {
		return x.vectorIndex.DeleteByRecord(ctx, rec.ID)
	}, storeRetryAttempts, storeRetryBaseDelay)
	if err != nil {
		return fmt.Errorf("clear vectors: %w", err)
	}

	err = retryWithBackoff(ctx, func() error {
		return x.vectorIndex.Upsert(ctx, chunks)
	}, storeRetryAttempts, storeRetryBaseDelay)
	if err != nil {
		return fmt.Errorf("upsert vectors: %w", err)
	}

	err = retryWithBackoff(ctx, func() error {
		return x.fingerprints.Set(ctx, rec.ID, fp)
	}, storeRetryAttempts, storeRetryBaseDelay)
	if err != nil {
		return fmt.Errorf("save fingerprint: %w", err)
	}
	return nil
}

// reconcileOrphans removes index entries whose records no longer
// exist in the record store.
func (x *Indexer) reconcileOrphans(ctx context.Context, live []domain.Record) (int, error) {
	indexed, err := x.chunkStore.ListRecordIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list indexed records: %w", err)
	}

	liveSet := make(map[string]struct{}, len(live))
	for _, rec := range live {
		liveSet[rec.ID] = struct{}{}
	}

	removed := 0
	var errs []error
	for _, id := range indexed {
		if _, ok := liveSet[id]; ok {
			continue
		}
		logger.Debug("Removing orphaned record %s", id)
		if err := x.deleteRecordFromIndex(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("orphan %s: %w", id, err))
			continue
		}
		removed++
	}
	if len(errs) > 0 {
		return removed, errors.Join(errs...)
	}
	return removed, nil
}

// deleteRecordFromIndex removes a record's vectors, chunks and
// fingerprint. The keyword rebuild is the caller's responsibility.
func (x *Indexer) deleteRecordFromIndex(ctx context.Context, recordID string) error {
	err := retryWithBackoff(ctx, func() error {
		return x.vectorIndex.DeleteByRecord(ctx, recordID)
	}, storeRetryAttempts, storeRetryBaseDelay)
	if err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}

	err = retryWithBackoff(ctx, func() error {
		return x.chunkStore.DeleteByRecord(ctx, recordID)
	}, storeRetryAttempts, storeRetryBaseDelay)
	if err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}

	err = retryWithBackoff(ctx, func() error {
		return x.fingerprints.Delete(ctx, recordID)
	}, storeRetryAttempts, storeRetryBaseDelay)
	if err != nil {
		return fmt.Errorf("delete fingerprint: %w", err)
	}
	return nil
}

// rebuildKeywordIndex reloads the keyword index from the full corpus.
func (x *Indexer) rebuildKeywordIndex(ctx context.Context) error {
	var corpus []domain.Chunk
	err := retryWithBackoff(ctx, func() error {
		var err error
		corpus, err = x.chunkStore.ListAll(ctx)
		return err
	}, storeRetryAttempts, storeRetryBaseDelay)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}

	err = retryWithBackoff(ctx, func() error {
		return x.keywordIndex.Rebuild(ctx, corpus)
	}, storeRetryAttempts, storeRetryBaseDelay)
	if err != nil {
		return err
	}
	logger.Debug("Keyword index rebuilt: %d chunks", len(corpus))
	return nil
}

// update mutates the indexing state and fans the snapshot out to
// subscribers under the same lock, so sends never race a close.
func (x *Indexer) update(mutate func(*domain.IndexingState)) {
	x.mu.Lock()
	defer x.mu.Unlock()
	mutate(&x.state)
	for _, ch := range x.subscribers {
		select {
		case ch <- x.state:
		default:
		}
	}
}

func (x *Indexer) setError(err error) {
	x.update(func(s *domain.IndexingState) {
		s.Status = domain.IndexStatusError
		s.LastError = err.Error()
	})
}
