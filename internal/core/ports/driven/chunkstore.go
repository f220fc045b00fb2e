package driven

import (
	"context"

	"github.com/murmurapp/searchcore/internal/core/domain"
)

// ChunkStore persists produced chunks with their text.
// Backed by SQLite for metadata storage.
//
// The store serves three consumers: keyword index rebuilds read the
// full corpus, search hydrates hits back into snippets, and the
// orchestrator diffs stored record IDs against the repository to
// find orphans.
type ChunkStore interface {
	// SaveChunks replaces all stored chunks for a record with the
	// given set.
	SaveChunks(ctx context.Context, recordID string, chunks []domain.Chunk) error

	// GetChunk retrieves a specific chunk by ID.
	// Returns domain.ErrNotFound if the chunk does not exist.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// ListChunks retrieves all chunks for a record, ordered by field
	// and index.
	ListChunks(ctx context.Context, recordID string) ([]domain.Chunk, error)

	// ListAll returns the entire chunk corpus.
	ListAll(ctx context.Context) ([]domain.Chunk, error)

	// ListRecordIDs returns the distinct record IDs present in the store.
	ListRecordIDs(ctx context.Context) ([]string, error)

	// DeleteByRecord removes every chunk belonging to the record.
	// Deleting an absent record is a no-op, not an error.
	DeleteByRecord(ctx context.Context, recordID string) error
}
