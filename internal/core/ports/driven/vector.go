package driven

import (
	"context"

	"github.com/murmurapp/searchcore/internal/core/domain"
)

// VectorIndex provides semantic similarity search operations.
// Implementations include an embedded SQLite store and pgvector.
type VectorIndex interface {
	// Upsert inserts or replaces vectors for the given chunks, keyed
	// by chunk ID. Chunks carry their record ID and field so hits can
	// be attributed without a separate lookup.
	Upsert(ctx context.Context, chunks []domain.Chunk) error

	// Search finds the k nearest neighbours to the query vector,
	// ordered by descending cosine similarity.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// DeleteByRecord removes every vector belonging to the record.
	// Deleting an absent record is a no-op, not an error.
	DeleteByRecord(ctx context.Context, recordID string) error

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}
