package driven

import (
	"context"

	"github.com/murmurapp/searchcore/internal/core/domain"
)

// RecordChunker turns a record into its indexable chunks: semantic
// transcript chunks plus one chunk per populated metadata field,
// each carrying an embedding.
type RecordChunker interface {
	// ChunkRecord produces the full chunk set for a record. A failure
	// embedding one field surfaces as a domain.FieldError naming the
	// field; other fields are never silently dropped.
	ChunkRecord(ctx context.Context, rec domain.Record) ([]domain.Chunk, error)
}
