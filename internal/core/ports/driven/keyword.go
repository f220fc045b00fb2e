package driven

import (
	"context"

	"github.com/murmurapp/searchcore/internal/core/domain"
)

// KeywordIndex provides full-text search operations.
// Backed by SQLite FTS5 for BM25 keyword search.
//
// BM25 statistics are corpus-global, so the index is rebuilt from the
// full corpus after a sync cycle rather than updated per record.
type KeywordIndex interface {
	// Rebuild replaces the entire index contents with the given corpus.
	Rebuild(ctx context.Context, corpus []domain.Chunk) error

	// Search performs a keyword search and returns matching chunk IDs
	// with scores, ordered by descending relevance.
	Search(ctx context.Context, query string, limit int) ([]KeywordHit, error)

	// Close releases resources.
	Close() error
}

// KeywordHit represents a search result from the keyword index.
type KeywordHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Score is the relevance score (e.g., BM25).
	Score float64
}
