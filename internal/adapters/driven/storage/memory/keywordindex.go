package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/murmurapp/searchcore/internal/core/domain"
	"github.com/murmurapp/searchcore/internal/core/ports/driven"
)

// Ensure KeywordIndex implements the interface.
var _ driven.KeywordIndex = (*KeywordIndex)(nil)

// KeywordIndex is an in-memory implementation of driven.KeywordIndex.
// Scoring is term-occurrence counting with an exact-phrase bonus, a
// rough stand-in for BM25. Suitable for tests and small corpora.
type KeywordIndex struct {
	mu     sync.RWMutex
	corpus []domain.Chunk
}

// NewKeywordIndex creates a new in-memory keyword index.
func NewKeywordIndex() *KeywordIndex {
	return &KeywordIndex{}
}

// Rebuild replaces the entire index contents with the given corpus.
func (k *KeywordIndex) Rebuild(_ context.Context, corpus []domain.Chunk) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.corpus = append([]domain.Chunk(nil), corpus...)
	return nil
}

// Search scores every chunk against the query terms.
func (k *KeywordIndex) Search(_ context.Context, query string, limit int) ([]driven.KeywordHit, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	phrase := strings.ToLower(strings.TrimSpace(query))
	terms := strings.Fields(phrase)
	if len(terms) == 0 {
		return nil, nil
	}

	var hits []driven.KeywordHit
	for _, chunk := range k.corpus {
		text := strings.ToLower(chunk.Text)

		score := 0.0
		for _, term := range terms {
			score += float64(strings.Count(text, term))
		}
		if score == 0 {
			continue
		}
		// Exact phrase occurrences outrank scattered terms
		if len(terms) > 1 {
			score += float64(strings.Count(text, phrase) * len(terms))
		}

		hits = append(hits, driven.KeywordHit{ChunkID: chunk.ID, Score: score})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Close releases resources (no-op for memory index).
func (k *KeywordIndex) Close() error {
	return nil
}

// Len returns the number of indexed chunks.
func (k *KeywordIndex) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.corpus)
}
