package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/murmurapp/searchcore/internal/core/domain"
	"github.com/murmurapp/searchcore/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is an in-memory implementation of driven.VectorIndex
// using brute-force cosine similarity. Suitable for tests and small
// corpora.
type VectorIndex struct {
	mu      sync.RWMutex
	entries map[string]vectorEntry // keyed by chunk ID
}

type vectorEntry struct {
	recordID  string
	embedding []float32
}

// NewVectorIndex creates a new in-memory vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{
		entries: make(map[string]vectorEntry),
	}
}

// Upsert inserts or replaces vectors for the given chunks.
func (v *VectorIndex) Upsert(_ context.Context, chunks []domain.Chunk) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, chunk := range chunks {
		v.entries[chunk.ID] = vectorEntry{
			recordID:  chunk.RecordID,
			embedding: append([]float32(nil), chunk.Embedding...),
		}
	}
	return nil
}

// Search finds the k nearest neighbours by cosine similarity.
func (v *VectorIndex) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	hits := make([]driven.VectorHit, 0, len(v.entries))
	for id, entry := range v.entries {
		hits = append(hits, driven.VectorHit{
			ChunkID:    id,
			Similarity: domain.CosineSimilarity(query, entry.embedding),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// DeleteByRecord removes every vector belonging to the record.
func (v *VectorIndex) DeleteByRecord(_ context.Context, recordID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for id, entry := range v.entries {
		if entry.recordID == recordID {
			delete(v.entries, id)
		}
	}
	return nil
}

// Close releases resources (no-op for memory index).
func (v *VectorIndex) Close() error {
	return nil
}

// Len returns the number of stored vectors.
func (v *VectorIndex) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.entries)
}
