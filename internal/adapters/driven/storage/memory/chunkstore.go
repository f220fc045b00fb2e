package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/murmurapp/searchcore/internal/core/domain"
	"github.com/murmurapp/searchcore/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is an in-memory implementation of driven.ChunkStore.
type ChunkStore struct {
	mu     sync.RWMutex
	chunks map[string][]domain.Chunk // keyed by record ID
}

// NewChunkStore creates a new in-memory chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		chunks: make(map[string][]domain.Chunk),
	}
}

// SaveChunks replaces all stored chunks for a record.
func (s *ChunkStore) SaveChunks(_ context.Context, recordID string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(chunks) == 0 {
		delete(s.chunks, recordID)
		return nil
	}
	s.chunks[recordID] = append([]domain.Chunk(nil), chunks...)
	return nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *ChunkStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, chunks := range s.chunks {
		for _, chunk := range chunks {
			if chunk.ID == id {
				return &chunk, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

// ListChunks retrieves all chunks for a record, ordered by field and index.
func (s *ChunkStore) ListChunks(_ context.Context, recordID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks, ok := s.chunks[recordID]
	if !ok {
		return nil, nil
	}
	result := append([]domain.Chunk(nil), chunks...)
	sort.Slice(result, func(i, j int) bool {
		if result[i].Field != result[j].Field {
			return result[i].Field < result[j].Field
		}
		return result[i].Index < result[j].Index
	})
	return result, nil
}

// ListAll returns the entire chunk corpus, grouped by record.
func (s *ChunkStore) ListAll(_ context.Context) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recordIDs := make([]string, 0, len(s.chunks))
	for id := range s.chunks {
		recordIDs = append(recordIDs, id)
	}
	sort.Strings(recordIDs)

	var result []domain.Chunk
	for _, id := range recordIDs {
		result = append(result, s.chunks[id]...)
	}
	return result, nil
}

// ListRecordIDs returns the distinct record IDs present in the store.
func (s *ChunkStore) ListRecordIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]string, 0, len(s.chunks))
	for id := range s.chunks {
		result = append(result, id)
	}
	sort.Strings(result)
	return result, nil
}

// DeleteByRecord removes every chunk belonging to the record.
func (s *ChunkStore) DeleteByRecord(_ context.Context, recordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chunks, recordID)
	return nil
}
