package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murmurapp/searchcore/internal/core/domain"
)

// setupTestIndex creates a temporary vector index for testing.
func setupTestIndex(t *testing.T) (*Index, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "searchcore-vec-test-*")
	require.NoError(t, err)

	index, err := NewIndex(tempDir)
	require.NoError(t, err)
	require.NotNil(t, index)

	cleanup := func() {
		assert.NoError(t, index.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return index, cleanup
}

func testChunk(recordID string, idx int, embedding []float32) domain.Chunk {
	return domain.Chunk{
		ID:        domain.ChunkID(recordID, domain.FieldTranscript, idx),
		RecordID:  recordID,
		Field:     domain.FieldTranscript,
		Index:     idx,
		Text:      "chunk text",
		Embedding: embedding,
	}
}

func TestNewIndex_Success(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "searchcore-vec-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	index, err := NewIndex(tempDir)
	require.NoError(t, err)
	require.NotNil(t, index)
	defer index.Close()

	dbPath := filepath.Join(tempDir, "vectors.db")
	assert.Equal(t, dbPath, index.Path())
	assert.FileExists(t, dbPath)
}

func TestNewIndex_ErrorHandling(t *testing.T) {
	_, err := NewIndex("/invalid\x00path")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestIndex_UpsertAndSearch(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	ctx := context.Background()
	err := index.Upsert(ctx, []domain.Chunk{
		testChunk("rec-a", 0, []float32{1, 0}),
		testChunk("rec-b", 0, []float32{0, 1}),
		testChunk("rec-c", 0, []float32{0.7071, 0.7071}),
	})
	require.NoError(t, err)

	hits, err := index.Search(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, domain.ChunkID("rec-a", domain.FieldTranscript, 0), hits[0].ChunkID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
	assert.Equal(t, domain.ChunkID("rec-c", domain.FieldTranscript, 0), hits[1].ChunkID)
	assert.InDelta(t, 0.7071, hits[1].Similarity, 1e-3)
}

func TestIndex_Upsert_ReplacesExisting(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, index.Upsert(ctx, []domain.Chunk{testChunk("rec-a", 0, []float32{1, 0})}))
	require.NoError(t, index.Upsert(ctx, []domain.Chunk{testChunk("rec-a", 0, []float32{0, 1})}))

	count, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	hits, err := index.Search(ctx, []float32{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
}

func TestIndex_Upsert_SkipsChunksWithoutEmbedding(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	ctx := context.Background()
	err := index.Upsert(ctx, []domain.Chunk{
		testChunk("rec-a", 0, []float32{1, 0}),
		testChunk("rec-b", 0, nil),
	})
	require.NoError(t, err)

	count, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIndex_Search_RespectsK(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	ctx := context.Background()
	chunks := make([]domain.Chunk, 5)
	for i := range chunks {
		chunks[i] = testChunk("rec-a", i, []float32{1, float32(i) * 0.1})
	}
	require.NoError(t, index.Upsert(ctx, chunks))

	hits, err := index.Search(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}

func TestIndex_Search_EmptyIndex(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	hits, err := index.Search(context.Background(), []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_Search_OrderedBySimilarity(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, index.Upsert(ctx, []domain.Chunk{
		testChunk("rec-far", 0, []float32{0, 1}),
		testChunk("rec-near", 0, []float32{0.9, 0.1}),
		testChunk("rec-mid", 0, []float32{0.5, 0.5}),
	}))

	hits, err := index.Search(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, domain.ChunkID("rec-near", domain.FieldTranscript, 0), hits[0].ChunkID)
	assert.Equal(t, domain.ChunkID("rec-mid", domain.FieldTranscript, 0), hits[1].ChunkID)
	assert.Equal(t, domain.ChunkID("rec-far", domain.FieldTranscript, 0), hits[2].ChunkID)
	assert.Greater(t, hits[0].Similarity, hits[1].Similarity)
	assert.Greater(t, hits[1].Similarity, hits[2].Similarity)
}

func TestIndex_DeleteByRecord(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, index.Upsert(ctx, []domain.Chunk{
		testChunk("rec-a", 0, []float32{1, 0}),
		testChunk("rec-a", 1, []float32{0.9, 0.1}),
		testChunk("rec-b", 0, []float32{0, 1}),
	}))

	err := index.DeleteByRecord(ctx, "rec-a")
	require.NoError(t, err)

	count, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	hits, err := index.Search(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, domain.ChunkID("rec-b", domain.FieldTranscript, 0), hits[0].ChunkID)
}

func TestIndex_DeleteByRecord_NonExistent(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	err := index.DeleteByRecord(context.Background(), "never-indexed")
	assert.NoError(t, err)
}

func TestIndex_PersistsAcrossReopen(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "searchcore-vec-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	ctx := context.Background()

	index, err := NewIndex(tempDir)
	require.NoError(t, err)
	require.NoError(t, index.Upsert(ctx, []domain.Chunk{testChunk("rec-a", 0, []float32{1, 0})}))
	require.NoError(t, index.Close())

	reopened, err := NewIndex(tempDir)
	require.NoError(t, err)
	defer reopened.Close()

	hits, err := reopened.Search(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
}

func TestIndex_Close(t *testing.T) {
	index, _ := setupTestIndex(t)

	require.NoError(t, index.Close())

	_, err := index.Search(context.Background(), []float32{1, 0}, 1)
	assert.Error(t, err)
}
