package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murmurapp/searchcore/internal/core/domain"
)

func TestKeywordIndex_RebuildAndSearch(t *testing.T) {
	index := NewKeywordIndex()
	ctx := context.Background()

	corpus := []domain.Chunk{
		{ID: "a", Text: "We discussed the budget for next quarter."},
		{ID: "b", Text: "The budget meeting covered budget overruns and budget cuts."},
		{ID: "c", Text: "Nothing relevant here."},
	}
	require.NoError(t, index.Rebuild(ctx, corpus))

	hits, err := index.Search(ctx, "budget", 10)

	require.NoError(t, err)
	require.Len(t, hits, 2)
	// More occurrences rank higher
	assert.Equal(t, "b", hits[0].ChunkID)
	assert.Equal(t, "a", hits[1].ChunkID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestKeywordIndex_Search_ExactPhraseOutranksScatteredTerms(t *testing.T) {
	index := NewKeywordIndex()
	ctx := context.Background()

	corpus := []domain.Chunk{
		{ID: "scattered", Text: "The project needs work. Alpha testing starts soon."},
		{ID: "phrase", Text: "Project alpha kicked off this morning."},
	}
	require.NoError(t, index.Rebuild(ctx, corpus))

	hits, err := index.Search(ctx, "project alpha", 10)

	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "phrase", hits[0].ChunkID)
}

func TestKeywordIndex_Search_NoMatches(t *testing.T) {
	index := NewKeywordIndex()
	ctx := context.Background()

	require.NoError(t, index.Rebuild(ctx, []domain.Chunk{
		{ID: "a", Text: "Completely unrelated content."},
	}))

	hits, err := index.Search(ctx, "zebra", 10)

	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestKeywordIndex_Search_EmptyQuery(t *testing.T) {
	index := NewKeywordIndex()

	hits, err := index.Search(context.Background(), "   ", 10)

	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestKeywordIndex_Search_Limit(t *testing.T) {
	index := NewKeywordIndex()
	ctx := context.Background()

	corpus := []domain.Chunk{
		{ID: "a", Text: "meeting notes"},
		{ID: "b", Text: "meeting agenda"},
		{ID: "c", Text: "meeting summary"},
	}
	require.NoError(t, index.Rebuild(ctx, corpus))

	hits, err := index.Search(ctx, "meeting", 2)

	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestKeywordIndex_Rebuild_ReplacesCorpus(t *testing.T) {
	index := NewKeywordIndex()
	ctx := context.Background()

	require.NoError(t, index.Rebuild(ctx, []domain.Chunk{
		{ID: "old", Text: "stale entry"},
	}))
	require.NoError(t, index.Rebuild(ctx, []domain.Chunk{
		{ID: "new", Text: "fresh entry"},
	}))

	assert.Equal(t, 1, index.Len())

	hits, err := index.Search(ctx, "stale", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
