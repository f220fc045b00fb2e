package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murmurapp/searchcore/internal/core/domain"
)

func TestNewRecordStore(t *testing.T) {
	store := NewRecordStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.records)
}

func TestRecordStore_SaveAndGet(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	now := time.Now()
	rec := &domain.Record{
		ID:         "rec-1",
		Title:      "Standup notes",
		Transcript: "We talked about the roadmap.",
		Summary:    "Roadmap discussion",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := store.Save(ctx, rec)
	require.NoError(t, err)

	saved, err := store.Get(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, "rec-1", saved.ID)
	assert.Equal(t, "Standup notes", saved.Title)
	assert.Equal(t, "We talked about the roadmap.", saved.Transcript)
}

func TestRecordStore_Save_Update(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.Record{ID: "rec-1", Title: "Original"}))
	require.NoError(t, store.Save(ctx, &domain.Record{ID: "rec-1", Title: "Updated"}))

	saved, err := store.Get(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, "Updated", saved.Title)
}

func TestRecordStore_Get_NotFound(t *testing.T) {
	store := NewRecordStore()

	rec, err := store.Get(context.Background(), "nonexistent")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, rec)
}

func TestRecordStore_ListAll_OrderedByID(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	// Insert out of order
	require.NoError(t, store.Save(ctx, &domain.Record{ID: "rec-c"}))
	require.NoError(t, store.Save(ctx, &domain.Record{ID: "rec-a"}))
	require.NoError(t, store.Save(ctx, &domain.Record{ID: "rec-b"}))

	records, err := store.ListAll(ctx)

	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "rec-a", records[0].ID)
	assert.Equal(t, "rec-b", records[1].ID)
	assert.Equal(t, "rec-c", records[2].ID)
}

func TestRecordStore_ListAll_Empty(t *testing.T) {
	store := NewRecordStore()

	records, err := store.ListAll(context.Background())

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRecordStore_Delete(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.Record{ID: "rec-1"}))

	err := store.Delete(ctx, "rec-1")
	require.NoError(t, err)

	_, err = store.Get(ctx, "rec-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordStore_Delete_NonExistent(t *testing.T) {
	store := NewRecordStore()

	// Delete non-existent should not error
	err := store.Delete(context.Background(), "nonexistent")
	assert.NoError(t, err)
}

func TestRecordStore_Concurrency(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	numGoroutines := 50

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			rec := &domain.Record{ID: fmt.Sprintf("rec-%02d", id)}
			_ = store.Save(ctx, rec)
		}(i)
	}
	wg.Wait()

	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			_, _ = store.Get(ctx, fmt.Sprintf("rec-%02d", id))
			_, _ = store.ListAll(ctx)
		}(i)
	}
	wg.Wait()

	records, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, records, numGoroutines)
}
