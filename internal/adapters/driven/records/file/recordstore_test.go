package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murmurapp/searchcore/internal/core/domain"
)

func setupStore(t *testing.T) *RecordStore {
	t.Helper()
	store, err := NewRecordStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() }) //nolint:errcheck
	return store
}

func TestNewRecordStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "records")

	store, err := NewRecordStore(dir)
	require.NoError(t, err)
	defer store.Close() //nolint:errcheck

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, dir, store.Dir())
}

func TestRecordStore_SaveAndGet(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	rec := &domain.Record{
		ID:         "rec-1",
		Title:      "Standup notes",
		Transcript: "We talked about the roadmap.",
		Summary:    "Roadmap discussion",
		Context:    "standup 2024-03-01",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	require.NoError(t, store.Save(ctx, rec))

	saved, err := store.Get(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, "rec-1", saved.ID)
	assert.Equal(t, "Standup notes", saved.Title)
	assert.Equal(t, "We talked about the roadmap.", saved.Transcript)
	assert.Equal(t, "Roadmap discussion", saved.Summary)
	assert.Equal(t, "standup 2024-03-01", saved.Context)
	assert.True(t, saved.CreatedAt.Equal(now))
}

func TestRecordStore_Save_RequiresID(t *testing.T) {
	store := setupStore(t)

	err := store.Save(context.Background(), &domain.Record{Title: "No ID"})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRecordStore_Save_LeavesNoTempFiles(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.Record{ID: "rec-1", Title: "First"}))
	require.NoError(t, store.Save(ctx, &domain.Record{ID: "rec-1", Title: "Second"}))

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "rec-1.json", entries[0].Name())
}

func TestRecordStore_Get_NotFound(t *testing.T) {
	store := setupStore(t)

	rec, err := store.Get(context.Background(), "nonexistent")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, rec)
}

func TestRecordStore_ListAll_OrderedByID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	// Insert out of order
	require.NoError(t, store.Save(ctx, &domain.Record{ID: "rec-c", Transcript: "c"}))
	require.NoError(t, store.Save(ctx, &domain.Record{ID: "rec-a", Transcript: "a"}))
	require.NoError(t, store.Save(ctx, &domain.Record{ID: "rec-b", Transcript: "b"}))

	records, err := store.ListAll(ctx)

	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "rec-a", records[0].ID)
	assert.Equal(t, "rec-b", records[1].ID)
	assert.Equal(t, "rec-c", records[2].ID)
}

func TestRecordStore_ListAll_Empty(t *testing.T) {
	store := setupStore(t)

	records, err := store.ListAll(context.Background())

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRecordStore_ListAll_IgnoresNonRecordFiles(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.Record{ID: "rec-1"}))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "notes.txt"), []byte("not a record"), 0600))
	require.NoError(t, os.Mkdir(filepath.Join(store.Dir(), "attachments"), 0700))

	records, err := store.ListAll(ctx)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "rec-1", records[0].ID)
}

func TestRecordStore_ListAll_CorruptFileFailsListing(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.Record{ID: "rec-1"}))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "rec-2.json"), []byte("{broken"), 0600))

	_, err := store.ListAll(ctx)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rec-2.json")
}

func TestRecordStore_ListAll_ManyRecords(t *testing.T) {
	store, err := NewRecordStore(t.TempDir(), WithPoolSize(4))
	require.NoError(t, err)
	defer store.Close() //nolint:errcheck
	ctx := context.Background()

	const n = 100
	for i := 0; i < n; i++ {
		rec := &domain.Record{
			ID:         fmt.Sprintf("rec-%03d", i),
			Transcript: fmt.Sprintf("Transcript number %d.", i),
		}
		require.NoError(t, store.Save(ctx, rec))
	}

	records, err := store.ListAll(ctx)

	require.NoError(t, err)
	require.Len(t, records, n)
	for i := 1; i < n; i++ {
		assert.Less(t, records[i-1].ID, records[i].ID)
	}
}

func TestRecordStore_MissingIDFieldFallsBackToFilename(t *testing.T) {
	store := setupStore(t)

	data, err := json.Marshal(map[string]string{"title": "Untitled", "transcript": "Some text."})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "rec-noid.json"), data, 0600))

	rec, err := store.Get(context.Background(), "rec-noid")
	require.NoError(t, err)
	assert.Equal(t, "rec-noid", rec.ID)
}

func TestRecordStore_Delete(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.Record{ID: "rec-1"}))

	require.NoError(t, store.Delete(ctx, "rec-1"))

	_, err := store.Get(ctx, "rec-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordStore_Delete_NonExistent(t *testing.T) {
	store := setupStore(t)

	// Delete non-existent should not error
	err := store.Delete(context.Background(), "nonexistent")
	assert.NoError(t, err)
}
