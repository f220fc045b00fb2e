package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murmurapp/searchcore/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	// Create a temporary directory for the test database
	tempDir, err := os.MkdirTemp("", "searchcore-test-*")
	require.NoError(t, err)

	// Create store in temp directory
	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	// Return cleanup function
	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

// saveTestRecord saves a record with the given ID and returns it.
func saveTestRecord(t *testing.T, store *Store, id string) *domain.Record {
	t.Helper()
	ctx := context.Background()
	rec := &domain.Record{
		ID:         id,
		Title:      "Memo " + id,
		Transcript: "Transcript for " + id + ".",
	}
	err := store.RecordStore().Save(ctx, rec)
	require.NoError(t, err)
	return rec
}

// makeTestChunks builds a small chunk set for a record.
func makeTestChunks(recordID string) []domain.Chunk {
	return []domain.Chunk{
		{
			ID:         domain.ChunkID(recordID, domain.FieldTitle, 0),
			RecordID:   recordID,
			Field:      domain.FieldTitle,
			Index:      0,
			Text:       "Memo " + recordID,
			Embedding:  []float32{0.1, 0.2, 0.3},
			TokenCount: 3,
		},
		{
			ID:         domain.ChunkID(recordID, domain.FieldTranscript, 0),
			RecordID:   recordID,
			Field:      domain.FieldTranscript,
			Index:      0,
			Text:       "First part of the transcript.",
			Embedding:  []float32{0.4, 0.5, 0.6},
			TokenCount: 6,
		},
		{
			ID:         domain.ChunkID(recordID, domain.FieldTranscript, 1),
			RecordID:   recordID,
			Field:      domain.FieldTranscript,
			Index:      1,
			Text:       "Second part of the transcript.",
			Embedding:  []float32{0.7, 0.8, 0.9},
			TokenCount: 6,
		},
	}
}

// ==================== Store Creation and Initialization Tests ====================

func TestNewStore_ErrorHandling(t *testing.T) {
	// Test with invalid path (should fail to create directory)
	_, err := NewStore("/invalid\x00path")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestNewStore_Success(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "searchcore-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	// Verify database file was created
	dbPath := filepath.Join(tempDir, "metadata.db")
	assert.Equal(t, dbPath, store.Path())
	assert.FileExists(t, dbPath)

	// Verify database connection is working
	err = store.db.Ping()
	assert.NoError(t, err)
}

func TestNewStore_DefaultDirectory(t *testing.T) {
	// Point the home directory at a temp dir so the default path is
	// exercised without touching the real one.
	t.Setenv("HOME", t.TempDir())

	store, err := NewStore("")
	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	assert.Contains(t, store.Path(), ".murmur")
	assert.Contains(t, store.Path(), "searchcore")
	assert.Contains(t, store.Path(), "metadata.db")
}

func TestNewStore_DirectoryCreation(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "searchcore-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	// Create store in a nested directory that doesn't exist yet
	nestedDir := filepath.Join(tempDir, "nested", "path", "to", "db")
	store, err := NewStore(nestedDir)
	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	// Verify all directories were created
	assert.DirExists(t, nestedDir)
}

func TestNewStore_Migrations(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	// Verify schema_migrations table exists
	var count int
	err := store.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Greater(t, count, 0, "should have at least one migration")

	// Verify all expected tables exist
	tables := []string{
		"records",
		"chunks",
		"fingerprints",
		"scheduled_tasks",
		"task_results",
	}

	for _, table := range tables {
		var tableExists int
		err := store.db.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&tableExists)
		require.NoError(t, err)
		assert.Equal(t, 1, tableExists, "table %s should exist", table)
	}
}

func TestNewStore_ForeignKeysEnabled(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	// Verify foreign keys are enabled
	var fkEnabled int
	err := store.db.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled)
	require.NoError(t, err)
	assert.Equal(t, 1, fkEnabled, "foreign keys should be enabled")
}

func TestStore_Close(t *testing.T) {
	store, _ := setupTestStore(t)

	err := store.Close()
	assert.NoError(t, err)

	// Verify connection is closed
	err = store.db.Ping()
	assert.Error(t, err)
}

func TestStore_Path(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	path := store.Path()
	assert.NotEmpty(t, path)
	assert.Contains(t, path, "metadata.db")
	assert.FileExists(t, path)
}

func TestStore_InterfaceGetters(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	// Test all store interface getters
	assert.NotNil(t, store.RecordStore())
	assert.NotNil(t, store.ChunkStore())
	assert.NotNil(t, store.FingerprintStore())
	assert.NotNil(t, store.SchedulerStore())
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "searchcore-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	ctx := context.Background()

	store, err := NewStore(tempDir)
	require.NoError(t, err)

	rec := &domain.Record{ID: "rec-1", Title: "Kept memo", Transcript: "Survives a restart."}
	require.NoError(t, store.RecordStore().Save(ctx, rec))
	require.NoError(t, store.ChunkStore().SaveChunks(ctx, "rec-1", makeTestChunks("rec-1")))
	require.NoError(t, store.FingerprintStore().Set(ctx, "rec-1", domain.ComputeFingerprint("Survives a restart.")))
	require.NoError(t, store.Close())

	// Reopen on the same directory: migrations must not re-run, data
	// must still be there.
	reopened, err := NewStore(tempDir)
	require.NoError(t, err)
	defer reopened.Close()

	retrieved, err := reopened.RecordStore().Get(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, "Kept memo", retrieved.Title)

	chunks, err := reopened.ChunkStore().ListChunks(ctx, "rec-1")
	require.NoError(t, err)
	assert.Len(t, chunks, 3)

	fp, err := reopened.FingerprintStore().Get(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ComputeFingerprint("Survives a restart."), fp)
}

// ==================== RecordStore Tests ====================

func TestRecordStore_SaveAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	recordStore := store.RecordStore()

	rec := &domain.Record{
		ID:         "rec-1",
		Title:      "Standup notes",
		Transcript: "We shipped the importer and started on search.",
		Summary:    "Importer shipped, search started.",
		Context:    "Recorded after Monday standup.",
	}

	// Save record
	err := recordStore.Save(ctx, rec)
	require.NoError(t, err)
	assert.False(t, rec.CreatedAt.IsZero(), "Save should set CreatedAt")
	assert.False(t, rec.UpdatedAt.IsZero(), "Save should set UpdatedAt")

	// Get record
	retrieved, err := recordStore.Get(ctx, "rec-1")
	require.NoError(t, err)
	require.NotNil(t, retrieved)

	// Verify fields
	assert.Equal(t, rec.ID, retrieved.ID)
	assert.Equal(t, rec.Title, retrieved.Title)
	assert.Equal(t, rec.Transcript, retrieved.Transcript)
	assert.Equal(t, rec.Summary, retrieved.Summary)
	assert.Equal(t, rec.Context, retrieved.Context)
	assert.WithinDuration(t, rec.CreatedAt, retrieved.CreatedAt, time.Second)
	assert.WithinDuration(t, rec.UpdatedAt, retrieved.UpdatedAt, time.Second)
}

func TestRecordStore_SaveUpdate(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	recordStore := store.RecordStore()

	rec := &domain.Record{
		ID:         "rec-1",
		Title:      "Original title",
		Transcript: "Original transcript.",
	}

	// Save original
	err := recordStore.Save(ctx, rec)
	require.NoError(t, err)
	createdAt := rec.CreatedAt

	// Update and save again
	rec.Title = "Corrected title"
	rec.Transcript = "Corrected transcript."
	err = recordStore.Save(ctx, rec)
	require.NoError(t, err)

	// Verify update preserved the creation time
	retrieved, err := recordStore.Get(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, "Corrected title", retrieved.Title)
	assert.Equal(t, "Corrected transcript.", retrieved.Transcript)
	assert.WithinDuration(t, createdAt, retrieved.CreatedAt, time.Second)
}

func TestRecordStore_SaveWithoutOptionalFields(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	recordStore := store.RecordStore()

	rec := &domain.Record{
		ID:         "rec-bare",
		Title:      "Bare memo",
		Transcript: "Just a transcript, no summary or context.",
	}

	err := recordStore.Save(ctx, rec)
	require.NoError(t, err)

	retrieved, err := recordStore.Get(ctx, "rec-bare")
	require.NoError(t, err)
	assert.Empty(t, retrieved.Summary)
	assert.Empty(t, retrieved.Context)
	assert.False(t, retrieved.HasSummary())
	assert.False(t, retrieved.HasContext())
}

func TestRecordStore_Get_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	recordStore := store.RecordStore()

	retrieved, err := recordStore.Get(ctx, "non-existent-id")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, retrieved)
}

func TestRecordStore_Delete(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	recordStore := store.RecordStore()

	saveTestRecord(t, store, "rec-1")

	// Delete record
	err := recordStore.Delete(ctx, "rec-1")
	require.NoError(t, err)

	// Verify deletion
	retrieved, err := recordStore.Get(ctx, "rec-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, retrieved)
}

func TestRecordStore_Delete_NonExistent(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	recordStore := store.RecordStore()

	// Deleting non-existent record should not error
	err := recordStore.Delete(ctx, "non-existent-id")
	assert.NoError(t, err)
}

func TestRecordStore_ListAll(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	recordStore := store.RecordStore()

	// Save out of order to verify the listing is sorted
	saveTestRecord(t, store, "rec-c")
	saveTestRecord(t, store, "rec-a")
	saveTestRecord(t, store, "rec-b")

	records, err := recordStore.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "rec-a", records[0].ID)
	assert.Equal(t, "rec-b", records[1].ID)
	assert.Equal(t, "rec-c", records[2].ID)
}

func TestRecordStore_ListAll_Empty(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	records, err := store.RecordStore().ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

// ==================== ChunkStore Tests ====================

func TestChunkStore_SaveChunksAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	chunkStore := store.ChunkStore()

	chunks := makeTestChunks("rec-1")
	err := chunkStore.SaveChunks(ctx, "rec-1", chunks)
	require.NoError(t, err)

	// Get a specific chunk by ID
	retrieved, err := chunkStore.GetChunk(ctx, domain.ChunkID("rec-1", domain.FieldTranscript, 1))
	require.NoError(t, err)
	require.NotNil(t, retrieved)

	assert.Equal(t, "rec-1", retrieved.RecordID)
	assert.Equal(t, domain.FieldTranscript, retrieved.Field)
	assert.Equal(t, 1, retrieved.Index)
	assert.Equal(t, "Second part of the transcript.", retrieved.Text)
	assert.Equal(t, []float32{0.7, 0.8, 0.9}, retrieved.Embedding)
	assert.Equal(t, 6, retrieved.TokenCount)
}

func TestChunkStore_SaveChunks_ReplacesExisting(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	chunkStore := store.ChunkStore()

	// Save three chunks, then re-save the record with one
	err := chunkStore.SaveChunks(ctx, "rec-1", makeTestChunks("rec-1"))
	require.NoError(t, err)

	replacement := []domain.Chunk{
		{
			ID:         domain.ChunkID("rec-1", domain.FieldTranscript, 0),
			RecordID:   "rec-1",
			Field:      domain.FieldTranscript,
			Index:      0,
			Text:       "The whole transcript now fits in one chunk.",
			Embedding:  []float32{1, 0, 0},
			TokenCount: 9,
		},
	}
	err = chunkStore.SaveChunks(ctx, "rec-1", replacement)
	require.NoError(t, err)

	chunks, err := chunkStore.ListChunks(ctx, "rec-1")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "The whole transcript now fits in one chunk.", chunks[0].Text)

	// The old title chunk must be gone
	_, err = chunkStore.GetChunk(ctx, domain.ChunkID("rec-1", domain.FieldTitle, 0))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChunkStore_SaveChunks_EmptySetClears(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	chunkStore := store.ChunkStore()

	err := chunkStore.SaveChunks(ctx, "rec-1", makeTestChunks("rec-1"))
	require.NoError(t, err)

	err = chunkStore.SaveChunks(ctx, "rec-1", nil)
	require.NoError(t, err)

	chunks, err := chunkStore.ListChunks(ctx, "rec-1")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunkStore_GetChunk_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	retrieved, err := store.ChunkStore().GetChunk(ctx, "no-such-chunk")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, retrieved)
}

func TestChunkStore_ListChunks_Ordering(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	chunkStore := store.ChunkStore()

	// Insert in scrambled order; ListChunks must sort by field then index
	chunks := makeTestChunks("rec-1")
	scrambled := []domain.Chunk{chunks[2], chunks[0], chunks[1]}
	err := chunkStore.SaveChunks(ctx, "rec-1", scrambled)
	require.NoError(t, err)

	listed, err := chunkStore.ListChunks(ctx, "rec-1")
	require.NoError(t, err)
	require.Len(t, listed, 3)

	assert.Equal(t, domain.FieldTitle, listed[0].Field)
	assert.Equal(t, domain.FieldTranscript, listed[1].Field)
	assert.Equal(t, 0, listed[1].Index)
	assert.Equal(t, domain.FieldTranscript, listed[2].Field)
	assert.Equal(t, 1, listed[2].Index)
}

func TestChunkStore_ListAll(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	chunkStore := store.ChunkStore()

	require.NoError(t, chunkStore.SaveChunks(ctx, "rec-1", makeTestChunks("rec-1")))
	require.NoError(t, chunkStore.SaveChunks(ctx, "rec-2", makeTestChunks("rec-2")))

	all, err := chunkStore.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func TestChunkStore_ListRecordIDs(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	chunkStore := store.ChunkStore()

	require.NoError(t, chunkStore.SaveChunks(ctx, "rec-b", makeTestChunks("rec-b")))
	require.NoError(t, chunkStore.SaveChunks(ctx, "rec-a", makeTestChunks("rec-a")))

	ids, err := chunkStore.ListRecordIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"rec-a", "rec-b"}, ids)
}

func TestChunkStore_DeleteByRecord(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	chunkStore := store.ChunkStore()

	require.NoError(t, chunkStore.SaveChunks(ctx, "rec-1", makeTestChunks("rec-1")))
	require.NoError(t, chunkStore.SaveChunks(ctx, "rec-2", makeTestChunks("rec-2")))

	err := chunkStore.DeleteByRecord(ctx, "rec-1")
	require.NoError(t, err)

	// rec-1 chunks gone, rec-2 untouched
	chunks, err := chunkStore.ListChunks(ctx, "rec-1")
	require.NoError(t, err)
	assert.Empty(t, chunks)

	chunks, err = chunkStore.ListChunks(ctx, "rec-2")
	require.NoError(t, err)
	assert.Len(t, chunks, 3)
}

func TestChunkStore_DeleteByRecord_NonExistent(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	err := store.ChunkStore().DeleteByRecord(ctx, "never-indexed")
	assert.NoError(t, err)
}

func TestChunkStore_NilEmbedding(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	chunkStore := store.ChunkStore()

	chunk := domain.Chunk{
		ID:       domain.ChunkID("rec-1", domain.FieldTitle, 0),
		RecordID: "rec-1",
		Field:    domain.FieldTitle,
		Index:    0,
		Text:     "No embedding yet",
	}
	err := chunkStore.SaveChunks(ctx, "rec-1", []domain.Chunk{chunk})
	require.NoError(t, err)

	retrieved, err := chunkStore.GetChunk(ctx, chunk.ID)
	require.NoError(t, err)
	assert.Nil(t, retrieved.Embedding)
}

// ==================== FingerprintStore Tests ====================

func TestFingerprintStore_SetAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	fpStore := store.FingerprintStore()

	fp := domain.ComputeFingerprint("some indexable text")
	err := fpStore.Set(ctx, "rec-1", fp)
	require.NoError(t, err)

	retrieved, err := fpStore.Get(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, fp, retrieved)
}

func TestFingerprintStore_Get_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	_, err := store.FingerprintStore().Get(ctx, "never-indexed")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFingerprintStore_Set_Replaces(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	fpStore := store.FingerprintStore()

	require.NoError(t, fpStore.Set(ctx, "rec-1", domain.ComputeFingerprint("old text")))
	require.NoError(t, fpStore.Set(ctx, "rec-1", domain.ComputeFingerprint("new text")))

	retrieved, err := fpStore.Get(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ComputeFingerprint("new text"), retrieved)
}

func TestFingerprintStore_Delete(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	fpStore := store.FingerprintStore()

	require.NoError(t, fpStore.Set(ctx, "rec-1", domain.ComputeFingerprint("text")))

	err := fpStore.Delete(ctx, "rec-1")
	require.NoError(t, err)

	_, err = fpStore.Get(ctx, "rec-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFingerprintStore_Delete_NonExistent(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	err := store.FingerprintStore().Delete(ctx, "never-indexed")
	assert.NoError(t, err)
}

func TestFingerprintStore_Close(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	// Close on the wrapper is a no-op; the Store owns the connection
	err := store.FingerprintStore().Close()
	assert.NoError(t, err)

	_, err = store.FingerprintStore().Get(context.Background(), "rec-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ==================== Helper Function Tests ====================

func TestFloat32SliceConversion(t *testing.T) {
	original := []float32{0.0, 1.5, -2.25, 3.14159}

	data := float32SliceToBytes(original)
	assert.Len(t, data, len(original)*4)

	restored := bytesToFloat32Slice(data)
	assert.Equal(t, original, restored)
}

func TestFloat32SliceConversion_Empty(t *testing.T) {
	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, float32SliceToBytes([]float32{}))
	assert.Nil(t, bytesToFloat32Slice(nil))
	assert.Nil(t, bytesToFloat32Slice([]byte{}))
}

func TestNullString(t *testing.T) {
	assert.Nil(t, nullString(""))
	assert.Equal(t, "standup notes", nullString("standup notes"))
}
