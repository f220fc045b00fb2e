package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/murmurapp/searchcore/internal/core/domain"
)

// waitForEvent drains events until one matches the record ID or the
// timeout expires. Editors and the OS can surface several filesystem
// notifications for one logical change, so tests match on the record
// rather than asserting an exact event sequence.
func waitForEvent(t *testing.T, events <-chan Event, recordID string, eventType EventType) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case event, ok := <-events:
			if !ok {
				t.Fatalf("event channel closed before %s event for %s", eventType, recordID)
			}
			if event.RecordID == recordID && event.Type == eventType {
				return
			}
		case <-deadline:
			t.Fatalf("timeout waiting for %s event for %s", eventType, recordID)
		}
	}
}

func TestWatch_EmitsCreate(t *testing.T) {
	store := setupStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := store.Watch(ctx)
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		store.Save(context.Background(), &domain.Record{ID: "rec-new", Transcript: "hello"}) //nolint:errcheck
	}()

	waitForEvent(t, events, "rec-new", EventCreated)
}

func TestWatch_EmitsDelete(t *testing.T) {
	store := setupStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, store.Save(context.Background(), &domain.Record{ID: "rec-gone"}))

	events, err := store.Watch(ctx)
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		store.Delete(context.Background(), "rec-gone") //nolint:errcheck
	}()

	waitForEvent(t, events, "rec-gone", EventDeleted)
}

func TestWatch_IgnoresNonRecordFiles(t *testing.T) {
	store := setupStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := store.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "scratch.txt"), []byte("x"), 0600))

	select {
	case event := <-events:
		t.Fatalf("unexpected event for non-record file: %+v", event)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatch_ClosesOnCancel(t *testing.T) {
	store := setupStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	events, err := store.Watch(ctx)
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-events:
		assert.False(t, ok, "channel should be closed after cancel")
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for channel close")
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	store := setupStore(t)
	require.NoError(t, os.RemoveAll(store.Dir()))

	events, err := store.Watch(context.Background())

	assert.Error(t, err)
	assert.Nil(t, events)
}

func TestTranslateEvent(t *testing.T) {
	tests := []struct {
		name     string
		event    fsnotify.Event
		want     Event
		relevant bool
	}{
		{
			name:     "create json",
			event:    fsnotify.Event{Name: "/records/rec-1.json", Op: fsnotify.Create},
			want:     Event{Type: EventCreated, RecordID: "rec-1"},
			relevant: true,
		},
		{
			name:     "write json",
			event:    fsnotify.Event{Name: "/records/rec-2.json", Op: fsnotify.Write},
			want:     Event{Type: EventUpdated, RecordID: "rec-2"},
			relevant: true,
		},
		{
			name:     "remove json",
			event:    fsnotify.Event{Name: "/records/rec-3.json", Op: fsnotify.Remove},
			want:     Event{Type: EventDeleted, RecordID: "rec-3"},
			relevant: true,
		},
		{
			name:     "rename json",
			event:    fsnotify.Event{Name: "/records/rec-4.json", Op: fsnotify.Rename},
			want:     Event{Type: EventDeleted, RecordID: "rec-4"},
			relevant: true,
		},
		{
			name:     "chmod only",
			event:    fsnotify.Event{Name: "/records/rec-5.json", Op: fsnotify.Chmod},
			relevant: false,
		},
		{
			name:     "temp file",
			event:    fsnotify.Event{Name: "/records/rec-6.json.tmp", Op: fsnotify.Create},
			relevant: false,
		},
		{
			name:     "unrelated file",
			event:    fsnotify.Event{Name: "/records/notes.txt", Op: fsnotify.Write},
			relevant: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, relevant := translateEvent(tt.event)
			assert.Equal(t, tt.relevant, relevant)
			if tt.relevant {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
