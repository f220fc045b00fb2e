package file

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/murmurapp/searchcore/internal/logger"
)

// EventType classifies a change observed in the records directory.
type EventType string

const (
	// EventCreated means a new record file appeared.
	EventCreated EventType = "created"

	// EventUpdated means an existing record file was rewritten.
	EventUpdated EventType = "updated"

	// EventDeleted means a record file was removed or renamed away.
	EventDeleted EventType = "deleted"
)

// Event is one observed record change.
type Event struct {
	// Type is the kind of change.
	Type EventType

	// RecordID is the record the change applies to, derived from the
	// file name.
	RecordID string
}

// Watch observes the records directory and emits an Event per record
// file change until ctx is cancelled, at which point the channel is
// closed. Temporary files written by Save are ignored, so a rename
// into place surfaces as a single create or update.
func (s *RecordStore) Watch(ctx context.Context) (<-chan Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close() //nolint:errcheck
		return nil, fmt.Errorf("watching %s: %w", s.dir, err)
	}

	events := make(chan Event, 16)

	go func() {
		defer close(events)
		defer watcher.Close() //nolint:errcheck

		for {
			select {
			case <-ctx.Done():
				return

			case fsEvent, ok := <-watcher.Events:
				if !ok {
					return
				}
				event, relevant := translateEvent(fsEvent)
				if !relevant {
					continue
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}

			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Record watcher error: %v", watchErr)
			}
		}
	}()

	return events, nil
}

// translateEvent maps a filesystem notification to a record event.
// Chmod-only notifications and non-record files are dropped.
func translateEvent(fsEvent fsnotify.Event) (Event, bool) {
	name := filepath.Base(fsEvent.Name)
	if !strings.HasSuffix(name, recordExt) {
		return Event{}, false
	}
	id := strings.TrimSuffix(name, recordExt)

	switch {
	case fsEvent.Op.Has(fsnotify.Create):
		return Event{Type: EventCreated, RecordID: id}, true
	case fsEvent.Op.Has(fsnotify.Write):
		return Event{Type: EventUpdated, RecordID: id}, true
	case fsEvent.Op.Has(fsnotify.Remove), fsEvent.Op.Has(fsnotify.Rename):
		return Event{Type: EventDeleted, RecordID: id}, true
	default:
		return Event{}, false
	}
}
