// Package file provides a record store backed by a directory of JSON
// files, one file per record. The host voice-memo application writes
// these files when a recording finishes; searchcore only needs to
// read them, but Save and Delete are provided for the record
// management commands.
//
// File parsing during ListAll runs on a worker pool because a library
// of a few thousand memos is read at the start of every sync cycle.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/murmurapp/searchcore/internal/core/domain"
	"github.com/murmurapp/searchcore/internal/core/ports/driven"
)

// Ensure RecordStore implements the interface.
var _ driven.RecordStore = (*RecordStore)(nil)

// recordExt is the file extension for record files.
const recordExt = ".json"

// defaultPoolSize bounds concurrent file parses during ListAll.
const defaultPoolSize = 8

// recordFile is the on-disk JSON shape of one record.
type recordFile struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Transcript string    `json:"transcript"`
	Summary    string    `json:"summary,omitempty"`
	Context    string    `json:"context,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RecordStore reads and writes records as JSON files in a directory.
// The file name is always "<record-id>.json", so lookups never need
// to scan the directory.
type RecordStore struct {
	dir  string
	pool *ants.Pool
}

// Option configures the record store.
type Option func(*RecordStore) error

// WithPoolSize sets the worker pool size used for concurrent file
// parsing. Default is 8, minimum 1.
func WithPoolSize(size int) Option {
	return func(s *RecordStore) error {
		if size < 1 {
			size = 1
		}
		if s.pool != nil {
			s.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		s.pool = pool
		return nil
	}
}

// NewRecordStore creates a record store over the given directory,
// creating it when missing. If dir is empty, defaults to
// ~/.murmur/records.
func NewRecordStore(dir string, opts ...Option) (*RecordStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, ".murmur", "records")
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating records directory: %w", err)
	}

	pool, err := ants.NewPool(defaultPoolSize)
	if err != nil {
		return nil, fmt.Errorf("creating worker pool: %w", err)
	}

	s := &RecordStore{
		dir:  dir,
		pool: pool,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			s.pool.Release()
			return nil, err
		}
	}
	return s, nil
}

// ListAll returns every record in the directory, ordered by ID.
// Files are parsed concurrently on the worker pool; a single
// unreadable file fails the listing rather than silently shrinking
// the corpus, because the orchestrator would treat a missing record
// as deleted and purge its index entries.
func (s *RecordStore) ListAll(ctx context.Context) ([]domain.Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading records directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), recordExt) {
			continue
		}
		paths = append(paths, filepath.Join(s.dir, entry.Name()))
	}
	if len(paths) == 0 {
		return []domain.Record{}, nil
	}

	records := make([]domain.Record, len(paths))
	errs := make([]error, len(paths))

	var wg sync.WaitGroup
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			break
		}
		wg.Add(1)
		i, path := i, path
		submitErr := s.pool.Submit(func() {
			defer wg.Done()
			rec, err := readRecordFile(path)
			if err != nil {
				errs[i] = err
				return
			}
			records[i] = *rec
		})
		if submitErr != nil {
			// Pool rejected the task (released or overloaded); parse inline.
			rec, err := readRecordFile(path)
			if err != nil {
				errs[i] = err
			} else {
				records[i] = *rec
			}
			wg.Done()
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

// Get retrieves a record by ID.
func (s *RecordStore) Get(_ context.Context, id string) (*domain.Record, error) {
	rec, err := readRecordFile(s.path(id))
	if os.IsNotExist(err) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Save stores or updates a record. The file is written to a temporary
// name and renamed into place so a watcher or concurrent reader never
// observes a half-written record.
func (s *RecordStore) Save(_ context.Context, rec *domain.Record) error {
	if rec.ID == "" {
		return fmt.Errorf("%w: record ID is required", domain.ErrInvalidInput)
	}

	data, err := json.MarshalIndent(recordFile{
		ID:         rec.ID,
		Title:      rec.Title,
		Transcript: rec.Transcript,
		Summary:    rec.Summary,
		Context:    rec.Context,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling record %s: %w", rec.ID, err)
	}

	tmp := s.path(rec.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing record %s: %w", rec.ID, err)
	}
	if err := os.Rename(tmp, s.path(rec.ID)); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("renaming record %s: %w", rec.ID, err)
	}
	return nil
}

// Delete removes a record file. Deleting an absent record is a no-op.
func (s *RecordStore) Delete(_ context.Context, id string) error {
	err := os.Remove(s.path(id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting record %s: %w", id, err)
	}
	return nil
}

// Dir returns the records directory path.
func (s *RecordStore) Dir() string {
	return s.dir
}

// Close releases the worker pool.
func (s *RecordStore) Close() error {
	s.pool.Release()
	return nil
}

func (s *RecordStore) path(id string) string {
	return filepath.Join(s.dir, id+recordExt)
}

func readRecordFile(path string) (*domain.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var rf recordFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing record file %s: %w", filepath.Base(path), err)
	}
	if rf.ID == "" {
		// Tolerate files written without an explicit id field.
		rf.ID = strings.TrimSuffix(filepath.Base(path), recordExt)
	}

	return &domain.Record{
		ID:         rf.ID,
		Title:      rf.Title,
		Transcript: rf.Transcript,
		Summary:    rf.Summary,
		Context:    rf.Context,
		CreatedAt:  rf.CreatedAt,
		UpdatedAt:  rf.UpdatedAt,
	}, nil
}
