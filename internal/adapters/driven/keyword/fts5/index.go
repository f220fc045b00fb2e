// Package fts5 provides a keyword index backed by SQLite's FTS5
// extension, using the same pure Go driver as the metadata store.
//
// The index lives in its own database file so that keyword search can
// fail or be rebuilt independently of chunk metadata. Contents are
// disposable: BM25 statistics are corpus-global, so the orchestrator
// reloads the full corpus after each sync cycle instead of patching
// rows in place.
package fts5

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/murmurapp/searchcore/internal/core/domain"
	"github.com/murmurapp/searchcore/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.KeywordIndex = (*Index)(nil)

// Index provides BM25 full-text search over the chunk corpus.
type Index struct {
	db   *sql.DB
	path string
}

// NewIndex creates or opens the keyword index at the specified data
// directory. If dataDir is empty, defaults to ~/.murmur/searchcore/keyword.db.
func NewIndex(dataDir string) (*Index, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".murmur", "searchcore")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "keyword.db")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening keyword database: %w", err)
	}

	// Porter stemming so "meetings" finds "meeting"
	_, err = db.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
			chunk_id UNINDEXED,
			content,
			tokenize = 'porter unicode61'
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating fts table: %w", err)
	}

	return &Index{
		db:   db,
		path: dbPath,
	}, nil
}

// Rebuild replaces the entire index contents with the given corpus.
func (i *Index) Rebuild(ctx context.Context, corpus []domain.Chunk) error {
	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks_fts"); err != nil {
		return fmt.Errorf("clearing index: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO chunks_fts (chunk_id, content) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range corpus {
		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.Text); err != nil {
			return fmt.Errorf("indexing chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Search performs a keyword search and returns matching chunk IDs with
// scores, best match first.
func (i *Index) Search(ctx context.Context, query string, limit int) ([]driven.KeywordHit, error) {
	match := buildMatchQuery(query)
	if match == "" {
		return nil, nil
	}

	// bm25() returns negated scores (more negative is better), so
	// ascending order is best-first and negation makes them positive.
	rows, err := i.db.QueryContext(ctx, `
		SELECT chunk_id, bm25(chunks_fts)
		FROM chunks_fts
		WHERE chunks_fts MATCH ?
		ORDER BY bm25(chunks_fts)
		LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	defer rows.Close()

	var hits []driven.KeywordHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var hit driven.KeywordHit
		var score float64
		if err := rows.Scan(&hit.ChunkID, &score); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		hit.Score = -score
		hits = append(hits, hit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating hits: %w", err)
	}

	return hits, nil
}

// Close releases resources.
func (i *Index) Close() error {
	return i.db.Close()
}

// Path returns the database file path.
func (i *Index) Path() string {
	return i.path
}

// buildMatchQuery turns free text into an FTS5 MATCH expression. Each
// term is quoted so user input cannot inject FTS5 operators, and terms
// are ORed so any match contributes to the BM25 ranking.
func buildMatchQuery(query string) string {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return ""
	}

	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.ReplaceAll(term, `"`, `""`)
		quoted = append(quoted, `"`+term+`"`)
	}
	return strings.Join(quoted, " OR ")
}
