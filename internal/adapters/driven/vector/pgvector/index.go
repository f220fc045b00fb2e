// Package pgvector provides a vector index backed by PostgreSQL with
// the pgvector extension, for deployments where the index should live
// in shared infrastructure instead of a local file.
//
// Cosine distance queries run server-side over an HNSW index, so this
// backend stays fast past the corpus sizes where the embedded
// brute-force store is comfortable.
package pgvector

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"

	"github.com/murmurapp/searchcore/internal/core/domain"
	"github.com/murmurapp/searchcore/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Config holds PostgreSQL connection settings.
type Config struct {
	// ConnString is a libpq-style connection string or URL.
	ConnString string

	// Dimensions is the embedding width the table is declared with.
	// Must match the embedding model in use.
	Dimensions int
}

// Index provides cosine similarity search over chunk embeddings
// stored in PostgreSQL.
type Index struct {
	pool *pgxpool.Pool
	dims int
}

// NewIndex connects to PostgreSQL, ensures the vector extension and
// the vectors table exist, and returns the index.
func NewIndex(ctx context.Context, config Config) (*Index, error) {
	if config.ConnString == "" {
		return nil, fmt.Errorf("pgvector: connection string is required")
	}
	if config.Dimensions <= 0 {
		return nil, fmt.Errorf("pgvector: dimensions must be positive, got %d", config.Dimensions)
	}

	poolConfig, err := pgxpool.ParseConfig(config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	index := &Index{
		pool: pool,
		dims: config.Dimensions,
	}
	if err := index.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return index, nil
}

// ensureSchema creates the extension, table and indexes if missing.
func (i *Index) ensureSchema(ctx context.Context) error {
	if _, err := i.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("creating vector extension: %w", err)
	}

	// Dimensions are part of the column type, so they go in via Sprintf
	// rather than a bind parameter.
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS searchcore_vectors (
			chunk_id  TEXT PRIMARY KEY,
			record_id TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)
	`, i.dims)
	if _, err := i.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("creating vectors table: %w", err)
	}

	if _, err := i.pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_searchcore_vectors_record
		ON searchcore_vectors(record_id)
	`); err != nil {
		return fmt.Errorf("creating record index: %w", err)
	}

	if _, err := i.pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_searchcore_vectors_embedding
		ON searchcore_vectors USING hnsw (embedding vector_cosine_ops)
	`); err != nil {
		return fmt.Errorf("creating embedding index: %w", err)
	}

	return nil
}

// Upsert inserts or replaces vectors for the given chunks, keyed by
// chunk ID. Chunks without an embedding are skipped.
func (i *Index) Upsert(ctx context.Context, chunks []domain.Chunk) error {
	batch := &pgx.Batch{}
	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			continue
		}
		batch.Queue(`
			INSERT INTO searchcore_vectors (chunk_id, record_id, embedding)
			VALUES ($1, $2, $3)
			ON CONFLICT (chunk_id) DO UPDATE SET
				record_id = EXCLUDED.record_id,
				embedding = EXCLUDED.embedding
		`, chunk.ID, chunk.RecordID, pgvector.NewVector(chunk.Embedding))
	}
	if batch.Len() == 0 {
		return nil
	}

	results := i.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range batch.Len() {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upserting vectors: %w", err)
		}
	}

	return nil
}

// Search finds the k nearest neighbours to the query vector, ordered
// by descending cosine similarity.
func (i *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	// <=> is cosine distance; similarity is its complement
	rows, err := i.pool.Query(ctx, `
		SELECT chunk_id, 1 - (embedding <=> $1) AS similarity
		FROM searchcore_vectors
		ORDER BY embedding <=> $1
		LIMIT $2
	`, pgvector.NewVector(query), k)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var hits []driven.VectorHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var hit driven.VectorHit
		if err := rows.Scan(&hit.ChunkID, &hit.Similarity); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		hits = append(hits, hit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating hits: %w", err)
	}

	return hits, nil
}

// DeleteByRecord removes every vector belonging to the record.
func (i *Index) DeleteByRecord(ctx context.Context, recordID string) error {
	_, err := i.pool.Exec(ctx, "DELETE FROM searchcore_vectors WHERE record_id = $1", recordID)
	if err != nil {
		return fmt.Errorf("deleting vectors: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (i *Index) Close() error {
	i.pool.Close()
	return nil
}
