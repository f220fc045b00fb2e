package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/murmurapp/searchcore/internal/core/domain"
	"github.com/murmurapp/searchcore/internal/core/ports/driven"
	"github.com/murmurapp/searchcore/internal/core/ports/driving"
	"github.com/murmurapp/searchcore/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// rrfK dampens the influence of top ranks when fusing result lists.
const rrfK = 60

// defaultTopK is the result count when the caller does not set one.
const defaultTopK = 20

// scoredChunk holds intermediate search results before hydration.
type scoredChunk struct {
	chunkID string
	score   float64
	source  string // "keyword", "vector", or "merged"
}

// SearchService ranks chunks with reciprocal rank fusion over a
// keyword index and a vector index queried in parallel.
type SearchService struct {
	chunkStore   driven.ChunkStore
	keywordIndex driven.KeywordIndex
	vectorIndex  driven.VectorIndex
	embedder     driven.EmbeddingService
}

// NewSearchService creates a new search service.
func NewSearchService(
	chunkStore driven.ChunkStore,
	keywordIndex driven.KeywordIndex,
	vectorIndex driven.VectorIndex,
	embedder driven.EmbeddingService,
) *SearchService {
	return &SearchService{
		chunkStore:   chunkStore,
		keywordIndex: keywordIndex,
		vectorIndex:  vectorIndex,
		embedder:     embedder,
	}
}

// Search runs the query through both ranking paths and fuses the
// results. When one path fails the other's results are returned with
// the response marked degraded; when both fail the search is
// unavailable.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) (*domain.SearchResponse, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	// Return empty for empty query, without touching any backend
	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return &domain.SearchResponse{Results: []domain.SearchResult{}}, nil
	}

	for _, f := range opts.Fields {
		if !f.Valid() {
			return nil, fmt.Errorf("%w: unknown field %q", domain.ErrInvalidInput, f)
		}
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	// Request more results internally so filtering and dropped
	// chunks do not starve the final list
	internalLimit := topK * 2
	if len(opts.Fields) > 0 {
		internalLimit = topK * 3
		logger.Debug("Field filter: %v", opts.Fields)
	}
	logger.Debug("TopK: %d, internal limit: %d", topK, internalLimit)

	chunks, degradedReason, err := s.hybridSearch(ctx, query, internalLimit)
	if err != nil {
		logger.Warn("Search failed: %v", err)
		return nil, err
	}

	logger.Debug("Raw results: %d chunks", len(chunks))

	results, err := s.hydrateResults(ctx, chunks, query)
	if err != nil {
		return nil, fmt.Errorf("hydrate results: %w", err)
	}

	if len(opts.Fields) > 0 {
		results = filterByFields(results, opts.Fields)
		logger.Debug("After field filter: %d results", len(results))
	}

	if len(results) > topK {
		results = results[:topK]
	}
	logger.Info("Final results: %d", len(results))

	return &domain.SearchResponse{
		Results:        results,
		Degraded:       degradedReason != "",
		DegradedReason: degradedReason,
	}, nil
}

// hybridSearch runs both paths in parallel and merges with RRF.
// A non-empty reason means one path failed and the other's results
// were returned as-is.
func (s *SearchService) hybridSearch(
	ctx context.Context, query string, limit int,
) ([]scoredChunk, string, error) {
	logger.Debug("Hybrid search: running keyword and vector searches in parallel")

	var keywordResults, vectorResults []scoredChunk
	var keywordErr, vectorErr error

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		keywordResults, keywordErr = s.keywordSearch(ctx, query, limit)
	}()

	go func() {
		defer wg.Done()
		vectorResults, vectorErr = s.vectorSearch(ctx, query, limit)
	}()

	wg.Wait()

	if keywordErr != nil && vectorErr != nil {
		logger.Warn("Hybrid search: both keyword and vector searches failed")
		return nil, "", fmt.Errorf("%w: keyword: %w, vector: %w",
			domain.ErrSearchUnavailable, keywordErr, vectorErr)
	}

	if keywordErr != nil {
		logger.Warn("Hybrid search: keyword search failed, using vector results only")
		return vectorResults, fmt.Sprintf("keyword search unavailable: %v", keywordErr), nil
	}

	if vectorErr != nil {
		logger.Warn("Hybrid search: vector search failed, using keyword results only")
		return keywordResults, fmt.Sprintf("semantic search unavailable: %v", vectorErr), nil
	}

	logger.Debug("Hybrid search: merging %d keyword + %d vector results with RRF",
		len(keywordResults), len(vectorResults))
	merged := reciprocalRankFusion(keywordResults, vectorResults, rrfK)
	logger.Debug("Hybrid search: merged to %d results", len(merged))

	return merged, "", nil
}

// keywordSearch performs full-text search over the FTS index.
func (s *SearchService) keywordSearch(ctx context.Context, query string, limit int) ([]scoredChunk, error) {
	if s.keywordIndex == nil {
		logger.Warn("Keyword search unavailable: keyword index is nil")
		return nil, domain.ErrKeywordUnavailable
	}

	logger.Debug("Keyword search: query=%q, limit=%d", query, limit)

	hits, err := s.keywordIndex.Search(ctx, query, limit)
	if err != nil {
		logger.Warn("Keyword search error: %v", err)
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	logger.Debug("Keyword search: %d hits", len(hits))

	results := make([]scoredChunk, len(hits))
	for i, hit := range hits {
		results[i] = scoredChunk{
			chunkID: hit.ChunkID,
			score:   hit.Score,
			source:  "keyword",
		}
	}

	return results, nil
}

// vectorSearch embeds the query and performs similarity search.
func (s *SearchService) vectorSearch(ctx context.Context, query string, limit int) ([]scoredChunk, error) {
	if s.vectorIndex == nil {
		logger.Warn("Vector search unavailable: vector index is nil")
		return nil, domain.ErrVectorIndexUnavailable
	}
	if s.embedder == nil {
		logger.Warn("Vector search unavailable: embedding service is nil")
		return nil, domain.ErrEmbeddingUnavailable
	}

	logger.Debug("Vector search: query=%q, limit=%d", query, limit)

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		logger.Warn("Query embedding failed: %v", err)
		return nil, fmt.Errorf("generate query embedding: %w", err)
	}
	logger.Debug("Query embedding: %d dimensions", len(embedding))

	hits, err := s.vectorIndex.Search(ctx, embedding, limit)
	if err != nil {
		logger.Warn("Vector index search failed: %v", err)
		return nil, fmt.Errorf("vector search: %w", err)
	}

	logger.Debug("Vector search: %d hits", len(hits))

	results := make([]scoredChunk, len(hits))
	for i, hit := range hits {
		results[i] = scoredChunk{
			chunkID: hit.ChunkID,
			score:   hit.Similarity,
			source:  "vector",
		}
	}

	return results, nil
}

// Merges two ranked lists using Reciprocal Rank Fusion (RRF).
// k is the constant (typically 60) to prevent high ranks from
// dominating. Ties on the fused score are broken by the best raw
// score either list gave the chunk, then by chunk ID so the order
// stays deterministic.
//
//nolint:godot // Private function - no exported name to start with.
func reciprocalRankFusion(list1, list2 []scoredChunk, k int) []scoredChunk {
	scores := make(map[string]float64)
	bestRaw := make(map[string]float64)

	accumulate := func(list []scoredChunk) {
		for rank, chunk := range list {
			scores[chunk.chunkID] += 1.0 / float64(k+rank+1)
			if chunk.score > bestRaw[chunk.chunkID] {
				bestRaw[chunk.chunkID] = chunk.score
			}
		}
	}
	accumulate(list1)
	accumulate(list2)

	results := make([]scoredChunk, 0, len(scores))
	for id := range scores {
		results = append(results, scoredChunk{
			chunkID: id,
			score:   scores[id],
			source:  "merged",
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		ri, rj := bestRaw[results[i].chunkID], bestRaw[results[j].chunkID]
		if ri != rj {
			return ri > rj
		}
		return results[i].chunkID < results[j].chunkID
	})

	return results
}

// hydrateResults converts scored chunk IDs to full SearchResult
// objects with snippets. Chunks deleted since the indexes were
// queried are skipped.
func (s *SearchService) hydrateResults(
	ctx context.Context, chunks []scoredChunk, query string,
) ([]domain.SearchResult, error) {
	if s.chunkStore == nil {
		return nil, errors.New("chunk store unavailable")
	}

	results := make([]domain.SearchResult, 0, len(chunks))

	for _, sc := range chunks {
		chunk, err := s.chunkStore.GetChunk(ctx, sc.chunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Chunk was deleted, skip it
				continue
			}
			return nil, fmt.Errorf("get chunk %s: %w", sc.chunkID, err)
		}

		results = append(results, domain.SearchResult{
			RecordID: chunk.RecordID,
			Field:    chunk.Field,
			ChunkID:  chunk.ID,
			Score:    sc.score,
			Snippet:  makeSnippet(chunk.Text, query),
		})
	}

	return results, nil
}

// makeSnippet picks the first sentence containing a query term, or
// the start of the chunk when no sentence matches.
func makeSnippet(text, query string) string {
	queryTerms := strings.Fields(strings.ToLower(query))

	for _, sentence := range splitSentences(text) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		sentenceLower := strings.ToLower(sentence)
		for _, term := range queryTerms {
			if strings.Contains(sentenceLower, term) {
				return truncateSnippet(sentence)
			}
		}
	}

	return truncateSnippet(strings.TrimSpace(text))
}

func truncateSnippet(s string) string {
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}

// splitSentences splits content into sentences.
func splitSentences(content string) []string {
	// Simple sentence splitting by common terminators
	var sentences []string
	var current strings.Builder

	for _, r := range content {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			s := strings.TrimSpace(current.String())
			if s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}

	// Don't forget the last sentence
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

// filterByFields keeps only results whose field is in the set.
func filterByFields(results []domain.SearchResult, fields []domain.Field) []domain.SearchResult {
	allowed := make(map[domain.Field]struct{}, len(fields))
	for _, f := range fields {
		allowed[f] = struct{}{}
	}

	filtered := make([]domain.SearchResult, 0, len(results))
	for _, r := range results {
		if _, ok := allowed[r.Field]; ok {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
