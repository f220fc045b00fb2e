// Package chunking turns transcript text into retrieval-sized,
// topically coherent chunks. Sentences are segmented, embedded in one
// batch, then grouped until either the similarity between consecutive
// sentences drops below a threshold or the token budget runs out.
// Chunk boundaries always fall between whole sentences.
package chunking

import (
	"context"
	"fmt"
	"strings"

	"github.com/murmurapp/searchcore/internal/core/domain"
	"github.com/murmurapp/searchcore/internal/core/ports/driven"
)

// DefaultSimilarityThreshold closes a chunk when consecutive sentence
// similarity falls below it. Tunable; not an empirically validated optimum.
const DefaultSimilarityThreshold = 0.5

// DefaultMaxChunkTokens bounds the token budget of one chunk.
const DefaultMaxChunkTokens = 500

// Span is one chunk produced by the semantic chunker before it is
// bound to a record field.
type Span struct {
	// Text is the chunk text: its sentences joined by single spaces.
	Text string

	// Embedding is the pooled sentence embedding.
	Embedding []float32

	// TokenCount is the summed token estimate of the chunk's sentences.
	TokenCount int
}

// SemanticChunker groups sentences into coherent, size-bounded chunks.
type SemanticChunker struct {
	embedder    driven.EmbeddingService
	counter     TokenCounter
	threshold   float64
	maxTokens   int
	renormalize bool
}

// Option configures the semantic chunker.
type Option func(*SemanticChunker)

// WithSimilarityThreshold sets the boundary similarity threshold.
func WithSimilarityThreshold(threshold float64) Option {
	return func(c *SemanticChunker) {
		if threshold > 0 {
			c.threshold = threshold
		}
	}
}

// WithMaxChunkTokens sets the per-chunk token budget.
func WithMaxChunkTokens(limit int) Option {
	return func(c *SemanticChunker) {
		if limit > 0 {
			c.maxTokens = limit
		}
	}
}

// WithTokenCounter overrides the token counter.
func WithTokenCounter(counter TokenCounter) Option {
	return func(c *SemanticChunker) {
		if counter != nil {
			c.counter = counter
		}
	}
}

// WithoutRenormalization leaves pooled chunk embeddings at their raw
// mean instead of scaling back to unit length. Diagnostic use only.
func WithoutRenormalization() Option {
	return func(c *SemanticChunker) {
		c.renormalize = false
	}
}

// NewSemanticChunker creates a chunker using the given embedding service.
func NewSemanticChunker(embedder driven.EmbeddingService, opts ...Option) *SemanticChunker {
	c := &SemanticChunker{
		embedder:    embedder,
		counter:     NewTokenCounter(),
		threshold:   DefaultSimilarityThreshold,
		maxTokens:   DefaultMaxChunkTokens,
		renormalize: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ChunkText splits text into semantic chunks. All sentences are
// embedded in a single batch call before grouping. Empty or
// whitespace-only input produces no chunks and no embedding calls.
func (c *SemanticChunker) ChunkText(ctx context.Context, text string) ([]Span, error) {
	raw, err := Segment(text)
	if err != nil {
		return nil, err
	}

	sentences := make([]string, 0, len(raw))
	for _, s := range raw {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			sentences = append(sentences, trimmed)
		}
	}
	if len(sentences) == 0 {
		return nil, nil
	}

	embeddings, err := c.embedder.EmbedBatch(ctx, sentences)
	if err != nil {
		return nil, fmt.Errorf("embed sentences: %w", err)
	}
	if len(embeddings) != len(sentences) {
		return nil, fmt.Errorf("embed sentences: got %d embeddings for %d sentences", len(embeddings), len(sentences))
	}

	tokens := make([]int, len(sentences))
	for i, s := range sentences {
		tokens[i] = c.counter.Count(s)
	}

	var spans []Span
	chunkStart := 0
	chunkTokens := tokens[0]

	flush := func(end int) error {
		span, err := c.buildSpan(sentences[chunkStart:end], embeddings[chunkStart:end], chunkTokens)
		if err != nil {
			return err
		}
		spans = append(spans, span)
		return nil
	}

	for i := 1; i < len(sentences); i++ {
		similarity := domain.CosineSimilarity(embeddings[i-1], embeddings[i])
		if similarity < c.threshold || chunkTokens+tokens[i] > c.maxTokens {
			if err := flush(i); err != nil {
				return nil, err
			}
			chunkStart = i
			chunkTokens = tokens[i]
			continue
		}
		chunkTokens += tokens[i]
	}
	if err := flush(len(sentences)); err != nil {
		return nil, err
	}
	return spans, nil
}

// buildSpan assembles one chunk from its sentences: joined text,
// mean-pooled embedding (renormalised unless disabled), summed tokens.
func (c *SemanticChunker) buildSpan(sentences []string, embeddings [][]float32, tokenCount int) (Span, error) {
	// A chunk over budget is only legal as a single oversized
	// sentence; anything else is a grouping logic bug.
	if tokenCount > c.maxTokens && len(sentences) > 1 {
		return Span{}, fmt.Errorf("%w: %d tokens across %d sentences (budget %d)",
			domain.ErrChunkSizeViolation, tokenCount, len(sentences), c.maxTokens)
	}

	pooled := domain.MeanPool(embeddings)
	if c.renormalize {
		domain.NormalizeVector(pooled)
	}
	return Span{
		Text:       strings.Join(sentences, " "),
		Embedding:  pooled,
		TokenCount: tokenCount,
	}, nil
}

// EmbedField embeds a short field (title, summary, context) as a
// single span with no sentence grouping.
func (c *SemanticChunker) EmbedField(ctx context.Context, text string) (Span, error) {
	embedding, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return Span{}, err
	}
	return Span{
		Text:       text,
		Embedding:  embedding,
		TokenCount: c.counter.Count(text),
	}, nil
}
