package driving

import (
	"context"

	"github.com/murmurapp/searchcore/internal/core/domain"
)

// SearchService provides hybrid search capabilities to external actors.
type SearchService interface {
	// Search runs one query through both ranking paths and returns
	// the fused result list. An empty or whitespace-only query
	// returns an empty response without touching any backend.
	Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResponse, error)
}
