package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/murmurapp/searchcore/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query  string   `json:"query" jsonschema:"the search query to find voice records"`
	Limit  int      `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	Fields []string `json:"fields,omitempty" jsonschema:"restrict results to these record fields (transcript, title, summary, context)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results        []SearchResultOutput `json:"results"`
	Count          int                  `json:"count"`
	Degraded       bool                 `json:"degraded,omitempty"`
	DegradedReason string               `json:"degraded_reason,omitempty"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	RecordID string  `json:"record_id"`
	Field    string  `json:"field"`
	ChunkID  string  `json:"chunk_id"`
	Score    float64 `json:"score"`
	Snippet  string  `json:"snippet,omitempty"`
}

// IndexStatusInput is the input schema for the index_status tool.
// The tool takes no arguments.
type IndexStatusInput struct{}

// IndexStatusOutput is the output schema for the index_status tool.
type IndexStatusOutput struct {
	Status    string `json:"status"`
	Current   int    `json:"current"`
	Total     int    `json:"total"`
	LastError string `json:"last_error,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.srv, &mcp.Tool{
		Name:        "search",
		Description: "Search across all indexed voice records",
	}, s.handleSearch)

	mcp.AddTool(s.srv, &mcp.Tool{
		Name:        "index_status",
		Description: "Report the current state of the record index",
	}, s.handleIndexStatus)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	fields := make([]domain.Field, len(input.Fields))
	for i, f := range input.Fields {
		fields[i] = domain.Field(f)
	}

	opts := domain.SearchOptions{TopK: limit, Fields: fields}
	resp, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results:        make([]SearchResultOutput, len(resp.Results)),
		Count:          len(resp.Results),
		Degraded:       resp.Degraded,
		DegradedReason: resp.DegradedReason,
	}

	for i := range resp.Results {
		output.Results[i] = SearchResultOutput{
			RecordID: resp.Results[i].RecordID,
			Field:    resp.Results[i].Field.String(),
			ChunkID:  resp.Results[i].ChunkID,
			Score:    resp.Results[i].Score,
			Snippet:  resp.Results[i].Snippet,
		}
	}

	return nil, output, nil
}

// handleIndexStatus handles the index_status tool invocation.
func (s *Server) handleIndexStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ IndexStatusInput,
) (*mcp.CallToolResult, IndexStatusOutput, error) {
	if s.ports.Indexer == nil {
		return nil, IndexStatusOutput{}, errors.New("indexer not available")
	}

	state := s.ports.Indexer.State()
	output := IndexStatusOutput{
		Status:    string(state.Status),
		Current:   state.Current,
		Total:     state.Total,
		LastError: state.LastError,
	}

	return nil, output, nil
}
