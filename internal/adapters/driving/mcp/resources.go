package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/murmurapp/searchcore/internal/core/domain"
)

// uriScheme prefixes every resource URI served by searchcore.
const uriScheme = "murmur://"

// recordListing is the JSON shape of one entry in the records resource.
type recordListing struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Server) registerResources() {
	s.srv.AddResource(&mcp.Resource{
		URI:         uriScheme + "records",
		Name:        "records",
		Description: "List of all voice records available for indexing",
		MIMEType:    "application/json",
	}, s.handleRecordsResource)

	s.srv.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "records/{recordId}",
		Name:        "record-text",
		Description: "Indexable text of a specific voice record",
		MIMEType:    "text/plain",
	}, s.handleRecordTextResource)
}

// handleRecordsResource serves the record listing. Without a record
// store it serves an empty list rather than an error so clients can
// still probe the resource.
func (s *Server) handleRecordsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Records == nil {
		return jsonResource(req.Params.URI, "[]"), nil
	}

	records, err := s.ports.Records.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}

	listings := make([]recordListing, len(records))
	for i, rec := range records {
		listings[i] = recordListing{
			ID:        rec.ID,
			Title:     rec.Title,
			CreatedAt: rec.CreatedAt,
			UpdatedAt: rec.UpdatedAt,
		}
	}

	data, err := json.MarshalIndent(listings, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling records: %w", err)
	}

	return jsonResource(req.Params.URI, string(data)), nil
}

// handleRecordTextResource serves the concatenated indexable text of
// one record.
func (s *Server) handleRecordTextResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Records == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	recordID := recordIDFromURI(req.Params.URI)
	if recordID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	rec, err := s.ports.Records.Get(ctx, recordID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting record: %w", err)
	}

	return textResource(req.Params.URI, rec.IndexableText()), nil
}

// recordIDFromURI strips the murmur://records/ prefix from a URI.
// Returns "" when the URI does not address a record.
func recordIDFromURI(uri string) string {
	id, ok := strings.CutPrefix(uri, uriScheme+"records/")
	if !ok {
		return ""
	}
	return id
}

func jsonResource(uri, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		}},
	}
}

func textResource(uri, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     text,
		}},
	}
}
