// Package mcp provides an MCP (Model Context Protocol) server adapter for
// searchcore. It lets AI assistants search and inspect a user's indexed
// voice records.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
