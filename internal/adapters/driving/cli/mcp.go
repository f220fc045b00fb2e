package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/murmurapp/searchcore/internal/adapters/driving/mcp"
)

var mcpPort int

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
	Long:  `Commands for serving searchcore to MCP clients.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Serve record search to AI assistants over the Model Context Protocol.

Without flags the server speaks JSON-RPC on stdio, which is how Claude
Desktop and similar clients launch it. Pass --port to listen on HTTP
instead, for example to inspect the server with the MCP Inspector.

Examples:
  # Stdio mode (for Claude Desktop)
  searchcore mcp serve

  # HTTP mode (for MCP Inspector)
  searchcore mcp serve --port 8080

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "searchcore": {
        "command": "/path/to/searchcore",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "serve over HTTP on this port instead of stdio")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Search:  searchService,
		Indexer: indexerService,
		Records: recordStore,
	})
	if err != nil {
		return err
	}

	if mcpPort > 0 {
		addr := fmt.Sprintf("localhost:%d", mcpPort)
		cmd.Printf("MCP server listening on http://%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
