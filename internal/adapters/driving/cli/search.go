package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/murmurapp/searchcore/internal/core/domain"
)

var (
	searchLimit  int
	searchJSON   bool
	searchFields []string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed records",
	Long: `Performs hybrid search across all indexed voice records.
Combines keyword (BM25) and semantic (vector) ranking; when one path
is unavailable the other still answers and the output says so.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().StringSliceVar(&searchFields, "field", nil, "restrict to record fields (transcript, title, summary, context)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if searchService == nil {
		return errors.New("search service not configured")
	}

	var fields []domain.Field
	for _, name := range searchFields {
		field := domain.Field(name)
		if !field.Valid() {
			return fmt.Errorf("unknown field %q (valid: transcript, title, summary, context)", name)
		}
		fields = append(fields, field)
	}

	ctx := context.Background()
	opts := domain.SearchOptions{
		TopK:   searchLimit,
		Fields: fields,
	}

	response, err := searchService.Search(ctx, query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, response)
	}

	return outputSearchTable(cmd, response)
}

func outputSearchJSON(cmd *cobra.Command, response *domain.SearchResponse) error {
	data, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, response *domain.SearchResponse) error {
	if response.Degraded {
		cmd.Printf("Warning: %s; results may be incomplete.\n\n", response.DegradedReason)
	}

	if len(response.Results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, result := range response.Results {
		cmd.Printf("  [%d] %s (%s, score %.4f)\n", i+1, result.RecordID, result.Field, result.Score)
		if result.Snippet != "" {
			cmd.Printf("      %s\n", result.Snippet)
		}
		cmd.Println()
	}

	return nil
}
