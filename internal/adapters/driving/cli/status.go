package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/murmurapp/searchcore/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index status",
	Long:  `Reports the current state of the record index.`,
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if indexerService == nil {
		return errors.New("indexing not configured: run 'searchcore config set embedding.provider ollama' first")
	}

	state := indexerService.State()

	switch state.Status {
	case domain.IndexStatusIndexing:
		cmd.Printf("Status: indexing (%d/%d records)\n", state.Current, state.Total)
	case domain.IndexStatusError:
		cmd.Println("Status: error")
		cmd.Printf("Last error: %s\n", state.LastError)
	default:
		cmd.Println("Status: idle")
	}

	if recordStore != nil {
		records, err := recordStore.ListAll(context.Background())
		if err == nil {
			cmd.Printf("Records in store: %d\n", len(records))
		}
	}

	return nil
}
