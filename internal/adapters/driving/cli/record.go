package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/murmurapp/searchcore/internal/core/domain"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Manage voice records",
	Long:  `List, view, add, or remove voice records.`,
}

var recordListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all records",
	Args:  cobra.NoArgs,
	RunE:  runRecordList,
}

var recordShowCmd = &cobra.Command{
	Use:   "show [record-id]",
	Short: "Show a record",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordShow,
}

var recordAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a record",
	Long: `Stores a new voice record and indexes it immediately when an
embedding provider is configured. The transcript comes from
--transcript, from --transcript-file, or from stdin with
--transcript-file -.`,
	Args: cobra.NoArgs,
	RunE: runRecordAdd,
}

var recordRemoveCmd = &cobra.Command{
	Use:   "remove [record-id]",
	Short: "Remove a record",
	Long:  `Deletes a record from the store and removes its chunks from the index.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runRecordRemove,
}

// Flags for record add.
var (
	recordTitle          string
	recordTranscript     string
	recordTranscriptFile string
	recordSummary        string
	recordContext        string
)

func init() {
	recordAddCmd.Flags().StringVar(&recordTitle, "title", "", "record title")
	recordAddCmd.Flags().StringVar(&recordTranscript, "transcript", "", "transcript text")
	recordAddCmd.Flags().StringVar(&recordTranscriptFile, "transcript-file", "", "read transcript from file (- for stdin)")
	recordAddCmd.Flags().StringVar(&recordSummary, "summary", "", "optional summary")
	recordAddCmd.Flags().StringVar(&recordContext, "context", "", "optional context note")

	recordCmd.AddCommand(recordListCmd)
	recordCmd.AddCommand(recordShowCmd)
	recordCmd.AddCommand(recordAddCmd)
	recordCmd.AddCommand(recordRemoveCmd)
	rootCmd.AddCommand(recordCmd)
}

func runRecordList(cmd *cobra.Command, _ []string) error {
	if recordStore == nil {
		return errors.New("record store not configured")
	}

	ctx := context.Background()

	records, err := recordStore.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list records: %w", err)
	}

	if len(records) == 0 {
		cmd.Println("No records found.")
		return nil
	}

	for i := range records {
		cmd.Printf("  %s\n", records[i].ID)
		if records[i].Title != "" {
			cmd.Printf("    Title: %s\n", records[i].Title)
		}
		cmd.Printf("    Created: %s\n", records[i].CreatedAt.Format("2006-01-02 15:04:05"))
		cmd.Println()
	}

	cmd.Printf("Total: %d records\n", len(records))
	return nil
}

func runRecordShow(cmd *cobra.Command, args []string) error {
	if recordStore == nil {
		return errors.New("record store not configured")
	}

	ctx := context.Background()

	rec, err := recordStore.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get record: %w", err)
	}

	cmd.Printf("Record: %s\n\n", rec.ID)
	cmd.Printf("  Title:    %s\n", rec.Title)
	cmd.Printf("  Created:  %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Updated:  %s\n", rec.UpdatedAt.Format("2006-01-02 15:04:05"))
	if rec.HasSummary() {
		cmd.Printf("\n  Summary:\n    %s\n", rec.Summary)
	}
	if rec.HasContext() {
		cmd.Printf("\n  Context:\n    %s\n", rec.Context)
	}
	cmd.Printf("\n%s\n", rec.Transcript)

	return nil
}

func runRecordAdd(cmd *cobra.Command, _ []string) error {
	if recordStore == nil {
		return errors.New("record store not configured")
	}

	transcript, err := resolveTranscript(cmd)
	if err != nil {
		return err
	}
	if strings.TrimSpace(transcript) == "" {
		return errors.New("transcript is empty")
	}

	now := time.Now().UTC()
	rec := &domain.Record{
		ID:         uuid.NewString(),
		Title:      recordTitle,
		Transcript: transcript,
		Summary:    recordSummary,
		Context:    recordContext,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	ctx := context.Background()

	if err := recordStore.Save(ctx, rec); err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	cmd.Printf("Record %s saved.\n", rec.ID)

	if indexerService == nil {
		cmd.Println("Indexing skipped: no embedding provider configured.")
		return nil
	}
	if err := indexerService.IndexRecord(ctx, rec.ID); err != nil {
		return fmt.Errorf("record saved but indexing failed: %w", err)
	}
	cmd.Println("Record indexed.")

	return nil
}

func runRecordRemove(cmd *cobra.Command, args []string) error {
	if recordStore == nil {
		return errors.New("record store not configured")
	}

	recordID := args[0]
	ctx := context.Background()

	if err := recordStore.Delete(ctx, recordID); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	if indexerService != nil {
		if err := indexerService.RemoveRecord(ctx, recordID); err != nil {
			return fmt.Errorf("record deleted but index cleanup failed: %w", err)
		}
	}

	cmd.Printf("Record %s removed.\n", recordID)
	return nil
}

// resolveTranscript reads the transcript from the flag, the given
// file, or stdin when the file is "-".
func resolveTranscript(cmd *cobra.Command) (string, error) {
	if recordTranscript != "" {
		return recordTranscript, nil
	}
	if recordTranscriptFile == "" {
		return "", errors.New("transcript required: pass --transcript or --transcript-file")
	}
	if recordTranscriptFile == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(recordTranscriptFile)
	if err != nil {
		return "", fmt.Errorf("reading transcript file: %w", err)
	}
	return string(data), nil
}
