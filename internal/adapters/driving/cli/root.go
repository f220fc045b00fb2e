// Package cli implements the searchcore command line interface.
//
// Commands share a set of package-level service variables that are
// populated by initServices when the binary starts. Tests substitute
// mocks for those variables and invoke rootCmd directly, bypassing
// the wiring.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	recordfile "github.com/murmurapp/searchcore/internal/adapters/driven/records/file"
	"github.com/murmurapp/searchcore/internal/core/ports/driven"
	"github.com/murmurapp/searchcore/internal/core/ports/driving"
	"github.com/murmurapp/searchcore/internal/logger"
)

// version is overridden by Execute with the build version.
var version = "dev"

var verbose bool

// Application services, populated by initServices.
var (
	configStore      driven.ConfigStore
	recordStore      driven.RecordStore
	recordWatcher    *recordfile.RecordStore
	searchService    driving.SearchService
	indexerService   driving.Indexer
	schedulerService driving.Scheduler
)

var rootCmd = &cobra.Command{
	Use:   "searchcore",
	Short: "Semantic search over your voice records",
	Long: `searchcore indexes the transcripts, titles, summaries and context notes
of your voice records and answers natural-language queries with hybrid
keyword and semantic search. All data stays on this machine.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// Execute wires the application services and runs the root command.
// It blocks until the selected command returns or the process is
// interrupted.
func Execute(v string) error {
	if v != "" {
		version = v
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := initServices(); err != nil {
		return err
	}
	defer closeServices()

	return rootCmd.ExecuteContext(ctx)
}
