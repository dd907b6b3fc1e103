package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/medivault/internal/core/domain"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index and ingestion status",
	Long: `Shows the number of indexed chunks, the last ingestion run and which
records changed since they were ingested.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output status as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	svc, err := requireAssistant()
	if err != nil {
		return err
	}

	status, err := svc.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("status failed: %w", err)
	}

	if statusJSON {
		return outputJSON(cmd, status)
	}
	outputStatus(cmd, status)
	return nil
}

func outputStatus(cmd *cobra.Command, status *domain.IndexStatus) {
	cmd.Println("[Index]")
	cmd.Printf("  Entries: %d\n", status.IndexCount)
	cmd.Printf("  Dimensions: %d\n", status.Dimensions)
	cmd.Printf("  Records on disk: %d\n", status.CorpusDocuments)
	cmd.Println()

	cmd.Println("[Last ingestion]")
	if run := status.LastRun; run != nil {
		cmd.Printf("  Started: %s\n", run.StartedAt.Local().Format(time.DateTime))
		cmd.Printf("  Status: %s\n", run.Status)
		cmd.Printf("  Documents: %d, chunks: %d\n", run.DocumentsProcessed, run.ChunksCreated)
		if run.Error != "" {
			cmd.Printf("  Error: %s\n", run.Error)
		}
	} else {
		cmd.Println("  never")
	}
	cmd.Println()

	if !status.IsStale() {
		cmd.Println("Index is up to date.")
		return
	}
	for _, name := range status.Changed {
		cmd.Printf("  changed: %s\n", name)
	}
	for _, name := range status.Removed {
		cmd.Printf("  removed: %s\n", name)
	}
	cmd.Println("Run 'medivault ingest --rebuild' to refresh the index.")
}
