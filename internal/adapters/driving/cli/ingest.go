package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/medivault/internal/core/domain"
)

var ingestRebuild bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index the medical records directory",
	Long: `Chunks every record, embeds the chunks and adds them to the vector index.

Without --rebuild the new chunks are appended to the existing index.
Use --rebuild after records were edited or removed.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestRebuild, "rebuild", "r", false, "clear the index before ingesting")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	svc, err := requireAssistant()
	if err != nil {
		return err
	}

	result, err := svc.Ingest(cmd.Context(), ingestRebuild)
	if errors.Is(err, domain.ErrIngestionInProgress) {
		return errors.New("another ingestion is already running")
	}
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	cmd.Println(result.Message)
	if result.Status != domain.IngestStatusSuccess {
		return nil
	}
	cmd.Printf("  Documents: %d\n", result.DocumentsProcessed)
	cmd.Printf("  Chunks: %d\n", result.ChunksCreated)
	cmd.Printf("  Index entries: %d\n", result.IndexCount)
	return nil
}
