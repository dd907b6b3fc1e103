package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarise all medical records",
	Long:  `Summarises the complete record set. Retrieval is not used; every record is read.`,
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	svc, err := requireAssistant()
	if err != nil {
		return err
	}

	summary, err := svc.Summarise(cmd.Context())
	if err != nil {
		return fmt.Errorf("summary failed: %w", err)
	}

	cmd.Println(summary.Text)
	return nil
}
