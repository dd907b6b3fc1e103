package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	recommendGeneral bool
	recommendJSON    bool
)

var recommendCmd = &cobra.Command{
	Use:   "recommend [question]",
	Short: "Get recommendations related to a question",
	Long: `Produces a list of recommendations for a question.

By default the relevant records and the full record set are used as context.
With --general only general medical advice is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecommend,
}

func init() {
	recommendCmd.Flags().BoolVarP(&recommendGeneral, "general", "g", false, "ignore the records")
	recommendCmd.Flags().BoolVar(&recommendJSON, "json", false, "output recommendations as JSON")
	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, args []string) error {
	svc, err := requireAssistant()
	if err != nil {
		return err
	}

	recs, err := svc.Recommend(cmd.Context(), args[0], !recommendGeneral)
	if err != nil {
		return fmt.Errorf("recommendation failed: %w", err)
	}

	if recommendJSON {
		return outputJSON(cmd, recs)
	}

	cmd.Println("Recommendations:")
	for i, item := range recs.Items {
		cmd.Printf("  %d. %s\n", i+1, item)
	}
	if len(recs.Sources) > 0 {
		cmd.Println()
		cmd.Printf("Based on: %s\n", strings.Join(recs.Sources, ", "))
	}
	return nil
}
