package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/medivault/internal/core/domain"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about your records",
	Long: `Answers a question from the records most similar to it.

When no record matches, the answer says so and falls back to general
medical information. The records used are listed as sources.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	svc, err := requireAssistant()
	if err != nil {
		return err
	}

	answer, err := svc.Query(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if askJSON {
		return outputJSON(cmd, answer)
	}
	outputAnswer(cmd, answer)
	return nil
}

func outputAnswer(cmd *cobra.Command, answer *domain.Answer) {
	cmd.Println(answer.Text)
	cmd.Println()

	if answer.Grounded {
		cmd.Printf("Sources: %s\n", strings.Join(answer.Sources, ", "))
	} else {
		cmd.Println("Not found in your records.")
	}
	if answer.NeedsFollowup {
		cmd.Println("Tip: run 'medivault recommend' with your question for recommendations.")
	}
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
