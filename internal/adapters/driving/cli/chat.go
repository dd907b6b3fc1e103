package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/medivault/internal/adapters/driving/tui"
)

// newChatProgram builds the bubbletea program. Replaced in tests.
var newChatProgram = func(model tea.Model, opts ...tea.ProgramOption) interface{ Run() (tea.Model, error) } {
	return tea.NewProgram(model, opts...)
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with your records in the terminal",
	Long: `Open an interactive chat over your medical records.

Answers are marked as coming from your records or from general knowledge,
with the record files they cite.

Controls:
  Enter      - Ask the typed question
  Ctrl+R     - Recommendations for the last question
  Ctrl+S     - Summarise all records
  PgUp/PgDn  - Scroll the conversation
  Esc        - Quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in chat: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("chat crashed: %v", r)
		}
	}()

	svc, err := requireAssistant()
	if err != nil {
		return err
	}

	app, err := tui.NewApp(tui.NewPorts(svc))
	if err != nil {
		return fmt.Errorf("failed to create chat: %w", err)
	}
	app.WithContext(cmd.Context())

	p := newChatProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat error: %w", err)
	}
	return nil
}
