package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/medivault/internal/adapters/driving/watcher"
	"github.com/custodia-labs/medivault/internal/core/domain"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild the index whenever records change",
	Long: `Watches the records directory and rebuilds the index after *.txt files
are added, edited, renamed or removed. Changes arriving within the debounce
window are combined into one rebuild. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVarP(&watchDebounce, "debounce", "d", watcher.DefaultDebounce,
		"quiet period before rebuilding")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	svc, err := requireAssistant()
	if err != nil {
		return err
	}
	records, err := requireRecords()
	if err != nil {
		return err
	}

	w := watcher.New(records, svc,
		watcher.WithDebounce(watchDebounce),
		watcher.WithResultHandler(func(result *domain.IngestResult, err error) {
			if err != nil {
				cmd.Printf("[%s] rebuild failed: %v\n", time.Now().Format(time.TimeOnly), err)
				return
			}
			cmd.Printf("[%s] %s\n", time.Now().Format(time.TimeOnly), result.Message)
		}),
	)

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", records.Dir())
	err = w.Run(cmd.Context())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
