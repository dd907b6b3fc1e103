// Package cli implements the medivault command line.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/medivault/internal/app"
	"github.com/custodia-labs/medivault/internal/core/ports/driven"
	"github.com/custodia-labs/medivault/internal/core/ports/driving"
	"github.com/custodia-labs/medivault/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	verbose   bool
	configDir string
)

// RecordSource reads and watches the record directory.
type RecordSource interface {
	driven.CorpusStore
	driven.CorpusWatcher
}

// Services used by commands. They are filled from the App in
// PersistentPreRunE unless already set.
var (
	application      *app.App
	assistantService driving.AssistantService
	settingsService  driving.SettingsService
	recordSource     RecordSource
	metricsGatherer  prometheus.Gatherer
)

// openApp builds the application context. Replaced in tests.
var openApp = app.New

var rootCmd = &cobra.Command{
	Use:   "medivault",
	Short: "Ask questions about your medical records",
	Long: `medivault indexes a directory of plain-text medical records and answers
questions about them with a language model, citing the records it used.

Records are *.txt files; names like checkup_2024-01-10.txt carry a date.`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "",
		"configuration directory (default $MEDIVAULT_HOME or ~/.medivault)")
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer closeApp()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

func initServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if cmd == versionCmd || settingsService != nil {
		return nil
	}

	a, err := openApp(app.Options{ConfigDir: configDir})
	if err != nil {
		return err
	}
	application = a
	settingsService = a.Settings()
	metricsGatherer = a.Registry()
	return nil
}

func closeApp() {
	if application == nil {
		return
	}
	if err := application.Close(); err != nil {
		logger.Warn("Shutdown: %v", err)
	}
}

// requireAssistant returns the assistant, building the pipeline on first use.
func requireAssistant() (driving.AssistantService, error) {
	if assistantService != nil {
		return assistantService, nil
	}
	if application == nil {
		return nil, errors.New("assistant service not configured")
	}
	svc, err := application.Assistant()
	if err != nil {
		return nil, err
	}
	assistantService = svc
	return assistantService, nil
}

// requireRecords returns the record source.
func requireRecords() (RecordSource, error) {
	if recordSource != nil {
		return recordSource, nil
	}
	if application == nil {
		return nil, errors.New("record store not configured")
	}
	store, err := application.Corpus()
	if err != nil {
		return nil, err
	}
	recordSource = store
	return recordSource, nil
}
