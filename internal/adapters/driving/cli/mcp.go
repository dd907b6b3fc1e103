package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/medivault/internal/adapters/driving/mcp"
	"github.com/custodia-labs/medivault/internal/logger"
)

var (
	mcpHTTPAddr    string
	mcpMetricsAddr string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

Use --http to start an HTTP server instead, which enables:
  - Testing with MCP Inspector web UI
  - Remote access via HTTP

Use --metrics-addr to expose Prometheus metrics on a separate listener.

Examples:
  # Stdio mode (default, for Claude Desktop)
  medivault mcp

  # HTTP mode with metrics
  medivault mcp --http :8080 --metrics-addr :9090

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "medivault": {
        "command": "/path/to/medivault",
        "args": ["mcp"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "HTTP listen address (empty = use stdio)")
	mcpCmd.Flags().StringVar(&mcpMetricsAddr, "metrics-addr", "", "Prometheus metrics listen address")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	svc, err := requireAssistant()
	if err != nil {
		return err
	}
	records, err := requireRecords()
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Assistant: svc,
		Records:   records,
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if mcpMetricsAddr != "" {
		if metricsGatherer == nil {
			return errors.New("metrics registry not configured")
		}
		go func() {
			if err := serveMetrics(ctx, mcpMetricsAddr, metricsGatherer); err != nil {
				logger.Error(err, "Metrics server stopped")
			}
		}()
	}

	if mcpHTTPAddr != "" {
		// Stdout stays free for JSON-RPC in stdio mode only.
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://%s\n", mcpHTTPAddr)
		return server.RunHTTP(ctx, mcpHTTPAddr)
	}

	return server.Run(ctx)
}

// serveMetrics exposes the registry on addr until ctx is done.
func serveMetrics(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background()) //nolint:errcheck
	}()

	logger.Info("Metrics available at http://%s/metrics", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
