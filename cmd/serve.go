package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"capctl/internal/config"
	"capctl/internal/mcpserver"
)

var (
	serveTransport   string
	serveHost        string
	servePort        int
	serveMetricsAddr string
)

// serveCmd exposes the capabilities to AI assistants over MCP.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the capabilities as MCP tools",
	Long: `Starts a Model Context Protocol server exposing the capabilities as tools:

  capability_status    Show supported/available state of the capabilities
  capability_download  Download a capability's resources with progress
  prompt, translate,   Run a request, optionally streamed with progress
  summarize, proofread notifications

Transports:
  stdio (default)   For assistants that launch capctl as a subprocess
  sse               Server-Sent Events on http://<host>:<port>/sse
  streamable-http   Streamable HTTP on http://<host>:<port>/mcp

With --metrics-addr Prometheus metrics are served on /metrics as well.
Logs always go to standard error.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	application, err := loadApplication(cmd, false)
	if err != nil {
		return err
	}
	defer application.Close()

	flags := cmd.Flags()
	if flags.Changed("transport") {
		application.Config.Server.Transport = serveTransport
	}
	if flags.Changed("host") {
		application.Config.Server.Host = serveHost
	}
	if flags.Changed("port") {
		application.Config.Server.Port = servePort
	}
	if flags.Changed("metrics-addr") {
		application.Config.Server.MetricsAddr = serveMetricsAddr
	}
	if err := application.Config.Validate(); err != nil {
		return fmt.Errorf("invalid server settings: %w", err)
	}

	return mcpserver.New(application, rootCmd.Version).Serve(cmd.Context())
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveTransport, "transport", config.TransportStdio, "MCP transport (stdio, sse, streamable-http)")
	serveCmd.Flags().StringVar(&serveHost, "host", "localhost", "Listen host for HTTP transports")
	serveCmd.Flags().IntVar(&servePort, "port", 8090, "Listen port for HTTP transports")
	serveCmd.Flags().StringVar(&serveMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
}
