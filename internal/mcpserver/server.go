// Package mcpserver exposes the capabilities as Model Context Protocol tools so
// that AI assistants can check, download and invoke them.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"capctl/internal/app"
	"capctl/internal/config"
	"capctl/internal/metrics"
	"capctl/pkg/logging"
)

const subsystem = "MCPServer"

// Server serves the capability tools of one application.
type Server struct {
	app    *app.Application
	config config.ServerConfig
	server *server.MCPServer
}

// New creates the MCP server and registers the tools.
func New(a *app.Application, version string) *Server {
	s := &Server{
		app:    a,
		config: a.Config.Server,
		server: server.NewMCPServer(
			"capctl",
			version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
	}
	s.registerTools()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer { return s.server }

// Serve runs the configured transport until ctx is done. When a metrics
// address is configured the Prometheus endpoint is served alongside.
func (s *Server) Serve(ctx context.Context) error {
	if s.config.MetricsAddr != "" {
		stop := s.serveMetrics(s.config.MetricsAddr)
		defer stop()
	}

	switch s.config.Transport {
	case "", config.TransportStdio:
		logging.Info(subsystem, "Serving MCP over stdio")
		return server.NewStdioServer(s.server).Listen(ctx, os.Stdin, os.Stdout)
	case config.TransportSSE:
		baseURL := fmt.Sprintf("http://%s:%d", s.config.Host, s.config.Port)
		sse := server.NewSSEServer(
			s.server,
			server.WithBaseURL(baseURL),
			server.WithSSEEndpoint("/sse"),
			server.WithMessageEndpoint("/message"),
			server.WithKeepAlive(true),
			server.WithKeepAliveInterval(30*time.Second),
		)
		return s.runHTTP(ctx, sse.Start, sse.Shutdown)
	case config.TransportStreamableHTTP:
		streamable := server.NewStreamableHTTPServer(s.server)
		return s.runHTTP(ctx, streamable.Start, streamable.Shutdown)
	}
	return fmt.Errorf("unsupported transport %q", s.config.Transport)
}

func (s *Server) runHTTP(ctx context.Context, start func(string) error, shutdown func(context.Context) error) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	logging.Info(subsystem, "Serving MCP over %s on %s", s.config.Transport, addr)

	errc := make(chan error, 1)
	go func() { errc <- start(addr) }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(shutdownCtx); err != nil {
		logging.Error(subsystem, err, "Failed to shut down MCP server")
		return err
	}
	logging.Info(subsystem, "MCP server stopped")
	return nil
}

// serveMetrics starts the metrics listener and returns its stop function.
func (s *Server) serveMetrics(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logging.Info(subsystem, "Serving metrics on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error(subsystem, err, "Metrics listener failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
