package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/codesearch-io/codesearch/internal/app"
)

// Server wraps an mcp-go server bound to one App's collaborators.
type Server struct {
	mcp *server.MCPServer
	log *slog.Logger
}

// New builds a Server with search_code, analyze_impact, and
// get_symbol_context registered against a.
func New(a *app.App) *Server {
	mcpServer := server.NewMCPServer(
		"codesearch-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	RegisterTools(mcpServer, a.Searcher, a.Graph)
	return &Server{mcp: mcpServer, log: slog.Default()}
}

// ServeStdio runs the server over stdio until ctx is cancelled or a shutdown
// signal arrives.
func (s *Server) ServeStdio(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting mcp server on stdio")
		errCh <- server.ServeStdio(s.mcp)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// ServeHTTP runs the server as a streamable-HTTP endpoint on addr until ctx
// is cancelled or a shutdown signal arrives.
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	httpServer := server.NewStreamableHTTPServer(s.mcp)
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting mcp server over http", "addr", addr)
		errCh <- httpServer.Start(addr)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("mcp http server: %w", err)
		}
		return nil
	}
}
