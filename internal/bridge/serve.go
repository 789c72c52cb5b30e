package bridge

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"toolhub/pkg/logging"
)

// ServeHTTP serves the MCP streamable-http transport on addr until ctx is
// cancelled.
func (b *Bridge) ServeHTTP(ctx context.Context, addr string) error {
	httpServer := server.NewStreamableHTTPServer(b.srv)

	errCh := make(chan error, 1)
	go func() {
		logging.Info("Bridge", "Starting MCP bridge with streamable-http transport on %s", addr)
		errCh <- httpServer.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logging.Error("Bridge", err, "Error shutting down streamable HTTP server")
			return err
		}
		return nil
	}
}

// ServeStdio serves the MCP stdio transport on in and out until ctx is
// cancelled or in is closed.
func (b *Bridge) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	logging.Info("Bridge", "Starting MCP bridge with stdio transport")
	err := server.NewStdioServer(b.srv).Listen(ctx, in, out)
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, io.EOF)) {
		return nil
	}
	return err
}
