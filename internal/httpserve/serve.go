// Package httpserve holds the HTTP plumbing shared by the dashboard server
// and the bundled product API: listener setup with graceful shutdown,
// request logging and JSON responses.
package httpserve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// ShutdownTimeout bounds graceful shutdown once the serving context ends.
const ShutdownTimeout = 5 * time.Second

// Serve starts serving handler on port in a background goroutine and returns
// the bound address. Port 0 picks a free port.
//
// Serve is non-blocking and returns once the listener is bound, so a port
// conflict is reported synchronously. When ctx is cancelled the server shuts
// down gracefully, and request contexts derive from ctx so long-lived
// handlers such as SSE streams observe the shutdown.
func Serve(ctx context.Context, port int, handler http.Handler, logger *slog.Logger) (net.Addr, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to bind to port %d: %w", port, err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}()

	return ln.Addr(), nil
}
