// Package devserver serves the destination tree during development,
// together with the reload endpoints and a health check.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/vk/themegrid/internal/ctxlog"
	"github.com/vk/themegrid/internal/reload"
)

// ShutdownTimeout bounds the graceful shutdown.
const ShutdownTimeout = 5 * time.Second

// Config configures a Server.
type Config struct {
	Addr string
	// Root is the directory served at "/".
	Root string
	// SocketIO and LiveReload are optional reload endpoints.
	SocketIO   *reload.SocketIO
	LiveReload *reload.LiveReload
}

// Server is the development HTTP server.
type Server struct {
	cfg     Config
	handler http.Handler
	ready   chan string
}

// New builds the server and its routes.
func New(ctx context.Context, cfg Config) *Server {
	logger := ctxlog.FromContext(ctx)
	s := &Server{cfg: cfg, ready: make(chan string, 1)}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	})
	mux.Handle(reload.ScriptPath, reload.ScriptHandler())
	if cfg.SocketIO != nil {
		mux.Handle("/socket.io/", cfg.SocketIO.Handler())
	}
	if cfg.LiveReload != nil {
		mux.Handle("/livereload", cfg.LiveReload)
	}
	mux.Handle("/", noCache(http.FileServer(http.Dir(filepath.FromSlash(cfg.Root)))))

	s.handler = mux
	return s
}

// Handler returns the routes, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Ready yields the bound address once the server listens.
func (s *Server) Ready() <-chan string {
	return s.ready
}

// Run listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("dev server: %w", err)
	}
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("🌐 Dev server starting", "address", "http://"+ln.Addr().String(), "root", s.cfg.Root)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.ready <- ln.Addr().String()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()
	logger.Info("🌐 Shutting down dev server...")
	if s.cfg.SocketIO != nil {
		s.cfg.SocketIO.Close()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Dev server shutdown failed", "error", err)
		return err
	}
	logger.Debug("Dev server shut down gracefully.")
	return nil
}

func noCache(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		h.ServeHTTP(w, r)
	})
}
