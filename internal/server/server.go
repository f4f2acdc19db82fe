// Package server serves a static document root with the cross-origin
// isolation headers browsers require for SharedArrayBuffer and wasm threads.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/isoserve/internal/config"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	cfg      *config.Config
	fs       afero.Fs
	logger   *slog.Logger
	reloader *Reloader

	// Out receives the startup banner.
	Out io.Writer
}

// RootFs returns the read-only view of dir that requests are resolved
// against. Paths cannot escape dir.
func RootFs(dir string) afero.Fs {
	return afero.NewReadOnlyFs(afero.NewBasePathFs(afero.NewOsFs(), dir))
}

// New creates a server for cfg that reads files from fsys.
func New(cfg *config.Config, fsys afero.Fs, logger *slog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		fs:     fsys,
		logger: logger,
		Out:    os.Stdout,
	}
	if cfg.Watch {
		s.reloader = NewReloader(cfg.Root, cfg.Debounce, logger)
	}
	return s
}

// Handler returns the full request pipeline.
func (s *Server) Handler() http.Handler {
	fileServer := http.FileServer(afero.NewHttpFs(s.fs).Dir("/"))

	var h http.Handler = s.withContentType(fileServer)
	if s.reloader != nil {
		h = s.withReload(h)
	}
	h = s.withRecovery(h)
	h = s.withAccessLog(h)
	return withIsolation(h)
}

// ListenAndServe binds the configured address, prints the banner and
// serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := Listen(ctx, s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr(), err)
	}
	s.Banner(s.Out)
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully. It takes ownership of ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.reloader != nil {
		if err := s.reloader.Start(ctx); err != nil {
			s.logger.Warn("Live reload disabled", "error", err)
		} else {
			defer func() {
				cancel()
				s.reloader.Wait()
			}()
		}
	}

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
		// Open event streams end with the server context.
		BaseContext: func(net.Listener) context.Context { return ctx },
		ConnContext: withConn,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("HTTP server shutdown error", "error", err)
		}
	}()

	err := httpServer.Serve(isolateListener(ln))
	if errors.Is(err, http.ErrServerClosed) {
		<-shutdownDone
		return nil
	}
	return err
}

// Banner prints where the server can be reached.
func (s *Server) Banner(w io.Writer) {
	port := strconv.Itoa(s.cfg.Port)
	_, _ = fmt.Fprintf(w, "🌍 Server running at http://%s/\n", s.cfg.Addr())
	_, _ = fmt.Fprintf(w, "   Access locally at: http://%s/\n", net.JoinHostPort("localhost", port))
	_, _ = fmt.Fprintf(w, "   Access from network at: http://<your-ip>:%s/\n", port)
	_, _ = fmt.Fprintf(w, "   Serving %s\n", s.cfg.Root)
	if s.reloader != nil {
		_, _ = fmt.Fprintf(w, "   (Auto-reload enabled via %s)\n", EventsPath)
		_, _ = fmt.Fprintf(w, "   Pages must subscribe themselves: new EventSource(%q)\n", EventsPath)
		_, _ = fmt.Fprintf(w, "   A file at %s under the root is not reachable while watching\n", EventsPath)
	}
}
