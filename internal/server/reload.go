package server

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventsPath is the Server-Sent Events endpoint mounted when watching.
const EventsPath = "/events"

// Reloader watches the document root and tells connected browsers to
// reload after changes settle.
type Reloader struct {
	root     string
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[chan struct{}]struct{}

	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
}

func NewReloader(root string, debounce time.Duration, logger *slog.Logger) *Reloader {
	return &Reloader{
		root:     root,
		debounce: debounce,
		logger:   logger,
		clients:  make(map[chan struct{}]struct{}),
	}
}

// Start registers the root recursively and processes events in the
// background until ctx is done. Watches are in place when Start returns.
func (rl *Reloader) Start(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	rl.watcher = w

	if err := rl.addTree(rl.root); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", rl.root, err)
	}

	rl.wg.Add(1)
	go rl.loop(ctx)
	return nil
}

// Wait blocks until the event loop has exited.
func (rl *Reloader) Wait() {
	rl.wg.Wait()
}

func (rl *Reloader) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return rl.watcher.Add(p)
	})
}

func (rl *Reloader) loop(ctx context.Context) {
	defer rl.wg.Done()
	defer func() {
		if err := rl.watcher.Close(); err != nil {
			rl.logger.Warn("Failed to close file watcher", "error", err)
		}
	}()

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-rl.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Chmod != 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := rl.addTree(event.Name); err != nil {
						rl.logger.Warn("Failed to watch new directory", "path", event.Name, "error", err)
					}
				}
			}

			if debounceTimer != nil {
				debounceTimer.Reset(rl.debounce)
			} else {
				debounceTimer = time.AfterFunc(rl.debounce, rl.Broadcast)
			}

		case err, ok := <-rl.watcher.Errors:
			if !ok {
				return
			}
			rl.logger.Warn("Watcher error", "error", err)
		}
	}
}

// Broadcast signals every connected client. A client that already has a
// reload pending is skipped.
func (rl *Reloader) Broadcast() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ch := range rl.clients {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (rl *Reloader) subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	rl.mu.Lock()
	rl.clients[ch] = struct{}{}
	rl.mu.Unlock()
	return ch
}

func (rl *Reloader) unsubscribe(ch chan struct{}) {
	rl.mu.Lock()
	delete(rl.clients, ch)
	rl.mu.Unlock()
}

// ServeHTTP streams reload events to one browser.
func (rl *Reloader) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	rc := http.NewResponseController(w)
	ch := rl.subscribe()
	defer rl.unsubscribe(ch)

	_, _ = fmt.Fprintf(w, "data: connected\n\n")
	if err := rc.Flush(); err != nil {
		rl.logger.Warn("Event stream not flushable", "error", err)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ch:
			_, _ = fmt.Fprintf(w, "data: reload\n\n")
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func (s *Server) withReload(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == EventsPath {
			s.reloader.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
