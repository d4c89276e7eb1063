// Package server implements the development server: static files from the
// project root, a live-reload websocket channel and a status page.
package server

import (
	"context"
	_ "embed"
	"errors"
	"net"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/spf13/afero"

	pipeerrors "github.com/conneroisu/assetpipe/internal/errors"
	"github.com/conneroisu/assetpipe/internal/logging"
)

const (
	prefix       = "/__assetpipe/"
	clientPath   = prefix + "client.js"
	socketPath   = prefix + "ws"
	statusPath   = prefix + "status"
	shutdownWait = 5 * time.Second
)

//go:embed client.js
var clientJS []byte

// Server serves the project tree and pushes live-reload notifications.
type Server struct {
	*HubNotifier

	fs     afero.Fs
	addr   string
	hub    *Hub
	status *statusBoard
	logger logging.Logger

	mu    sync.RWMutex
	bound net.Addr
}

// New creates a server for fsys bound to addr ("host:port") once run.
func New(fsys afero.Fs, addr string, logger logging.Logger) *Server {
	logger = logger.WithComponent("server")
	hub := NewHub(logger)

	return &Server{
		HubNotifier: NewHubNotifier(hub),
		fs:          fsys,
		addr:        addr,
		hub:         hub,
		status:      newStatusBoard(),
		logger:      logger,
	}
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(socketPath, s.hub)
	mux.HandleFunc(clientPath, s.handleClient)
	mux.HandleFunc(statusPath, s.handleStatus)
	mux.Handle("/", s.staticHandler())
	return mux
}

// Name implements task.Task.
func (s *Server) Name() string {
	return "serve"
}

// Run listens on the configured address and serves until ctx is cancelled.
// A bind failure is returned immediately as a network error.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return pipeerrors.NewNetworkError(pipeerrors.ErrCodeBindFailed, "listen on "+s.addr, err).WithTask("serve")
	}

	s.mu.Lock()
	s.bound = ln.Addr()
	s.mu.Unlock()

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.logger.Info(ctx, "Dev server listening", "url", "http://"+ln.Addr().String())

	select {
	case <-ctx.Done():
		s.hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWait)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return pipeerrors.NewNetworkError(pipeerrors.ErrCodeServeFailed, "shutdown", err).WithTask("serve")
		}
		s.logger.Info(ctx, "Dev server stopped")
		return nil

	case err := <-errCh:
		s.hub.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return pipeerrors.NewNetworkError(pipeerrors.ErrCodeServeFailed, "serve", err).WithTask("serve")
	}
}

// Addr returns the bound address, or nil before Run has bound.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bound
}

// Clients returns the number of connected live-reload clients.
func (s *Server) Clients() int {
	return s.hub.Count()
}

// Report records the outcome of a task run for the status page.
func (s *Server) Report(name string, err error) {
	s.status.record(name, err, time.Now())
}

func (s *Server) handleClient(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(clientJS)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	templ.Handler(statusPage(s.hub.Count(), s.status.snapshot())).ServeHTTP(w, r)
}

// staticHandler serves the project tree. HTML documents get the client
// script injected; everything else is served as-is.
func (s *Server) staticHandler() http.Handler {
	files := http.FileServer(afero.NewHttpFs(s.fs))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean("/" + r.URL.Path)
		if strings.HasSuffix(r.URL.Path, "/") {
			name = path.Join(name, "index.html")
		}

		if !isHTML(name) || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
			files.ServeHTTP(w, r)
			return
		}

		f, err := s.fs.Open(name)
		if err != nil {
			files.ServeHTTP(w, r)
			return
		}
		defer f.Close()

		if info, err := f.Stat(); err != nil || info.IsDir() {
			files.ServeHTTP(w, r)
			return
		}

		page, err := injectScript(f, clientPath)
		if err != nil {
			s.logger.Warn(r.Context(), err, "Failed to inject live-reload client", "path", name)
			files.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write(page)
	})
}

func isHTML(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	return ext == ".html" || ext == ".htm"
}
