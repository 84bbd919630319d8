// Package devserver is the local development web server: static files from
// an ordered list of directories, prefix routes, and live reload over
// server-sent events.
package devserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/browser"
	prom "github.com/prometheus/client_golang/prometheus"

	ferrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/logfields"
	"git.home.luguber.info/inful/sitepipe/internal/metrics"
	smw "git.home.luguber.info/inful/sitepipe/internal/server/middleware"
)

// Reserved endpoints.
const (
	EventsPath  = "/__sitepipe/livereload"
	ScriptPath  = "/__sitepipe/livereload.js"
	MetricsPath = "/__sitepipe/metrics"
	HealthPath  = "/__sitepipe/health"
)

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	Port       int // 0 picks a free port
	BaseDirs   []string
	Routes     map[string]string // URL prefix -> directory, checked before BaseDirs
	LiveReload bool
	Open       bool

	Recorder metrics.Recorder
	Registry *prom.Registry // exposed at MetricsPath when set

	// OpenURL opens the browser; defaults to the system browser.
	OpenURL func(url string) error
}

type route struct {
	prefix string
	dir    string
}

// Server serves a site during development.
type Server struct {
	opts    Options
	routes  []route
	hub     *LiveReloadHub
	handler http.Handler

	mu     sync.Mutex
	srv    *http.Server
	ln     net.Listener
	served chan error
}

// New builds a server; nothing is bound until Start.
func New(opts Options) *Server {
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.OpenURL == nil {
		opts.OpenURL = browser.OpenURL
	}
	s := &Server{opts: opts, hub: NewLiveReloadHub(opts.Recorder)}
	for prefix, dir := range opts.Routes {
		s.routes = append(s.routes, route{prefix: "/" + strings.Trim(prefix, "/"), dir: dir})
	}
	// Longest prefix first.
	sort.Slice(s.routes, func(i, j int) bool { return len(s.routes[i].prefix) > len(s.routes[j].prefix) })
	s.handler = s.buildHandler()
	return s
}

func (s *Server) buildHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(HealthPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if s.opts.LiveReload {
		mux.Handle(EventsPath, s.hub)
		mux.HandleFunc(ScriptPath, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache")
			_, _ = w.Write([]byte(LiveReloadScript))
		})
	}
	if s.opts.Registry != nil {
		mux.Handle(MetricsPath, metrics.HTTPHandler(s.opts.Registry))
	}
	mux.HandleFunc("/", s.serveStatic)
	return smw.Chain(slog.Default())(mux)
}

// Handler returns the HTTP handler (useful with httptest).
func (s *Server) Handler() http.Handler { return s.handler }

// Hub returns the live reload hub.
func (s *Server) Hub() *LiveReloadHub { return s.hub }

// Reload asks connected browsers to reload.
func (s *Server) Reload() {
	if s.opts.LiveReload {
		s.hub.Reload()
	}
}

// resolve maps a URL path to a file on disk.
func (s *Server) resolve(urlPath string) (string, bool) {
	clean := path.Clean("/" + urlPath)
	for _, r := range s.routes {
		if clean == r.prefix || strings.HasPrefix(clean, r.prefix+"/") {
			if p, ok := lookupFile(r.dir, strings.TrimPrefix(clean, r.prefix)); ok {
				return p, true
			}
		}
	}
	for _, dir := range s.opts.BaseDirs {
		if p, ok := lookupFile(dir, clean); ok {
			return p, true
		}
	}
	return "", false
}

func lookupFile(dir, rel string) (string, bool) {
	p := filepath.Join(dir, filepath.FromSlash(rel))
	info, err := os.Stat(p)
	if err != nil {
		return "", false
	}
	if info.IsDir() {
		p = filepath.Join(p, "index.html")
		if info, err = os.Stat(p); err != nil || info.IsDir() {
			return "", false
		}
	}
	return p, true
}

func (s *Server) serveStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	p, ok := s.resolve(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "read error", http.StatusInternalServerError)
		return
	}
	ext := strings.ToLower(filepath.Ext(p))
	if s.opts.LiveReload && (ext == ".html" || ext == ".htm") {
		data = InjectScript(data)
		w.Header().Set("Cache-Control", "no-cache")
	}
	var modTime time.Time
	if info, err := os.Stat(p); err == nil {
		modTime = info.ModTime()
	}
	http.ServeContent(w, r, filepath.Base(p), modTime, bytes.NewReader(data))
}

// Start binds the port and serves in the background. A bind failure is
// returned immediately.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return ferrors.ServerError("dev server already started").Build()
	}
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", fmt.Sprintf(":%d", s.opts.Port))
	if err != nil {
		return ferrors.ServerError(fmt.Sprintf("listen on port %d", s.opts.Port)).
			WithCause(err).
			WithContext("port", s.opts.Port).
			UserAction().
			Build()
	}
	s.ln = ln
	s.srv = &http.Server{Handler: s.handler, ReadHeaderTimeout: 10 * time.Second}
	s.served = make(chan error, 1)
	go func(srv *http.Server, ln net.Listener, served chan<- error) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			served <- err
		}
		close(served)
	}(s.srv, ln, s.served)

	slog.Info("Dev server listening", logfields.URL(s.URL()), slog.Any("base_dirs", s.opts.BaseDirs),
		slog.Bool("livereload", s.opts.LiveReload))
	if s.opts.Open {
		if err := s.opts.OpenURL(s.URL()); err != nil {
			slog.Warn("Could not open browser", logfields.URL(s.URL()), logfields.Error(err))
		}
	}
	return nil
}

// Port returns the bound port, or the configured one before Start.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		if addr, ok := s.ln.Addr().(*net.TCPAddr); ok {
			return addr.Port
		}
	}
	return s.opts.Port
}

// URL returns the local address browsers should open.
func (s *Server) URL() string {
	port := s.opts.Port
	if s.ln != nil {
		if addr, ok := s.ln.Addr().(*net.TCPAddr); ok {
			port = addr.Port
		}
	}
	return fmt.Sprintf("http://localhost:%d/", port)
}

// Wait blocks until ctx is done or the server fails.
func (s *Server) Wait(ctx context.Context) error {
	s.mu.Lock()
	served := s.served
	s.mu.Unlock()
	if served == nil {
		return ferrors.ServerError("dev server not started").Build()
	}
	select {
	case <-ctx.Done():
		return nil
	case err, ok := <-served:
		if ok && err != nil {
			return ferrors.ServerError("dev server stopped").WithCause(err).Build()
		}
		return nil
	}
}

// Stop closes live reload streams and shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	s.mu.Unlock()
	s.hub.Shutdown()
	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return ferrors.ServerError("dev server shutdown").WithCause(err).Build()
	}
	slog.Info("Dev server stopped")
	return nil
}
