// package server contains middleware & handlers for the local preview server
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/colorize/internal/preview"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers served by the local server.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Options configures a [Server].
type Options struct {
	Addr    string         // host:port; port 0 picks a free port
	Store   *preview.Store // Source of /preview/{id} blobs
	Compare CompareSource  // Data for /compare; nil disables the page
	Metrics http.Handler   // Served at /metrics when set
	Logger  *log.Logger
}

// Server serves local previews, the compare page and metrics on a loopback address.
type Server struct {
	opts   Options
	router *ChiRouter
	logger *log.Logger

	mu         sync.Mutex
	httpServer *http.Server
	url        string
	errs       chan error
}

// New builds a Server and its routes. Nothing listens until [Server.Start].
func New(opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = "127.0.0.1:0"
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	router := NewChiRouter()
	router.Use(Logging(opts.Logger), Recover())

	if opts.Store != nil {
		router.Handler(NewPreviewHandler(opts.Store))
	}
	if opts.Compare != nil {
		router.Handler(NewCompareHandler(opts.Compare))
	}
	if opts.Metrics != nil {
		router.Handle(http.MethodGet, "/metrics", opts.Metrics)
	}
	router.Handle(http.MethodGet, "/healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	}))

	return &Server{opts: opts, router: router, logger: opts.Logger, errs: make(chan error, 1)}
}

// Handler returns the routed handler, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer != nil {
		return fmt.Errorf("server already started at %s", s.url)
	}

	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.opts.Addr, err)
	}

	s.url = "http://" + ln.Addr().String()
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		s.logger.Info("local server listening", "url", s.url)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errs <- err
		}
	}()

	return nil
}

// URL returns the base URL once started.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

// Errors reports a fatal serve error.
func (s *Server) Errors() <-chan error {
	return s.errs
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	s.logger.Debug("local server stopped", "url", s.url)
	return nil
}
