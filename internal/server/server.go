// package server contains the router, middleware & handlers for the sandbox playlist API
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, authentication, recovery, etc.
type Middleware func(http.Handler) http.Handler

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

const shutdownTimeout = 5 * time.Second

// Sandbox is an in-memory implementation of the playlist API.
type Sandbox struct {
	store  *Store
	router *BasicRouter
	logger *log.Logger
}

// NewSandbox wires the API routes for store. Playlist routes require a bearer token.
func NewSandbox(store *Store, logger *log.Logger) *Sandbox {
	router := NewBasicRouter()
	router.Use(Recoverer(logger), RequestLogger(logger))

	protected := router.Group()
	protected.Use(RequireToken(store))

	NewAPIHandler(store).Register(router, protected)

	return &Sandbox{store: store, router: router, logger: logger}
}

// Store returns the backing store.
func (s *Sandbox) Store() *Store {
	return s.store
}

// Handler returns the API mounted under prefix (e.g. "/api"). An empty prefix mounts it at the root.
func (s *Sandbox) Handler(prefix string) http.Handler {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return s.router
	}

	mux := http.NewServeMux()
	mux.Handle(prefix+"/", http.StripPrefix(prefix, s.router))
	return mux
}

// ListenAndServe serves the API on addr until ctx is canceled, then shuts down gracefully.
//
// ready, when non-nil, receives the bound address once the listener is open.
func (s *Sandbox) ListenAndServe(ctx context.Context, addr, prefix string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(prefix),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if ready != nil {
		ready(ln.Addr())
	}
	s.logger.Info("sandbox API listening", "addr", ln.Addr().String(), "prefix", prefix)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("sandbox API shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
