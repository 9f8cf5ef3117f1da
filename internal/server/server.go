package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/spx/internal/shared"
)

// LoginTimeout bounds how long [CallbackServer.Wait] waits for the browser.
const LoginTimeout = 2 * time.Minute

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows which paths it serves.
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

// CallbackServer is the short-lived HTTP server that receives the OAuth redirect.
type CallbackServer struct {
	handler  *OAuthHandler
	server   *http.Server
	listener net.Listener
	logger   *log.Logger
	errs     chan error
}

// NewCallbackServer routes handler through a [BasicRouter] with request logging.
func NewCallbackServer(addr string, handler *OAuthHandler, logger *log.Logger) *CallbackServer {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}

	router := NewBasicRouter()
	router.Use(LogRequests(logger))
	router.Handler(handler)

	return &CallbackServer{
		handler: handler,
		server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
		errs:   make(chan error, 1),
	}
}

// Start binds the listen address and serves in the background.
func (s *CallbackServer) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	s.listener = ln

	go func() {
		s.logger.Info("starting OAuth callback server", "addr", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errs <- err
		}
	}()
	return nil
}

// Addr returns the bound address, which differs from the configured one when port 0 was requested.
func (s *CallbackServer) Addr() string {
	if s.listener == nil {
		return s.server.Addr
	}
	return s.listener.Addr().String()
}

// Wait blocks until the callback has been processed, the server fails, ctx is
// done or timeout elapses. The server is shut down before returning.
func (s *CallbackServer) Wait(ctx context.Context, timeout time.Duration) error {
	defer s.shutdown()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-s.handler.Result():
		return result.Error()
	case err := <-s.errs:
		return fmt.Errorf("server error: %w", err)
	case <-timer.C:
		return fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *CallbackServer) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Warn("error shutting down server", "error", err)
	}
}
