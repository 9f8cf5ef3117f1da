package server

import (
	"net/http"
	"slices"
	"time"

	"github.com/charmbracelet/log"
)

// BasicRouter implements [Router] on an [http.ServeMux] using method patterns,
// so a path registered for GET answers other methods with 405.
type BasicRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware
}

// NewBasicRouter returns an empty router.
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{mux: http.NewServeMux()}
}

// Use appends middleware. The first one added is the outermost.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers handler for method and path behind the middleware stack.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	r.mux.Handle(method+" "+path, r.Apply(handler))
}

// Handler registers h for GET on each of its routes.
func (r *BasicRouter) Handler(h Handler) {
	wrapped := r.Apply(h)
	for _, route := range h.Routes() {
		r.mux.Handle(http.MethodGet+" "+route, wrapped)
	}
}

func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps handler in the middleware stack.
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	for _, mw := range slices.Backward(r.middlewares) {
		handler = mw(handler)
	}
	return handler
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// LogRequests logs each request at debug level. Query strings are omitted since
// they carry authorization codes.
func LogRequests(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, req)
			logger.Debug("callback request", "method", req.Method, "path", req.URL.Path, "status", rec.status, "took", time.Since(start))
		})
	}
}
