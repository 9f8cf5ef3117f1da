package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/desertthunder/spx/internal/shared"
)

// Exchanger trades an authorization code for a credential. [auth.Manager] satisfies it.
type Exchanger interface {
	ExchangeCode(ctx context.Context, code string) error
}

// OAuthResult is the outcome of the one callback an [OAuthHandler] accepts.
type OAuthResult struct {
	err error
}

func (o *OAuthResult) Error() error {
	return o.err
}

var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>spx: {{.Title}}</title>
  <style>
    body { font-family: system-ui, sans-serif; display: grid; place-items: center;
           height: 100vh; margin: 0; background: #121212; color: #b3b3b3; }
    main { text-align: center; }
    h1 { color: {{if .OK}}#1DB954{{else}}#e22134{{end}}; margin-bottom: .5rem; }
  </style>
</head>
<body>
  <main>
    <h1>{{if .OK}}✓{{else}}✗{{end}} {{.Title}}</h1>
    <p>{{.Detail}}</p>
  </main>
</body>
</html>
`))

type callbackView struct {
	OK     bool
	Title  string
	Detail string
}

// OAuthHandler serves the redirect URI of the authorization code flow. It
// accepts a single callback; replays are rejected.
type OAuthHandler struct {
	exchanger Exchanger
	state     string
	path      string
	used      atomic.Bool
	results   chan OAuthResult
	once      sync.Once
}

// DefaultCallbackPath is served when no redirect path is given.
const DefaultCallbackPath = "/callback"

// NewOAuthHandler creates a handler for the redirect URI path that expects
// state on the callback and passes the authorization code to exchanger.
func NewOAuthHandler(exchanger Exchanger, state, path string) *OAuthHandler {
	if path == "" {
		path = DefaultCallbackPath
	}
	return &OAuthHandler{
		exchanger: exchanger,
		state:     state,
		path:      path,
		results:   make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{h.path}
}

// ServeHTTP validates the callback, runs the code exchange and reports the
// outcome both to the browser and through [OAuthHandler.Result].
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.used.CompareAndSwap(false, true) {
		render(w, http.StatusBadRequest, callbackView{Title: "Link already used", Detail: "Run 'spx auth login' again."})
		return
	}

	status, err := h.authorize(r)
	h.Send(OAuthResult{err: err})
	if err != nil {
		render(w, status, callbackView{Title: "Sign-in failed", Detail: err.Error()})
		return
	}
	render(w, http.StatusOK, callbackView{OK: true, Title: "Signed in to Spotify", Detail: "You can close this tab and return to spx."})
}

func (h *OAuthHandler) authorize(r *http.Request) (int, error) {
	q := r.URL.Query()

	if state := q.Get("state"); state == "" || state != h.state {
		return http.StatusBadRequest, fmt.Errorf("%w: invalid state parameter", shared.ErrAuthFailed)
	}

	code := q.Get("code")
	if code == "" {
		return http.StatusBadRequest, fmt.Errorf("%w: %s %s", shared.ErrAuthFailed, q.Get("error"), q.Get("error_description"))
	}

	// Dropping the browser connection must not abort the exchange.
	if err := h.exchanger.ExchangeCode(context.WithoutCancel(r.Context()), code); err != nil {
		return http.StatusInternalServerError, fmt.Errorf("token exchange failed: %w", err)
	}
	return http.StatusOK, nil
}

func render(w http.ResponseWriter, status int, view callbackView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	callbackPage.Execute(w, view)
}

// Send delivers result on the result channel. Only the first call has an effect.
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.results <- result
		close(h.results)
	})
}

// Result receives exactly one [OAuthResult], after which it is closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.results
}
