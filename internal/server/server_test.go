package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/spx/internal/shared"
)

type fakeExchanger struct {
	mu    sync.Mutex
	codes []string
	err   error
}

func (f *fakeExchanger) ExchangeCode(ctx context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes = append(f.codes, code)
	return f.err
}

func (f *fakeExchanger) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.codes)
}

func callback(t *testing.T, h http.Handler, query string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?"+query, nil))
	return rec
}

func TestOAuthHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		ex := &fakeExchanger{}
		h := NewOAuthHandler(ex, "xyz", "")

		rec := callback(t, h, "state=xyz&code=abc")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Signed in") {
			t.Error("expected success page")
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("content type = %q", ct)
		}

		result := <-h.Result()
		if result.Error() != nil {
			t.Errorf("unexpected error: %v", result.Error())
		}
		if len(ex.codes) != 1 || ex.codes[0] != "abc" {
			t.Errorf("codes = %v", ex.codes)
		}
	})

	t.Run("Rejections", func(t *testing.T) {
		tc := []struct {
			name   string
			query  string
			status int
		}{
			{name: "wrong state", query: "state=nope&code=abc", status: http.StatusBadRequest},
			{name: "missing state", query: "code=abc", status: http.StatusBadRequest},
			{name: "access denied", query: "state=xyz&error=access_denied", status: http.StatusBadRequest},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				ex := &fakeExchanger{}
				h := NewOAuthHandler(ex, "xyz", "")

				rec := callback(t, h, tt.query)
				if rec.Code != tt.status {
					t.Errorf("status = %d, want %d", rec.Code, tt.status)
				}
				result := <-h.Result()
				if !errors.Is(result.Error(), shared.ErrAuthFailed) {
					t.Errorf("expected ErrAuthFailed, got %v", result.Error())
				}
				if ex.calls() != 0 {
					t.Error("exchanger should not be called")
				}
			})
		}
	})

	t.Run("Denied Reason Reported", func(t *testing.T) {
		h := NewOAuthHandler(&fakeExchanger{}, "xyz", "")
		rec := callback(t, h, "state=xyz&error=access_denied")
		if !strings.Contains(rec.Body.String(), "access_denied") {
			t.Errorf("failure page should show the reason: %s", rec.Body.String())
		}
		result := <-h.Result()
		if !strings.Contains(result.Error().Error(), "access_denied") {
			t.Errorf("error should carry the reason: %v", result.Error())
		}
	})

	t.Run("Exchange Failure", func(t *testing.T) {
		h := NewOAuthHandler(&fakeExchanger{err: shared.ErrAuthFailed}, "xyz", "")
		rec := callback(t, h, "state=xyz&code=abc")
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}
		if result := <-h.Result(); !errors.Is(result.Error(), shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", result.Error())
		}
	})

	t.Run("Single Use", func(t *testing.T) {
		ex := &fakeExchanger{}
		h := NewOAuthHandler(ex, "xyz", "")

		callback(t, h, "state=xyz&code=first")
		rec := callback(t, h, "state=xyz&code=second")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("replay status = %d, want 400", rec.Code)
		}
		if ex.calls() != 1 {
			t.Errorf("exchanger called %d times, want 1", ex.calls())
		}

		if _, ok := <-h.Result(); !ok {
			t.Fatal("expected one result")
		}
		if _, ok := <-h.Result(); ok {
			t.Error("channel should be closed after one result")
		}
	})
}

func TestBasicRouter(t *testing.T) {
	t.Run("Method Filtering", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			io.WriteString(w, "pong")
		}))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if rec.Body.String() != "pong" {
			t.Errorf("body = %q", rec.Body.String())
		}

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", rec.Code)
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, req)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(mark("first"), mark("second"))
		r.Handler(NewOAuthHandler(&fakeExchanger{}, "s", ""))

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?state=s&code=c", nil))
		if strings.Join(order, ",") != "first,second" {
			t.Errorf("order = %v", order)
		}
	})
}

func TestCallbackServer(t *testing.T) {
	t.Run("Completes On Callback", func(t *testing.T) {
		ex := &fakeExchanger{}
		h := NewOAuthHandler(ex, "state-1", "")
		srv := NewCallbackServer("127.0.0.1:0", h, nil)
		if err := srv.Start(); err != nil {
			t.Fatal(err)
		}

		go func() {
			resp, err := http.Get("http://" + srv.Addr() + "/callback?state=state-1&code=c0de")
			if err == nil {
				resp.Body.Close()
			}
		}()

		if err := srv.Wait(context.Background(), 5*time.Second); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		if ex.calls() != 1 {
			t.Errorf("exchanger called %d times", ex.calls())
		}
	})

	t.Run("Serves The Redirect Path", func(t *testing.T) {
		ex := &fakeExchanger{}
		srv := NewCallbackServer("127.0.0.1:0", NewOAuthHandler(ex, "state-2", "/auth/cb"), nil)
		if err := srv.Start(); err != nil {
			t.Fatal(err)
		}

		resp, err := http.Get("http://" + srv.Addr() + "/callback?state=state-2&code=c0de")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("default path status = %d, want 404", resp.StatusCode)
		}

		go func() {
			resp, err := http.Get("http://" + srv.Addr() + "/auth/cb?state=state-2&code=c0de")
			if err == nil {
				resp.Body.Close()
			}
		}()

		if err := srv.Wait(context.Background(), 5*time.Second); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		if ex.calls() != 1 {
			t.Errorf("exchanger called %d times", ex.calls())
		}
	})

	t.Run("Timeout", func(t *testing.T) {
		srv := NewCallbackServer("127.0.0.1:0", NewOAuthHandler(&fakeExchanger{}, "s", ""), nil)
		if err := srv.Start(); err != nil {
			t.Fatal(err)
		}
		if err := srv.Wait(context.Background(), 20*time.Millisecond); !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("Canceled", func(t *testing.T) {
		srv := NewCallbackServer("127.0.0.1:0", NewOAuthHandler(&fakeExchanger{}, "s", ""), nil)
		if err := srv.Start(); err != nil {
			t.Fatal(err)
		}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := srv.Wait(ctx, time.Minute); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("Address In Use", func(t *testing.T) {
		first := NewCallbackServer("127.0.0.1:0", NewOAuthHandler(&fakeExchanger{}, "s", ""), nil)
		if err := first.Start(); err != nil {
			t.Fatal(err)
		}
		defer first.shutdown()

		second := NewCallbackServer(first.Addr(), NewOAuthHandler(&fakeExchanger{}, "s", ""), nil)
		if err := second.Start(); err == nil {
			t.Error("expected listen error for a bound address")
		}
	})
}
