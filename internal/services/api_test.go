package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/spx/internal/shared"
	tu "github.com/desertthunder/spx/internal/testing"
)

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Custom BaseURL and Client", func(t *testing.T) {
			customClient := &http.Client{}
			srv := NewAPIService(&tu.StaticTokens{}, "http://example.com/", customClient)

			if srv.baseURL != "http://example.com" {
				t.Errorf("expected baseURL 'http://example.com', got %s", srv.baseURL)
			}
			if srv.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("With Empty BaseURL and Nil Client", func(t *testing.T) {
			srv := NewAPIService(&tu.StaticTokens{}, "", nil)

			if srv.baseURL != DefaultBaseURL {
				t.Errorf("expected default baseURL %s, got %s", DefaultBaseURL, srv.baseURL)
			}
			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("Successful Request With JSON Response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("expected GET method, got %s", r.Method)
				}
				if r.URL.Path != "/me/player/devices" {
					t.Errorf("expected path '/me/player/devices', got %s", r.URL.Path)
				}
				if r.Header.Get("Authorization") != "Bearer abc" {
					t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
				}
				writeJSON(w, http.StatusOK, `{"devices":[]}`)
			}))
			defer server.Close()

			srv := NewAPIService(&tu.StaticTokens{Token: "abc"}, server.URL, nil)
			resp, err := srv.Get(context.Background(), "me/player/devices")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.StatusCode != http.StatusOK {
				t.Errorf("expected status 200, got %d", resp.StatusCode)
			}
			if !resp.IsJSON || resp.JSONData == nil {
				t.Error("expected JSON response")
			}
		})

		t.Run("Non-2xx Is Returned As-Is", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusNotFound, `{"error":{"status":404,"message":"Not found."}}`)
			}))
			defer server.Close()

			srv := NewAPIService(&tu.StaticTokens{}, server.URL, nil)
			resp, err := srv.Get(context.Background(), "/unknown")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.StatusCode != http.StatusNotFound {
				t.Errorf("expected 404, got %d", resp.StatusCode)
			}
		})

		t.Run("Non-JSON Response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("plain text"))
			}))
			defer server.Close()

			srv := NewAPIService(&tu.StaticTokens{}, server.URL, nil)
			resp, err := srv.Get(context.Background(), server.URL+"/absolute")
			if err != nil {
				t.Fatal(err)
			}
			if resp.IsJSON {
				t.Error("expected response not to be JSON")
			}
			if string(resp.Body) != "plain text" {
				t.Errorf("body = %q", resp.Body)
			}
		})

		t.Run("Token Error", func(t *testing.T) {
			srv := NewAPIService(&tu.StaticTokens{Err: shared.ErrNotAuthenticated}, "http://127.0.0.1:0", nil)
			if _, err := srv.Get(context.Background(), "/me"); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})

		t.Run("Transport Error", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
			srv := NewAPIService(&tu.StaticTokens{}, "http://example.com", client)
			if _, err := srv.Get(context.Background(), "/me"); err == nil {
				t.Error("expected error for transport failure")
			}
		})

		t.Run("Read Error", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
				StatusCode: http.StatusOK,
				Body:       &tu.FCloser{},
				Header:     http.Header{},
			}, nil)}
			srv := NewAPIService(&tu.StaticTokens{}, "http://example.com", client)
			_, err := srv.Get(context.Background(), "/me")
			if err == nil || !strings.Contains(err.Error(), "failed to read response") {
				t.Errorf("expected read error, got %v", err)
			}
		})
	})

	t.Run("Post", func(t *testing.T) {
		t.Run("Sends JSON Body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST method, got %s", r.Method)
				}
				if r.Header.Get("Content-Type") != "application/json" {
					t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
				}
				body, _ := io.ReadAll(r.Body)
				if string(body) != `{"name":"New"}` {
					t.Errorf("body = %s", body)
				}
				writeJSON(w, http.StatusCreated, `{"id":"p1"}`)
			}))
			defer server.Close()

			srv := NewAPIService(&tu.StaticTokens{}, server.URL, nil)
			resp, err := srv.Post(context.Background(), "/users/ada/playlists", []byte(`{"name":"New"}`))
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != http.StatusCreated {
				t.Errorf("expected 201, got %d", resp.StatusCode)
			}
		})

		t.Run("Invalid JSON", func(t *testing.T) {
			srv := NewAPIService(&tu.StaticTokens{}, "http://example.com", nil)
			if _, err := srv.Post(context.Background(), "/x", []byte("{not json")); err == nil {
				t.Error("expected error for invalid JSON body")
			}
		})
	})
}
