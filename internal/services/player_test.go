package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/desertthunder/spx/internal/shared"
)

func TestPlayer(t *testing.T) {
	type captured struct {
		method, path, device string
		body                 map[string]any
	}

	record := func(t *testing.T) (*SpotifyService, *captured) {
		got := &captured{}
		srv, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			got.method, got.path = r.Method, r.URL.Path
			got.device = r.URL.Query().Get("device_id")
			data, _ := io.ReadAll(r.Body)
			if len(data) > 0 {
				json.Unmarshal(data, &got.body)
			}
			w.WriteHeader(http.StatusNoContent)
		}, SpotifyOptions{})
		return srv, got
	}

	t.Run("Play Track", func(t *testing.T) {
		srv, got := record(t)
		if err := srv.Play(context.Background(), "4iV5W9uYEdYUVa79Axb7Rh", "dev1"); err != nil {
			t.Fatal(err)
		}
		if got.method != http.MethodPut || got.path != "/me/player/play" || got.device != "dev1" {
			t.Errorf("unexpected request: %+v", got)
		}
		uris, ok := got.body["uris"].([]any)
		if !ok || len(uris) != 1 || uris[0] != "spotify:track:4iV5W9uYEdYUVa79Axb7Rh" {
			t.Errorf("uris = %v", got.body["uris"])
		}
		if _, ok := got.body["context_uri"]; ok {
			t.Error("context_uri should be omitted for a track")
		}
	})

	t.Run("Play Album Context", func(t *testing.T) {
		srv, got := record(t)
		if err := srv.Play(context.Background(), "https://open.spotify.com/album/1DFixLWuPkv3KT3TnV35m3", ""); err != nil {
			t.Fatal(err)
		}
		if got.body["context_uri"] != "spotify:album:1DFixLWuPkv3KT3TnV35m3" {
			t.Errorf("context_uri = %v", got.body["context_uri"])
		}
		if got.device != "" {
			t.Errorf("device_id should be omitted, got %q", got.device)
		}
	})

	t.Run("Play Invalid", func(t *testing.T) {
		srv, _ := record(t)
		if err := srv.Play(context.Background(), "nope", ""); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Pause And Resume", func(t *testing.T) {
		srv, got := record(t)
		if err := srv.Pause(context.Background(), ""); err != nil {
			t.Fatal(err)
		}
		if got.path != "/me/player/pause" || got.body != nil {
			t.Errorf("unexpected pause request: %+v", got)
		}

		if err := srv.Resume(context.Background(), "dev2"); err != nil {
			t.Fatal(err)
		}
		if got.path != "/me/player/play" || got.device != "dev2" || got.body != nil {
			t.Errorf("unexpected resume request: %+v", got)
		}
	})
}

func TestLibrary(t *testing.T) {
	t.Run("Time Range", func(t *testing.T) {
		srv, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("time_range"); got != MediumTerm {
				t.Errorf("time_range = %q", got)
			}
			writeJSON(w, http.StatusOK, `{"items":[{"id":"a1","name":"Artist"}],"total":1}`)
		}, SpotifyOptions{})

		page, err := srv.TopArtists(context.Background(), "", 5)
		if err != nil {
			t.Fatal(err)
		}
		if len(page.Items) != 1 {
			t.Errorf("expected 1 artist, got %d", len(page.Items))
		}

		if _, err := srv.TopTracks(context.Background(), "forever", 5); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Shows", func(t *testing.T) {
		var methods []string
		srv, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			methods = append(methods, r.Method+" "+r.URL.Path)
			if r.URL.Query().Get("ids") != "s1,s2" {
				t.Errorf("ids = %q", r.URL.Query().Get("ids"))
			}
			if r.URL.Path == "/me/shows/contains" {
				writeJSON(w, http.StatusOK, `[true,false]`)
				return
			}
			w.WriteHeader(http.StatusOK)
		}, SpotifyOptions{Market: "ES"})

		ctx := context.Background()
		ids := []string{"s1", "s2"}
		if err := srv.SaveShows(ctx, ids); err != nil {
			t.Fatal(err)
		}
		if err := srv.RemoveSavedShows(ctx, ids); err != nil {
			t.Fatal(err)
		}
		saved, err := srv.CheckSavedShows(ctx, ids)
		if err != nil {
			t.Fatal(err)
		}
		if len(saved) != 2 || !saved[0] || saved[1] {
			t.Errorf("saved = %v", saved)
		}

		want := []string{"PUT /me/shows", "DELETE /me/shows", "GET /me/shows/contains"}
		for i, m := range want {
			if i >= len(methods) || methods[i] != m {
				t.Errorf("request %d = %v, want %s", i, methods, m)
			}
		}
	})

	t.Run("Show ID Limits", func(t *testing.T) {
		srv := NewSpotifyService(nil, SpotifyOptions{})
		if err := srv.SaveShows(context.Background(), nil); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if err := srv.SaveShows(context.Background(), make([]string, 51)); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Check Length Mismatch", func(t *testing.T) {
		srv, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `[true]`)
		}, SpotifyOptions{})
		if _, err := srv.CheckSavedShows(context.Background(), []string{"a", "b"}); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestRecommendations(t *testing.T) {
	srv, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("seed_artists") != "a1" || q.Get("seed_tracks") != "t1,t2" {
			t.Errorf("seeds = %q / %q", q.Get("seed_artists"), q.Get("seed_tracks"))
		}
		writeJSON(w, http.StatusOK, `{"tracks":[{"id":"r1"},null]}`)
	}, SpotifyOptions{})

	tracks, err := srv.Recommendations(context.Background(), []string{"a1"}, []string{"t1", "t2"}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(tracks) != 1 {
		t.Errorf("expected 1 track, got %d", len(tracks))
	}

	if _, err := srv.Recommendations(context.Background(), nil, nil, 10); !errors.Is(err, shared.ErrMissingArgument) {
		t.Errorf("no seeds: %v", err)
	}
	six := []string{"1", "2", "3", "4", "5", "6"}
	if _, err := srv.Recommendations(context.Background(), six, nil, 10); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("too many seeds: %v", err)
	}
}
