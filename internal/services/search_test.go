package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/desertthunder/spx/internal/shared"
)

func TestParseSearchType(t *testing.T) {
	tc := []struct {
		in      string
		want    SearchType
		wantErr bool
	}{
		{in: "track", want: SearchTrack},
		{in: " Album ", want: SearchAlbum},
		{in: "AUDIOBOOK", want: SearchAudiobook},
		{in: "episode", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSearchType(tt.in)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidArgument) {
					t.Errorf("expected ErrInvalidArgument, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseSearchType(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestSearch(t *testing.T) {
	t.Run("Empty Query", func(t *testing.T) {
		srv, tokens := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("server should not be called")
		}, SpotifyOptions{})

		if _, err := srv.Search(context.Background(), "   ", nil, SearchOptions{}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if tokens.Calls() != 0 {
			t.Error("no token should be requested for an invalid query")
		}
	})

	t.Run("Defaults To Track", func(t *testing.T) {
		srv, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if r.URL.Path != "/search" {
				t.Errorf("path = %s", r.URL.Path)
			}
			if q.Get("type") != "track" {
				t.Errorf("type = %q, want track", q.Get("type"))
			}
			if q.Get("q") != "bohemian rhapsody" {
				t.Errorf("q = %q", q.Get("q"))
			}
			if q.Get("market") != "ES" {
				t.Errorf("market = %q", q.Get("market"))
			}
			if q.Has("include_external") {
				t.Error("include_external should be omitted")
			}
			writeJSON(w, http.StatusOK, `{"tracks":{"items":[{"id":"t1","name":"Bohemian Rhapsody"},null],"total":2,"next":"http://next"}}`)
		}, SpotifyOptions{Market: "ES"})

		res, err := srv.SearchKind(context.Background(), "bohemian rhapsody", SearchTrack, SearchOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if res.Len() != 1 || res.Tracks[0].Name != "Bohemian Rhapsody" {
			t.Errorf("unexpected tracks: %+v", res.Tracks)
		}
		if res.Total != 2 || !res.HasNext {
			t.Errorf("Total/HasNext = %d/%v", res.Total, res.HasNext)
		}
	})

	t.Run("Multiple Types", func(t *testing.T) {
		srv, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("type") != "show,audiobook" {
				t.Errorf("type = %q", q.Get("type"))
			}
			if q.Get("include_external") != "audio" {
				t.Errorf("include_external = %q", q.Get("include_external"))
			}
			writeJSON(w, http.StatusOK, `{"shows":{"items":[{"id":"s1","name":"Show"}],"total":1},"audiobooks":{"items":[null],"total":1}}`)
		}, SpotifyOptions{})

		resp, err := srv.Search(context.Background(), "history", []SearchType{SearchShow, SearchAudiobook}, SearchOptions{IncludeExternal: true})
		if err != nil {
			t.Fatal(err)
		}

		shows, _ := resp.Result(SearchShow)
		if shows.Len() != 1 {
			t.Errorf("expected 1 show, got %d", shows.Len())
		}
		books, _ := resp.Result(SearchAudiobook)
		if books.Len() != 0 || books.Total != 1 {
			t.Errorf("audiobooks Len/Total = %d/%d", books.Len(), books.Total)
		}
		albums, err := resp.Result(SearchAlbum)
		if err != nil || albums.Len() != 0 {
			t.Errorf("absent kind should yield an empty result, got %v %v", albums, err)
		}
		if _, err := resp.Result("episode"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Invalid Type", func(t *testing.T) {
		srv := NewSpotifyService(nil, SpotifyOptions{})
		if _, err := srv.Search(context.Background(), "x", []SearchType{"podcast"}, SearchOptions{}); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestTrackQuery(t *testing.T) {
	tc := []struct{ title, artist, want string }{
		{"Yesterday", "The Beatles", `track:"Yesterday" artist:"The Beatles"`},
		{" Yesterday ", "", `track:"Yesterday"`},
		{"", "Queen", `artist:"Queen"`},
		{"", " ", ""},
	}
	for _, tt := range tc {
		if got := trackQuery(tt.title, tt.artist); got != tt.want {
			t.Errorf("trackQuery(%q, %q) = %q, want %q", tt.title, tt.artist, got, tt.want)
		}
	}
}
