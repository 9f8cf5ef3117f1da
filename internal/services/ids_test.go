package services

import (
	"errors"
	"testing"

	"github.com/desertthunder/spx/internal/shared"
)

func TestParseRef(t *testing.T) {
	const id = "4iV5W9uYEdYUVa79Axb7Rh"

	tc := []struct {
		name     string
		input    string
		fallback Kind
		want     Ref
		wantErr  error
	}{
		{name: "uri", input: "spotify:track:" + id, want: Ref{KindTrack, id}},
		{name: "legacy playlist uri", input: "spotify:user:someone:playlist:" + id, want: Ref{KindPlaylist, id}},
		{name: "link", input: "https://open.spotify.com/album/" + id + "?si=abc", want: Ref{KindAlbum, id}},
		{name: "locale link", input: "https://open.spotify.com/intl-es/artist/" + id, want: Ref{KindArtist, id}},
		{name: "scheme-less link", input: "open.spotify.com/show/" + id, want: Ref{KindShow, id}},
		{name: "bare id", input: id, fallback: KindAudiobook, want: Ref{KindAudiobook, id}},
		{name: "padded", input: "  " + id + "\n", fallback: KindTrack, want: Ref{KindTrack, id}},
		{name: "empty", input: "", fallback: KindTrack, wantErr: shared.ErrMissingArgument},
		{name: "bare id without kind", input: id, wantErr: shared.ErrInvalidArgument},
		{name: "short id", input: "spotify:track:abc", wantErr: shared.ErrInvalidArgument},
		{name: "bad kind", input: "spotify:user:" + id, wantErr: shared.ErrInvalidArgument},
		{name: "too many parts", input: "spotify:track:" + id + ":x", wantErr: shared.ErrInvalidArgument},
		{name: "link without id", input: "https://open.spotify.com/track", wantErr: shared.ErrInvalidArgument},
		{name: "bad characters", input: "spotify:track:4iV5W9uYEdYUVa79Axb7R-", wantErr: shared.ErrInvalidArgument},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRef(tt.input, tt.fallback)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseRef(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRef(t *testing.T) {
	ref := Ref{Kind: KindPlaylist, ID: "37i9dQZF1DXcBWIGoYBM5M"}
	if ref.URI() != "spotify:playlist:37i9dQZF1DXcBWIGoYBM5M" {
		t.Errorf("URI() = %s", ref.URI())
	}

	contexts := map[Kind]bool{
		KindAlbum: true, KindPlaylist: true, KindArtist: true, KindShow: true, KindAudiobook: true,
		KindTrack: false, KindEpisode: false,
	}
	for kind, want := range contexts {
		if got := (Ref{Kind: kind}).IsContext(); got != want {
			t.Errorf("%s IsContext() = %v, want %v", kind, got, want)
		}
	}
}

func TestResolveID(t *testing.T) {
	const id = "1DFixLWuPkv3KT3TnV35m3"

	got, err := ResolveID("https://open.spotify.com/album/"+id, KindAlbum)
	if err != nil || got != id {
		t.Errorf("ResolveID = %q, %v", got, err)
	}

	if _, err := ResolveID("spotify:track:"+id, KindAlbum); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("kind mismatch should be rejected, got %v", err)
	}
}
