package services

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/desertthunder/spx/internal/shared"
)

// Kind is the object type segment of a Spotify URI.
type Kind string

const (
	KindTrack     Kind = "track"
	KindAlbum     Kind = "album"
	KindArtist    Kind = "artist"
	KindPlaylist  Kind = "playlist"
	KindShow      Kind = "show"
	KindEpisode   Kind = "episode"
	KindAudiobook Kind = "audiobook"
	KindUser      Kind = "user"
)

var idPattern = regexp.MustCompile(`^[0-9A-Za-z]{22}$`)

// Ref identifies a catalog object.
type Ref struct {
	Kind Kind
	ID   string
}

// URI formats the ref as spotify:<kind>:<id>.
func (r Ref) URI() string {
	return "spotify:" + string(r.Kind) + ":" + r.ID
}

// IsContext reports whether playback of the ref starts a context rather than a single item.
func (r Ref) IsContext() bool {
	switch r.Kind {
	case KindAlbum, KindPlaylist, KindArtist, KindShow, KindAudiobook:
		return true
	}
	return false
}

// ParseRef accepts a spotify URI, an open.spotify.com link, or a bare id.
//
// A bare id takes fallback as its kind; fallback may be empty when the input is known to be a URI or link.
func ParseRef(input string, fallback Kind) (Ref, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Ref{}, fmt.Errorf("%w: empty id", shared.ErrMissingArgument)
	}

	if rest, ok := strings.CutPrefix(input, "spotify:"); ok {
		parts := strings.Split(rest, ":")
		// spotify:user:<name>:playlist:<id> is the legacy playlist form.
		if len(parts) == 4 && parts[0] == string(KindUser) && parts[2] == string(KindPlaylist) {
			parts = parts[2:]
		}
		if len(parts) != 2 {
			return Ref{}, fmt.Errorf("%w: malformed URI %q", shared.ErrInvalidArgument, input)
		}
		return newRef(Kind(parts[0]), parts[1], input)
	}

	if strings.Contains(input, "open.spotify.com") {
		u, err := url.Parse(input)
		if err != nil || u.Host == "" {
			if !strings.Contains(input, "://") {
				u, err = url.Parse("https://" + input)
			}
			if err != nil {
				return Ref{}, fmt.Errorf("%w: malformed link %q", shared.ErrInvalidArgument, input)
			}
		}
		segments := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
		// Links may carry a locale prefix such as /intl-es/.
		if len(segments) > 0 && strings.HasPrefix(segments[0], "intl-") {
			segments = segments[1:]
		}
		if len(segments) < 2 {
			return Ref{}, fmt.Errorf("%w: malformed link %q", shared.ErrInvalidArgument, input)
		}
		return newRef(Kind(segments[0]), segments[1], input)
	}

	if fallback == "" {
		return Ref{}, fmt.Errorf("%w: %q is not a spotify URI or link", shared.ErrInvalidArgument, input)
	}
	return newRef(fallback, input, input)
}

func newRef(kind Kind, id, input string) (Ref, error) {
	switch kind {
	case KindTrack, KindAlbum, KindArtist, KindPlaylist, KindShow, KindEpisode, KindAudiobook:
	default:
		return Ref{}, fmt.Errorf("%w: unsupported kind %q in %q", shared.ErrInvalidArgument, kind, input)
	}
	if !idPattern.MatchString(id) {
		return Ref{}, fmt.Errorf("%w: invalid id %q", shared.ErrInvalidArgument, id)
	}
	return Ref{Kind: kind, ID: id}, nil
}

// ResolveID returns the id of input when it refers to kind.
func ResolveID(input string, kind Kind) (string, error) {
	ref, err := ParseRef(input, kind)
	if err != nil {
		return "", err
	}
	if ref.Kind != kind {
		return "", fmt.Errorf("%w: expected a %s, got a %s", shared.ErrInvalidArgument, kind, ref.Kind)
	}
	return ref.ID, nil
}
