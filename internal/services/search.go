package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/spx/internal/shared"
)

// SearchType is an item kind accepted by the search endpoint.
type SearchType string

const (
	SearchTrack     SearchType = "track"
	SearchAlbum     SearchType = "album"
	SearchArtist    SearchType = "artist"
	SearchPlaylist  SearchType = "playlist"
	SearchShow      SearchType = "show"
	SearchAudiobook SearchType = "audiobook"
)

// SearchTypes lists every supported kind in display order.
var SearchTypes = []SearchType{SearchTrack, SearchAlbum, SearchArtist, SearchPlaylist, SearchShow, SearchAudiobook}

// ParseSearchType validates a user-supplied kind, case-insensitively.
func ParseSearchType(s string) (SearchType, error) {
	t := SearchType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range SearchTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: search type %q", shared.ErrInvalidArgument, s)
}

// SearchOptions tunes a search request.
type SearchOptions struct {
	Limit           int
	Offset          int
	IncludeExternal bool // include externally hosted audio for shows
}

// SearchResponse holds one optional page per requested type. Items can be null.
type SearchResponse struct {
	Tracks     *Page[*Track]               `json:"tracks,omitempty"`
	Albums     *Page[*SimplifiedAlbum]     `json:"albums,omitempty"`
	Artists    *Page[*Artist]              `json:"artists,omitempty"`
	Playlists  *Page[*SimplePlaylist]      `json:"playlists,omitempty"`
	Shows      *Page[*SimplifiedShow]      `json:"shows,omitempty"`
	Audiobooks *Page[*SimplifiedAudiobook] `json:"audiobooks,omitempty"`
}

// SearchResult is a search narrowed to a single kind with null items removed.
type SearchResult struct {
	Kind       SearchType            `json:"kind"`
	Total      int                   `json:"total"`
	HasNext    bool                  `json:"has_next"`
	Tracks     []Track               `json:"tracks,omitempty"`
	Albums     []SimplifiedAlbum     `json:"albums,omitempty"`
	Artists    []Artist              `json:"artists,omitempty"`
	Playlists  []SimplePlaylist      `json:"playlists,omitempty"`
	Shows      []SimplifiedShow      `json:"shows,omitempty"`
	Audiobooks []SimplifiedAudiobook `json:"audiobooks,omitempty"`
}

// Len returns the number of items of the result's kind.
func (r *SearchResult) Len() int {
	switch r.Kind {
	case SearchTrack:
		return len(r.Tracks)
	case SearchAlbum:
		return len(r.Albums)
	case SearchArtist:
		return len(r.Artists)
	case SearchPlaylist:
		return len(r.Playlists)
	case SearchShow:
		return len(r.Shows)
	case SearchAudiobook:
		return len(r.Audiobooks)
	}
	return 0
}

// Result narrows the response to kind. A kind absent from the response yields an empty result.
func (r *SearchResponse) Result(kind SearchType) (*SearchResult, error) {
	res := &SearchResult{Kind: kind}
	switch kind {
	case SearchTrack:
		p := compactPage(r.Tracks)
		res.Tracks, res.Total, res.HasNext = p.Items, p.Total, p.HasNext()
	case SearchAlbum:
		p := compactPage(r.Albums)
		res.Albums, res.Total, res.HasNext = p.Items, p.Total, p.HasNext()
	case SearchArtist:
		p := compactPage(r.Artists)
		res.Artists, res.Total, res.HasNext = p.Items, p.Total, p.HasNext()
	case SearchPlaylist:
		p := compactPage(r.Playlists)
		res.Playlists, res.Total, res.HasNext = p.Items, p.Total, p.HasNext()
	case SearchShow:
		p := compactPage(r.Shows)
		res.Shows, res.Total, res.HasNext = p.Items, p.Total, p.HasNext()
	case SearchAudiobook:
		p := compactPage(r.Audiobooks)
		res.Audiobooks, res.Total, res.HasNext = p.Items, p.Total, p.HasNext()
	default:
		return nil, fmt.Errorf("%w: search type %q", shared.ErrInvalidArgument, kind)
	}
	return res, nil
}

// Search queries the catalog for one or more kinds.
func (s *SpotifyService) Search(ctx context.Context, query string, types []SearchType, opts SearchOptions) (*SearchResponse, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}
	if len(types) == 0 {
		types = []SearchType{SearchTrack}
	}

	kinds := make([]string, 0, len(types))
	for _, t := range types {
		if _, err := ParseSearchType(string(t)); err != nil {
			return nil, err
		}
		kinds = append(kinds, string(t))
	}

	q := merge(pageQuery(opts.Limit, opts.Offset), s.marketQuery())
	q.Set("q", query)
	q.Set("type", strings.Join(kinds, ","))
	if opts.IncludeExternal {
		q.Set("include_external", "audio")
	}

	var resp SearchResponse
	if err := s.doRequest(ctx, http.MethodGet, "/search", q, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchKind runs a single-kind search and narrows the response.
func (s *SpotifyService) SearchKind(ctx context.Context, query string, kind SearchType, opts SearchOptions) (*SearchResult, error) {
	resp, err := s.Search(ctx, query, []SearchType{kind}, opts)
	if err != nil {
		return nil, err
	}
	return resp.Result(kind)
}

// trackQuery builds a field-filtered query such as `track:"Title" artist:"Name"`.
func trackQuery(title, artist string) string {
	var parts []string
	if title = strings.TrimSpace(title); title != "" {
		parts = append(parts, fmt.Sprintf("track:%q", title))
	}
	if artist = strings.TrimSpace(artist); artist != "" {
		parts = append(parts, fmt.Sprintf("artist:%q", artist))
	}
	return strings.Join(parts, " ")
}
