package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/spx/internal/shared"
)

// Time ranges accepted by the top items endpoints.
const (
	ShortTerm  = "short_term"
	MediumTerm = "medium_term"
	LongTerm   = "long_term"
)

func timeRangeQuery(timeRange string, limit int) (url.Values, error) {
	switch timeRange {
	case "":
		timeRange = MediumTerm
	case ShortTerm, MediumTerm, LongTerm:
	default:
		return nil, fmt.Errorf("%w: time range %q", shared.ErrInvalidArgument, timeRange)
	}
	q := pageQuery(limit, 0)
	q.Set("time_range", timeRange)
	return q, nil
}

// UserProfile fetches the current user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// TopArtists returns the user's most listened artists.
func (s *SpotifyService) TopArtists(ctx context.Context, timeRange string, limit int) (*Page[Artist], error) {
	q, err := timeRangeQuery(timeRange, limit)
	if err != nil {
		return nil, err
	}
	var page Page[Artist]
	if err := s.doRequest(ctx, http.MethodGet, "/me/top/artists", q, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// TopTracks returns the user's most listened tracks.
func (s *SpotifyService) TopTracks(ctx context.Context, timeRange string, limit int) (*Page[Track], error) {
	q, err := timeRangeQuery(timeRange, limit)
	if err != nil {
		return nil, err
	}
	var page Page[Track]
	if err := s.doRequest(ctx, http.MethodGet, "/me/top/tracks", q, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// UserPlaylists lists playlists owned or followed by the current user.
func (s *SpotifyService) UserPlaylists(ctx context.Context, limit, offset int) (*Page[SimplePlaylist], error) {
	var page Page[*SimplePlaylist]
	if err := s.doRequest(ctx, http.MethodGet, "/me/playlists", pageQuery(limit, offset), nil, &page); err != nil {
		return nil, err
	}
	return compactPage(&page), nil
}

// RecentlyPlayed returns up to limit recently played tracks, newest first.
func (s *SpotifyService) RecentlyPlayed(ctx context.Context, limit int) ([]PlayHistory, error) {
	var page Page[PlayHistory]
	if err := s.doRequest(ctx, http.MethodGet, "/me/player/recently-played", pageQuery(limit, 0), nil, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// SavedTracks lists the user's liked songs.
func (s *SpotifyService) SavedTracks(ctx context.Context, limit, offset int) (*Page[SavedTrack], error) {
	q := merge(pageQuery(limit, offset), s.marketQuery())
	var page Page[SavedTrack]
	if err := s.doRequest(ctx, http.MethodGet, "/me/tracks", q, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SavedAlbums lists albums saved in the user's library.
func (s *SpotifyService) SavedAlbums(ctx context.Context, limit, offset int) (*Page[SavedAlbum], error) {
	q := merge(pageQuery(limit, offset), s.marketQuery())
	var page Page[SavedAlbum]
	if err := s.doRequest(ctx, http.MethodGet, "/me/albums", q, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SavedShows lists podcasts the user follows.
func (s *SpotifyService) SavedShows(ctx context.Context, limit, offset int) (*Page[SavedShow], error) {
	var page Page[SavedShow]
	if err := s.doRequest(ctx, http.MethodGet, "/me/shows", pageQuery(limit, offset), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

const maxShowIDs = 50

func showIDsQuery(ids []string) (url.Values, error) {
	switch {
	case len(ids) == 0:
		return nil, fmt.Errorf("%w: show ids", shared.ErrMissingArgument)
	case len(ids) > maxShowIDs:
		return nil, fmt.Errorf("%w: at most %d show ids, got %d", shared.ErrInvalidArgument, maxShowIDs, len(ids))
	}
	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	return q, nil
}

// SaveShows follows the given podcasts.
func (s *SpotifyService) SaveShows(ctx context.Context, ids []string) error {
	q, err := showIDsQuery(ids)
	if err != nil {
		return err
	}
	return s.doRequest(ctx, http.MethodPut, "/me/shows", q, nil, nil)
}

// RemoveSavedShows unfollows the given podcasts.
func (s *SpotifyService) RemoveSavedShows(ctx context.Context, ids []string) error {
	q, err := showIDsQuery(ids)
	if err != nil {
		return err
	}
	return s.doRequest(ctx, http.MethodDelete, "/me/shows", merge(q, s.marketQuery()), nil, nil)
}

// CheckSavedShows reports, per id, whether the user follows the podcast.
func (s *SpotifyService) CheckSavedShows(ctx context.Context, ids []string) ([]bool, error) {
	q, err := showIDsQuery(ids)
	if err != nil {
		return nil, err
	}
	var saved []bool
	if err := s.doRequest(ctx, http.MethodGet, "/me/shows/contains", q, nil, &saved); err != nil {
		return nil, err
	}
	if len(saved) != len(ids) {
		return nil, fmt.Errorf("%w: expected %d results, got %d", shared.ErrAPIRequest, len(ids), len(saved))
	}
	return saved, nil
}

// Devices lists the user's Spotify Connect devices.
func (s *SpotifyService) Devices(ctx context.Context) ([]Device, error) {
	var resp struct {
		Devices []Device `json:"devices"`
	}
	if err := s.doRequest(ctx, http.MethodGet, "/me/player/devices", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Devices, nil
}
