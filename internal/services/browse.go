package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/spx/internal/shared"
)

const maxSeeds = 5

// FeaturedPlaylists is the editorial playlist list with its headline.
type FeaturedPlaylists struct {
	Message   string                `json:"message"`
	Playlists *Page[SimplePlaylist] `json:"playlists"`
}

func (s *SpotifyService) localeQuery(limit, offset int) url.Values {
	q := pageQuery(limit, offset)
	if s.locale != "" {
		q.Set("locale", s.locale)
	}
	return q
}

// NewReleases lists newly released albums.
func (s *SpotifyService) NewReleases(ctx context.Context, limit, offset int) (*Page[SimplifiedAlbum], error) {
	var resp struct {
		Albums *Page[*SimplifiedAlbum] `json:"albums"`
	}
	if err := s.doRequest(ctx, http.MethodGet, "/browse/new-releases", pageQuery(limit, offset), nil, &resp); err != nil {
		return nil, err
	}
	return compactPage(resp.Albums), nil
}

// Featured lists editorially featured playlists for the configured locale.
func (s *SpotifyService) Featured(ctx context.Context, limit, offset int) (*FeaturedPlaylists, error) {
	var resp struct {
		Message   string                 `json:"message"`
		Playlists *Page[*SimplePlaylist] `json:"playlists"`
	}
	if err := s.doRequest(ctx, http.MethodGet, "/browse/featured-playlists", s.localeQuery(limit, offset), nil, &resp); err != nil {
		return nil, err
	}
	return &FeaturedPlaylists{Message: resp.Message, Playlists: compactPage(resp.Playlists)}, nil
}

// Categories lists browse categories.
func (s *SpotifyService) Categories(ctx context.Context, limit, offset int) (*Page[Category], error) {
	var resp struct {
		Categories *Page[*Category] `json:"categories"`
	}
	if err := s.doRequest(ctx, http.MethodGet, "/browse/categories", s.localeQuery(limit, offset), nil, &resp); err != nil {
		return nil, err
	}
	return compactPage(resp.Categories), nil
}

// Category fetches one browse category.
func (s *SpotifyService) Category(ctx context.Context, categoryID string) (*Category, error) {
	if err := requireID("category", categoryID); err != nil {
		return nil, err
	}
	q := url.Values{}
	if s.locale != "" {
		q.Set("locale", s.locale)
	}
	var category Category
	if err := s.getCached(ctx, "/browse/categories/"+escape(categoryID), q, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

// CategoryPlaylists lists the playlists tagged with a category.
func (s *SpotifyService) CategoryPlaylists(ctx context.Context, categoryID string, limit, offset int) (*Page[SimplePlaylist], error) {
	if err := requireID("category", categoryID); err != nil {
		return nil, err
	}
	var resp struct {
		Playlists *Page[*SimplePlaylist] `json:"playlists"`
	}
	endpoint := "/browse/categories/" + escape(categoryID) + "/playlists"
	if err := s.doRequest(ctx, http.MethodGet, endpoint, pageQuery(limit, offset), nil, &resp); err != nil {
		return nil, err
	}
	return compactPage(resp.Playlists), nil
}

// Recommendations returns tracks seeded by up to five artists and tracks combined.
func (s *SpotifyService) Recommendations(ctx context.Context, seedArtists, seedTracks []string, limit int) ([]Track, error) {
	seeds := len(seedArtists) + len(seedTracks)
	switch {
	case seeds == 0:
		return nil, fmt.Errorf("%w: at least one seed artist or track", shared.ErrMissingArgument)
	case seeds > maxSeeds:
		return nil, fmt.Errorf("%w: at most %d seeds, got %d", shared.ErrInvalidArgument, maxSeeds, seeds)
	}

	q := merge(pageQuery(limit, 0), s.marketQuery())
	if len(seedArtists) > 0 {
		q.Set("seed_artists", strings.Join(seedArtists, ","))
	}
	if len(seedTracks) > 0 {
		q.Set("seed_tracks", strings.Join(seedTracks, ","))
	}

	var resp struct {
		Tracks []*Track `json:"tracks"`
	}
	if err := s.doRequest(ctx, http.MethodGet, "/recommendations", q, nil, &resp); err != nil {
		return nil, err
	}
	return Compact(resp.Tracks), nil
}
