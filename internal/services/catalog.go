package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/spx/internal/shared"
)

const (
	maxTrackIDs     = 50
	maxShowBatch    = 50
	maxAudiobookIDs = 50
)

// Album fetches an album with its first page of tracks.
func (s *SpotifyService) Album(ctx context.Context, albumID string) (*Album, error) {
	if err := requireID("album", albumID); err != nil {
		return nil, err
	}
	var album Album
	if err := s.getCached(ctx, "/albums/"+escape(albumID), s.marketQuery(), &album); err != nil {
		return nil, err
	}
	return &album, nil
}

// AlbumDuration returns the formatted total length of an album's tracks.
func AlbumDuration(album *Album) string {
	return shared.FormatAlbumDuration(album.TotalDurationMS())
}

// Artist fetches an artist.
func (s *SpotifyService) Artist(ctx context.Context, artistID string) (*Artist, error) {
	if err := requireID("artist", artistID); err != nil {
		return nil, err
	}
	var artist Artist
	if err := s.getCached(ctx, "/artists/"+escape(artistID), nil, &artist); err != nil {
		return nil, err
	}
	return &artist, nil
}

// ArtistTopTracks returns an artist's most popular tracks in the default market.
func (s *SpotifyService) ArtistTopTracks(ctx context.Context, artistID string) ([]Track, error) {
	if err := requireID("artist", artistID); err != nil {
		return nil, err
	}
	var resp struct {
		Tracks []Track `json:"tracks"`
	}
	if err := s.getCached(ctx, "/artists/"+escape(artistID)+"/top-tracks", s.marketQuery(), &resp); err != nil {
		return nil, err
	}
	return resp.Tracks, nil
}

// ArtistAlbums lists an artist's albums and singles.
func (s *SpotifyService) ArtistAlbums(ctx context.Context, artistID string, limit, offset int) (*Page[SimplifiedAlbum], error) {
	if err := requireID("artist", artistID); err != nil {
		return nil, err
	}
	q := pageQuery(limit, offset)
	q.Set("include_groups", "album,single")
	var page Page[SimplifiedAlbum]
	if err := s.getCached(ctx, "/artists/"+escape(artistID)+"/albums", q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Track fetches a track.
func (s *SpotifyService) Track(ctx context.Context, trackID string) (*Track, error) {
	if err := requireID("track", trackID); err != nil {
		return nil, err
	}
	var track Track
	if err := s.getCached(ctx, "/tracks/"+escape(trackID), s.marketQuery(), &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// SeveralTracks fetches tracks in batches of 50. Unknown ids are skipped.
func (s *SpotifyService) SeveralTracks(ctx context.Context, trackIDs []string) ([]Track, error) {
	var tracks []Track
	for _, ids := range chunk(trackIDs, maxTrackIDs) {
		q := s.marketQuery()
		q.Set("ids", strings.Join(ids, ","))
		var resp struct {
			Tracks []*Track `json:"tracks"`
		}
		if err := s.getCached(ctx, "/tracks", q, &resp); err != nil {
			return nil, err
		}
		tracks = append(tracks, Compact(resp.Tracks)...)
	}
	return tracks, nil
}

// Playlist fetches a playlist with its first page of items. Playlists are not cached.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*Playlist, error) {
	if err := requireID("playlist", playlistID); err != nil {
		return nil, err
	}
	var playlist Playlist
	err := s.doRequest(ctx, http.MethodGet, "/playlists/"+escape(playlistID), s.marketQuery(), nil, &playlist)
	if IsNotFound(err) {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	if err != nil {
		return nil, err
	}
	return &playlist, nil
}

// PlaylistTracks lists one page of a playlist's items.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID string, limit, offset int) (*Page[PlaylistTrack], error) {
	if err := requireID("playlist", playlistID); err != nil {
		return nil, err
	}
	q := merge(pageQuery(limit, offset), s.marketQuery())
	var page Page[PlaylistTrack]
	if err := s.doRequest(ctx, http.MethodGet, "/playlists/"+escape(playlistID)+"/tracks", q, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Show fetches a podcast with its first page of episodes.
func (s *SpotifyService) Show(ctx context.Context, showID string) (*Show, error) {
	if err := requireID("show", showID); err != nil {
		return nil, err
	}
	var show Show
	if err := s.getCached(ctx, "/shows/"+escape(showID), s.marketQuery(), &show); err != nil {
		return nil, err
	}
	return &show, nil
}

// SeveralShows fetches podcasts in batches of 50.
func (s *SpotifyService) SeveralShows(ctx context.Context, showIDs []string) ([]SimplifiedShow, error) {
	var shows []SimplifiedShow
	for _, ids := range chunk(showIDs, maxShowBatch) {
		q := s.marketQuery()
		q.Set("ids", strings.Join(ids, ","))
		var resp struct {
			Shows []*SimplifiedShow `json:"shows"`
		}
		if err := s.getCached(ctx, "/shows", q, &resp); err != nil {
			return nil, err
		}
		shows = append(shows, Compact(resp.Shows)...)
	}
	return shows, nil
}

// ShowEpisodes lists one page of a podcast's episodes.
func (s *SpotifyService) ShowEpisodes(ctx context.Context, showID string, limit, offset int) (*Page[SimplifiedEpisode], error) {
	if err := requireID("show", showID); err != nil {
		return nil, err
	}
	q := merge(pageQuery(limit, offset), s.marketQuery())
	var page Page[*SimplifiedEpisode]
	if err := s.getCached(ctx, "/shows/"+escape(showID)+"/episodes", q, &page); err != nil {
		return nil, err
	}
	return compactPage(&page), nil
}

// Audiobook fetches an audiobook with its first page of chapters.
func (s *SpotifyService) Audiobook(ctx context.Context, audiobookID string) (*Audiobook, error) {
	if err := requireID("audiobook", audiobookID); err != nil {
		return nil, err
	}
	var book Audiobook
	if err := s.getCached(ctx, "/audiobooks/"+escape(audiobookID), s.marketQuery(), &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// SeveralAudiobooks fetches audiobooks in batches of 50. Ids unavailable in the market are skipped.
func (s *SpotifyService) SeveralAudiobooks(ctx context.Context, audiobookIDs []string) ([]Audiobook, error) {
	var books []Audiobook
	for _, ids := range chunk(audiobookIDs, maxAudiobookIDs) {
		q := s.marketQuery()
		q.Set("ids", strings.Join(ids, ","))
		var resp struct {
			Audiobooks []*Audiobook `json:"audiobooks"`
		}
		if err := s.getCached(ctx, "/audiobooks", q, &resp); err != nil {
			return nil, err
		}
		books = append(books, Compact(resp.Audiobooks)...)
	}
	return books, nil
}

// AudiobookChapters lists one page of an audiobook's chapters.
func (s *SpotifyService) AudiobookChapters(ctx context.Context, audiobookID string, limit, offset int) (*Page[SimplifiedChapter], error) {
	if err := requireID("audiobook", audiobookID); err != nil {
		return nil, err
	}
	q := merge(pageQuery(limit, offset), s.marketQuery())
	var page Page[SimplifiedChapter]
	if err := s.getCached(ctx, "/audiobooks/"+escape(audiobookID)+"/chapters", q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}
