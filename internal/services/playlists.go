package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/shared"
)

const maxPlaylistAdd = 100

// CreatePlaylist creates a playlist owned by userID.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID string, req CreatePlaylistRequest) (*Playlist, error) {
	if err := requireID("user", userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}
	if req.Collaborative && req.Public {
		return nil, fmt.Errorf("%w: collaborative playlists must be private", shared.ErrInvalidArgument)
	}

	var playlist Playlist
	if err := s.doRequest(ctx, http.MethodPost, "/users/"+escape(userID)+"/playlists", nil, req, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// AddTracksToPlaylist appends uris in batches of 100 and returns the last snapshot id.
func (s *SpotifyService) AddTracksToPlaylist(ctx context.Context, playlistID string, uris []string) (string, error) {
	if err := requireID("playlist", playlistID); err != nil {
		return "", err
	}

	var snapshot string
	for _, batch := range chunk(uris, maxPlaylistAdd) {
		var resp struct {
			SnapshotID string `json:"snapshot_id"`
		}
		body := map[string][]string{"uris": batch}
		if err := s.doRequest(ctx, http.MethodPost, "/playlists/"+escape(playlistID)+"/tracks", nil, body, &resp); err != nil {
			return snapshot, err
		}
		snapshot = resp.SnapshotID
	}
	return snapshot, nil
}

// GetPlaylists retrieves all playlists for the authenticated user.
func (s *SpotifyService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var all []models.Playlist
	offset := 0

	for {
		page, err := s.UserPlaylists(ctx, maxLimit, offset)
		if err != nil {
			return nil, err
		}
		for _, sp := range page.Items {
			all = append(all, simplePlaylistModel(sp))
		}
		if !page.HasNext() {
			break
		}
		offset += maxLimit
	}
	return all, nil
}

// GetPlaylist retrieves a specific playlist by ID.
func (s *SpotifyService) GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	sp, err := s.Playlist(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	p := playlistModel(sp)
	return &p, nil
}

// ExportPlaylist fetches a playlist and every page of its items. Local and
// unavailable items are skipped.
func (s *SpotifyService) ExportPlaylist(ctx context.Context, playlistID string) (*models.PlaylistExport, error) {
	sp, err := s.Playlist(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	export := &models.PlaylistExport{Playlist: playlistModel(sp), Tracks: []models.Track{}}
	page := &sp.Tracks
	for {
		for _, item := range page.Items {
			if item.Track == nil || item.Track.ID == "" {
				continue
			}
			export.Tracks = append(export.Tracks, TrackModel(*item.Track))
		}
		if !page.HasNext() {
			break
		}

		var next Page[PlaylistTrack]
		if err := s.doRequest(ctx, http.MethodGet, *page.Next, nil, nil, &next); err != nil {
			return nil, fmt.Errorf("failed to fetch playlist page: %w", err)
		}
		page = &next
	}
	return export, nil
}

// ImportPlaylist creates a private playlist for the current user and adds every
// track that resolves to a catalog URI (by URI, then ISRC, then title and artist).
// If adding tracks fails after the playlist exists, the created playlist is
// returned along with an error naming its ID.
func (s *SpotifyService) ImportPlaylist(ctx context.Context, export *models.PlaylistExport) (*models.Playlist, error) {
	if export == nil {
		return nil, fmt.Errorf("%w: playlist export", shared.ErrMissingArgument)
	}

	user, err := s.UserProfile(ctx)
	if err != nil {
		return nil, err
	}

	created, err := s.CreatePlaylist(ctx, user.ID, CreatePlaylistRequest{
		Name:        export.Playlist.Name,
		Description: export.Playlist.Description,
		Public:      export.Playlist.Public,
	})
	if err != nil {
		return nil, err
	}

	uris := make([]string, 0, len(export.Tracks))
	for _, t := range export.Tracks {
		uri, err := s.resolveTrackURI(ctx, t)
		if err != nil {
			s.logger.Warn("skipping unmatched track", "title", t.Title, "artist", t.Artist, "error", err)
			continue
		}
		uris = append(uris, uri)
	}

	result := playlistModel(created)
	if _, err := s.AddTracksToPlaylist(ctx, created.ID, uris); err != nil {
		return &result, fmt.Errorf("playlist %s was created but adding tracks failed: %w", created.ID, err)
	}

	result.TrackCount = len(uris)
	return &result, nil
}

func (s *SpotifyService) resolveTrackURI(ctx context.Context, t models.Track) (string, error) {
	if ref, err := ParseRef(t.URI, ""); err == nil && ref.Kind == KindTrack {
		return ref.URI(), nil
	}
	if t.ISRC != "" {
		res, err := s.SearchKind(ctx, "isrc:"+t.ISRC, SearchTrack, SearchOptions{Limit: 1})
		if err == nil && len(res.Tracks) > 0 {
			return res.Tracks[0].URI, nil
		}
	}
	match, err := s.SearchTrack(ctx, t.Title, t.Artist)
	if err != nil {
		return "", err
	}
	return match.URI, nil
}

// SearchTrack returns the closest catalog track for title and artist, preferring an exact normalized match.
func (s *SpotifyService) SearchTrack(ctx context.Context, title, artist string) (*models.Track, error) {
	query := trackQuery(title, artist)
	if query == "" {
		return nil, fmt.Errorf("%w: title or artist", shared.ErrMissingArgument)
	}

	res, err := s.SearchKind(ctx, query, SearchTrack, SearchOptions{Limit: 5})
	if err != nil {
		return nil, err
	}
	if len(res.Tracks) == 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, query)
	}

	want := shared.NormalizeTrackKey(title, artist)
	best := res.Tracks[0]
	for _, t := range res.Tracks {
		if len(t.Artists) > 0 && shared.NormalizeTrackKey(t.Name, t.Artists[0].Name) == want {
			best = t
			break
		}
	}
	m := TrackModel(best)
	return &m, nil
}

// TrackModel converts a catalog track to the provider-neutral model.
func TrackModel(t Track) models.Track {
	m := models.Track{
		ID:       t.ID,
		Title:    t.Name,
		Album:    t.Album.Name,
		Duration: t.DurationMS / 1000,
		ISRC:     t.ExternalIDs.ISRC,
		URI:      t.URI,
	}
	if len(t.Artists) > 0 {
		m.Artist = t.Artists[0].Name
	}
	return m
}

func simplePlaylistModel(p SimplePlaylist) models.Playlist {
	return models.Playlist{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Owner:       p.Owner.DisplayName,
		TrackCount:  p.Tracks.Total,
		Public:      p.Public,
		URI:         p.URI,
		ImageURL:    FirstImageURL(p.Images),
	}
}

func playlistModel(p *Playlist) models.Playlist {
	return models.Playlist{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Owner:       p.Owner.DisplayName,
		TrackCount:  p.Tracks.Total,
		Public:      p.Public,
		URI:         p.URI,
		ImageURL:    FirstImageURL(p.Images),
	}
}
