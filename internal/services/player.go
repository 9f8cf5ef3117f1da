package services

import (
	"context"
	"net/http"
	"net/url"
)

type playRequest struct {
	ContextURI string   `json:"context_uri,omitempty"`
	URIs       []string `json:"uris,omitempty"`
}

func deviceQuery(deviceID string) url.Values {
	if deviceID == "" {
		return nil
	}
	q := url.Values{}
	q.Set("device_id", deviceID)
	return q
}

// Play starts playback of uri on deviceID, or the active device when empty.
//
// Tracks and episodes are queued as items; albums, playlists, artists, shows
// and audiobooks are started as a context.
func (s *SpotifyService) Play(ctx context.Context, uri, deviceID string) error {
	ref, err := ParseRef(uri, KindTrack)
	if err != nil {
		return err
	}

	body := playRequest{URIs: []string{ref.URI()}}
	if ref.IsContext() {
		body = playRequest{ContextURI: ref.URI()}
	}
	return s.doRequest(ctx, http.MethodPut, "/me/player/play", deviceQuery(deviceID), body, nil)
}

// Pause pauses playback.
func (s *SpotifyService) Pause(ctx context.Context, deviceID string) error {
	return s.doRequest(ctx, http.MethodPut, "/me/player/pause", deviceQuery(deviceID), nil, nil)
}

// Resume continues the current context.
func (s *SpotifyService) Resume(ctx context.Context, deviceID string) error {
	return s.doRequest(ctx, http.MethodPut, "/me/player/play", deviceQuery(deviceID), nil, nil)
}
