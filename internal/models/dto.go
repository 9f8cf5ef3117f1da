package models

// Playlist is the service-neutral view of a Spotify playlist used by exports,
// copies and diffs.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Owner       string `json:"owner,omitempty"`
	TrackCount  int    `json:"track_count"`
	Public      bool   `json:"public"`
	URI         string `json:"uri,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// PlaylistExport is a playlist with every playable item, in playlist order.
type PlaylistExport struct {
	Playlist Playlist `json:"playlist"`
	Tracks   []Track  `json:"tracks"`
}

// TotalDuration returns the summed track length in seconds.
func (e *PlaylistExport) TotalDuration() int {
	total := 0
	for _, t := range e.Tracks {
		total += t.Duration
	}
	return total
}

// Track is a flattened playlist item. Artist holds the first credited artist.
type Track struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album,omitempty"`
	Duration int    `json:"duration"`       // seconds
	ISRC     string `json:"isrc,omitempty"` // used to match tracks across playlists
	URI      string `json:"uri,omitempty"`
}
