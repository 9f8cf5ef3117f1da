package services

import (
	"strings"
	"time"
)

// Spotify Web API object model, see https://developer.spotify.com/documentation/web-api/reference/

type Followers struct {
	Total int `json:"total"`
}

type ExternalURLs struct {
	Spotify string `json:"spotify"`
}

type ExternalIDs struct {
	ISRC string `json:"isrc,omitempty"`
	UPC  string `json:"upc,omitempty"`
}

// Image represents an image resource. Height and Width are null for some user images.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type Restrictions struct {
	Reason string `json:"reason"`
}

type Copyright struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID           string       `json:"id"`
	DisplayName  string       `json:"display_name"`
	Email        string       `json:"email"`
	Country      string       `json:"country"`
	Product      string       `json:"product"` // premium, free, etc.
	Followers    Followers    `json:"followers"`
	Images       []Image      `json:"images"`
	ExternalURLs ExternalURLs `json:"external_urls"`
	URI          string       `json:"uri"`
}

// SimplifiedArtist is the artist stub embedded in tracks and albums.
type SimplifiedArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// Artist is the full artist object.
type Artist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Genres       []string     `json:"genres"`
	Images       []Image      `json:"images"`
	Followers    Followers    `json:"followers"`
	Popularity   int          `json:"popularity"`
	ExternalURLs ExternalURLs `json:"external_urls"`
	URI          string       `json:"uri"`
}

// SimplifiedAlbum is the album stub embedded in tracks and list responses.
type SimplifiedAlbum struct {
	ID                   string             `json:"id"`
	Name                 string             `json:"name"`
	AlbumType            string             `json:"album_type"`
	AlbumGroup           string             `json:"album_group,omitempty"`
	Artists              []SimplifiedArtist `json:"artists"`
	ReleaseDate          string             `json:"release_date"`
	ReleaseDatePrecision string             `json:"release_date_precision"`
	TotalTracks          int                `json:"total_tracks"`
	Images               []Image            `json:"images"`
	ExternalURLs         ExternalURLs       `json:"external_urls"`
	URI                  string             `json:"uri"`
}

// Album is the full album object with its first page of tracks.
type Album struct {
	SimplifiedAlbum
	Tracks      Page[SimplifiedTrack] `json:"tracks"`
	Genres      []string              `json:"genres"`
	Label       string                `json:"label"`
	Popularity  int                   `json:"popularity"`
	Copyrights  []Copyright           `json:"copyrights"`
	ExternalIDs ExternalIDs           `json:"external_ids"`
}

// TotalDurationMS sums the duration of the album tracks that were returned.
func (a *Album) TotalDurationMS() int64 {
	var total int64
	for _, t := range a.Tracks.Items {
		total += int64(t.DurationMS)
	}
	return total
}

// SimplifiedTrack is a track without album information.
type SimplifiedTrack struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Artists     []SimplifiedArtist `json:"artists"`
	DiscNumber  int                `json:"disc_number"`
	TrackNumber int                `json:"track_number"`
	DurationMS  int                `json:"duration_ms"`
	Explicit    bool               `json:"explicit"`
	IsPlayable  *bool              `json:"is_playable,omitempty"`
	PreviewURL  string             `json:"preview_url"`
	URI         string             `json:"uri"`
}

// Track represents a full Spotify track.
type Track struct {
	SimplifiedTrack
	Album       SimplifiedAlbum `json:"album"`
	ExternalIDs ExternalIDs     `json:"external_ids"`
	Popularity  int             `json:"popularity"`
}

// ArtistNames joins the credited artists with ", ".
func ArtistNames(artists []SimplifiedArtist) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	URI         string `json:"uri"`
}

type playlistTracksRef struct {
	Href  string `json:"href"`
	Total int    `json:"total"`
}

// SimplePlaylist represents a simplified playlist object (used in lists).
type SimplePlaylist struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	Owner         Owner             `json:"owner"`
	Public        bool              `json:"public"`
	Collaborative bool              `json:"collaborative"`
	SnapshotID    string            `json:"snapshot_id"`
	Tracks        playlistTracksRef `json:"tracks"`
	Images        []Image           `json:"images"`
	URI           string            `json:"uri"`
}

// Playlist is the full playlist object with its first page of items.
type Playlist struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	Owner         Owner               `json:"owner"`
	Public        bool                `json:"public"`
	Collaborative bool                `json:"collaborative"`
	SnapshotID    string              `json:"snapshot_id"`
	Followers     Followers           `json:"followers"`
	Tracks        Page[PlaylistTrack] `json:"tracks"`
	Images        []Image             `json:"images"`
	URI           string              `json:"uri"`
}

// PlaylistTrack is a playlist entry. Track is nil for removed or local-only items.
type PlaylistTrack struct {
	AddedAt string `json:"added_at"`
	IsLocal bool   `json:"is_local"`
	Track   *Track `json:"track"`
}

// SavedTrack represents a track saved in the user's library.
type SavedTrack struct {
	AddedAt string `json:"added_at"`
	Track   Track  `json:"track"`
}

// SavedAlbum represents an album saved in the user's library.
type SavedAlbum struct {
	AddedAt string `json:"added_at"`
	Album   Album  `json:"album"`
}

// SavedShow represents a podcast the user follows.
type SavedShow struct {
	AddedAt string         `json:"added_at"`
	Show    SimplifiedShow `json:"show"`
}

type PlayContext struct {
	Type string `json:"type"`
	URI  string `json:"uri"`
}

// PlayHistory is an entry of the recently played list.
type PlayHistory struct {
	Track    Track        `json:"track"`
	PlayedAt time.Time    `json:"played_at"`
	Context  *PlayContext `json:"context"`
}

// SimplifiedShow is a podcast without its episodes.
type SimplifiedShow struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Publisher     string       `json:"publisher"`
	Description   string       `json:"description"`
	Explicit      bool         `json:"explicit"`
	MediaType     string       `json:"media_type"`
	Languages     []string     `json:"languages"`
	TotalEpisodes int          `json:"total_episodes"`
	Images        []Image      `json:"images"`
	ExternalURLs  ExternalURLs `json:"external_urls"`
	URI           string       `json:"uri"`
}

// Show is a podcast with its first page of episodes.
type Show struct {
	SimplifiedShow
	Episodes Page[SimplifiedEpisode] `json:"episodes"`
}

type ResumePoint struct {
	FullyPlayed      bool `json:"fully_played"`
	ResumePositionMS int  `json:"resume_position_ms"`
}

// SimplifiedEpisode is an episode without its show.
type SimplifiedEpisode struct {
	ID                   string       `json:"id"`
	Name                 string       `json:"name"`
	Description          string       `json:"description"`
	DurationMS           int          `json:"duration_ms"`
	Explicit             bool         `json:"explicit"`
	ReleaseDate          string       `json:"release_date"`
	ReleaseDatePrecision string       `json:"release_date_precision"`
	ResumePoint          *ResumePoint `json:"resume_point,omitempty"`
	Images               []Image      `json:"images"`
	URI                  string       `json:"uri"`
}

type Author struct {
	Name string `json:"name"`
}

type Narrator struct {
	Name string `json:"name"`
}

// SimplifiedAudiobook is an audiobook without its chapters.
type SimplifiedAudiobook struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Authors       []Author   `json:"authors"`
	Narrators     []Narrator `json:"narrators"`
	Publisher     string     `json:"publisher"`
	Description   string     `json:"description"`
	Edition       string     `json:"edition,omitempty"`
	Explicit      bool       `json:"explicit"`
	Languages     []string   `json:"languages"`
	TotalChapters int        `json:"total_chapters"`
	Images        []Image    `json:"images"`
	URI           string     `json:"uri"`
}

// Audiobook is an audiobook with its first page of chapters.
type Audiobook struct {
	SimplifiedAudiobook
	Chapters Page[SimplifiedChapter] `json:"chapters"`
}

// SimplifiedChapter is an audiobook chapter.
type SimplifiedChapter struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	ChapterNumber int           `json:"chapter_number"`
	DurationMS    int           `json:"duration_ms"`
	Explicit      bool          `json:"explicit"`
	ReleaseDate   string        `json:"release_date"`
	ResumePoint   *ResumePoint  `json:"resume_point,omitempty"`
	Restrictions  *Restrictions `json:"restrictions,omitempty"`
	URI           string        `json:"uri"`
}

// Category is a browse category such as "Pop" or "Focus".
type Category struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Href  string  `json:"href"`
	Icons []Image `json:"icons"`
}

// Device is a Spotify Connect playback target.
type Device struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	IsActive      bool   `json:"is_active"`
	IsRestricted  bool   `json:"is_restricted"`
	VolumePercent *int   `json:"volume_percent"`
}

// CreatePlaylistRequest is the body of POST /users/{id}/playlists.
type CreatePlaylistRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Public        bool   `json:"public"`
	Collaborative bool   `json:"collaborative"`
}

// FirstImageURL returns the largest (first) image URL, or "".
func FirstImageURL(images []Image) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}
