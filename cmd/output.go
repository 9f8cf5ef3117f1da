package main

import (
	"strings"

	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
)

func trackDuration(ms int) string {
	return shared.FormatDuration(ms / 1000)
}

func (r *Runner) printTracks(tracks []services.Track) {
	for i, t := range tracks {
		r.writePlain("%d. %s - %s (%s)\n", i+1, t.Name, services.ArtistNames(t.Artists), trackDuration(t.DurationMS))
		if t.Album.Name != "" {
			r.writePlain("   Album: %s\n", t.Album.Name)
		}
		r.writePlain("   URI: %s\n", t.URI)
	}
}

func (r *Runner) printSimplifiedTracks(tracks []services.SimplifiedTrack) {
	for _, t := range tracks {
		explicit := ""
		if t.Explicit {
			explicit = " [E]"
		}
		r.writePlain("%2d. %s%s - %s (%s)\n", t.TrackNumber, t.Name, explicit, services.ArtistNames(t.Artists), trackDuration(t.DurationMS))
	}
}

func (r *Runner) printAlbums(albums []services.SimplifiedAlbum) {
	for i, a := range albums {
		r.writePlain("%d. %s - %s\n", i+1, a.Name, services.ArtistNames(a.Artists))
		r.writePlain("   %s · %s · %d tracks\n", a.AlbumType, a.ReleaseDate, a.TotalTracks)
		r.writePlain("   ID: %s\n", a.ID)
	}
}

func (r *Runner) printArtists(artists []services.Artist) {
	for i, a := range artists {
		r.writePlain("%d. %s\n", i+1, a.Name)
		r.writePlain("   Followers: %s · Popularity: %d\n", shared.FormatNumber(a.Followers.Total), a.Popularity)
		if len(a.Genres) > 0 {
			r.writePlain("   Genres: %s\n", strings.Join(a.Genres, ", "))
		}
		r.writePlain("   ID: %s\n", a.ID)
	}
}

func (r *Runner) printPlaylists(playlists []services.SimplePlaylist) {
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		if p.Description != "" {
			r.writePlain("   Description: %s\n", shared.Truncate(p.Description, 80))
		}
		r.writePlain("   Tracks: %d · %s · by %s\n", p.Tracks.Total, shared.VisibilityString(p.Public), displayName(p.Owner.DisplayName, p.Owner.ID))
		r.writePlain("   ID: %s\n", p.ID)
	}
}

func (r *Runner) printShows(shows []services.SimplifiedShow) {
	for i, s := range shows {
		r.writePlain("%d. %s\n", i+1, s.Name)
		r.writePlain("   Publisher: %s · %d episodes\n", s.Publisher, s.TotalEpisodes)
		r.writePlain("   ID: %s\n", s.ID)
	}
}

func (r *Runner) printPaging(total, offset, shown int) {
	if total > shown || offset > 0 {
		r.writePlain("\nShowing %d-%d of %d\n", min(offset+1, total), offset+shown, total)
	}
}
