package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
)

// argID resolves the named positional argument to an id of kind.
func argID(cmd *cli.Command, name string, kind services.Kind) (string, error) {
	arg := cmd.StringArg(name)
	if arg == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return services.ResolveID(arg, kind)
}

// argIDs resolves every positional argument to an id of kind.
func argIDs(cmd *cli.Command, kind services.Kind) ([]string, error) {
	if cmd.Args().Len() == 0 {
		return nil, fmt.Errorf("%w: at least one %s", shared.ErrMissingArgument, kind)
	}
	return resolveIDs(cmd.Args().Slice(), kind)
}

// Album prints an album with its track list and total length.
func (r *Runner) Album(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}
	id, err := argID(cmd, "id", services.KindAlbum)
	if err != nil {
		return err
	}

	album, err := r.spotify.Album(ctx, id)
	if err != nil {
		return err
	}
	if ok, err := r.outputJSON(cmd, album); ok {
		return err
	}

	r.writePlainHeader(album.Name)
	r.writePlain("Artist:   %s\n", services.ArtistNames(album.Artists))
	r.writePlain("Released: %s\n", album.ReleaseDate)
	if album.Label != "" {
		r.writePlain("Label:    %s\n", album.Label)
	}
	r.writePlain("Length:   %d tracks, %s\n\n", album.TotalTracks, services.AlbumDuration(album))
	r.printSimplifiedTracks(album.Tracks.Items)
	return nil
}

type artistView struct {
	Artist    *services.Artist                         `json:"artist"`
	TopTracks []services.Track                         `json:"top_tracks,omitempty"`
	Albums    *services.Page[services.SimplifiedAlbum] `json:"albums,omitempty"`
}

// Artist prints an artist, optionally with top tracks and discography.
func (r *Runner) Artist(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}
	id, err := argID(cmd, "id", services.KindArtist)
	if err != nil {
		return err
	}

	view := artistView{}
	if view.Artist, err = r.spotify.Artist(ctx, id); err != nil {
		return err
	}
	if cmd.Bool("top") {
		if view.TopTracks, err = r.spotify.ArtistTopTracks(ctx, id); err != nil {
			return err
		}
	}
	if cmd.Bool("albums") {
		if view.Albums, err = r.spotify.ArtistAlbums(ctx, id, 50, 0); err != nil {
			return err
		}
	}
	if ok, err := r.outputJSON(cmd, view); ok {
		return err
	}

	r.printArtists([]services.Artist{*view.Artist})
	if len(view.TopTracks) > 0 {
		r.writePlainln("Top tracks:")
		r.printTracks(view.TopTracks)
	}
	if view.Albums != nil {
		r.writePlainln("Albums:")
		r.printAlbums(view.Albums.Items)
	}
	return nil
}

// Track prints one track, or several when more than one ID is given.
func (r *Runner) Track(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}
	ids, err := argIDs(cmd, services.KindTrack)
	if err != nil {
		return err
	}

	var tracks []services.Track
	if len(ids) == 1 {
		track, err := r.spotify.Track(ctx, ids[0])
		if err != nil {
			return err
		}
		if ok, err := r.outputJSON(cmd, track); ok {
			return err
		}
		tracks = []services.Track{*track}
	} else {
		if tracks, err = r.spotify.SeveralTracks(ctx, ids); err != nil {
			return err
		}
		if ok, err := r.outputJSON(cmd, tracks); ok {
			return err
		}
	}

	r.printTracks(tracks)
	return nil
}

type showView struct {
	Show     *services.Show                             `json:"show"`
	Episodes *services.Page[services.SimplifiedEpisode] `json:"episodes,omitempty"`
}

// Show prints a podcast, and its episodes with --episodes.
func (r *Runner) Show(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}
	id, err := argID(cmd, "id", services.KindShow)
	if err != nil {
		return err
	}

	view := showView{}
	if view.Show, err = r.spotify.Show(ctx, id); err != nil {
		return err
	}
	if cmd.Bool("episodes") {
		if view.Episodes, err = r.spotify.ShowEpisodes(ctx, id, cmd.Int("limit"), cmd.Int("offset")); err != nil {
			return err
		}
	}
	if ok, err := r.outputJSON(cmd, view); ok {
		return err
	}

	r.writePlainHeader(view.Show.Name)
	r.writePlain("Publisher: %s\n", view.Show.Publisher)
	r.writePlain("Episodes:  %d\n", view.Show.TotalEpisodes)
	if view.Show.Description != "" {
		r.writePlain("\n%s\n", shared.Truncate(view.Show.Description, 300))
	}
	if view.Episodes != nil {
		r.writePlainln("Episodes:")
		for i, e := range view.Episodes.Items {
			r.writePlain("%d. %s (%s, %s)\n", view.Episodes.Offset+i+1, e.Name, e.ReleaseDate, trackDuration(e.DurationMS))
		}
		r.printPaging(view.Episodes.Total, view.Episodes.Offset, len(view.Episodes.Items))
	}
	return nil
}

type audiobookView struct {
	Audiobook *services.Audiobook                        `json:"audiobook"`
	Chapters  *services.Page[services.SimplifiedChapter] `json:"chapters,omitempty"`
}

// Audiobook prints an audiobook, and its chapters with --chapters.
func (r *Runner) Audiobook(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}
	id, err := argID(cmd, "id", services.KindAudiobook)
	if err != nil {
		return err
	}

	view := audiobookView{}
	if view.Audiobook, err = r.spotify.Audiobook(ctx, id); err != nil {
		return err
	}
	if cmd.Bool("chapters") {
		if view.Chapters, err = r.spotify.AudiobookChapters(ctx, id, cmd.Int("limit"), cmd.Int("offset")); err != nil {
			return err
		}
	}
	if ok, err := r.outputJSON(cmd, view); ok {
		return err
	}

	book := view.Audiobook
	authors := make([]string, 0, len(book.Authors))
	for _, a := range book.Authors {
		authors = append(authors, a.Name)
	}
	r.writePlainHeader(book.Name)
	r.writePlain("By:        %s\n", strings.Join(authors, ", "))
	r.writePlain("Publisher: %s\n", book.Publisher)
	r.writePlain("Chapters:  %d\n", book.TotalChapters)
	if view.Chapters != nil {
		r.writePlainln("Chapters:")
		for _, c := range view.Chapters.Items {
			r.writePlain("%d. %s (%s)\n", c.ChapterNumber, c.Name, trackDuration(c.DurationMS))
		}
		r.printPaging(view.Chapters.Total, view.Chapters.Offset, len(view.Chapters.Items))
	}
	return nil
}

// ShowsSave follows the given podcasts.
func (r *Runner) ShowsSave(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}
	ids, err := argIDs(cmd, services.KindShow)
	if err != nil {
		return err
	}
	if err := r.spotify.SaveShows(ctx, ids); err != nil {
		return err
	}
	return r.writePlain("✓ Followed %d shows\n", len(ids))
}

// ShowsRemove unfollows the given podcasts.
func (r *Runner) ShowsRemove(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}
	ids, err := argIDs(cmd, services.KindShow)
	if err != nil {
		return err
	}
	if err := r.spotify.RemoveSavedShows(ctx, ids); err != nil {
		return err
	}
	return r.writePlain("✓ Unfollowed %d shows\n", len(ids))
}

// ShowsCheck reports whether each podcast is followed.
func (r *Runner) ShowsCheck(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}
	ids, err := argIDs(cmd, services.KindShow)
	if err != nil {
		return err
	}

	saved, err := r.spotify.CheckSavedShows(ctx, ids)
	if err != nil {
		return err
	}

	status := make(map[string]bool, len(ids))
	for i, id := range ids {
		status[id] = saved[i]
	}
	if ok, err := r.outputJSON(cmd, status); ok {
		return err
	}

	for i, id := range ids {
		mark := "✗"
		if saved[i] {
			mark = "✓"
		}
		r.writePlain("%s %s\n", mark, id)
	}
	return nil
}
