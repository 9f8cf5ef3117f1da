package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
	"github.com/desertthunder/spx/internal/tasks"
)

// Me prints the signed-in user's profile.
func (r *Runner) Me(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}

	user, err := r.spotify.UserProfile(ctx)
	if err != nil {
		return err
	}
	if ok, err := r.outputJSON(cmd, user); ok {
		return err
	}

	r.writePlainHeader(displayName(user.DisplayName, user.ID))
	r.writePlain("ID:        %s\n", user.ID)
	if user.Email != "" {
		r.writePlain("Email:     %s\n", user.Email)
	}
	r.writePlain("Country:   %s\n", user.Country)
	r.writePlain("Plan:      %s\n", user.Product)
	r.writePlain("Followers: %s\n", shared.FormatNumber(user.Followers.Total))
	return nil
}

// TopArtists lists the user's most listened artists over --time-range.
func (r *Runner) TopArtists(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}

	page, err := r.spotify.TopArtists(ctx, cmd.String("time-range"), cmd.Int("limit"))
	if err != nil {
		return err
	}
	if ok, err := r.outputJSON(cmd, page); ok {
		return err
	}

	r.writePlain("Top artists (%s):\n\n", cmd.String("time-range"))
	r.printArtists(page.Items)
	return nil
}

// TopTracks lists the user's most listened tracks over --time-range.
func (r *Runner) TopTracks(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}

	page, err := r.spotify.TopTracks(ctx, cmd.String("time-range"), cmd.Int("limit"))
	if err != nil {
		return err
	}
	if ok, err := r.outputJSON(cmd, page); ok {
		return err
	}

	r.writePlain("Top tracks (%s):\n\n", cmd.String("time-range"))
	r.printTracks(page.Items)
	return nil
}

// LibraryPlaylists lists the playlists the user owns or follows.
func (r *Runner) LibraryPlaylists(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}

	r.logger.Infof("listing playlists with limit %v", cmd.Int("limit"))

	page, err := r.spotify.UserPlaylists(ctx, cmd.Int("limit"), cmd.Int("offset"))
	if err != nil {
		return err
	}
	if ok, err := r.outputJSON(cmd, page); ok {
		return err
	}

	r.writePlain("Found %d playlists:\n\n", page.Total)
	r.printPlaylists(page.Items)
	r.printPaging(page.Total, page.Offset, len(page.Items))
	return nil
}

// LibraryAlbums lists saved albums.
func (r *Runner) LibraryAlbums(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}

	page, err := r.spotify.SavedAlbums(ctx, cmd.Int("limit"), cmd.Int("offset"))
	if err != nil {
		return err
	}
	if ok, err := r.outputJSON(cmd, page); ok {
		return err
	}

	albums := make([]services.SimplifiedAlbum, 0, len(page.Items))
	for _, saved := range page.Items {
		albums = append(albums, saved.Album.SimplifiedAlbum)
	}
	r.writePlain("Saved albums (%d):\n\n", page.Total)
	r.printAlbums(albums)
	r.printPaging(page.Total, page.Offset, len(page.Items))
	return nil
}

// LibraryTracks lists liked songs.
func (r *Runner) LibraryTracks(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}

	page, err := r.spotify.SavedTracks(ctx, cmd.Int("limit"), cmd.Int("offset"))
	if err != nil {
		return err
	}
	if ok, err := r.outputJSON(cmd, page); ok {
		return err
	}

	tracks := make([]services.Track, 0, len(page.Items))
	for _, saved := range page.Items {
		tracks = append(tracks, saved.Track)
	}
	r.writePlain("Liked songs (%d):\n\n", page.Total)
	r.printTracks(tracks)
	r.printPaging(page.Total, page.Offset, len(page.Items))
	return nil
}

// LibraryShows lists followed podcasts.
func (r *Runner) LibraryShows(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}

	page, err := r.spotify.SavedShows(ctx, cmd.Int("limit"), cmd.Int("offset"))
	if err != nil {
		return err
	}
	if ok, err := r.outputJSON(cmd, page); ok {
		return err
	}

	shows := make([]services.SimplifiedShow, 0, len(page.Items))
	for _, saved := range page.Items {
		shows = append(shows, saved.Show)
	}
	r.writePlain("Followed shows (%d):\n\n", page.Total)
	r.printShows(shows)
	r.printPaging(page.Total, page.Offset, len(page.Items))
	return nil
}

// LibraryRecent lists recently played tracks, newest first.
func (r *Runner) LibraryRecent(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}

	history, err := r.spotify.RecentlyPlayed(ctx, cmd.Int("limit"))
	if err != nil {
		return err
	}
	if ok, err := r.outputJSON(cmd, history); ok {
		return err
	}

	r.writePlain("Recently played:\n\n")
	for i, h := range history {
		r.writePlain("%d. %s - %s\n", i+1, h.Track.Name, services.ArtistNames(h.Track.Artists))
		r.writePlain("   Played: %s\n", h.PlayedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

// LibraryDump fetches the raw JSON of every library endpoint.
func (r *Runner) LibraryDump(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("dumping library")
	r.writePlain("Fetching library...\n\n")

	progress, stop := r.progress(func(u tasks.ProgressUpdate) {
		r.writePlain("📥 [%d/%d] %s\n", u.Step, u.Total, u.Message)
	})
	dump, err := r.engine.Dump(ctx, progress)
	stop()
	if err != nil {
		return err
	}

	r.writePlain("\n✓ Dump complete (%d errors)\n\n", len(dump.Errors))
	for _, e := range dump.Errors {
		r.logger.Warn("endpoint failed", "endpoint", e.Endpoint, "error", e.Error)
	}

	if saveFile := cmd.String("save"); saveFile != "" {
		data, err := shared.MarshalJSON(dump, true)
		if err != nil {
			return fmt.Errorf("failed to marshal dump: %w", err)
		}
		if err := os.WriteFile(saveFile, data, 0644); err != nil {
			r.logger.Warn("failed to save dump", "error", err)
		} else {
			r.logger.Info("dump saved", "file", saveFile)
			r.writePlain("✓ Dump saved to %s\n\n", saveFile)
		}
	}

	return r.writeJSON(dump, cmd.Bool("pretty"))
}

// Recommend lists tracks seeded by artists and tracks given as IDs, URIs or links.
func (r *Runner) Recommend(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}

	artists, err := resolveIDs(cmd.StringSlice("seed-artists"), services.KindArtist)
	if err != nil {
		return err
	}
	seedTracks, err := resolveIDs(cmd.StringSlice("seed-tracks"), services.KindTrack)
	if err != nil {
		return err
	}

	tracks, err := r.spotify.Recommendations(ctx, artists, seedTracks, cmd.Int("limit"))
	if err != nil {
		return err
	}
	if ok, err := r.outputJSON(cmd, tracks); ok {
		return err
	}

	r.writePlain("Recommended tracks:\n\n")
	r.printTracks(tracks)
	return nil
}

func resolveIDs(inputs []string, kind services.Kind) ([]string, error) {
	ids := make([]string, 0, len(inputs))
	for _, in := range inputs {
		id, err := services.ResolveID(in, kind)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
