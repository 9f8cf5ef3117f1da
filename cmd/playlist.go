package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spx/internal/formatter"
	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
	"github.com/desertthunder/spx/internal/tasks"
)

// transferSummary is the JSON form of a copy or import.
type transferSummary struct {
	Source          string           `json:"source"`
	Destination     *models.Playlist `json:"destination"`
	TotalTracks     int              `json:"total_tracks"`
	Matched         int              `json:"matched"`
	Failed          int              `json:"failed"`
	MatchPercentage float64          `json:"match_percentage"`
	Unmatched       []models.Track   `json:"unmatched,omitempty"`
}

func newTransferSummary(result *tasks.TransferRunResult) transferSummary {
	s := transferSummary{
		Destination:     result.DestPlaylist,
		TotalTracks:     result.TotalTracks,
		Matched:         result.SuccessCount,
		Failed:          result.FailedCount,
		MatchPercentage: result.MatchPercentage,
	}
	if result.SourcePlaylist != nil {
		s.Source = result.SourcePlaylist.Playlist.Name
	}
	for _, m := range result.TrackMatches {
		if m.Error != nil {
			s.Unmatched = append(s.Unmatched, m.Original)
		}
	}
	return s
}

// Playlist prints a playlist and a page of its tracks.
func (r *Runner) Playlist(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}
	id, err := argID(cmd, "id", services.KindPlaylist)
	if err != nil {
		return err
	}

	pl, err := r.spotify.Playlist(ctx, id)
	if err != nil {
		return err
	}
	if cmd.IsSet("limit") || cmd.IsSet("offset") {
		page, err := r.spotify.PlaylistTracks(ctx, id, cmd.Int("limit"), cmd.Int("offset"))
		if err != nil {
			return err
		}
		pl.Tracks = *page
	}
	if ok, err := r.outputJSON(cmd, pl); ok {
		return err
	}

	r.writePlainHeader(pl.Name)
	if pl.Description != "" {
		r.writePlain("%s\n\n", pl.Description)
	}
	r.writePlain("Owner:     %s\n", displayName(pl.Owner.DisplayName, pl.Owner.ID))
	r.writePlain("Tracks:    %d\n", pl.Tracks.Total)
	r.writePlain("Followers: %s\n", shared.FormatNumber(pl.Followers.Total))
	r.writePlain("Status:    %s\n\n", shared.VisibilityString(pl.Public))

	for i, item := range pl.Tracks.Items {
		n := pl.Tracks.Offset + i + 1
		if item.Track == nil {
			r.writePlain("%d. (unavailable)\n", n)
			continue
		}
		t := item.Track
		r.writePlain("%d. %s - %s (%s)\n", n, t.Name, services.ArtistNames(t.Artists), trackDuration(t.DurationMS))
	}
	r.printPaging(pl.Tracks.Total, pl.Tracks.Offset, len(pl.Tracks.Items))
	return nil
}

// PlaylistCreate creates an empty playlist owned by the current user.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}
	name := strings.TrimSpace(cmd.StringArg("name"))
	if name == "" {
		return fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}

	user, err := r.spotify.UserProfile(ctx)
	if err != nil {
		return err
	}

	pl, err := r.spotify.CreatePlaylist(ctx, user.ID, services.CreatePlaylistRequest{
		Name:          name,
		Description:   cmd.String("description"),
		Public:        cmd.Bool("public"),
		Collaborative: cmd.Bool("collaborative"),
	})
	if err != nil {
		return err
	}
	r.logger.Info("playlist created", "id", pl.ID, "name", pl.Name)

	if ok, err := r.outputJSON(cmd, pl); ok {
		return err
	}
	return r.writePlain("✓ Created playlist %s (ID: %s)\n", pl.Name, pl.ID)
}

// PlaylistAdd appends tracks or episodes to a playlist.
func (r *Runner) PlaylistAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}
	args := cmd.Args().Slice()
	if len(args) < 2 {
		return fmt.Errorf("%w: a playlist and at least one track", shared.ErrMissingArgument)
	}

	playlistID, err := services.ResolveID(args[0], services.KindPlaylist)
	if err != nil {
		return err
	}

	uris := make([]string, 0, len(args)-1)
	for _, arg := range args[1:] {
		ref, err := services.ParseRef(arg, services.KindTrack)
		if err != nil {
			return err
		}
		if ref.Kind != services.KindTrack && ref.Kind != services.KindEpisode {
			return fmt.Errorf("%w: only tracks and episodes can be added, got a %s", shared.ErrInvalidArgument, ref.Kind)
		}
		uris = append(uris, ref.URI())
	}

	snapshot, err := r.spotify.AddTracksToPlaylist(ctx, playlistID, uris)
	if err != nil {
		return err
	}
	r.logger.Info("tracks added", "playlist", playlistID, "count", len(uris), "snapshot", snapshot)
	return r.writePlain("✓ Added %d items to %s\n", len(uris), playlistID)
}

func (r *Runner) printTransferProgress(update tasks.ProgressUpdate) {
	switch update.Phase {
	case tasks.FetchSource, tasks.FetchPlaylists:
		r.writePlain("📥 %s\n", update.Message)
	case tasks.SearchTracks:
		if update.Step == 0 {
			r.writePlain("\n🔍 %s\n", update.Message)
		} else {
			r.writePlain("   %s\n", update.Message)
		}
	case tasks.CreatePlaylist:
		r.writePlain("\n📝 %s\n", update.Message)
	}
}

func (r *Runner) printTransferResult(title string, result *tasks.TransferRunResult) {
	r.writePlain("\n")
	r.writePlainHeader(title)
	if result.SourcePlaylist != nil {
		r.writePlain("Source: %s (%d tracks)\n", result.SourcePlaylist.Playlist.Name, result.TotalTracks)
	}
	if result.DestPlaylist != nil {
		r.writePlain("Destination: %s (ID: %s)\n", result.DestPlaylist.Name, result.DestPlaylist.ID)
	}
	r.writePlain("Success rate: %d/%d (%.1f%%)\n", result.SuccessCount, result.TotalTracks, result.MatchPercentage)

	if result.FailedCount > 0 {
		r.writePlain("\nFailed to match %d tracks:\n", result.FailedCount)
		for _, match := range result.TrackMatches {
			if match.Error != nil {
				r.writePlain("  - %s - %s\n", match.Original.Artist, match.Original.Title)
			}
		}
	}
}

// printIncomplete reports a destination playlist that exists despite a failed transfer.
func (r *Runner) printIncomplete(result *tasks.TransferRunResult) {
	if result == nil || result.DestPlaylist == nil {
		return
	}
	r.writePlain("Playlist %s (ID: %s) was created but is incomplete\n", result.DestPlaylist.Name, result.DestPlaylist.ID)
}

// PlaylistCopy duplicates a playlist, found by ID, URI or exact name.
func (r *Runner) PlaylistCopy(ctx context.Context, cmd *cli.Command) error {
	source := cmd.StringArg("source")
	if source == "" {
		return fmt.Errorf("%w: source playlist", shared.ErrMissingArgument)
	}

	r.logger.Info("copying playlist", "source", source, "name", cmd.String("name"))
	printer := r.printTransferProgress
	if cmd.Bool("json") {
		printer = func(tasks.ProgressUpdate) {}
	}

	progress, stop := r.progress(printer)
	result, err := r.engine.Copy(ctx, progress, source, cmd.String("name"))
	stop()
	if err != nil {
		r.printIncomplete(result)
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(newTransferSummary(result), true)
	}
	r.printTransferResult("Copy Complete!", result)
	return nil
}

// PlaylistImport recreates a playlist from a JSON export written by 'spx export'.
func (r *Runner) PlaylistImport(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("file")
	if path == "" {
		return fmt.Errorf("%w: export file", shared.ErrMissingArgument)
	}

	export, err := formatter.ReadJSONExport(path)
	if err != nil {
		return err
	}

	r.logger.Info("importing playlist", "file", path, "tracks", len(export.Tracks))
	printer := r.printTransferProgress
	if cmd.Bool("json") {
		printer = func(tasks.ProgressUpdate) {}
	}

	progress, stop := r.progress(printer)
	result, err := r.engine.Restore(ctx, progress, export, cmd.String("name"))
	stop()
	if err != nil {
		r.printIncomplete(result)
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(newTransferSummary(result), true)
	}
	r.printTransferResult("Import Complete!", result)
	return nil
}

type diffSummary struct {
	Source  string         `json:"source"`
	Dest    string         `json:"dest"`
	Matched int            `json:"matched"`
	Missing []models.Track `json:"missing_in_dest"`
	Extra   []models.Track `json:"extra_in_dest"`
}

// PlaylistDiff compares the tracks of two playlists.
func (r *Runner) PlaylistDiff(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) != 2 {
		return fmt.Errorf("%w: expected <source> <dest>", shared.ErrMissingArgument)
	}
	sourceID, err := services.ResolveID(args[0], services.KindPlaylist)
	if err != nil {
		return err
	}
	destID, err := services.ResolveID(args[1], services.KindPlaylist)
	if err != nil {
		return err
	}

	r.logger.Info("playlist diff requested", "source", sourceID, "dest", destID)
	useJSON := cmd.Bool("json")
	if !useJSON {
		r.writePlain("Comparing playlists...\n\n")
	}

	progress, stop := r.progress(func(u tasks.ProgressUpdate) {
		if !useJSON {
			r.writePlain("📥 %s\n", u.Message)
		}
	})
	result, err := r.engine.Diff(ctx, progress, sourceID, destID)
	stop()
	if err != nil {
		return err
	}

	c := result.Comparison
	if useJSON {
		return r.writeJSON(diffSummary{
			Source:  c.SourcePlaylist.Playlist.Name,
			Dest:    c.DestPlaylist.Playlist.Name,
			Matched: c.MatchedCount,
			Missing: c.MissingInDest,
			Extra:   c.ExtraInDest,
		}, true)
	}

	r.writePlain("\n✓ Source: %s (%d tracks)\n", c.SourcePlaylist.Playlist.Name, len(c.SourcePlaylist.Tracks))
	r.writePlain("✓ Destination: %s (%d tracks)\n\n", c.DestPlaylist.Playlist.Name, len(c.DestPlaylist.Tracks))

	r.writePlainHeader("Comparison Results")
	r.writePlain("Matched: %d tracks\n", c.MatchedCount)
	r.writePlain("Missing from destination: %d tracks\n", len(c.MissingInDest))
	r.writePlain("Extra in destination: %d tracks\n\n", len(c.ExtraInDest))

	r.printTrackList("Missing from destination:", c.MissingInDest)
	r.printTrackList("Extra in destination (not in source):", c.ExtraInDest)
	return nil
}

func (r *Runner) printTrackList(title string, tracks []models.Track) {
	if len(tracks) == 0 {
		return
	}
	r.writePlain("%s\n", title)
	for i, track := range tracks {
		r.writePlain("  %d. %s - %s", i+1, track.Artist, track.Title)
		if track.Album != "" {
			r.writePlain(" (%s)", track.Album)
		}
		r.writePlain("\n")
	}
	r.writePlain("\n")
}
