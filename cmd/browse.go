package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
)

// BrowseNewReleases lists new album releases.
func (r *Runner) BrowseNewReleases(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}

	page, err := r.spotify.NewReleases(ctx, cmd.Int("limit"), cmd.Int("offset"))
	if err != nil {
		return err
	}
	if ok, err := r.outputJSON(cmd, page); ok {
		return err
	}

	r.writePlain("New releases:\n\n")
	r.printAlbums(page.Items)
	r.printPaging(page.Total, page.Offset, len(page.Items))
	return nil
}

// BrowseFeatured lists featured playlists with their headline.
func (r *Runner) BrowseFeatured(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}

	featured, err := r.spotify.Featured(ctx, cmd.Int("limit"), cmd.Int("offset"))
	if err != nil {
		return err
	}
	if ok, err := r.outputJSON(cmd, featured); ok {
		return err
	}

	if featured.Message != "" {
		r.writePlainHeader(featured.Message)
	}
	if featured.Playlists != nil {
		r.printPlaylists(featured.Playlists.Items)
	}
	return nil
}

// BrowseCategories lists browse categories.
func (r *Runner) BrowseCategories(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}

	page, err := r.spotify.Categories(ctx, cmd.Int("limit"), cmd.Int("offset"))
	if err != nil {
		return err
	}
	if ok, err := r.outputJSON(cmd, page); ok {
		return err
	}

	r.writePlain("Categories:\n\n")
	for i, c := range page.Items {
		r.writePlain("%d. %s (%s)\n", page.Offset+i+1, c.Name, c.ID)
	}
	r.printPaging(page.Total, page.Offset, len(page.Items))
	return nil
}

type categoryView struct {
	Category  *services.Category                      `json:"category"`
	Playlists *services.Page[services.SimplePlaylist] `json:"playlists"`
}

// BrowseCategory prints a category and its playlists.
func (r *Runner) BrowseCategory(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: category id", shared.ErrMissingArgument)
	}

	view := categoryView{}
	var err error
	if view.Category, err = r.spotify.Category(ctx, id); err != nil {
		return err
	}
	if view.Playlists, err = r.spotify.CategoryPlaylists(ctx, id, cmd.Int("limit"), cmd.Int("offset")); err != nil {
		return err
	}
	if ok, err := r.outputJSON(cmd, view); ok {
		return err
	}

	r.writePlainHeader(view.Category.Name)
	r.printPlaylists(view.Playlists.Items)
	r.printPaging(view.Playlists.Total, view.Playlists.Offset, len(view.Playlists.Items))
	return nil
}

// Search queries the catalog for each kind in --type and prints the results grouped by kind.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}

	query := cmd.StringArg("query")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	var kinds []services.SearchType
	for field := range strings.SplitSeq(cmd.String("type"), ",") {
		if strings.TrimSpace(field) == "" {
			continue
		}
		kind, err := services.ParseSearchType(field)
		if err != nil {
			return err
		}
		kinds = append(kinds, kind)
	}

	r.logger.Info("searching", "query", query, "types", kinds)

	resp, err := r.spotify.Search(ctx, query, kinds, services.SearchOptions{
		Limit:           cmd.Int("limit"),
		Offset:          cmd.Int("offset"),
		IncludeExternal: cmd.Bool("include-external"),
	})
	if err != nil {
		return err
	}
	if len(kinds) == 0 {
		kinds = []services.SearchType{services.SearchTrack}
	}

	results := make([]*services.SearchResult, 0, len(kinds))
	for _, kind := range kinds {
		result, err := resp.Result(kind)
		if err != nil {
			return err
		}
		results = append(results, result)
	}
	if ok, err := r.outputJSON(cmd, results); ok {
		return err
	}

	for _, result := range results {
		r.writePlainln("%ss (%d of %d):", strings.ToUpper(string(result.Kind[:1]))+string(result.Kind[1:]), result.Len(), result.Total)
		switch result.Kind {
		case services.SearchTrack:
			r.printTracks(result.Tracks)
		case services.SearchAlbum:
			r.printAlbums(result.Albums)
		case services.SearchArtist:
			r.printArtists(result.Artists)
		case services.SearchPlaylist:
			r.printPlaylists(result.Playlists)
		case services.SearchShow:
			r.printShows(result.Shows)
		case services.SearchAudiobook:
			for i, b := range result.Audiobooks {
				r.writePlain("%d. %s (%s)\n   ID: %s\n", i+1, b.Name, b.Publisher, b.ID)
			}
		}
	}
	return nil
}
