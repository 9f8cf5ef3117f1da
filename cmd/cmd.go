// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// configFlag is set on the root command and is visible to every subcommand.
func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   defaultConfigPath(),
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file and initialize the database",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create the database and run migrations",
				Flags:  []cli.Flag{&cli.BoolFlag{Name: "rollback", Usage: "Roll back the latest migration"}},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write config.toml, optionally filling in application credentials",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "client-id", Usage: "Spotify application client ID"},
					&cli.StringFlag{Name: "client-secret", Usage: "Spotify application client secret"},
					&cli.StringFlag{Name: "redirect-uri", Usage: "Redirect URI registered for the application"},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the Spotify session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in through the browser",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "no-browser", Usage: "Print the authorization URL instead of opening it"},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show the session state",
				Flags:  jsonFlags(),
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored credential",
				Action: r.AuthLogout,
			},
			{
				Name:   "token",
				Usage:  "Print a valid access token, renewing it if needed",
				Action: r.AuthToken,
			},
		},
	}
}

func meCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "me",
		Usage:  "Show the current user's profile",
		Flags:  jsonFlags(),
		Action: r.Me,
	}
}

func topCommand(r *Runner) *cli.Command {
	flags := func() []cli.Flag {
		return withFlags(jsonFlags(), []cli.Flag{
			&cli.StringFlag{
				Name:    "time-range",
				Aliases: []string{"t"},
				Usage:   "short_term, medium_term or long_term",
				Value:   "medium_term",
			},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum number of items (1-50)", Value: 20},
		})
	}
	return &cli.Command{
		Name:  "top",
		Usage: "Show the user's top artists and tracks",
		Commands: []*cli.Command{
			{Name: "artists", Usage: "Top artists", Flags: flags(), Action: r.TopArtists},
			{Name: "tracks", Usage: "Top tracks", Flags: flags(), Action: r.TopTracks},
		},
	}
}

func libraryCommand(r *Runner) *cli.Command {
	paged := func() []cli.Flag { return withFlags(jsonFlags(), pageFlags(50)) }
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Browse the saved library",
		Commands: []*cli.Command{
			{Name: "playlists", Usage: "Playlists owned or followed", Flags: paged(), Action: r.LibraryPlaylists},
			{Name: "albums", Usage: "Saved albums", Flags: paged(), Action: r.LibraryAlbums},
			{Name: "tracks", Usage: "Liked songs", Flags: paged(), Action: r.LibraryTracks},
			{Name: "shows", Usage: "Followed podcasts", Flags: paged(), Action: r.LibraryShows},
			{
				Name:  "recent",
				Usage: "Recently played tracks",
				Flags: withFlags(jsonFlags(), []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum number of items (1-50)", Value: 20},
				}),
				Action: r.LibraryRecent,
			},
			{
				Name:  "dump",
				Usage: "Fetch the raw JSON of the whole library",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output", Value: true},
					&cli.StringFlag{Name: "save", Usage: "Also write the dump to this file"},
				},
				Action: r.LibraryDump,
			},
		},
	}
}

func browseCommand(r *Runner) *cli.Command {
	paged := func() []cli.Flag { return withFlags(jsonFlags(), pageFlags(20)) }
	return &cli.Command{
		Name:  "browse",
		Usage: "Editorial content",
		Commands: []*cli.Command{
			{Name: "new-releases", Usage: "New album releases", Flags: paged(), Action: r.BrowseNewReleases},
			{Name: "featured", Usage: "Featured playlists", Flags: paged(), Action: r.BrowseFeatured},
			{Name: "categories", Usage: "Browse categories", Flags: paged(), Action: r.BrowseCategories},
			{
				Name:      "category",
				Usage:     "A category and its playlists",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     paged(),
				Action:    r.BrowseCategory,
			},
		},
	}
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the catalog",
		Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
		Flags: withFlags(jsonFlags(), pageFlags(10), []cli.Flag{
			&cli.StringFlag{
				Name:  "type",
				Usage: "Comma-separated kinds: track, album, artist, playlist, show, audiobook",
				Value: "track",
			},
			&cli.BoolFlag{Name: "include-external", Usage: "Include externally hosted audio"},
		}),
		Action: r.Search,
	}
}

func albumCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "album",
		Usage:     "Show an album and its tracks",
		Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
		Flags:     jsonFlags(),
		Action:    r.Album,
	}
}

func artistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "artist",
		Usage:     "Show an artist",
		Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
		Flags: withFlags(jsonFlags(), []cli.Flag{
			&cli.BoolFlag{Name: "top", Usage: "Include top tracks"},
			&cli.BoolFlag{Name: "albums", Usage: "Include albums and singles"},
		}),
		Action: r.Artist,
	}
}

func trackCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "track",
		Usage:     "Show one or more tracks",
		ArgsUsage: "<id-or-uri>...",
		Flags:     jsonFlags(),
		Action:    r.Track,
	}
}

func showCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a podcast",
		Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
		Flags: withFlags(jsonFlags(), pageFlags(20), []cli.Flag{
			&cli.BoolFlag{Name: "episodes", Usage: "List episodes"},
		}),
		Action: r.Show,
	}
}

func audiobookCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "audiobook",
		Usage:     "Show an audiobook",
		Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
		Flags: withFlags(jsonFlags(), pageFlags(20), []cli.Flag{
			&cli.BoolFlag{Name: "chapters", Usage: "List chapters"},
		}),
		Action: r.Audiobook,
	}
}

func showsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "shows",
		Usage: "Follow and unfollow podcasts",
		Commands: []*cli.Command{
			{Name: "save", Usage: "Follow shows", ArgsUsage: "<id-or-uri>...", Action: r.ShowsSave},
			{Name: "remove", Usage: "Unfollow shows", ArgsUsage: "<id-or-uri>...", Action: r.ShowsRemove},
			{Name: "check", Usage: "Check whether shows are followed", ArgsUsage: "<id-or-uri>...", Flags: jsonFlags(), Action: r.ShowsCheck},
		},
	}
}

func recommendCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "recommend",
		Usage: "Recommendations from seed artists and tracks",
		Flags: withFlags(jsonFlags(), []cli.Flag{
			&cli.StringSliceFlag{Name: "seed-artists", Usage: "Seed artist IDs or URIs"},
			&cli.StringSliceFlag{Name: "seed-tracks", Usage: "Seed track IDs or URIs"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum number of tracks (1-50)", Value: 20},
		}),
		Action: r.Recommend,
	}
}

func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "playlist",
		Aliases:   []string{"pl"},
		Usage:     "Show and manage playlists",
		Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
		Flags:     withFlags(jsonFlags(), pageFlags(50)),
		Action:    r.Playlist,
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags: withFlags(jsonFlags(), []cli.Flag{
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Playlist description"},
					&cli.BoolFlag{Name: "public", Usage: "Make the playlist public"},
					&cli.BoolFlag{Name: "collaborative", Usage: "Make the playlist collaborative"},
				}),
				Action: r.PlaylistCreate,
			},
			{
				Name:      "add",
				Usage:     "Add tracks to a playlist",
				ArgsUsage: "<playlist> <track>...",
				Action:    r.PlaylistAdd,
			},
			{
				Name:      "copy",
				Usage:     "Duplicate a playlist by ID or name",
				Arguments: []cli.Argument{&cli.StringArg{Name: "source"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Name of the new playlist"},
					&cli.BoolFlag{Name: "json", Usage: "Output the result as JSON"},
				},
				Action: r.PlaylistCopy,
			},
			{
				Name:      "import",
				Usage:     "Recreate a playlist from a JSON export",
				Arguments: []cli.Argument{&cli.StringArg{Name: "file"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Name of the new playlist"},
					&cli.BoolFlag{Name: "json", Usage: "Output the result as JSON"},
				},
				Action: r.PlaylistImport,
			},
			{
				Name:      "diff",
				Usage:     "Compare the tracks of two playlists",
				ArgsUsage: "<source> <dest>",
				Flags:     []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "Output the result as JSON"}},
				Action:    r.PlaylistDiff,
			},
		},
	}
}

func playerCommand(r *Runner) *cli.Command {
	device := func() cli.Flag {
		return &cli.StringFlag{Name: "device", Aliases: []string{"d"}, Usage: "Target device ID"}
	}
	return &cli.Command{
		Name:  "player",
		Usage: "Control playback on a Spotify Connect device",
		Commands: []*cli.Command{
			{
				Name:      "play",
				Usage:     "Play a track, album, playlist, artist or show",
				Arguments: []cli.Argument{&cli.StringArg{Name: "uri"}},
				Flags:     []cli.Flag{device()},
				Action:    r.PlayerPlay,
			},
			{Name: "pause", Usage: "Pause playback", Flags: []cli.Flag{device()}, Action: r.PlayerPause},
			{Name: "resume", Usage: "Resume playback", Flags: []cli.Flag{device()}, Action: r.PlayerResume},
			{Name: "devices", Usage: "List available devices", Flags: jsonFlags(), Action: r.PlayerDevices},
		},
	}
}

func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export playlists to disk (all playlists when no IDs are given)",
		ArgsUsage: "[playlist-id...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "json, csv, md or txt", Value: "json"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory"},
			&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "Concurrent exports (max 10)", Value: 5},
			&cli.FloatFlag{Name: "rate", Usage: "API requests per second", Value: 5},
			&cli.BoolFlag{Name: "covers", Usage: "Download cover images for Markdown exports"},
		},
		Action: r.Export,
		Commands: []*cli.Command{
			{
				Name:   "history",
				Usage:  "List previous export runs",
				Flags:  jsonFlags(),
				Action: r.ExportHistory,
			},
		},
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Browse playlists in an interactive terminal UI",
		Action: r.TUI,
	}
}
