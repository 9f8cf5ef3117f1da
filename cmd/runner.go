package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spx/internal/auth"
	"github.com/desertthunder/spx/internal/repositories"
	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
	"github.com/desertthunder/spx/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	auth       *auth.Manager
	store      *repositories.CredentialStore
	exports    *repositories.ExportRepository
	spotify    *services.SpotifyService
	api        *services.APIService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	engine     *tasks.PlaylistEngine
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Store and Exports are nil when no database is available; commands that
// need them report [shared.ErrMissingConfig].
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Auth       *auth.Manager
	Store      *repositories.CredentialStore
	Exports    *repositories.ExportRepository
	Spotify    *services.SpotifyService
	API        *services.APIService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	r := &Runner{}
	r.configure(opts)
	return r
}

// configure replaces every dependency, filling in defaults for the missing ones.
func (r *Runner) configure(opts RunnerOpts) {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	*r = Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		auth:       opts.Auth,
		store:      opts.Store,
		exports:    opts.Exports,
		spotify:    opts.Spotify,
		api:        opts.API,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
	r.engine = r.newEngine()
}

// Loader builds the runner's dependencies from the config file chosen with
// --config, $SPX_CONFIG or the default path.
type Loader func(ctx context.Context, configPath string) (RunnerOpts, error)

// app returns the root command. With a non-nil load the runner is rewired
// before any subcommand runs.
func (r *Runner) app(load Loader) *cli.Command {
	return &cli.Command{
		Name:    "spx",
		Usage:   "Browse, play and export your Spotify library from the terminal",
		Version: "0.1.0",
		Flags:   []cli.Flag{configFlag()},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if load == nil {
				return ctx, nil
			}
			opts, err := load(ctx, cmd.String("config"))
			if err != nil {
				return ctx, err
			}
			r.configure(opts)
			return ctx, nil
		},
		Commands: r.register(),
	}
}

func (r *Runner) newEngine() *tasks.PlaylistEngine {
	var service services.Service
	if r.spotify != nil {
		service = r.spotify
	}
	var api tasks.APIClient
	if r.api != nil {
		api = r.api
	}

	opts := []tasks.EngineOption{tasks.WithLogger(r.logger)}
	if r.exports != nil && r.store != nil {
		if session, err := r.store.Session(); err == nil {
			opts = append(opts, tasks.WithRecorder(r.exports, session.ID()))
		}
	}
	return tasks.NewPlaylistEngine(service, api, opts...)
}

// SetLogger replaces the logger, including the ones used by the engine and the Web API client.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	if r.spotify != nil {
		r.spotify.SetLogger(shared.WithLogger(l, "component", "spotify"))
	}
	r.engine = r.newEngine()
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, meCommand, topCommand, libraryCommand, browseCommand, searchCommand,
		albumCommand, artistCommand, playlistCommand, trackCommand, showCommand, audiobookCommand,
		showsCommand, recommendCommand, playerCommand, apiCommand, exportCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// requireSpotify reports whether the Web API client is usable.
func (r *Runner) requireSpotify() error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify client not initialized", shared.ErrNotAuthenticated)
	}
	return nil
}

// outputJSON writes data as JSON when --json or --pretty is set and reports
// whether it did. Callers fall back to plain text otherwise.
func (r *Runner) outputJSON(cmd *cli.Command, data any) (bool, error) {
	if !cmd.Bool("json") && !cmd.Bool("pretty") {
		return false, nil
	}
	return true, r.writeJSON(data, cmd.Bool("pretty"))
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// progress prints engine updates until the returned stop function is called.
// stop waits for the printer so no output interleaves with the summary.
func (r *Runner) progress(print func(tasks.ProgressUpdate)) (chan<- tasks.ProgressUpdate, func()) {
	ch := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range ch {
			print(update)
		}
	}()
	return ch, func() {
		close(ch)
		<-done
	}
}

// jsonFlags are shared by every command that can print raw API objects.
func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
		&cli.BoolFlag{Name: "pretty", Usage: "Output indented JSON"},
	}
}

func pageFlags(limit int) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum number of items (1-50)", Value: limit},
		&cli.IntFlag{Name: "offset", Usage: "Index of the first item"},
	}
}

func withFlags(groups ...[]cli.Flag) []cli.Flag {
	var flags []cli.Flag
	for _, g := range groups {
		flags = append(flags, g...)
	}
	return flags
}
