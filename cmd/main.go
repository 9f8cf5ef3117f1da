package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/spx/internal/auth"
	"github.com/desertthunder/spx/internal/repositories"
	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
)

const configEnv = "SPX_CONFIG"

func defaultConfigPath() string {
	if p := os.Getenv(configEnv); p != "" {
		return p
	}
	return "config.toml"
}

// loadConfig reads configPath, falling back to defaults when it is missing or unreadable.
func loadConfig(configPath string, logger *log.Logger) *shared.Config {
	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loaded, err := shared.LoadConfig(configPath); err == nil {
			config = loaded
		} else {
			logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
	}
	if err := shared.SetLogLevel(logger, config.Log.Level); err != nil {
		logger.Warn("ignoring log level", "error", err)
	}
	return config
}

func main() {
	logger := shared.NewLogger(nil)
	closeFn := func() {}

	runner := NewRunner(RunnerOpts{Logger: logger})
	app := runner.app(func(ctx context.Context, configPath string) (RunnerOpts, error) {
		opts, closeDB := wire(ctx, configPath, loadConfig(configPath, logger), logger)
		closeFn = closeDB
		return opts, nil
	})

	err := app.Run(context.Background(), os.Args)
	closeFn()
	os.Exit(exitCode(err, logger))
}

// exitCode maps a command error to the process status. Unimplemented commands exit 0.
func exitCode(err error, logger *log.Logger) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, shared.ErrNotImplemented):
		logger.Warn("not implemented")
		return 0
	default:
		logger.Error("application error", "error", err)
		return 1
	}
}

// wire builds the runner dependencies from config. Without a usable database
// the session lives in memory only and export history is unavailable.
func wire(ctx context.Context, configPath string, config *shared.Config, logger *log.Logger) (RunnerOpts, func()) {
	httpClient := &http.Client{Timeout: config.API.Timeout()}
	opts := RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		HTTPClient: httpClient,
		Logger:     logger,
		Output:     os.Stdout,
	}
	closeFn := func() {}

	managerOpts := []auth.Option{
		auth.WithHTTPClient(httpClient),
		auth.WithRefreshMargin(config.Auth.RefreshMargin()),
		auth.WithLogger(shared.WithLogger(logger, "component", "auth")),
	}

	if db, err := shared.NewDatabase(config.Database.Path); err != nil {
		logger.Warn("database unavailable, session will not persist", "error", err)
	} else if err := shared.RunMigrations(db); err != nil {
		logger.Warn("failed to run migrations, session will not persist", "error", err)
		db.Close()
	} else {
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		opts.Store = repositories.NewCredentialStore(repositories.NewSessionRepository(db), config.Auth.Profile)
		opts.Exports = repositories.NewExportRepository(db)
		managerOpts = append(managerOpts, auth.WithStore(opts.Store))
		closeFn = func() { db.Close() }
	}

	spotify := config.Credentials.Spotify
	manager := auth.NewManager(
		auth.NewConfig(spotify.ClientID, spotify.ClientSecret, spotify.RedirectURI, spotify.Scopes,
			config.API.AuthorizeURL(), config.API.TokenURL()),
		managerOpts...,
	)
	if err := manager.Restore(ctx); err != nil {
		logger.Warn("failed to restore session", "error", err)
	}
	opts.Auth = manager

	opts.Spotify = services.NewSpotifyService(manager, services.SpotifyOptions{
		BaseURL:    config.API.BaseURL,
		Market:     config.API.Market,
		Locale:     config.API.Locale,
		HTTPClient: httpClient,
		Logger:     shared.WithLogger(logger, "component", "spotify"),
		CacheSize:  config.API.CacheSize,
		CacheTTL:   config.API.CacheTTL(),
	})
	opts.API = services.NewAPIService(manager, config.API.BaseURL, httpClient)

	return opts, closeFn
}
