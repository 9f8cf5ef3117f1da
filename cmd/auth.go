package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spx/internal/server"
	"github.com/desertthunder/spx/internal/shared"
)

type authStatus struct {
	Profile     string     `json:"profile"`
	State       string     `json:"state"`
	UserID      string     `json:"user_id,omitempty"`
	DisplayName string     `json:"display_name,omitempty"`
	Scope       string     `json:"scope,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Refreshable bool       `json:"refreshable"`
	Persisted   bool       `json:"persisted"`
}

func (r *Runner) requireAuth() error {
	if r.auth == nil {
		return fmt.Errorf("%w: token manager not initialized", shared.ErrMissingConfig)
	}
	return nil
}

// AuthLogin runs the authorization code flow through a temporary callback server.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Validate(); err != nil {
		return fmt.Errorf("%w (run 'spx setup config')", err)
	}
	if err := r.requireAuth(); err != nil {
		return err
	}

	state, err := shared.GenerateState()
	if err != nil {
		return err
	}

	srv, err := newCallbackServer(r.config.Credentials.Spotify, r.auth, state, r.logger)
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}

	authURL := r.auth.AuthURL(state)
	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL to authorize spx:\n\n%s\n\n", authURL)
	} else if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser", "error", err)
		r.writePlain("Open this URL to authorize spx:\n\n%s\n\n", authURL)
	}

	r.writePlain("Waiting for authorization on %s...\n", srv.Addr())
	if err := srv.Wait(ctx, server.LoginTimeout); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	r.logger.Info("authentication successful")

	if err := r.requireSpotify(); err != nil {
		return r.writePlain("✓ Authentication successful\n")
	}
	user, err := r.spotify.UserProfile(ctx)
	if err != nil {
		r.logger.Warn("failed to fetch profile", "error", err)
		return r.writePlain("✓ Authentication successful\n")
	}
	if r.store != nil {
		if err := r.store.SetProfile(user.ID, user.DisplayName); err != nil {
			r.logger.Warn("failed to save profile", "error", err)
		}
	}
	return r.writePlain("✓ Signed in as %s (%s)\n", displayName(user.DisplayName, user.ID), user.ID)
}

// AuthStatus reports the session state without touching the network.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	status := authStatus{
		Profile:   r.config.Auth.Profile,
		State:     r.auth.State().String(),
		Persisted: r.store != nil,
	}
	if cred, ok := r.auth.Current(); ok {
		status.Scope = cred.Scope
		status.Refreshable = cred.RefreshToken != ""
		if !cred.ExpiresAt.IsZero() {
			expires := cred.ExpiresAt
			status.ExpiresAt = &expires
		}
	}
	if r.store != nil {
		if session, err := r.store.Session(); err == nil {
			status.UserID = session.UserID()
			status.DisplayName = session.DisplayName()
		}
	}

	if ok, err := r.outputJSON(cmd, status); ok {
		return err
	}

	r.writePlain("Profile: %s\n", status.Profile)
	if status.State == "idle" {
		return r.writePlain("Status:  ✗ Not signed in (run 'spx auth login')\n")
	}
	r.writePlain("Status:  ✓ %s\n", status.State)
	if status.UserID != "" {
		r.writePlain("User:    %s (%s)\n", displayName(status.DisplayName, status.UserID), status.UserID)
	}
	if status.ExpiresAt != nil {
		r.writePlain("Expires: %s\n", status.ExpiresAt.Local().Format(time.RFC1123))
	}
	if status.Scope != "" {
		r.writePlain("Scopes:  %s\n", strings.ReplaceAll(status.Scope, " ", ", "))
	}
	if !status.Persisted {
		r.writePlain("Session is not persisted (database unavailable)\n")
	}
	return nil
}

// AuthLogout clears the credential from memory and the store.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}
	r.auth.Clear(ctx)
	r.logger.Info("signed out", "profile", r.config.Auth.Profile)
	return r.writePlain("✓ Signed out\n")
}

// AuthToken prints an access token, renewing it first when it is about to expire.
func (r *Runner) AuthToken(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}
	header, err := r.auth.BearerHeader(ctx)
	if err != nil {
		return err
	}
	_, token, _ := strings.Cut(header, " ")
	return r.writePlain("%s\n", token)
}

// newCallbackServer listens on the host and port of the configured redirect
// URI and serves its path, so the browser lands where the accounts service
// sends it.
func newCallbackServer(spotify shared.SpotifyConfig, exchanger server.Exchanger, state string, logger *log.Logger) (*server.CallbackServer, error) {
	addr, path, err := spotify.Callback()
	if err != nil {
		return nil, err
	}
	return server.NewCallbackServer(addr, server.NewOAuthHandler(exchanger, state, path), logger), nil
}

func displayName(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
