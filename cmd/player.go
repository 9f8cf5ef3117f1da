package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/shared"
)

// PlayerPlay starts playback of a track or a context (album, playlist, artist, show).
func (r *Runner) PlayerPlay(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}
	arg := cmd.StringArg("uri")
	if arg == "" {
		return fmt.Errorf("%w: uri", shared.ErrMissingArgument)
	}
	ref, err := services.ParseRef(arg, services.KindTrack)
	if err != nil {
		return err
	}

	if err := r.spotify.Play(ctx, ref.URI(), cmd.String("device")); err != nil {
		return err
	}
	return r.writePlain("▶ Playing %s\n", ref.URI())
}

// PlayerPause pauses playback.
func (r *Runner) PlayerPause(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}
	if err := r.spotify.Pause(ctx, cmd.String("device")); err != nil {
		return err
	}
	return r.writePlain("⏸ Paused\n")
}

// PlayerResume resumes playback.
func (r *Runner) PlayerResume(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}
	if err := r.spotify.Resume(ctx, cmd.String("device")); err != nil {
		return err
	}
	return r.writePlain("▶ Resumed\n")
}

// PlayerDevices lists Spotify Connect devices.
func (r *Runner) PlayerDevices(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}

	devices, err := r.spotify.Devices(ctx)
	if err != nil {
		return err
	}
	if ok, err := r.outputJSON(cmd, devices); ok {
		return err
	}

	if len(devices) == 0 {
		return r.writePlain("No devices found. Open Spotify on a phone, computer or speaker.\n")
	}
	for _, d := range devices {
		active := " "
		if d.IsActive {
			active = "*"
		}
		r.writePlain("%s %s (%s)\n", active, d.Name, d.Type)
		r.writePlain("  ID: %s\n", d.ID)
	}
	return nil
}
